package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/pkg/config"
)

// Resource types understood by the uploaders.
const (
	ResourceRaw   = "raw"
	ResourceImage = "image"
)

// UploadInput describes where an upload should land.
type UploadInput struct {
	Folder       string
	PublicID     string
	ResourceType string
	Filename     string
}

// UploadResult is the stored asset's metadata.
type UploadResult struct {
	URL          string
	PublicID     string
	ResourceType string
	Format       string
	Bytes        int64
}

// Uploader stores user supplied files.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput, r io.Reader) (*UploadResult, error)
}

// CloudinaryUploader uploads assets to Cloudinary.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	logger *zap.Logger
}

// NewCloudinaryUploader constructs an uploader from configured credentials.
func NewCloudinaryUploader(cfg config.CloudinaryConfig, logger *zap.Logger) (*CloudinaryUploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudinaryUploader{client: cld, logger: logger.With(zap.String("component", "cloudinary"))}, nil
}

// Upload sends the reader to Cloudinary.
func (u *CloudinaryUploader) Upload(ctx context.Context, input UploadInput, r io.Reader) (*UploadResult, error) {
	params := uploader.UploadParams{
		Folder:       strings.Trim(input.Folder, "/"),
		PublicID:     input.PublicID,
		ResourceType: input.ResourceType,
	}
	result, err := u.client.Upload.Upload(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("upload asset: %s", result.Error.Message)
	}
	u.logger.Info("file uploaded", zap.String("public_id", result.PublicID))
	return &UploadResult{
		URL:          result.SecureURL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
		Format:       result.Format,
		Bytes:        int64(result.Bytes),
	}, nil
}
