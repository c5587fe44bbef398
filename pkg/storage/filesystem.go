package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage persists certificates and uploaded documents under a base
// directory.
type LocalStorage struct {
	baseDir   string
	publicURL string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// publicURL is the URL prefix files are served from, e.g. "/certificates".
func NewLocalStorage(baseDir, publicURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./certificates"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Save writes the given bytes to the relative path under the base dir.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	target, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	target, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Exists reports whether name is present.
func (s *LocalStorage) Exists(name string) bool {
	target, err := s.resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(name string) error {
	target, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored file.
func (s *LocalStorage) URL(name string) string {
	return s.publicURL + "/" + filepath.ToSlash(name)
}

// Upload stores the payload on disk. It lets LocalStorage stand in for the
// cloud uploader when no cloud credentials are configured.
func (s *LocalStorage) Upload(_ context.Context, input UploadInput, r io.Reader) (*UploadResult, error) {
	buf := &bytes.Buffer{}
	size, err := io.Copy(buf, r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(input.Filename)), ".")
	name := path.Join(input.Folder, input.PublicID)
	if ext != "" {
		name += "." + ext
	}
	if _, err := s.Save(name, buf.Bytes()); err != nil {
		return nil, err
	}
	return &UploadResult{
		URL:          s.URL(name),
		PublicID:     path.Join(input.Folder, input.PublicID),
		ResourceType: input.ResourceType,
		Format:       ext,
		Bytes:        size,
	}, nil
}

func (s *LocalStorage) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage path %q", name)
	}
	return filepath.Join(s.baseDir, clean), nil
}
