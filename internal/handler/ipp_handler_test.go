package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type fakeIPPService struct {
	ippService
	created     bool
	evaluation  *dto.CompanyEvaluationRequest
	evaluatedID string
	upload      *service.IPPUpload
	uploadBytes []byte
	download    *service.CertificateDownload
	downloadErr error
	signedToken string
}

func (f *fakeIPPService) Create(context.Context, *models.CurrentUser, dto.CreateIPPRequest) (*dto.CreateIPPResponse, error) {
	return &dto.CreateIPPResponse{IPPID: "IPP-1", Created: f.created}, nil
}

func (f *fakeIPPService) SubmitCompanyEvaluation(_ context.Context, ippID string, req dto.CompanyEvaluationRequest) (*models.IPP, error) {
	f.evaluatedID = ippID
	f.evaluation = &req
	return &models.IPP{IPPID: ippID}, nil
}

func (f *fakeIPPService) UploadDocument(_ context.Context, _ *models.CurrentUser, _ string, upload service.IPPUpload) (*dto.IPPDocumentResponse, error) {
	f.upload = &upload
	f.uploadBytes, _ = io.ReadAll(upload.Content)
	return &dto.IPPDocumentResponse{}, nil
}

func (f *fakeIPPService) OpenSignedCertificate(_ context.Context, token string) (*service.CertificateDownload, error) {
	f.signedToken = token
	return f.download, f.downloadErr
}

func TestIPPHandlerCreateStatusReflectsCreation(t *testing.T) {
	for _, tc := range []struct {
		created bool
		status  int
	}{{true, http.StatusCreated}, {false, http.StatusOK}} {
		h := NewIPPHandler(&fakeIPPService{created: tc.created})
		c, rec := newTestContext(http.MethodPost, "/ipp/create", map[string]string{"internshipId": "INT001"})
		asUser(c, "STU001", models.RoleStudent)

		h.Create(c)

		assert.Equal(t, tc.status, rec.Code)
	}
}

func TestIPPHandlerCompanyEvaluationTakesTokenFromQuery(t *testing.T) {
	svc := &fakeIPPService{}
	h := NewIPPHandler(svc)
	c, rec := newTestContext(http.MethodPut, "/ipp/IPP-1/company-evaluation?token=magic", map[string]interface{}{
		"evaluation": map[string]interface{}{"mentorName": "Ravi", "overallPerformance": "Excellent"},
	})
	c.Params = gin.Params{{Key: "id", Value: "IPP-1"}}

	h.SubmitCompanyEvaluation(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.evaluation)
	assert.Equal(t, "magic", svc.evaluation.Token)
	assert.Equal(t, "IPP-1", svc.evaluatedID)
	assert.Equal(t, "Ravi", svc.evaluation.Evaluation.MentorName)
}

func TestIPPHandlerUploadRequiresFile(t *testing.T) {
	h := NewIPPHandler(&fakeIPPService{})
	c, rec := newTestContext(http.MethodPost, "/ipp/IPP-1/upload-document", nil)
	asUser(c, "STU001", models.RoleStudent)

	h.UploadDocument(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env responseEnvelope
	decode(t, rec, &env)
	assert.Equal(t, "No file uploaded", env.Error.Message)
}

func TestIPPHandlerUploadPassesContent(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("document", "offer.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, writer.Close())

	svc := &fakeIPPService{}
	h := NewIPPHandler(svc)
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/ipp/IPP-1/upload-document", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	c.Params = gin.Params{{Key: "id", Value: "IPP-1"}}
	asUser(c, "STU001", models.RoleStudent)

	h.UploadDocument(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.upload)
	assert.Equal(t, "offer.pdf", svc.upload.Filename)
	assert.Equal(t, "%PDF-1.4 test", string(svc.uploadBytes))
}

func TestIPPHandlerSignedCertificateStreamsPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CERT-1.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-certificate"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	svc := &fakeIPPService{download: &service.CertificateDownload{File: file, Filename: "CERT-1.pdf", SizeBytes: 16}}
	h := NewIPPHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/certificates/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	h.SignedCertificate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", svc.signedToken)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "CERT-1.pdf")
	assert.Equal(t, "%PDF-certificate", rec.Body.String())
}

func TestIPPHandlerSignedCertificateExpired(t *testing.T) {
	h := NewIPPHandler(&fakeIPPService{downloadErr: appErrors.ErrTokenExpired})
	c, rec := newTestContext(http.MethodGet, "/certificates/old", nil)
	c.Params = gin.Params{{Key: "token", Value: "old"}}

	h.SignedCertificate(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
