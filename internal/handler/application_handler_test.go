package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
)

type fakeApplicationService struct {
	applicationService
	format    string
	withdrawn string
}

func (f *fakeApplicationService) Export(_ context.Context, format string) (*dto.ExportFile, error) {
	f.format = format
	return &dto.ExportFile{Filename: "applications.csv", ContentType: "text/csv", Data: []byte("id,status\nAPP001,pending\n")}, nil
}

func (f *fakeApplicationService) Withdraw(_ context.Context, _ *models.CurrentUser, id string) error {
	f.withdrawn = id
	return nil
}

func TestApplicationHandlerExportDefaultsToCSV(t *testing.T) {
	svc := &fakeApplicationService{}
	h := NewApplicationHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/applications/export", nil)
	asUser(c, "ADM001", models.RoleAdmin)

	h.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="applications.csv"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "APP001")
}

func TestApplicationHandlerWithdrawNoContent(t *testing.T) {
	svc := &fakeApplicationService{}
	h := NewApplicationHandler(svc)
	c, rec := newTestContext(http.MethodDelete, "/applications/APP002", nil)
	c.Params = gin.Params{{Key: "id", Value: "APP002"}}
	asUser(c, "STU001", models.RoleStudent)

	h.Withdraw(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "APP002", svc.withdrawn)
	_ = rec
}
