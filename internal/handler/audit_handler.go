package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

const defaultAuditLimit = 100

type auditService interface {
	List(ctx context.Context, adminID string, limit int) ([]models.AuditLog, error)
}

// AuditHandler lists the admin audit trail.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary Admin audit trail
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param adminId query string false "Admin ID"
// @Param limit query int false "At most 500"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditLimit)))
	if err != nil || limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > 500 {
		limit = 500
	}
	entries, err := h.service.List(c.Request.Context(), c.Query("adminId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
