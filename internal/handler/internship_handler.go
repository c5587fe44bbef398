package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type internshipService interface {
	List(ctx context.Context, user *models.CurrentUser, query dto.InternshipQuery) ([]models.InternshipView, error)
	Get(ctx context.Context, user *models.CurrentUser, id string) (*models.InternshipView, error)
	MyPostings(ctx context.Context, user *models.CurrentUser) ([]models.Internship, error)
	Pending(ctx context.Context) ([]models.Internship, error)
	Create(ctx context.Context, admin *models.CurrentUser, req dto.InternshipPayload) (*models.Internship, error)
	Submit(ctx context.Context, recruiter *models.CurrentUser, req dto.InternshipPayload) (*models.Internship, error)
	Approve(ctx context.Context, admin *models.CurrentUser, id string, req dto.ReviewInternshipRequest) (*models.Internship, error)
	Reject(ctx context.Context, admin *models.CurrentUser, id string, req dto.ReviewInternshipRequest) (*models.Internship, error)
	Update(ctx context.Context, user *models.CurrentUser, id string, req dto.UpdateInternshipRequest) (*models.Internship, error)
	Delete(ctx context.Context, user *models.CurrentUser, id string) (*models.Internship, error)
	Stats(ctx context.Context) (models.InternshipStats, bool, error)
}

// InternshipHandler exposes posting endpoints.
type InternshipHandler struct {
	service internshipService
}

// NewInternshipHandler constructs the handler.
func NewInternshipHandler(svc internshipService) *InternshipHandler {
	return &InternshipHandler{service: svc}
}

// List godoc
// @Summary List internships
// @Description Students see active postings they are eligible for; staff may filter by status
// @Tags Internships
// @Produce json
// @Param department query string false "Department"
// @Param skills query string false "Comma separated skills"
// @Param location query string false "Location"
// @Param workMode query string false "Remote, On-site or Hybrid"
// @Param company query string false "Company"
// @Param status query string false "Status or all"
// @Param minStipend query int false "Minimum stipend"
// @Param maxStipend query int false "Maximum stipend"
// @Param recommended query bool false "Sort by skill match"
// @Success 200 {object} response.Envelope
// @Router /internships [get]
func (h *InternshipHandler) List(c *gin.Context) {
	var query dto.InternshipQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// Get godoc
// @Summary Get internship
// @Tags Internships
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /internships/{id} [get]
func (h *InternshipHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// MyPostings godoc
// @Summary Recruiter postings
// @Tags Internships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /internships/my-postings [get]
func (h *InternshipHandler) MyPostings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.MyPostings(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Pending godoc
// @Summary Submissions awaiting review
// @Tags Internships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /internships/pending [get]
func (h *InternshipHandler) Pending(c *gin.Context) {
	items, err := h.service.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create internship
// @Description Admin-created postings go live immediately
// @Tags Internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.InternshipPayload true "Posting"
// @Success 201 {object} response.Envelope
// @Router /internships [post]
func (h *InternshipHandler) Create(c *gin.Context) {
	h.write(c, func(ctx context.Context, user *models.CurrentUser, req dto.InternshipPayload) (*models.Internship, error) {
		return h.service.Create(ctx, user, req)
	})
}

// Submit godoc
// @Summary Submit internship for review
// @Tags Internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.InternshipPayload true "Posting"
// @Success 201 {object} response.Envelope
// @Router /internships/submit [post]
func (h *InternshipHandler) Submit(c *gin.Context) {
	h.write(c, func(ctx context.Context, user *models.CurrentUser, req dto.InternshipPayload) (*models.Internship, error) {
		return h.service.Submit(ctx, user, req)
	})
}

func (h *InternshipHandler) write(c *gin.Context, fn func(context.Context, *models.CurrentUser, dto.InternshipPayload) (*models.Internship, error)) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.InternshipPayload
	if !bindJSON(c, &req, "invalid internship payload") {
		return
	}
	item, err := fn(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Approve godoc
// @Summary Approve submission
// @Tags Internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Param payload body dto.ReviewInternshipRequest false "Notes"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/approve [put]
func (h *InternshipHandler) Approve(c *gin.Context) {
	h.review(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject submission
// @Tags Internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Param payload body dto.ReviewInternshipRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/reject [put]
func (h *InternshipHandler) Reject(c *gin.Context) {
	h.review(c, h.service.Reject)
}

func (h *InternshipHandler) review(c *gin.Context, fn func(context.Context, *models.CurrentUser, string, dto.ReviewInternshipRequest) (*models.Internship, error)) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.ReviewInternshipRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "invalid review payload") {
		return
	}
	item, err := fn(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Update internship
// @Tags Internships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Param payload body dto.UpdateInternshipRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /internships/{id} [put]
func (h *InternshipHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.UpdateInternshipRequest
	if !bindJSON(c, &req, "invalid internship payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete internship
// @Tags Internships
// @Produce json
// @Security BearerAuth
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id} [delete]
func (h *InternshipHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	item, err := h.service.Delete(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Internship deleted successfully", "deletedInternship": item}, nil)
}

// Stats godoc
// @Summary Internship statistics
// @Tags Internships
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /internships/stats/overview [get]
func (h *InternshipHandler) Stats(c *gin.Context) {
	stats, hit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}
