package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/export"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type calendarService interface {
	Feed(ctx context.Context, user *models.CurrentUser, query dto.CalendarFeedQuery) (*models.CalendarFeed, error)
	CreateFacultyEvent(ctx context.Context, user *models.CurrentUser, req dto.CalendarEventRequest) (*models.CalendarEvent, error)
	DeleteFacultyEvent(ctx context.Context, user *models.CurrentUser, id string) error
	CreateStudentEvent(ctx context.Context, user *models.CurrentUser, req dto.CalendarEventRequest) (*models.CalendarEvent, error)
	DeleteStudentEvent(ctx context.Context, user *models.CurrentUser, id string) error
	Summary(ctx context.Context, user *models.CurrentUser) (*models.CalendarSummary, error)
	SaveAvailability(ctx context.Context, user *models.CurrentUser, req dto.AvailabilityRequest) (*models.Availability, error)
	GetAvailability(ctx context.Context, userID string) (*models.Availability, error)
	ExportICS(ctx context.Context, user *models.CurrentUser) ([]byte, error)
}

// CalendarHandler serves the aggregated calendar.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Events godoc
// @Summary Calendar feed
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Param type query string false "Event type"
// @Success 200 {object} response.Envelope
// @Router /calendar/events [get]
func (h *CalendarHandler) Events(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var query dto.CalendarFeedQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	feed, err := h.service.Feed(c.Request.Context(), user, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed, nil)
}

// CreateFacultyEvent godoc
// @Summary Create faculty event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CalendarEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Router /calendar/faculty-events [post]
func (h *CalendarHandler) CreateFacultyEvent(c *gin.Context) {
	h.create(c, h.service.CreateFacultyEvent)
}

// CreateStudentEvent godoc
// @Summary Create personal event
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CalendarEventRequest true "Event"
// @Success 201 {object} response.Envelope
// @Router /calendar/student-events [post]
func (h *CalendarHandler) CreateStudentEvent(c *gin.Context) {
	h.create(c, h.service.CreateStudentEvent)
}

func (h *CalendarHandler) create(c *gin.Context, fn func(context.Context, *models.CurrentUser, dto.CalendarEventRequest) (*models.CalendarEvent, error)) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CalendarEventRequest
	if !bindJSON(c, &req, "invalid event payload") {
		return
	}
	event, err := fn(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// DeleteFacultyEvent godoc
// @Summary Delete faculty event
// @Tags Calendar
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Router /calendar/faculty-events/{id} [delete]
func (h *CalendarHandler) DeleteFacultyEvent(c *gin.Context) {
	h.remove(c, h.service.DeleteFacultyEvent)
}

// DeleteStudentEvent godoc
// @Summary Delete personal event
// @Tags Calendar
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Router /calendar/student-events/{id} [delete]
func (h *CalendarHandler) DeleteStudentEvent(c *gin.Context) {
	h.remove(c, h.service.DeleteStudentEvent)
}

func (h *CalendarHandler) remove(c *gin.Context, fn func(context.Context, *models.CurrentUser, string) error) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Upcoming interviews, deadlines and offers
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /calendar/summary [get]
func (h *CalendarHandler) Summary(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SaveAvailability godoc
// @Summary Replace own availability
// @Tags Calendar
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AvailabilityRequest true "Slots"
// @Success 200 {object} response.Envelope
// @Router /calendar/availability [post]
func (h *CalendarHandler) SaveAvailability(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.AvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	availability, err := h.service.SaveAvailability(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// GetAvailability godoc
// @Summary Future availability of a user
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /calendar/availability/{userId} [get]
func (h *CalendarHandler) GetAvailability(c *gin.Context) {
	availability, err := h.service.GetAvailability(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// ExportICS godoc
// @Summary Export calendar
// @Tags Calendar
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {file} file
// @Router /calendar/export/ics [get]
func (h *CalendarHandler) ExportICS(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	data, err := h.service.ExportICS(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "campus-calendar.ics", export.ICSContentType, data)
}
