package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/pkg/export"
)

type fakeCalendarService struct {
	calendarService
	created *dto.CalendarEventRequest
}

func (f *fakeCalendarService) ExportICS(context.Context, *models.CurrentUser) ([]byte, error) {
	return []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil
}

func (f *fakeCalendarService) CreateStudentEvent(_ context.Context, _ *models.CurrentUser, req dto.CalendarEventRequest) (*models.CalendarEvent, error) {
	f.created = &req
	return &models.CalendarEvent{ID: "SE-1", Title: req.Title}, nil
}

func TestCalendarHandlerExportICS(t *testing.T) {
	h := NewCalendarHandler(&fakeCalendarService{})
	c, rec := newTestContext(http.MethodGet, "/calendar/export/ics", nil)
	asUser(c, "STU001", models.RoleStudent)

	h.ExportICS(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), export.ICSContentType)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "campus-calendar.ics")
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
}

func TestCalendarHandlerExportRequiresUser(t *testing.T) {
	h := NewCalendarHandler(&fakeCalendarService{})
	c, rec := newTestContext(http.MethodGet, "/calendar/export/ics", nil)

	h.ExportICS(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCalendarHandlerCreateStudentEvent(t *testing.T) {
	svc := &fakeCalendarService{}
	h := NewCalendarHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/calendar/student-events", map[string]string{"title": "Mock interview", "date": "2026-05-10"})
	asUser(c, "STU001", models.RoleStudent)

	h.CreateStudentEvent(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Mock interview", svc.created.Title)
}
