package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type fakeInternshipService struct {
	internshipService
	views     []models.InternshipView
	lastUser  *models.CurrentUser
	lastQuery dto.InternshipQuery
	review    *dto.ReviewInternshipRequest
	statsHit  bool
	deleteErr error
}

func (f *fakeInternshipService) List(_ context.Context, user *models.CurrentUser, query dto.InternshipQuery) ([]models.InternshipView, error) {
	f.lastUser = user
	f.lastQuery = query
	return f.views, nil
}

func (f *fakeInternshipService) Approve(_ context.Context, _ *models.CurrentUser, id string, req dto.ReviewInternshipRequest) (*models.Internship, error) {
	f.review = &req
	return &models.Internship{ID: id, Status: models.InternshipActive}, nil
}

func (f *fakeInternshipService) Delete(_ context.Context, _ *models.CurrentUser, id string) (*models.Internship, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &models.Internship{ID: id}, nil
}

func (f *fakeInternshipService) Stats(context.Context) (models.InternshipStats, bool, error) {
	return models.InternshipStats{Total: 3, Active: 2}, f.statsHit, nil
}

func TestInternshipHandlerListAnonymous(t *testing.T) {
	svc := &fakeInternshipService{views: []models.InternshipView{
		{Internship: models.Internship{ID: "INT001"}},
		{Internship: models.Internship{ID: "INT002"}},
	}}
	h := NewInternshipHandler(svc)
	c, rec := newTestContext(http.MethodGet, "/internships?department=Computer+Science&recommended=true", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.lastUser)
	assert.Equal(t, "Computer Science", svc.lastQuery.Department)
	var env listEnvelope
	decode(t, rec, &env)
	assert.Len(t, env.Data, 2)
	assert.EqualValues(t, 2, env.Meta["count"])
}

func TestInternshipHandlerApproveWithoutBody(t *testing.T) {
	svc := &fakeInternshipService{}
	h := NewInternshipHandler(svc)
	c, rec := newTestContext(http.MethodPut, "/internships/INT003/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "INT003"}}
	asUser(c, "ADM001", models.RoleAdmin)

	h.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.NotNil(t, svc.review) {
		assert.Empty(t, svc.review.AdminNotes)
	}
}

func TestInternshipHandlerDelete(t *testing.T) {
	h := NewInternshipHandler(&fakeInternshipService{})
	c, rec := newTestContext(http.MethodDelete, "/internships/INT001", nil)
	c.Params = gin.Params{{Key: "id", Value: "INT001"}}
	asUser(c, "REC001", models.RoleRecruiter)

	h.Delete(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env responseEnvelope
	decode(t, rec, &env)
	assert.Equal(t, "Internship deleted successfully", env.Data["message"])
}

func TestInternshipHandlerDeleteNotFound(t *testing.T) {
	h := NewInternshipHandler(&fakeInternshipService{deleteErr: appErrors.Clone(appErrors.ErrNotFound, "Internship not found")})
	c, rec := newTestContext(http.MethodDelete, "/internships/INT404", nil)
	c.Params = gin.Params{{Key: "id", Value: "INT404"}}
	asUser(c, "ADM001", models.RoleAdmin)

	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInternshipHandlerStatsReportsCacheHit(t *testing.T) {
	h := NewInternshipHandler(&fakeInternshipService{statsHit: true})
	c, rec := newTestContext(http.MethodGet, "/internships/stats/overview", nil)
	middleware.WithResponseMeta()(c)

	h.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env responseEnvelope
	decode(t, rec, &env)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.EqualValues(t, 3, env.Data["total"])
}
