package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/service"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

type ippService interface {
	Create(ctx context.Context, user *models.CurrentUser, req dto.CreateIPPRequest) (*dto.CreateIPPResponse, error)
	SendEvaluationRequest(ctx context.Context, user *models.CurrentUser, ippID string, req dto.EvaluationRequest) (string, error)
	SubmitCompanyEvaluation(ctx context.Context, ippID string, req dto.CompanyEvaluationRequest) (*models.IPP, error)
	SubmitStudentSubmission(ctx context.Context, user *models.CurrentUser, ippID string, req dto.StudentSubmissionRequest) (*dto.StudentSubmissionResponse, error)
	SubmitFacultyAssessment(ctx context.Context, user *models.CurrentUser, ippID string, req dto.FacultyAssessmentRequest) (*models.IPP, error)
	Publish(ctx context.Context, admin *models.CurrentUser, ippID string) (*dto.PublishIPPResponse, error)
	UpdateSkillAssessment(ctx context.Context, user *models.CurrentUser, ippID string, req dto.SkillAssessmentRequest) (*models.IPP, error)
	List(ctx context.Context, query dto.IPPQuery) ([]models.IPPView, error)
	ListByStudent(ctx context.Context, user *models.CurrentUser, studentID string) ([]models.IPPView, error)
	Get(ctx context.Context, user *models.CurrentUser, ippID string) (*models.IPPView, error)
	GetPublic(ctx context.Context, ippID string) (*models.IPPView, error)
	OpenCertificate(ctx context.Context, certificateID string) (*service.CertificateDownload, error)
	OpenSignedCertificate(ctx context.Context, token string) (*service.CertificateDownload, error)
	UploadDocument(ctx context.Context, user *models.CurrentUser, ippID string, upload service.IPPUpload) (*dto.IPPDocumentResponse, error)
}

// IPPHandler exposes the internship performance passport workflow.
type IPPHandler struct {
	service ippService
}

// NewIPPHandler constructs the handler.
func NewIPPHandler(svc ippService) *IPPHandler {
	return &IPPHandler{service: svc}
}

// Create godoc
// @Summary Create passport
// @Description Creates the passport for an accepted application or relinks an existing one
// @Tags IPP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateIPPRequest true "Passport"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /ipp/create [post]
func (h *IPPHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateIPPRequest
	if !bindJSON(c, &req, "invalid passport payload") {
		return
	}
	res, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	response.JSON(c, status, res, nil)
}

// List godoc
// @Summary List passports
// @Tags IPP
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param company query string false "Company"
// @Success 200 {object} response.Envelope
// @Router /ipp [get]
func (h *IPPHandler) List(c *gin.Context) {
	var query dto.IPPQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"count": len(items)})
}

// ListByStudent godoc
// @Summary Passports of a student
// @Tags IPP
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /ipp/student/{studentId} [get]
func (h *IPPHandler) ListByStudent(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListByStudent(c.Request.Context(), user, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get passport
// @Tags IPP
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ipp/{id} [get]
func (h *IPPHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SendEvaluationRequest godoc
// @Summary Email a magic link to the company mentor
// @Tags IPP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Param payload body dto.EvaluationRequest true "Mentor"
// @Success 200 {object} response.Envelope
// @Router /ipp/{id}/send-evaluation-request [post]
func (h *IPPHandler) SendEvaluationRequest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.EvaluationRequest
	if !bindJSON(c, &req, "invalid evaluation request") {
		return
	}
	link, err := h.service.SendEvaluationRequest(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.EvaluationRequestResponse{MagicLink: link}, nil)
}

// SubmitCompanyEvaluation godoc
// @Summary Company mentor evaluation
// @Description Authenticated by the magic-link token in the body
// @Tags IPP
// @Accept json
// @Produce json
// @Param id path string true "IPP ID"
// @Param payload body dto.CompanyEvaluationRequest true "Evaluation"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /ipp/{id}/company-evaluation [put]
func (h *IPPHandler) SubmitCompanyEvaluation(c *gin.Context) {
	var req dto.CompanyEvaluationRequest
	if !bindJSON(c, &req, "invalid evaluation payload") {
		return
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	ipp, err := h.service.SubmitCompanyEvaluation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ipp, nil)
}

// SubmitStudentSubmission godoc
// @Summary Student reflection
// @Tags IPP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Param payload body dto.StudentSubmissionRequest true "Submission"
// @Success 200 {object} response.Envelope
// @Router /ipp/{id}/student-submission [put]
func (h *IPPHandler) SubmitStudentSubmission(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.StudentSubmissionRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	res, err := h.service.SubmitStudentSubmission(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// SubmitFacultyAssessment godoc
// @Summary Faculty assessment
// @Tags IPP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Param payload body dto.FacultyAssessmentRequest true "Assessment"
// @Success 200 {object} response.Envelope
// @Router /ipp/{id}/faculty-assessment [put]
func (h *IPPHandler) SubmitFacultyAssessment(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.FacultyAssessmentRequest
	if !bindJSON(c, &req, "invalid assessment payload") {
		return
	}
	ipp, err := h.service.SubmitFacultyAssessment(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ipp, nil)
}

// Publish godoc
// @Summary Verify and publish passport
// @Tags IPP
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Success 200 {object} response.Envelope
// @Router /ipp/{id}/verify [post]
func (h *IPPHandler) Publish(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	res, err := h.service.Publish(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// UpdateSkillAssessment godoc
// @Summary Record before and after skill levels
// @Tags IPP
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Param payload body dto.SkillAssessmentRequest true "Skills"
// @Success 200 {object} response.Envelope
// @Router /ipp/{id}/skill-assessment [put]
func (h *IPPHandler) UpdateSkillAssessment(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.SkillAssessmentRequest
	if !bindJSON(c, &req, "invalid skill assessment") {
		return
	}
	ipp, err := h.service.UpdateSkillAssessment(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ipp, nil)
}

// GetPublic godoc
// @Summary Public passport view
// @Tags IPP
// @Produce json
// @Param id path string true "IPP ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ipp/public/{id} [get]
func (h *IPPHandler) GetPublic(c *gin.Context) {
	item, err := h.service.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Certificate godoc
// @Summary Download certificate by id
// @Tags IPP
// @Produce application/pdf
// @Param certificateId path string true "Certificate ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /ipp/certificate/{certificateId} [get]
func (h *IPPHandler) Certificate(c *gin.Context) {
	download, err := h.service.OpenCertificate(c.Request.Context(), c.Param("certificateId"))
	h.stream(c, download, err)
}

// SignedCertificate godoc
// @Summary Download certificate by signed link
// @Tags IPP
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /certificates/{token} [get]
func (h *IPPHandler) SignedCertificate(c *gin.Context) {
	download, err := h.service.OpenSignedCertificate(c.Request.Context(), c.Param("token"))
	h.stream(c, download, err)
}

func (h *IPPHandler) stream(c *gin.Context, download *service.CertificateDownload, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", download.Filename))
	c.DataFromReader(http.StatusOK, download.SizeBytes, "application/pdf", download.File, nil)
}

// UploadDocument godoc
// @Summary Upload supporting document
// @Tags IPP
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "IPP ID"
// @Param document formData file true "PDF or image, at most 10MB"
// @Success 200 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /ipp/{id}/upload-document [post]
func (h *IPPHandler) UploadDocument(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("document")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "No file uploaded"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}

	res, err := h.service.UploadDocument(c.Request.Context(), user, c.Param("id"), service.IPPUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  reader,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
