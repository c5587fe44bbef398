package dto

import "github.com/noah-isme/campus-placement-api/internal/models"

// CreateIPPRequest starts a passport for an accepted application.
type CreateIPPRequest struct {
	StudentID     string `json:"studentId"`
	InternshipID  string `json:"internshipId" validate:"required"`
	ApplicationID string `json:"applicationId"`
}

// CreateIPPResponse reports whether a passport was created or relinked.
type CreateIPPResponse struct {
	IPPID   string      `json:"ippId"`
	Created bool        `json:"created"`
	IPP     *models.IPP `json:"data"`
}

// EvaluationRequest asks a company mentor to evaluate the intern.
type EvaluationRequest struct {
	MentorEmail string `json:"mentorEmail" validate:"required,email"`
	MentorName  string `json:"mentorName" validate:"required"`
}

// EvaluationRequestResponse carries the generated magic link.
type EvaluationRequestResponse struct {
	MagicLink string `json:"magicLink"`
}

// CompanyEvaluationRequest is posted from the magic link without a session.
type CompanyEvaluationRequest struct {
	Token      string                   `json:"token"`
	Evaluation models.CompanyEvaluation `json:"evaluation"`
}

// StudentSubmissionRequest carries the student's reflection.
type StudentSubmissionRequest struct {
	Submission models.StudentSubmission `json:"submission"`
}

// StudentSubmissionResponse echoes the certificate link when one was issued.
type StudentSubmissionResponse struct {
	IPP            *models.IPP `json:"data"`
	CertificateURL string      `json:"certificateUrl,omitempty"`
}

// FacultyAssessmentRequest carries the academic review.
type FacultyAssessmentRequest struct {
	Assessment models.FacultyAssessment `json:"assessment"`
}

// SkillAssessmentRequest stores before/after skill levels. SkillGrowthScore
// overrides the computed score when set.
type SkillAssessmentRequest struct {
	SkillAssessment  models.SkillAssessment `json:"skillAssessment"`
	SkillGrowthScore *float64               `json:"skillGrowthScore" validate:"omitempty,min=0,max=100"`
}

// IPPQuery filters passport listings.
type IPPQuery struct {
	Status  string `form:"status"`
	Company string `form:"company"`
}

// IPPDocumentResponse describes an uploaded supporting document.
type IPPDocumentResponse struct {
	FileURL      string `json:"fileUrl"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
	Format       string `json:"format,omitempty"`
	Bytes        int64  `json:"bytes"`
	OriginalName string `json:"originalName"`
}

// PublishIPPResponse carries the public profile link.
type PublishIPPResponse struct {
	PublicURL string      `json:"publicUrl"`
	IPP       *models.IPP `json:"data"`
}
