package dto

import "github.com/noah-isme/campus-placement-api/internal/models"

// CreateApplicationRequest is a student's application to a posting.
type CreateApplicationRequest struct {
	InternshipID string `json:"internshipId" validate:"required"`
	CoverLetter  string `json:"coverLetter" validate:"required"`
	MentorID     string `json:"mentorId"`
}

// UpdateApplicationStatusRequest moves an application through its
// lifecycle.
type UpdateApplicationStatusRequest struct {
	Status           models.ApplicationStatus `json:"status" validate:"required"`
	Feedback         string                   `json:"feedback"`
	InterviewDetails *models.InterviewDetails `json:"interviewDetails"`
	OfferDetails     *models.OfferDetails     `json:"offerDetails"`
}

// ApplicationStatusResponse echoes the updated application with the
// student and internship it concerns.
type ApplicationStatusResponse struct {
	Application *models.Application                  `json:"application"`
	Student     *models.ApplicationStudentSummary    `json:"student"`
	Internship  *models.ApplicationInternshipSummary `json:"internship"`
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
