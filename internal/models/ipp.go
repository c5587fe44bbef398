package models

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"time"
)

// IPPStatus tracks an internship performance passport through evaluation.
type IPPStatus string

const (
	IPPDraft                    IPPStatus = "draft"
	IPPPendingMentorEval        IPPStatus = "pending_mentor_eval"
	IPPPendingStudentSubmission IPPStatus = "pending_student_submission"
	IPPPendingFacultyApproval   IPPStatus = "pending_faculty_approval"
	IPPVerified                 IPPStatus = "verified"
	IPPPublished                IPPStatus = "published"
)

// Final verification outcomes.
const (
	IPPFinalPending  = "pending"
	IPPFinalVerified = "verified"
	IPPFinalRejected = "rejected"
)

// Faculty approval decisions.
const (
	FacultyApproved      = "approved"
	FacultyNeedsRevision = "needs_revision"
	FacultyRejected      = "rejected"
)

// StoreOrigin records which store a record was loaded from.
type StoreOrigin string

const (
	OriginDatabase StoreOrigin = "database"
	OriginJSON     StoreOrigin = "json"
)

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// BuildIPPID derives the passport id for a student/internship pair in a year.
func BuildIPPID(studentID, internshipID string, year int) string {
	safe := nonAlnum.ReplaceAllString(studentID, "")
	if len(safe) > 10 {
		safe = safe[:10]
	}
	return fmt.Sprintf("IPP-%s-%s-%d", safe, internshipID, year)
}

// InternshipDetails snapshots the internship at passport creation.
type InternshipDetails struct {
	Company   string     `json:"company"`
	Role      string     `json:"role"`
	Domain    string     `json:"domain,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Location  string     `json:"location,omitempty"`
	WorkMode  string     `json:"workMode,omitempty"`
}

func (d InternshipDetails) Value() (driver.Value, error) {
	return marshalJSONB("internship details", d)
}

func (d *InternshipDetails) Scan(value interface{}) error {
	return scanJSONB("internship details", value, d)
}

// TechnicalSkills are company mentor ratings on a 1-10 scale.
type TechnicalSkills struct {
	DomainKnowledge *float64 `json:"domainKnowledge,omitempty" validate:"omitempty,min=1,max=10"`
	ProblemSolving  *float64 `json:"problemSolving,omitempty" validate:"omitempty,min=1,max=10"`
	CodeQuality     *float64 `json:"codeQuality,omitempty" validate:"omitempty,min=1,max=10"`
	LearningAgility *float64 `json:"learningAgility,omitempty" validate:"omitempty,min=1,max=10"`
	ToolProficiency *float64 `json:"toolProficiency,omitempty" validate:"omitempty,min=1,max=10"`
}

// Scores returns the ratings that were provided.
func (t *TechnicalSkills) Scores() []float64 {
	if t == nil {
		return nil
	}
	return presentScores(t.DomainKnowledge, t.ProblemSolving, t.CodeQuality, t.LearningAgility, t.ToolProficiency)
}

// SoftSkills are company mentor ratings on a 1-10 scale.
type SoftSkills struct {
	Punctuality   *float64 `json:"punctuality,omitempty" validate:"omitempty,min=1,max=10"`
	Teamwork      *float64 `json:"teamwork,omitempty" validate:"omitempty,min=1,max=10"`
	Communication *float64 `json:"communication,omitempty" validate:"omitempty,min=1,max=10"`
	Leadership    *float64 `json:"leadership,omitempty" validate:"omitempty,min=1,max=10"`
	Adaptability  *float64 `json:"adaptability,omitempty" validate:"omitempty,min=1,max=10"`
	WorkEthic     *float64 `json:"workEthic,omitempty" validate:"omitempty,min=1,max=10"`
}

// Scores returns the ratings that were provided.
func (s *SoftSkills) Scores() []float64 {
	if s == nil {
		return nil
	}
	return presentScores(s.Punctuality, s.Teamwork, s.Communication, s.Leadership, s.Adaptability, s.WorkEthic)
}

// CompanyEvaluation is submitted by the company mentor through the magic link.
type CompanyEvaluation struct {
	MentorName          string           `json:"mentorName,omitempty"`
	MentorEmail         string           `json:"mentorEmail,omitempty"`
	MentorDesignation   string           `json:"mentorDesignation,omitempty"`
	TechnicalSkills     *TechnicalSkills `json:"technicalSkills,omitempty" validate:"omitempty"`
	SoftSkills          *SoftSkills      `json:"softSkills,omitempty" validate:"omitempty"`
	OverallPerformance  string           `json:"overallPerformance,omitempty"`
	Strengths           []string         `json:"strengths,omitempty"`
	AreasForImprovement []string         `json:"areasForImprovement,omitempty"`
	KeyAchievements     []string         `json:"keyAchievements,omitempty"`
	WouldRehire         *bool            `json:"wouldRehire,omitempty"`
	RecommendationLevel string           `json:"recommendationLevel,omitempty"`
	DetailedFeedback    string           `json:"detailedFeedback,omitempty"`
	SubmittedAt         *time.Time       `json:"submittedAt,omitempty"`
}

func (e CompanyEvaluation) Value() (driver.Value, error) {
	return marshalJSONB("company evaluation", e)
}

func (e *CompanyEvaluation) Scan(value interface{}) error {
	return scanJSONB("company evaluation", value, e)
}

// Submitted reports whether the company mentor has filled in the evaluation.
func (e *CompanyEvaluation) Submitted() bool {
	return e != nil && e.SubmittedAt != nil
}

// IPPDocument is a supporting file attached to a student submission.
type IPPDocument struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// StudentSubmission holds the student's reflection and documents.
type StudentSubmission struct {
	Reflection   string        `json:"reflection,omitempty"`
	KeyLearnings []string      `json:"keyLearnings,omitempty"`
	Challenges   []string      `json:"challenges,omitempty"`
	Achievements []string      `json:"achievements,omitempty"`
	FutureGoals  string        `json:"futureGoals,omitempty"`
	ReportURL    string        `json:"reportUrl,omitempty"`
	Documents    []IPPDocument `json:"documents,omitempty"`
	SubmittedAt  *time.Time    `json:"submittedAt,omitempty"`
}

func (s StudentSubmission) Value() (driver.Value, error) {
	return marshalJSONB("student submission", s)
}

func (s *StudentSubmission) Scan(value interface{}) error {
	return scanJSONB("student submission", value, s)
}

// LearningOutcomes are recorded by the faculty mentor.
type LearningOutcomes struct {
	ObjectivesMet      *bool    `json:"objectivesMet,omitempty"`
	SkillsAcquired     []string `json:"skillsAcquired,omitempty"`
	IndustryExposure   *float64 `json:"industryExposure,omitempty" validate:"omitempty,min=1,max=10"`
	ProfessionalGrowth *float64 `json:"professionalGrowth,omitempty" validate:"omitempty,min=1,max=10"`
}

// Scores returns the numeric outcome ratings that were provided.
func (l *LearningOutcomes) Scores() []float64 {
	if l == nil {
		return nil
	}
	return presentScores(l.IndustryExposure, l.ProfessionalGrowth)
}

// FacultyAssessment is the academic review of an internship.
type FacultyAssessment struct {
	FacultyID         string            `json:"facultyId,omitempty"`
	FacultyName       string            `json:"facultyName,omitempty"`
	LearningOutcomes  *LearningOutcomes `json:"learningOutcomes,omitempty" validate:"omitempty"`
	AcademicAlignment string            `json:"academicAlignment,omitempty"`
	Comments          string            `json:"comments,omitempty"`
	CreditsAwarded    float64           `json:"creditsAwarded,omitempty"`
	ApprovalStatus    string            `json:"approvalStatus" validate:"required,oneof=approved needs_revision rejected"`
	AssessedAt        *time.Time        `json:"assessedAt,omitempty"`
}

func (a FacultyAssessment) Value() (driver.Value, error) {
	return marshalJSONB("faculty assessment", a)
}

func (a *FacultyAssessment) Scan(value interface{}) error {
	return scanJSONB("faculty assessment", value, a)
}

// IPPVerification records who signed off each stage.
type IPPVerification struct {
	CompanyVerified         bool       `json:"companyVerified"`
	CompanyVerifiedBy       string     `json:"companyVerifiedBy,omitempty"`
	CompanyVerifiedAt       *time.Time `json:"companyVerifiedAt,omitempty"`
	FacultyApproved         bool       `json:"facultyApproved"`
	FacultyApprovedBy       string     `json:"facultyApprovedBy,omitempty"`
	FacultyApprovedAt       *time.Time `json:"facultyApprovedAt,omitempty"`
	PlacementCellApproved   bool       `json:"placementCellApproved"`
	PlacementCellApprovedBy string     `json:"placementCellApprovedBy,omitempty"`
	PlacementCellApprovedAt *time.Time `json:"placementCellApprovedAt,omitempty"`
	FinalStatus             string     `json:"finalStatus,omitempty"`
}

func (v IPPVerification) Value() (driver.Value, error) {
	return marshalJSONB("verification", v)
}

func (v *IPPVerification) Scan(value interface{}) error {
	return scanJSONB("verification", value, v)
}

// IPPSummary is computed from the evaluations.
type IPPSummary struct {
	OverallRating          float64 `json:"overallRating"`
	PerformanceGrade       string  `json:"performanceGrade"`
	EmployabilityScore     float64 `json:"employabilityScore"`
	RecommendationStrength string  `json:"recommendationStrength,omitempty"`
	SkillGrowthScore       float64 `json:"skillGrowthScore"`
}

func (s IPPSummary) Value() (driver.Value, error) {
	return marshalJSONB("summary", s)
}

func (s *IPPSummary) Scan(value interface{}) error {
	return scanJSONB("summary", value, s)
}

// IPPCertificate references the rendered completion certificate.
type IPPCertificate struct {
	CertificateID  string     `json:"certificateId"`
	CertificateURL string     `json:"certificateUrl"`
	QRCode         string     `json:"qrCode,omitempty"`
	GeneratedAt    *time.Time `json:"generatedAt,omitempty"`
	Error          string     `json:"error,omitempty"`
}

func (c IPPCertificate) Value() (driver.Value, error) {
	return marshalJSONB("certificate", c)
}

func (c *IPPCertificate) Scan(value interface{}) error {
	return scanJSONB("certificate", value, c)
}

// Issued reports whether a downloadable certificate exists.
func (c *IPPCertificate) Issued() bool {
	return c != nil && c.CertificateURL != ""
}

// IPPSharing controls the public passport page.
type IPPSharing struct {
	PublicProfileURL string `json:"publicProfileUrl"`
	IsPublic         bool   `json:"isPublic"`
	ViewCount        int    `json:"viewCount"`
}

func (s IPPSharing) Value() (driver.Value, error) {
	return marshalJSONB("sharing", s)
}

func (s *IPPSharing) Scan(value interface{}) error {
	return scanJSONB("sharing", value, s)
}

// SkillLevel is one self or mentor rated skill.
type SkillLevel struct {
	SkillName string  `json:"skillName" validate:"required"`
	Level     float64 `json:"level" validate:"min=1,max=10"`
}

// SkillGrowth compares a skill before and after the internship.
type SkillGrowth struct {
	SkillName        string  `json:"skillName"`
	BeforeLevel      float64 `json:"beforeLevel"`
	AfterLevel       float64 `json:"afterLevel"`
	GrowthPercentage float64 `json:"growthPercentage"`
	GrowthCategory   string  `json:"growthCategory"`
}

// SkillAssessment tracks pre and post internship skill levels.
type SkillAssessment struct {
	PreAssessment     []SkillLevel  `json:"preAssessment,omitempty" validate:"dive"`
	PostAssessment    []SkillLevel  `json:"postAssessment,omitempty" validate:"dive"`
	NewSkillsAcquired []string      `json:"newSkillsAcquired,omitempty"`
	SkillGrowth       []SkillGrowth `json:"skillGrowth,omitempty"`
	AssessedAt        *time.Time    `json:"assessedAt,omitempty"`
}

func (s SkillAssessment) Value() (driver.Value, error) {
	return marshalJSONB("skill assessment", s)
}

func (s *SkillAssessment) Scan(value interface{}) error {
	return scanJSONB("skill assessment", value, s)
}

// IPP is an internship performance passport.
type IPP struct {
	IPPID                   string             `db:"ipp_id" json:"ippId"`
	StudentID               string             `db:"student_id" json:"studentId"`
	InternshipID            string             `db:"internship_id" json:"internshipId"`
	ApplicationID           string             `db:"application_id" json:"applicationId"`
	InternshipDetails       *InternshipDetails `db:"internship_details" json:"internshipDetails,omitempty"`
	CompanyMentorEvaluation *CompanyEvaluation `db:"company_mentor_evaluation" json:"companyMentorEvaluation,omitempty"`
	StudentSubmission       *StudentSubmission `db:"student_submission" json:"studentSubmission,omitempty"`
	FacultyAssessment       *FacultyAssessment `db:"faculty_assessment" json:"facultyMentorAssessment,omitempty"`
	Verification            *IPPVerification   `db:"verification" json:"verification,omitempty"`
	Summary                 *IPPSummary        `db:"summary" json:"summary,omitempty"`
	Certificate             *IPPCertificate    `db:"certificate" json:"certificate,omitempty"`
	Sharing                 *IPPSharing        `db:"sharing" json:"sharing,omitempty"`
	SkillAssessment         *SkillAssessment   `db:"skill_assessment" json:"skillAssessment,omitempty"`
	MentorAccessToken       *string            `db:"mentor_access_token" json:"mentorAccessToken,omitempty"`
	MentorAccessExpiry      *time.Time         `db:"mentor_access_expiry" json:"mentorAccessTokenExpiry,omitempty"`
	MentorAccessUsedAt      *time.Time         `db:"mentor_access_used_at" json:"mentorAccessUsedAt,omitempty"`
	Status                  IPPStatus          `db:"status" json:"status"`
	PublishedAt             *time.Time         `db:"published_at" json:"publishedAt,omitempty"`
	CreatedAt               time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time          `db:"updated_at" json:"updatedAt"`

	Origin StoreOrigin `db:"-" json:"-"`
}

// Recency is the timestamp used to order passports in listings.
func (p *IPP) Recency() time.Time {
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// EnsureVerification returns the verification block, creating it if needed.
func (p *IPP) EnsureVerification() *IPPVerification {
	if p.Verification == nil {
		p.Verification = &IPPVerification{FinalStatus: IPPFinalPending}
	}
	return p.Verification
}

// Redacted hides the magic-link secret from API responses.
func (p IPP) Redacted() IPP {
	p.MentorAccessToken = nil
	return p
}

// IPPFilter narrows passport listings.
type IPPFilter struct {
	Status    IPPStatus
	Company   string
	StudentID string
}

// IPPStudentDetails is attached to passports in read responses.
type IPPStudentDetails struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
	Semester   int    `json:"semester,omitempty"`
}

// IPPView is a passport enriched with student details.
type IPPView struct {
	IPP
	StudentDetails *IPPStudentDetails `json:"studentDetails,omitempty"`
}

func presentScores(values ...*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
