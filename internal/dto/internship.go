package dto

// InternshipPayload holds the posting fields shared by admin creation and
// recruiter submission. Dates accept DD-MM-YYYY or ISO-8601.
type InternshipPayload struct {
	Title               string   `json:"title" validate:"required"`
	Company             string   `json:"company"`
	CompanyLogo         string   `json:"companyLogo" validate:"omitempty,url"`
	Description         string   `json:"description" validate:"required"`
	RequiredSkills      []string `json:"requiredSkills" validate:"required,min=1"`
	PreferredSkills     []string `json:"preferredSkills"`
	EligibleDepartments []string `json:"eligibleDepartments" validate:"required,min=1"`
	MinimumSemester     int      `json:"minimumSemester" validate:"omitempty,min=1,max=8"`
	MinimumCGPA         float64  `json:"minimumCGPA" validate:"omitempty,min=0,max=10"`
	Stipend             string   `json:"stipend"`
	Duration            string   `json:"duration"`
	Location            string   `json:"location"`
	WorkMode            string   `json:"workMode" validate:"omitempty,oneof=Remote On-site Hybrid"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	MaxApplications     int      `json:"maxApplications" validate:"omitempty,min=1"`
	CompanyDescription  string   `json:"companyDescription"`
	Requirements        []string `json:"requirements"`
	Benefits            []string `json:"benefits"`
	RecruiterNotes      string   `json:"recruiterNotes"`
}

// UpdateInternshipRequest carries a partial update. Nil fields are kept.
type UpdateInternshipRequest struct {
	Title               *string   `json:"title" validate:"omitempty,min=1"`
	Description         *string   `json:"description"`
	RequiredSkills      *[]string `json:"requiredSkills"`
	PreferredSkills     *[]string `json:"preferredSkills"`
	EligibleDepartments *[]string `json:"eligibleDepartments"`
	MinimumSemester     *int      `json:"minimumSemester" validate:"omitempty,min=1,max=8"`
	MinimumCGPA         *float64  `json:"minimumCGPA" validate:"omitempty,min=0,max=10"`
	Stipend             *string   `json:"stipend"`
	Duration            *string   `json:"duration"`
	Location            *string   `json:"location"`
	WorkMode            *string   `json:"workMode" validate:"omitempty,oneof=Remote On-site Hybrid"`
	ApplicationDeadline *string   `json:"applicationDeadline"`
	StartDate           *string   `json:"startDate"`
	EndDate             *string   `json:"endDate"`
	MaxApplications     *int      `json:"maxApplications" validate:"omitempty,min=1"`
	CompanyDescription  *string   `json:"companyDescription"`
	Requirements        *[]string `json:"requirements"`
	Benefits            *[]string `json:"benefits"`
	AdminNotes          *string   `json:"adminNotes"`
	RecruiterNotes      *string   `json:"recruiterNotes"`
}

// ReviewInternshipRequest is the admin decision on a submission.
type ReviewInternshipRequest struct {
	AdminNotes      string `json:"adminNotes"`
	RejectionReason string `json:"rejectionReason"`
}

// InternshipQuery captures GET /internships query parameters.
type InternshipQuery struct {
	Department  string `form:"department"`
	Skills      string `form:"skills"`
	Location    string `form:"location"`
	WorkMode    string `form:"workMode"`
	Company     string `form:"company"`
	Status      string `form:"status"`
	MinStipend  int    `form:"minStipend"`
	MaxStipend  int    `form:"maxStipend"`
	Recommended bool   `form:"recommended"`
}
