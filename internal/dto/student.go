package dto

// CreateStudentRequest is the admin payload for adding a student.
type CreateStudentRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"omitempty,min=6"`
	Department string   `json:"department" validate:"required"`
	Semester   int      `json:"semester" validate:"omitempty,min=1,max=8"`
	CGPA       float64  `json:"cgpa" validate:"min=0,max=10"`
	Skills     []string `json:"skills"`
	Phone      string   `json:"phone"`
	ResumeLink string   `json:"resumeLink" validate:"omitempty,url"`
	MentorID   string   `json:"assignedMentor"`
}

// UpdateProfileRequest is the student self-service profile update. Nil
// fields are left unchanged.
type UpdateProfileRequest struct {
	Name       *string   `json:"name" validate:"omitempty,min=1"`
	Phone      *string   `json:"phone"`
	Skills     *[]string `json:"skills"`
	Department *string   `json:"department" validate:"omitempty,min=1"`
	Semester   *int      `json:"semester" validate:"omitempty,min=1,max=8"`
	CGPA       *float64  `json:"cgpa" validate:"omitempty,min=0,max=10"`
	ResumeLink *string   `json:"resumeLink" validate:"omitempty,url"`
}

// StudentQuery captures /students and /students/directory query parameters.
type StudentQuery struct {
	Search     string  `form:"search"`
	Department string  `form:"department"`
	Semester   int     `form:"semester"`
	MinCGPA    float64 `form:"cgpa"`
	Skill      string  `form:"skills"`
	Page       int     `form:"page"`
	PageSize   int     `form:"limit"`
	SortBy     string  `form:"sortBy"`
	SortOrder  string  `form:"sortOrder"`
}
