package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-placement-api/internal/dto"
	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

const defaultDirectoryPageSize = 12

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

type applicationLister interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)
}

var errStudentNotFound = appErrors.Clone(appErrors.ErrNotFound, "Student not found")

// StudentService handles student use-cases.
type StudentService struct {
	repo         studentRepository
	allocator    *StudentIDAllocator
	applications applicationLister
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, allocator *StudentIDAllocator, applications applicationLister, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, allocator: allocator, applications: applications, validator: validate, logger: logger}
}

// List returns students visible to user. Mentors only see the students
// assigned to them.
func (s *StudentService) List(ctx context.Context, user *models.CurrentUser, query dto.StudentQuery) ([]models.Student, *models.Pagination, error) {
	filter := studentFilter(query)
	if user != nil && user.Role == models.RoleMentor {
		if len(user.AssignedStudents) == 0 {
			return []models.Student{}, pagination(filter, 0), nil
		}
		filter.IDs = user.AssignedStudents
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	for i := range students {
		students[i] = students[i].Sanitized()
	}
	return students, pagination(filter, total), nil
}

// Directory returns a lightweight listing with application counts.
func (s *StudentService) Directory(ctx context.Context, query dto.StudentQuery) ([]models.StudentDirectoryEntry, *models.Pagination, error) {
	filter := studentFilter(query)
	if filter.PageSize <= 0 {
		filter.PageSize = defaultDirectoryPageSize
	}
	if filter.SortBy == "" {
		filter.SortBy = "name"
		if filter.SortOrder == "" {
			filter.SortOrder = "asc"
		}
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to load student directory")
	}

	counts := map[string]int{}
	if s.applications != nil && len(students) > 0 {
		applications, err := s.applications.List(ctx, models.ApplicationFilter{})
		if err != nil {
			s.logger.Warn("application counts unavailable for directory", zap.Error(err))
		}
		for _, app := range applications {
			counts[app.StudentID]++
		}
	}

	entries := make([]models.StudentDirectoryEntry, 0, len(students))
	for _, st := range students {
		skills := []string(st.Skills)
		if skills == nil {
			skills = []string{}
		}
		entries = append(entries, models.StudentDirectoryEntry{
			ID:               st.ID,
			Name:             st.Name,
			Email:            st.Email,
			Department:       st.Department,
			Semester:         st.Semester,
			CGPA:             st.CGPA,
			Skills:           skills,
			PlacementStatus:  st.PlacementStatus,
			ApplicationCount: counts[st.ID],
		})
	}
	return entries, pagination(filter, total), nil
}

// Get returns a single student without credentials.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, errStudentNotFound.Message, "failed to load student")
	}
	clean := student.Sanitized()
	return &clean, nil
}

// Create adds a student on behalf of an admin.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student := &models.Student{
		Name:           sanitizeText(req.Name),
		Email:          req.Email,
		Role:           models.RoleStudent,
		Department:     strings.TrimSpace(req.Department),
		Semester:       req.Semester,
		CGPA:           req.CGPA,
		Skills:         cleanSkills(req.Skills),
		Phone:          strings.TrimSpace(req.Phone),
		ResumeLink:     req.ResumeLink,
		AssignedMentor: req.MentorID,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, internalError(err, "failed to hash password")
		}
		student.PasswordHash = string(hash)
	}
	if err := s.allocator.Create(ctx, student); err != nil {
		return nil, internalError(err, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID))
	clean := student.Sanitized()
	return &clean, nil
}

// Profile returns the calling student's profile.
func (s *StudentService) Profile(ctx context.Context, user *models.CurrentUser) (*models.Student, error) {
	return s.Get(ctx, user.ID)
}

// UpdateProfile applies a student's self-service changes.
func (s *StudentService) UpdateProfile(ctx context.Context, user *models.CurrentUser, req dto.UpdateProfileRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	student, err := s.repo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, notFoundOr(err, errStudentNotFound.Message, "failed to load student")
	}
	if req.Name != nil {
		student.Name = sanitizeText(*req.Name)
	}
	if req.Phone != nil {
		student.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Skills != nil {
		student.Skills = cleanSkills(*req.Skills)
	}
	if req.Department != nil {
		student.Department = strings.TrimSpace(*req.Department)
	}
	if req.Semester != nil {
		student.Semester = *req.Semester
	}
	if req.CGPA != nil {
		student.CGPA = *req.CGPA
	}
	if req.ResumeLink != nil {
		student.ResumeLink = *req.ResumeLink
	}
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, internalError(err, "failed to update profile")
	}
	clean := student.Sanitized()
	return &clean, nil
}

func studentFilter(query dto.StudentQuery) models.StudentFilter {
	return models.StudentFilter{
		Search:     strings.TrimSpace(query.Search),
		Department: strings.TrimSpace(query.Department),
		Semester:   query.Semester,
		MinCGPA:    query.MinCGPA,
		Skill:      strings.TrimSpace(query.Skill),
		Page:       query.Page,
		PageSize:   query.PageSize,
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
	}
}

func pagination(filter models.StudentFilter, total int) *models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		if skill = sanitizeText(skill); skill != "" {
			out = append(out, skill)
		}
	}
	return out
}
