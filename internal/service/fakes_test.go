package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
)

type fakeStudentRepo struct {
	mu          sync.Mutex
	students    map[string]*models.Student
	unavailable bool
	createErrs  []error
	updated     int
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: map[string]*models.Student{}}
	for i := range students {
		s := students[i]
		repo.students[s.ID] = &s
	}
	return repo
}

func (f *fakeStudentRepo) Available() bool { return !f.unavailable }

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if strings.EqualFold(s.Email, email) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) FindByClerkID(ctx context.Context, clerkID string) (*models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.students {
		if s.ClerkID != nil && *s.ClerkID == clerkID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Student, 0, len(f.students))
	for _, s := range f.students {
		if filter.Department != "" && s.Department != filter.Department {
			continue
		}
		if len(filter.IDs) > 0 && !containsString(filter.IDs, s.ID) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStudentRepo) MaxSequence(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for id := range f.students {
		if n := repository.SequenceNumber(repository.PrefixStudent, id); n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := f.students[student.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, s := range f.students {
		if strings.EqualFold(s.Email, student.Email) {
			return repository.ErrDuplicate
		}
	}
	cp := *student
	f.students[student.ID] = &cp
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *student
	f.students[student.ID] = &cp
	f.updated++
	return nil
}

func (f *fakeStudentRepo) ListEligible(ctx context.Context, departments []string, minCGPA float64, minSemester int) ([]models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Student
	for _, s := range f.students {
		if s.CGPA < minCGPA || s.Semester < minSemester {
			continue
		}
		if len(departments) > 0 && !containsString(departments, s.Department) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeInternshipRepo struct {
	mu          sync.Mutex
	internships map[string]*models.Internship
	deleted     []string
}

func newFakeInternshipRepo(internships ...models.Internship) *fakeInternshipRepo {
	repo := &fakeInternshipRepo{internships: map[string]*models.Internship{}}
	for i := range internships {
		in := internships[i]
		repo.internships[in.ID] = &in
	}
	return repo
}

func (f *fakeInternshipRepo) List(ctx context.Context, filter models.InternshipFilter) ([]models.Internship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Internship
	for _, in := range f.internships {
		if filter.Status != "" && in.Status != filter.Status {
			continue
		}
		if filter.OwnerID != "" && !in.OwnedBy(filter.OwnerID) {
			continue
		}
		if filter.Company != "" && !strings.EqualFold(in.Company, filter.Company) {
			continue
		}
		out = append(out, *in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeInternshipRepo) FindByID(ctx context.Context, id string) (*models.Internship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in, ok := f.internships[id]; ok {
		cp := *in
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeInternshipRepo) MaxSequence(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for id := range f.internships {
		if n := repository.SequenceNumber(repository.PrefixInternship, id); n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeInternshipRepo) Create(ctx context.Context, internship *models.Internship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.internships[internship.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *internship
	f.internships[internship.ID] = &cp
	return nil
}

func (f *fakeInternshipRepo) Update(ctx context.Context, internship *models.Internship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.internships[internship.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *internship
	f.internships[internship.ID] = &cp
	return nil
}

func (f *fakeInternshipRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.internships[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.internships, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeInternshipRepo) AdjustApplications(ctx context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.internships[id]
	if !ok {
		return sql.ErrNoRows
	}
	in.CurrentApplications += delta
	if in.CurrentApplications < 0 {
		in.CurrentApplications = 0
	}
	return nil
}

type fakeApplicationRepo struct {
	mu           sync.Mutex
	applications map[string]*models.Application
	unavailable  bool
}

func newFakeApplicationRepo(applications ...models.Application) *fakeApplicationRepo {
	repo := &fakeApplicationRepo{applications: map[string]*models.Application{}}
	for i := range applications {
		app := applications[i]
		repo.applications[app.ID] = &app
	}
	return repo
}

func (f *fakeApplicationRepo) Available() bool { return !f.unavailable }

func (f *fakeApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Application
	for _, app := range f.applications {
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		if filter.InternshipID != "" && app.InternshipID != filter.InternshipID {
			continue
		}
		if filter.MentorID != "" && app.MentorID != filter.MentorID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		out = append(out, *app)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if app, ok := f.applications[id]; ok {
		cp := *app
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeApplicationRepo) FindByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, app := range f.applications {
		if app.StudentID == studentID && app.InternshipID == internshipID {
			cp := *app
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeApplicationRepo) MaxSequence(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for id := range f.applications {
		if n := repository.SequenceNumber(repository.PrefixApplication, id); n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeApplicationRepo) Create(ctx context.Context, application *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.applications[application.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *application
	f.applications[application.ID] = &cp
	return nil
}

func (f *fakeApplicationRepo) Update(ctx context.Context, application *models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.applications[application.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *application
	f.applications[application.ID] = &cp
	return nil
}

func (f *fakeApplicationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.applications[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.applications, id)
	return nil
}

type fakeMentors struct {
	mentors    []models.Mentor
	recruiters map[string]models.Recruiter
}

func (f *fakeMentors) FindMentor(ctx context.Context, id string) (*models.Mentor, error) {
	for i := range f.mentors {
		if f.mentors[i].ID == id {
			m := f.mentors[i]
			return &m, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMentors) ListMentors(ctx context.Context) ([]models.Mentor, error) {
	return append([]models.Mentor(nil), f.mentors...), nil
}

func (f *fakeMentors) FindRecruiter(ctx context.Context, id string) (*models.Recruiter, error) {
	if r, ok := f.recruiters[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
