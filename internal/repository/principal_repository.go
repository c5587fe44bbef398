package repository

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// Credentials pairs a principal with its stored password hash for login.
type Credentials struct {
	User         *models.CurrentUser
	PasswordHash string
}

// PrincipalRepository resolves users across the four principal collections
// in both stores.
type PrincipalRepository struct {
	dual
	students *StudentRepository
	staff    *StaffRepository

	studentMirror   mirror[models.Student]
	adminMirror     mirror[models.Admin]
	mentorMirror    mirror[models.Mentor]
	recruiterMirror mirror[models.Recruiter]
}

// NewPrincipalRepository constructs the reconciled principal directory.
func NewPrincipalRepository(students *StudentRepository, staff *StaffRepository, dataDir string, availability Availability, observer FallbackObserver, logger *zap.Logger) *PrincipalRepository {
	return &PrincipalRepository{
		dual:            newDual("principal", availability, observer, logger),
		students:        students,
		staff:           staff,
		studentMirror:   studentMirror(dataDir),
		adminMirror:     newMirror(dataDir, FileAdmins, func(a *models.Admin) string { return a.ID }),
		mentorMirror:    newMirror(dataDir, FileMentors, func(m *models.Mentor) string { return m.ID }),
		recruiterMirror: newMirror(dataDir, FileRecruiters, func(r *models.Recruiter) string { return r.ID }),
	}
}

// FindLegacy resolves the subject of a self-issued token. With the database
// up it matches id and email in students, admins, mentors and recruiters in
// turn; when nothing matches, or the database is down, it scans the mirror
// files matching id or email.
func (r *PrincipalRepository) FindLegacy(ctx context.Context, id, email string) (*models.CurrentUser, error) {
	if id == "" && email == "" {
		return nil, ErrNotFoundPrincipal
	}
	if r.Available() && id != "" {
		user, err := r.findLegacyPrimary(ctx, id, email)
		if err == nil {
			return user, nil
		}
		if !IsNotFound(err) {
			r.logger.Warn("principal lookup failed, trying json mirror", zap.Error(err))
		}
	}
	r.fallbackRead()
	return r.findLegacyMirror(id, email)
}

// ErrNotFoundPrincipal is returned when no principal matches.
var ErrNotFoundPrincipal = errors.New("principal not found")

func (r *PrincipalRepository) findLegacyPrimary(ctx context.Context, id, email string) (*models.CurrentUser, error) {
	if s, err := r.students.FindByIDAndEmail(ctx, id, email); err == nil {
		return models.CurrentUserFromStudent(s), nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	if a, err := r.staff.FindAdmin(ctx, id, email); err == nil {
		return models.CurrentUserFromAdmin(a), nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	if m, err := r.staff.FindMentor(ctx, id, email); err == nil {
		return models.CurrentUserFromMentor(m), nil
	} else if !IsNotFound(err) {
		return nil, err
	}
	rec, err := r.staff.FindRecruiter(ctx, id, email)
	if err != nil {
		return nil, err
	}
	return models.CurrentUserFromRecruiter(rec), nil
}

func (r *PrincipalRepository) findLegacyMirror(id, email string) (*models.CurrentUser, error) {
	matches := func(candidateID, candidateEmail string) bool {
		return (id != "" && candidateID == id) || (email != "" && candidateEmail == email)
	}
	if s, err := r.studentMirror.findBy(func(s *models.Student) bool { return matches(s.ID, s.Email) }); err == nil {
		return models.CurrentUserFromStudent(s), nil
	} else if !IsNotFound(err) {
		r.logger.Warn("read students mirror", zap.Error(err))
	}
	if a, err := r.adminMirror.findBy(func(a *models.Admin) bool { return matches(a.ID, a.Email) }); err == nil {
		return models.CurrentUserFromAdmin(a), nil
	} else if !IsNotFound(err) {
		r.logger.Warn("read admins mirror", zap.Error(err))
	}
	if m, err := r.mentorMirror.findBy(func(m *models.Mentor) bool { return matches(m.ID, m.Email) }); err == nil {
		return models.CurrentUserFromMentor(m), nil
	} else if !IsNotFound(err) {
		r.logger.Warn("read mentors mirror", zap.Error(err))
	}
	if rec, err := r.recruiterMirror.findBy(func(rec *models.Recruiter) bool { return matches(rec.ID, rec.Email) }); err == nil {
		return models.CurrentUserFromRecruiter(rec), nil
	} else if !IsNotFound(err) {
		r.logger.Warn("read recruiters mirror", zap.Error(err))
	}
	return nil, ErrNotFoundPrincipal
}

// FindCredentials looks an email up across the four collections for login.
func (r *PrincipalRepository) FindCredentials(ctx context.Context, email string) (*Credentials, error) {
	return readDual(r.dual, func() (*Credentials, error) {
		if s, err := r.students.FindByEmail(ctx, email); err == nil {
			return &Credentials{User: models.CurrentUserFromStudent(s), PasswordHash: s.PasswordHash}, nil
		} else if !IsNotFound(err) {
			return nil, err
		}
		if a, err := r.staff.FindAdminByEmail(ctx, email); err == nil {
			return &Credentials{User: models.CurrentUserFromAdmin(a), PasswordHash: a.PasswordHash}, nil
		} else if !IsNotFound(err) {
			return nil, err
		}
		if m, err := r.staff.FindMentorByEmail(ctx, email); err == nil {
			return &Credentials{User: models.CurrentUserFromMentor(m), PasswordHash: m.PasswordHash}, nil
		} else if !IsNotFound(err) {
			return nil, err
		}
		rec, err := r.staff.FindRecruiterByEmail(ctx, email)
		if err != nil {
			if IsNotFound(err) {
				return nil, ErrNotFoundPrincipal
			}
			return nil, err
		}
		return &Credentials{User: models.CurrentUserFromRecruiter(rec), PasswordHash: rec.PasswordHash}, nil
	}, func() (*Credentials, error) {
		if s, err := r.studentMirror.findBy(func(s *models.Student) bool { return equalFold(s.Email, email) }); err == nil {
			return &Credentials{User: models.CurrentUserFromStudent(s), PasswordHash: s.PasswordHash}, nil
		}
		if a, err := r.adminMirror.findBy(func(a *models.Admin) bool { return equalFold(a.Email, email) }); err == nil {
			return &Credentials{User: models.CurrentUserFromAdmin(a), PasswordHash: a.PasswordHash}, nil
		}
		if m, err := r.mentorMirror.findBy(func(m *models.Mentor) bool { return equalFold(m.Email, email) }); err == nil {
			return &Credentials{User: models.CurrentUserFromMentor(m), PasswordHash: m.PasswordHash}, nil
		}
		if rec, err := r.recruiterMirror.findBy(func(rec *models.Recruiter) bool { return equalFold(rec.Email, email) }); err == nil {
			return &Credentials{User: models.CurrentUserFromRecruiter(rec), PasswordHash: rec.PasswordHash}, nil
		}
		return nil, ErrNotFoundPrincipal
	})
}

// FindMentor returns a mentor by id.
func (r *PrincipalRepository) FindMentor(ctx context.Context, id string) (*models.Mentor, error) {
	return readDual(r.dual, func() (*models.Mentor, error) {
		return r.staff.FindMentor(ctx, id, "")
	}, func() (*models.Mentor, error) {
		return r.mentorMirror.find(id)
	})
}

// ListMentors returns every mentor ordered by id.
func (r *PrincipalRepository) ListMentors(ctx context.Context) ([]models.Mentor, error) {
	return readDual(r.dual, func() ([]models.Mentor, error) {
		return r.staff.ListMentors(ctx)
	}, func() ([]models.Mentor, error) {
		mentors, err := r.mentorMirror.all()
		if err != nil {
			return nil, err
		}
		sort.SliceStable(mentors, func(i, j int) bool { return mentors[i].ID < mentors[j].ID })
		return mentors, nil
	})
}

// FindRecruiter returns a recruiter by id.
func (r *PrincipalRepository) FindRecruiter(ctx context.Context, id string) (*models.Recruiter, error) {
	return readDual(r.dual, func() (*models.Recruiter, error) {
		return r.staff.FindRecruiter(ctx, id, "")
	}, func() (*models.Recruiter, error) {
		return r.recruiterMirror.find(id)
	})
}
