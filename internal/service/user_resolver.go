package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/identity"
)

const maxIDAttempts = 5

var errUserProfileNotFound = appErrors.Clone(appErrors.ErrNotFound, "User profile not found")

type sequenceSource interface {
	MaxSequence(ctx context.Context) (int, error)
}

// insertWithSequence assigns prefix(max+1) ids and retries on unique
// violations, re-reading the current maximum each time.
func insertWithSequence(ctx context.Context, prefix string, src sequenceSource, insert func(id string) error) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		n, err := src.MaxSequence(ctx)
		if err != nil {
			return "", err
		}
		id := repository.FormatSequenceID(prefix, n+1+attempt)
		err = insert(id)
		if err == nil {
			return id, nil
		}
		if !repository.IsUniqueViolation(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

type studentAllocatorRepository interface {
	MaxSequence(ctx context.Context) (int, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// ErrEmailTaken reports that a student with the email already exists.
var ErrEmailTaken = appErrors.Clone(appErrors.ErrConflict, "Email already registered")

// StudentIDAllocator inserts students under the next free STU id.
type StudentIDAllocator struct {
	repo studentAllocatorRepository
}

// NewStudentIDAllocator constructs a StudentIDAllocator.
func NewStudentIDAllocator(repo studentAllocatorRepository) *StudentIDAllocator {
	return &StudentIDAllocator{repo: repo}
}

// Create assigns an id and inserts student. A clash on the email returns
// ErrEmailTaken; a clash on the id is retried.
func (a *StudentIDAllocator) Create(ctx context.Context, student *models.Student) error {
	_, err := insertWithSequence(ctx, repository.PrefixStudent, a.repo, func(id string) error {
		student.ID = id
		err := a.repo.Create(ctx, student)
		if err != nil && repository.IsUniqueViolation(err) {
			if existing, findErr := a.repo.FindByEmail(ctx, student.Email); findErr == nil && existing != nil {
				return ErrEmailTaken
			}
		}
		return err
	})
	return err
}

type legacyPrincipalRepository interface {
	FindLegacy(ctx context.Context, id, email string) (*models.CurrentUser, error)
}

type externalStudentRepository interface {
	Available() bool
	FindByClerkID(ctx context.Context, clerkID string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
}

// UserResolver maps verified claims to a portal principal.
type UserResolver struct {
	principals legacyPrincipalRepository
	students   externalStudentRepository
	allocator  *StudentIDAllocator
	directory  identity.UserDirectory
	logger     *zap.Logger
}

// NewUserResolver constructs a UserResolver. directory may be nil when the
// identity provider's users API is not configured.
func NewUserResolver(principals legacyPrincipalRepository, students externalStudentRepository, allocator *StudentIDAllocator, directory identity.UserDirectory, logger *zap.Logger) *UserResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserResolver{principals: principals, students: students, allocator: allocator, directory: directory, logger: logger}
}

// Resolve dispatches on the auth type.
func (r *UserResolver) Resolve(ctx context.Context, authType models.AuthType, claims *models.SessionClaims) (*models.CurrentUser, error) {
	if authType.External() {
		return r.ResolveExternal(ctx, claims.UserID())
	}
	return r.ResolveLegacy(ctx, claims)
}

// ResolveLegacy finds the principal named by a self-issued token in either
// store.
func (r *UserResolver) ResolveLegacy(ctx context.Context, claims *models.SessionClaims) (*models.CurrentUser, error) {
	if claims == nil || (claims.ID == "" && claims.Email == "") {
		return nil, errUserProfileNotFound
	}
	user, err := r.principals.FindLegacy(ctx, claims.ID, claims.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFoundPrincipal) || repository.IsNotFound(err) {
			return nil, errUserProfileNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve user")
	}
	return user, nil
}

// ResolveExternal finds, links or provisions the student for a provider
// user id. It needs the primary database.
func (r *UserResolver) ResolveExternal(ctx context.Context, clerkID string) (*models.CurrentUser, error) {
	if !r.students.Available() {
		return nil, errDatabaseUnavailable
	}
	if clerkID == "" {
		return nil, errUserProfileNotFound
	}

	student, err := r.students.FindByClerkID(ctx, clerkID)
	if err == nil {
		return models.CurrentUserFromStudent(student), nil
	}
	if !repository.IsNotFound(err) {
		return nil, r.storeError(err, "failed to load student")
	}

	if r.directory == nil {
		return nil, errUserProfileNotFound
	}
	profile, err := r.directory.GetUser(ctx, clerkID)
	if err != nil {
		r.logger.Warn("fetch identity provider user", zap.String("clerk_id", clerkID), zap.Error(err))
		return nil, errUserProfileNotFound
	}
	if profile.Email == "" {
		r.logger.Warn("identity provider user has no email", zap.String("clerk_id", clerkID))
		return nil, errUserProfileNotFound
	}

	if linked, err := r.link(ctx, profile.Email, clerkID); linked != nil || err != nil {
		return linked, err
	}

	id := clerkID
	student = &models.Student{
		Name:            profile.DisplayName("Student"),
		Email:           profile.Email,
		ClerkID:         &id,
		Role:            models.RoleStudent,
		Department:      models.DepartmentUnspecified,
		Semester:        1,
		CGPA:            0,
		PlacementStatus: models.PlacementActive,
	}
	if err := r.allocator.Create(ctx, student); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			if linked, linkErr := r.link(ctx, profile.Email, clerkID); linked != nil || linkErr != nil {
				return linked, linkErr
			}
		}
		return nil, r.storeError(err, "failed to provision student")
	}
	r.logger.Info("provisioned student from identity provider", zap.String("student_id", student.ID), zap.String("clerk_id", clerkID))
	return models.CurrentUserFromStudent(student), nil
}

// link attaches clerkID to the student with email, if one exists.
func (r *UserResolver) link(ctx context.Context, email, clerkID string) (*models.CurrentUser, error) {
	existing, err := r.students.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.storeError(err, "failed to load student")
	}
	id := clerkID
	existing.ClerkID = &id
	if err := r.students.Update(ctx, existing); err != nil {
		return nil, r.storeError(err, "failed to link student")
	}
	return models.CurrentUserFromStudent(existing), nil
}

func (r *UserResolver) storeError(err error, message string) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return errDatabaseUnavailable
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
