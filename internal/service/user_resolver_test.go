package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/identity"
)

type stubPrincipals struct {
	user *models.CurrentUser
	err  error
	id   string
}

func (s *stubPrincipals) FindLegacy(ctx context.Context, id, email string) (*models.CurrentUser, error) {
	s.id = id
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubDirectory struct {
	profiles map[string]*identity.UserProfile
	calls    int
}

func (s *stubDirectory) GetUser(ctx context.Context, userID string) (*identity.UserProfile, error) {
	s.calls++
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, identity.ErrUserNotFound
}

func newTestResolver(students *fakeStudentRepo, directory identity.UserDirectory) *UserResolver {
	return NewUserResolver(&stubPrincipals{err: repository.ErrNotFoundPrincipal}, students, NewStudentIDAllocator(students), directory, zap.NewNop())
}

func TestUserResolverLegacy(t *testing.T) {
	principals := &stubPrincipals{user: &models.CurrentUser{ID: "ADM001", Role: models.RoleAdmin}}
	resolver := NewUserResolver(principals, newFakeStudentRepo(), nil, nil, nil)

	user, err := resolver.Resolve(context.Background(), models.AuthTypeCampusLegacy, &models.SessionClaims{ID: "ADM001", Email: "admin@college.edu"})
	require.NoError(t, err)
	assert.Equal(t, "ADM001", user.ID)
	assert.Equal(t, "ADM001", principals.id)

	principals.err = repository.ErrNotFoundPrincipal
	_, err = resolver.Resolve(context.Background(), models.AuthTypeCampusLegacy, &models.SessionClaims{ID: "ghost"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 404, appErr.Status)
	assert.Equal(t, "User profile not found", appErr.Message)
}

func TestUserResolverExternalRequiresDatabase(t *testing.T) {
	students := newFakeStudentRepo()
	students.unavailable = true

	_, err := newTestResolver(students, nil).ResolveExternal(context.Background(), "user_1")
	require.Error(t, err)
	assert.Equal(t, 503, appErrors.FromError(err).Status)
}

func TestUserResolverExternalFindsByClerkID(t *testing.T) {
	clerkID := "user_1"
	students := newFakeStudentRepo(models.Student{ID: "STU004", Email: "asha@college.edu", ClerkID: &clerkID})
	directory := &stubDirectory{}

	user, err := newTestResolver(students, directory).ResolveExternal(context.Background(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, "STU004", user.ID)
	assert.Zero(t, directory.calls)
}

func TestUserResolverExternalLinksExistingEmail(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "STU002", Email: "ravi@college.edu", Department: "CSE"})
	directory := &stubDirectory{profiles: map[string]*identity.UserProfile{
		"user_2": {ID: "user_2", Email: "ravi@college.edu", FirstName: "Ravi"},
	}}

	user, err := newTestResolver(students, directory).ResolveExternal(context.Background(), "user_2")
	require.NoError(t, err)
	assert.Equal(t, "STU002", user.ID)
	assert.Equal(t, "user_2", user.ClerkID)
	require.NotNil(t, students.students["STU002"].ClerkID)
	assert.Equal(t, "user_2", *students.students["STU002"].ClerkID)
}

func TestUserResolverExternalProvisionsNextSequence(t *testing.T) {
	students := newFakeStudentRepo(
		models.Student{ID: "STU001", Email: "a@college.edu"},
		models.Student{ID: "STU007", Email: "b@college.edu"},
	)
	directory := &stubDirectory{profiles: map[string]*identity.UserProfile{
		"user_3": {ID: "user_3", Email: "meera@college.edu", FirstName: "Meera", LastName: "Iyer"},
	}}

	user, err := newTestResolver(students, directory).ResolveExternal(context.Background(), "user_3")
	require.NoError(t, err)
	assert.Equal(t, "STU008", user.ID)
	assert.Equal(t, "Meera Iyer", user.Name)
	created := students.students["STU008"]
	require.NotNil(t, created)
	assert.Equal(t, models.DepartmentUnspecified, created.Department)
	assert.Equal(t, 1, created.Semester)
	assert.Equal(t, models.PlacementActive, created.PlacementStatus)
}

func TestUserResolverExternalRetriesIDCollision(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "STU001", Email: "a@college.edu"})
	students.createErrs = []error{repository.ErrDuplicate, repository.ErrDuplicate}
	directory := &stubDirectory{profiles: map[string]*identity.UserProfile{
		"user_4": {ID: "user_4", Email: "kiran@college.edu"},
	}}

	user, err := newTestResolver(students, directory).ResolveExternal(context.Background(), "user_4")
	require.NoError(t, err)
	assert.Equal(t, "STU004", user.ID)
	assert.Equal(t, "kiran", user.Name)
}

func TestUserResolverExternalWithoutEmail(t *testing.T) {
	directory := &stubDirectory{profiles: map[string]*identity.UserProfile{"user_5": {ID: "user_5"}}}

	_, err := newTestResolver(newFakeStudentRepo(), directory).ResolveExternal(context.Background(), "user_5")
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)

	_, err = newTestResolver(newFakeStudentRepo(), directory).ResolveExternal(context.Background(), "missing")
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestStudentIDAllocatorEmailConflict(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "STU001", Email: "taken@college.edu"})
	err := NewStudentIDAllocator(students).Create(context.Background(), &models.Student{Email: "taken@college.edu"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmailTaken))
}
