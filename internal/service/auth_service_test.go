package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type mockCredentialRepo struct {
	creds map[string]*repository.Credentials
}

func (m *mockCredentialRepo) FindCredentials(ctx context.Context, email string) (*repository.Credentials, error) {
	if c, ok := m.creds[email]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFoundPrincipal
}

func newTestAuthService(creds *mockCredentialRepo, students *fakeStudentRepo) *AuthService {
	return NewAuthService(creds, students, NewStudentIDAllocator(students), validator.New(), zap.NewNop(), AuthConfig{Secret: "secret", Expiration: time.Hour})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	creds := &mockCredentialRepo{creds: map[string]*repository.Credentials{
		"mentor@college.edu": {User: &models.CurrentUser{ID: "MEN001", Email: "mentor@college.edu", Role: models.RoleMentor, Name: "Dr. Rao"}, PasswordHash: string(hash)},
	}}
	svc := newTestAuthService(creds, newFakeStudentRepo())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "Mentor@College.edu", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "MEN001", res.User.ID)

	verifier := NewCredentialVerifier(CredentialVerifierConfig{JWTSecret: "secret"}, nil)
	claims, err := verifier.Verify(context.Background(), res.Token, models.AuthTypeCampusLegacy, "")
	require.NoError(t, err)
	assert.Equal(t, "MEN001", claims.ID)
	assert.Equal(t, "mentor", claims.Raw["role"])
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	creds := &mockCredentialRepo{creds: map[string]*repository.Credentials{
		"admin@college.edu": {User: &models.CurrentUser{ID: "ADM001"}, PasswordHash: string(hash)},
	}}
	svc := newTestAuthService(creds, newFakeStudentRepo())

	for _, req := range []models.LoginRequest{
		{Email: "admin@college.edu", Password: "wrong"},
		{Email: "nobody@college.edu", Password: "password"},
	} {
		_, err := svc.Login(context.Background(), req)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}
}

func TestAuthServiceRegister(t *testing.T) {
	students := newFakeStudentRepo(models.Student{ID: "STU003", Email: "old@college.edu"})
	svc := newTestAuthService(&mockCredentialRepo{}, students)

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:       "Asha",
		Email:      "asha@college.edu",
		Password:   "secret1",
		Department: "CSE",
		Semester:   5,
		CGPA:       8.4,
	})
	require.NoError(t, err)
	assert.Equal(t, "STU004", res.User.ID)
	stored := students.students["STU004"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	_, err = svc.Register(context.Background(), models.RegisterRequest{
		Name: "Old", Email: "old@college.edu", Password: "secret1", Department: "IT", Semester: 3,
	})
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)

	_, err = svc.Register(context.Background(), models.RegisterRequest{Name: "Bad", Email: "bad", Password: "1"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
