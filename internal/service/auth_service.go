package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-placement-api/internal/models"
	"github.com/noah-isme/campus-placement-api/internal/repository"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type credentialRepository interface {
	FindCredentials(ctx context.Context, email string) (*repository.Credentials, error)
}

type registrationRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
}

type studentCreator interface {
	Create(ctx context.Context, student *models.Student) error
}

// AuthConfig defines configuration for self-issued tokens.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthService provides registration and password login.
type AuthService struct {
	credentials credentialRepository
	students    registrationRepository
	creator     studentCreator
	validator   *validator.Validate
	logger      *zap.Logger
	config      AuthConfig
	now         func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(credentials credentialRepository, students registrationRepository, creator studentCreator, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{
		credentials: credentials,
		students:    students,
		creator:     creator,
		validator:   validate,
		logger:      logger,
		config:      config,
		now:         time.Now,
	}
}

// Register creates a student account and signs them in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	if _, err := s.students.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		Name:            req.Name,
		Email:           req.Email,
		PasswordHash:    string(hash),
		Role:            models.RoleStudent,
		Department:      req.Department,
		Semester:        req.Semester,
		CGPA:            req.CGPA,
		Skills:          req.Skills,
		Phone:           req.Phone,
		PlacementStatus: models.PlacementActive,
	}
	if err := s.creator.Create(ctx, student); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student registered", zap.String("student_id", student.ID))
	return s.issue(models.CurrentUserFromStudent(student))
}

// Login authenticates any principal by email and password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	creds, err := s.credentials.FindCredentials(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFoundPrincipal) || repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if creds.PasswordHash == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "Invalid credentials")
	}

	return s.issue(creds.User)
}

// IssueToken signs a self-issued token for user.
func (s *AuthService) IssueToken(user *models.CurrentUser) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.JWTClaims{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) issue(user *models.CurrentUser) (*models.LoginResponse, error) {
	token, _, err := s.IssueToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Expiration.Seconds()),
		User:      user,
		IssuedAt:  s.now().UTC(),
	}, nil
}
