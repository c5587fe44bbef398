package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

// Authentication outcomes recorded in metrics.
const (
	AuthResultSuccess  = "success"
	AuthResultRejected = "rejected"
	AuthResultError    = "error"
)

type tokenVerifier interface {
	Verify(ctx context.Context, token string, authType models.AuthType, template string) (*models.SessionClaims, error)
}

type principalResolver interface {
	Resolve(ctx context.Context, authType models.AuthType, claims *models.SessionClaims) (*models.CurrentUser, error)
}

type authObserver interface {
	ObserveAuth(authType models.AuthType, result string)
}

// HybridAuthenticator turns an Authorization header into a principal,
// accepting self-issued and identity provider tokens.
type HybridAuthenticator struct {
	classifier *AuthClassifier
	verifier   tokenVerifier
	resolver   principalResolver
	metrics    authObserver
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewHybridAuthenticator wires the authentication pipeline. metrics may be nil.
func NewHybridAuthenticator(classifier *AuthClassifier, verifier tokenVerifier, resolver principalResolver, metrics authObserver, logger *zap.Logger) *HybridAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridAuthenticator{
		classifier: classifier,
		verifier:   verifier,
		resolver:   resolver,
		metrics:    metrics,
		logger:     logger,
		tracer:     otel.Tracer("github.com/noah-isme/campus-placement-api/internal/service/auth"),
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "Missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "Invalid Authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// Authenticate verifies the bearer token in header and resolves its user.
func (a *HybridAuthenticator) Authenticate(ctx context.Context, header string) (*models.CurrentUser, *models.AuthInfo, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, nil, err
	}

	raw, err := DecodeTokenClaims(token)
	if err != nil {
		a.observe(models.AuthTypeCampusLegacy, AuthResultRejected)
		return nil, nil, err
	}
	authType := a.classifier.Classify(raw)
	template := TemplateFromClaims(raw)

	spanCtx, span := a.tracer.Start(ctx, "auth.authenticate", trace.WithAttributes(
		attribute.String("auth.type", string(authType)),
		attribute.String("auth.template", template),
	))
	defer span.End()

	claims, err := a.verifier.Verify(spanCtx, token, authType, template)
	if err != nil {
		span.RecordError(err)
		a.observe(authType, AuthResultRejected)
		a.logger.Debug("token verification failed", zap.String("auth_type", string(authType)), zap.Error(err))
		return nil, nil, err
	}

	user, err := a.resolver.Resolve(spanCtx, authType, claims)
	if err != nil {
		span.RecordError(err)
		result := AuthResultRejected
		if appErr := appErrors.FromError(err); appErr.Status >= 500 {
			result = AuthResultError
		}
		a.observe(authType, result)
		return nil, nil, err
	}

	info := &models.AuthInfo{
		UserID:    claims.UserID(),
		SessionID: claims.SessionID,
		Template:  template,
		AuthType:  authType,
		Claims:    claims,
	}
	if authType == models.AuthTypeCampusLegacy {
		info.Template = string(models.AuthTypeCampusLegacy)
	}
	span.SetAttributes(attribute.String("auth.user_id", user.ID), attribute.String("auth.role", string(user.Role)))
	a.observe(authType, AuthResultSuccess)
	return user, info, nil
}

func (a *HybridAuthenticator) observe(authType models.AuthType, result string) {
	if a.metrics != nil {
		a.metrics.ObserveAuth(authType, result)
	}
}
