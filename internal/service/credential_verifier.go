package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/identity"
)

// CredentialVerifierConfig holds the secrets and expectations for both
// schemes.
type CredentialVerifierConfig struct {
	JWTSecret      string
	NewAudience    string
	LegacyAudience string
	Issuer         string
	ClockSkew      time.Duration
}

// CredentialVerifier checks token signatures for the classified scheme.
type CredentialVerifier struct {
	cfg      CredentialVerifierConfig
	provider identity.TokenVerifier
}

// NewCredentialVerifier constructs a CredentialVerifier. provider may be nil
// when no external identity provider is configured.
func NewCredentialVerifier(cfg CredentialVerifierConfig, provider identity.TokenVerifier) *CredentialVerifier {
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = time.Minute
	}
	return &CredentialVerifier{cfg: cfg, provider: provider}
}

// Verify validates token under authType. Self-issued failures are
// unauthorized; provider failures are forbidden.
func (v *CredentialVerifier) Verify(ctx context.Context, token string, authType models.AuthType, template string) (*models.SessionClaims, error) {
	if authType == models.AuthTypeCampusLegacy {
		return v.verifyLegacy(token)
	}
	if v.provider == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Forbidden")
	}
	opts := identity.VerifyOptions{
		Audience:  v.cfg.NewAudience,
		Issuer:    v.cfg.Issuer,
		ClockSkew: v.cfg.ClockSkew,
	}
	if authType == models.AuthTypeClerkLegacy {
		opts.Audience = v.cfg.LegacyAudience
	}
	if template != "" {
		opts.AuthorizedParties = []string{template}
	}
	raw, err := v.provider.Verify(ctx, token, opts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "Forbidden")
	}
	claims := sessionClaimsFromMap(raw)
	claims.Template = template
	return claims, nil
}

func (v *CredentialVerifier) verifyLegacy(token string) (*models.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(v.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "Unauthorized")
	}
	claims, ok := parsed.Claims.(*models.JWTClaims)
	if !ok || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Unauthorized")
	}
	session := &models.SessionClaims{
		Subject: claims.Subject,
		ID:      claims.ID,
		Email:   claims.Email,
		Issuer:  claims.Issuer,
		Raw: map[string]interface{}{
			"id":    claims.ID,
			"email": claims.Email,
			"role":  string(claims.Role),
			"name":  claims.Name,
		},
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		session.ExpiresAt = &exp
	}
	return session, nil
}

func sessionClaimsFromMap(raw map[string]interface{}) *models.SessionClaims {
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	claims := &models.SessionClaims{
		Subject:   str("sub"),
		ID:        str("id"),
		Email:     str("email"),
		SessionID: str("sid"),
		Issuer:    str("iss"),
		Raw:       raw,
	}
	if claims.SessionID == "" {
		claims.SessionID = str("session_id")
	}
	switch aud := raw["aud"].(type) {
	case string:
		claims.Audience = []string{aud}
	case []interface{}:
		for _, item := range aud {
			if s, ok := item.(string); ok {
				claims.Audience = append(claims.Audience, s)
			}
		}
	}
	if exp, ok := raw["exp"].(float64); ok {
		t := time.Unix(int64(exp), 0).UTC()
		claims.ExpiresAt = &t
	}
	return claims
}
