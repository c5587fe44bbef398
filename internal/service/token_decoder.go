package service

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

// DecodeTokenClaims reads the payload segment of a JWT without checking its
// signature. It is only used to route the token to the right verifier.
func DecodeTokenClaims(raw string) (map[string]interface{}, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, appErrors.Clone(appErrors.ErrMalformedToken, "Invalid token format")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedToken.Code, appErrors.ErrMalformedToken.Status, "Invalid token format")
	}
	claims := map[string]interface{}{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedToken.Code, appErrors.ErrMalformedToken.Status, "Invalid token format")
	}
	return claims, nil
}

// TemplateFromClaims returns the session template name, if any.
func TemplateFromClaims(claims map[string]interface{}) string {
	template, _ := claims["template"].(string)
	return template
}

// AuthClassifierConfig names the provider templates, audiences and issuer.
type AuthClassifierConfig struct {
	NewTemplate    string
	LegacyTemplate string
	NewAudience    string
	LegacyAudience string
	Issuer         string
}

// AuthClassifier picks the credential scheme for a decoded token.
type AuthClassifier struct {
	cfg AuthClassifierConfig
}

// NewAuthClassifier constructs an AuthClassifier.
func NewAuthClassifier(cfg AuthClassifierConfig) *AuthClassifier {
	return &AuthClassifier{cfg: cfg}
}

// Classify applies, in order: template match, issuer plus audience match,
// and otherwise treats the token as self-issued.
func (c *AuthClassifier) Classify(claims map[string]interface{}) models.AuthType {
	if claims == nil {
		return models.AuthTypeCampusLegacy
	}
	template := TemplateFromClaims(claims)
	if template != "" && template == c.cfg.NewTemplate {
		return models.AuthTypeClerkModern
	}
	if template != "" && c.cfg.LegacyTemplate != "" && template == c.cfg.LegacyTemplate {
		return models.AuthTypeClerkLegacy
	}
	if iss, _ := claims["iss"].(string); iss != "" && c.cfg.Issuer != "" && iss == c.cfg.Issuer {
		if audienceContains(claims["aud"], c.cfg.NewAudience) {
			return models.AuthTypeClerkModern
		}
		if audienceContains(claims["aud"], c.cfg.LegacyAudience) {
			return models.AuthTypeClerkLegacy
		}
		return models.AuthTypeClerkModern
	}
	return models.AuthTypeCampusLegacy
}

func audienceContains(aud interface{}, expected string) bool {
	if expected == "" {
		return false
	}
	switch v := aud.(type) {
	case string:
		return v == expected
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == expected {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if s == expected {
				return true
			}
		}
	}
	return false
}
