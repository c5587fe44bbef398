package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrUserNotFound is returned when the provider has no such user.
var ErrUserNotFound = errors.New("identity: user not found")

// UserProfile is the subset of the provider's user record the portal uses.
type UserProfile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// DisplayName joins the first and last name, falling back to the email's
// local part and finally to fallback.
func (p UserProfile) DisplayName(fallback string) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{strings.TrimSpace(p.FirstName), strings.TrimSpace(p.LastName)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		return local
	}
	return fallback
}

// UserDirectory reads user profiles from the provider.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*UserProfile, error)
}

// Client calls the provider's backend users API with the secret key as a
// bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a users API client. base may be nil.
func NewClient(ctx context.Context, apiURL, secretKey string, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{Timeout: 10 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = base.Timeout
	return &Client{baseURL: strings.TrimRight(apiURL, "/"), http: httpClient}
}

type userResponse struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// GetUser fetches a user by provider id.
func (c *Client) GetUser(ctx context.Context, userID string) (*UserProfile, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrUserNotFound
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch user: unexpected status %d", resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}

	profile := &UserProfile{ID: body.ID, FirstName: body.FirstName, LastName: body.LastName}
	for _, addr := range body.EmailAddresses {
		if addr.ID == body.PrimaryEmailAddressID {
			profile.Email = addr.EmailAddress
			break
		}
	}
	if profile.Email == "" && len(body.EmailAddresses) > 0 {
		profile.Email = body.EmailAddresses[0].EmailAddress
	}
	return profile, nil
}
