package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://clerk.campus.test"

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]interface{}) string {
	t.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", "test-key"),
	)
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	object, err := signer.Sign(payload)
	require.NoError(t, err)
	token, err := object.CompactSerialize()
	require.NoError(t, err)
	return token
}

func jwksServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     "test-key",
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseClaims(now time.Time) map[string]interface{} {
	return map[string]interface{}{
		"iss": testIssuer,
		"sub": "user_2abc",
		"aud": "campus-portal",
		"azp": "campus-modern",
		"sid": "sess_1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func TestVerifierAcceptsValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, key)

	verifier := NewVerifier(context.Background(), srv.URL, srv.Client())
	token := signToken(t, key, baseClaims(time.Now()))

	claims, err := verifier.Verify(context.Background(), token, VerifyOptions{
		Audience:          "campus-portal",
		Issuer:            testIssuer,
		ClockSkew:         time.Minute,
		AuthorizedParties: []string{"campus-modern"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", claims["sub"])
	assert.Equal(t, "sess_1", claims["sid"])
}

func TestVerifierRejectsWrongAudienceAndParty(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, key)
	verifier := NewVerifier(context.Background(), srv.URL, srv.Client())
	token := signToken(t, key, baseClaims(time.Now()))

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{Audience: "other", Issuer: testIssuer})
	require.Error(t, err)

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{
		Audience:          "campus-portal",
		Issuer:            testIssuer,
		AuthorizedParties: []string{"campus-legacy"},
	})
	require.ErrorIs(t, err, ErrUnauthorizedParty)
}

func TestVerifierClockSkew(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, key)
	verifier := NewVerifier(context.Background(), srv.URL, srv.Client())

	claims := baseClaims(time.Now())
	claims["exp"] = time.Now().Add(-30 * time.Second).Unix()
	token := signToken(t, key, claims)

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{Issuer: testIssuer, ClockSkew: time.Minute})
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token, VerifyOptions{Issuer: testIssuer})
	require.Error(t, err)
}

func TestVerifierRejectsForeignKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, key)
	verifier := NewVerifier(context.Background(), srv.URL, srv.Client())

	token := signToken(t, other, baseClaims(time.Now()))
	_, err = verifier.Verify(context.Background(), token, VerifyOptions{Issuer: testIssuer})
	require.Error(t, err)
}

func TestClientGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v1/users/user_2abc":
			_, _ = w.Write([]byte(`{
				"id": "user_2abc",
				"first_name": " Asha ",
				"last_name": "Rao",
				"primary_email_address_id": "idn_2",
				"email_addresses": [
					{"id": "idn_1", "email_address": "old@campus.edu"},
					{"id": "idn_2", "email_address": "asha@campus.edu"}
				]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(context.Background(), srv.URL, "sk_test_123", srv.Client())

	profile, err := client.GetUser(context.Background(), "user_2abc")
	require.NoError(t, err)
	assert.Equal(t, "asha@campus.edu", profile.Email)
	assert.Equal(t, "Asha Rao", profile.DisplayName("Student"))

	_, err = client.GetUser(context.Background(), "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserProfileDisplayName(t *testing.T) {
	assert.Equal(t, "ravi", UserProfile{Email: "ravi@campus.edu"}.DisplayName("Student"))
	assert.Equal(t, "Student", UserProfile{}.DisplayName("Student"))
	assert.Equal(t, "Meera", UserProfile{FirstName: "Meera"}.DisplayName("Student"))
}
