package mailer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-placement-api/pkg/config"
)

func TestWeb3FormsSend(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		received = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			received[key] = values[0]
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Email sent successfully!"}`))
	}))
	defer srv.Close()

	sender := NewWeb3Forms(config.MailConfig{
		Web3FormsKey: "key-123",
		Endpoint:     srv.URL,
		FromName:     "Campus Placement Portal",
	}, srv.Client(), nil)

	err := sender.Send(context.Background(), Message{
		To:      "asha@campus.edu",
		Subject: "Application approved - Backend Intern",
		Body:    "Hello",
		ReplyTo: "placements@college.edu",
	})
	require.NoError(t, err)

	assert.Equal(t, "key-123", received["access_key"])
	assert.Equal(t, "asha@campus.edu", received["email"])
	assert.Equal(t, "Campus Placement Portal", received["name"])
	assert.Equal(t, "table", received["_template"])
	assert.Equal(t, "false", received["_captcha"])
	assert.Equal(t, "placements@college.edu", received["reply_to"])
}

func TestWeb3FormsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid access key"}`))
	}))
	defer srv.Close()

	sender := NewWeb3Forms(config.MailConfig{Web3FormsKey: "bad", Endpoint: srv.URL}, srv.Client(), nil)
	err := sender.Send(context.Background(), Message{Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid access key")
}

func TestWeb3FormsNotConfigured(t *testing.T) {
	sender := NewWeb3Forms(config.MailConfig{Endpoint: "http://127.0.0.1:1"}, nil, nil)
	assert.False(t, sender.Configured())
	assert.ErrorIs(t, sender.Send(context.Background(), Message{Subject: "x"}), ErrNotConfigured)
}
