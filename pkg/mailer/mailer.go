// Package mailer delivers outbound email through the Web3Forms form API.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/pkg/config"
)

// DefaultRecipient is used when a message has no explicit recipient.
const DefaultRecipient = "noreply@campus-placement.local"

// ErrNotConfigured reports that no access key is configured; callers treat
// the message as skipped.
var ErrNotConfigured = errors.New("mailer: access key not configured")

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	Body     string
	FromName string
	ReplyTo  string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Web3Forms posts messages to the Web3Forms submit endpoint.
type Web3Forms struct {
	accessKey string
	endpoint  string
	fromName  string
	replyTo   string
	client    *http.Client
	logger    *zap.Logger
}

// NewWeb3Forms builds a sender from configuration.
func NewWeb3Forms(cfg config.MailConfig, client *http.Client, logger *zap.Logger) *Web3Forms {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Web3Forms{
		accessKey: cfg.Web3FormsKey,
		endpoint:  cfg.Endpoint,
		fromName:  cfg.FromName,
		replyTo:   cfg.ReplyTo,
		client:    client,
		logger:    logger,
	}
}

// Configured reports whether an access key is present.
func (w *Web3Forms) Configured() bool {
	return w.accessKey != ""
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Send submits msg. It returns ErrNotConfigured without a network call when no
// access key is set.
func (w *Web3Forms) Send(ctx context.Context, msg Message) error {
	if !w.Configured() {
		w.logger.Debug("email skipped, mailer not configured", zap.String("subject", msg.Subject))
		return ErrNotConfigured
	}

	to := msg.To
	if to == "" {
		to = DefaultRecipient
	}
	fromName := msg.FromName
	if fromName == "" {
		fromName = w.fromName
	}
	replyTo := msg.ReplyTo
	if replyTo == "" {
		replyTo = w.replyTo
	}
	if replyTo == "" {
		replyTo = to
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := [][2]string{
		{"access_key", w.accessKey},
		{"subject", msg.Subject},
		{"name", fromName},
		{"email", to},
		{"message", msg.Body},
		{"_template", "table"},
		{"_captcha", "false"},
		{"reply_to", replyTo},
	}
	for _, field := range fields {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return fmt.Errorf("write form field %s: %w", field[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, body)
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var result submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("send mail: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !result.Success {
		return fmt.Errorf("send mail: status %d: %s", resp.StatusCode, result.Message)
	}

	w.logger.Info("email sent", zap.String("to", to), zap.String("subject", msg.Subject))
	return nil
}
