package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestNATSPublisherEnvelope(t *testing.T) {
	conn := &recordingConn{}
	pub := newNATSPublisher(conn, "campus.placement.", nil)

	err := pub.Publish(context.Background(), TypeIPPTransition, map[string]string{"ippId": "IPP-STU001-INT001-2024", "status": "verified"})
	require.NoError(t, err)

	require.Equal(t, []string{"campus.placement.ipp.transition"}, conn.subjects)
	var env struct {
		ID   string            `json:"id"`
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(conn.payloads[0], &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, TypeIPPTransition, env.Type)
	assert.Equal(t, "verified", env.Data["status"])
}

func TestNATSPublisherErrors(t *testing.T) {
	pub := newNATSPublisher(&recordingConn{err: errors.New("nats: connection closed")}, "", nil)
	assert.Equal(t, "application.status", pub.Subject(TypeApplicationStatus))
	require.Error(t, pub.Publish(context.Background(), TypeApplicationStatus, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, newNATSPublisher(&recordingConn{}, "x", nil).Publish(ctx, "y", nil), context.Canceled)
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = Noop{}
	assert.NoError(t, pub.Publish(context.Background(), TypeIPPTransition, nil))
}
