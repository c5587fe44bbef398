package database

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (p *fakePinger) PingContext(context.Context) error {
	p.calls.Add(1)
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestMonitorTracksAvailability(t *testing.T) {
	pinger := &fakePinger{}
	monitor := NewMonitor(pinger, time.Hour, nil)

	var changes []bool
	monitor.OnChange(func(up bool) { changes = append(changes, up) })

	assert.True(t, monitor.Check(context.Background()))
	assert.True(t, monitor.Available())

	pinger.fail.Store(true)
	assert.False(t, monitor.Check(context.Background()))
	assert.False(t, monitor.Available())

	assert.Equal(t, []bool{true, false}, changes)
}

func TestMonitorNilDatabase(t *testing.T) {
	monitor := NewMonitor(nil, time.Millisecond, nil)
	monitor.Start(context.Background())
	defer monitor.Stop()

	assert.False(t, monitor.Available())
}

func TestMonitorBackgroundProbe(t *testing.T) {
	pinger := &fakePinger{}
	monitor := NewMonitor(pinger, 5*time.Millisecond, nil)
	monitor.Start(context.Background())

	assert.Eventually(t, func() bool { return pinger.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	monitor.Stop()
	assert.True(t, monitor.Available())
}
