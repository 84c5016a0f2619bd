package circuitbreaker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions_AreUsable(t *testing.T) {
	opts := DefaultOptions()

	assert.Greater(t, opts.FailureThreshold, 0)
	assert.Greater(t, opts.FailWindow, time.Duration(0))
	assert.Greater(t, opts.OpenCoolDown, time.Duration(0))
	assert.Greater(t, opts.HalfOpenLease, time.Duration(0))
}

func TestNewBreaker_UsesDefaults(t *testing.T) {
	rdb, _ := newTestRedisClient(t)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	breaker := NewRedisBreaker(rdb, "test", Options{}, logger)

	assert.Equal(t, DefaultOptions(), breaker.opts)
}
