package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream 503")

func testConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  2,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fail() (string, error) { return "", errUpstream }

func TestBreaker_TripsAndRecovers(t *testing.T) {
	b := New[string](testConfig("trip"), quietLogger(), nil)

	for i := 0; i < 2; i++ {
		_, err := b.Execute(fail)
		require.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.True(t, b.Open())

	_, err := b.Execute(func() (string, error) { return "never", nil })
	assert.ErrorIs(t, err, ErrOpen)

	time.Sleep(60 * time.Millisecond)
	v, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_IgnoresNonFailures(t *testing.T) {
	b := New[string](testConfig("ignore"), quietLogger(), func(err error) bool {
		return !errors.Is(err, context.Canceled)
	})

	for i := 0; i < 5; i++ {
		_, err := b.Execute(func() (string, error) { return "", context.Canceled })
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, "ignore", b.Name())
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, float64(0), stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, float64(1), stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, float64(2), stateToFloat(gobreaker.StateOpen))
}
