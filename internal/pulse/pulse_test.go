package pulse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/nstokely/echotube/internal/conf"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDisabledBuzzerIsNoop(t *testing.T) {
	e := New(&conf.BuzzerSettings{Enabled: false, Pin: "GPIO18", OnMs: 8})

	assert.False(t, e.Available())
	assert.NoError(t, e.Emit(context.Background(), 8*time.Millisecond))
	assert.NoError(t, e.Close())
}

func TestNewUnknownPinDegrades(t *testing.T) {
	// No such pin on the test host: must degrade, never fail startup
	e := New(&conf.BuzzerSettings{Enabled: true, Pin: "no-such-pin-xyz", OnMs: 8})

	assert.False(t, e.Available())
	assert.NoError(t, e.Emit(context.Background(), 8*time.Millisecond))
}

func TestNoopEmitIsIdempotent(t *testing.T) {
	e := &noopEmitter{}
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Emit(context.Background(), time.Millisecond))
	}
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}

func TestGpioEmitterHoldsThenReleases(t *testing.T) {
	pin := &gpiotest.Pin{N: "TEST1", Num: 1}
	e := &gpioEmitter{pin: pin, logger: testLogger()}

	start := time.Now()
	err := e.Emit(context.Background(), 20*time.Millisecond)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Equal(t, gpio.Low, pin.Read(), "line must end inactive")
}

func TestGpioEmitterRepeatedAcrossMeasurements(t *testing.T) {
	pin := &gpiotest.Pin{N: "TEST2", Num: 2}
	e := &gpioEmitter{pin: pin, logger: testLogger()}

	for i := 0; i < 3; i++ {
		require.NoError(t, e.Emit(context.Background(), time.Millisecond))
		assert.Equal(t, gpio.Low, pin.Read())
	}
	require.NoError(t, e.Close())
}

func TestGpioEmitterCancelledContextStillLowersLine(t *testing.T) {
	pin := &gpiotest.Pin{N: "TEST3", Num: 3}
	e := &gpioEmitter{pin: pin, logger: testLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Emit(ctx, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gpio.Low, pin.Read())
}
