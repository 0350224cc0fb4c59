// Package pulse drives the buzzer output line for one measurement pulse at a
// time. When no GPIO hardware is available the emitter degrades to a no-op so
// measurements still run, just without a pulse.
package pulse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/errors"
	"github.com/nstokely/echotube/internal/logging"
)

// Emitter is the pulse capability handed to the measurement pipeline. The raw
// pin handle never leaves this package.
type Emitter interface {
	// Emit drives the output active, holds it for onDuration, then
	// deactivates it. Safe to call repeatedly across measurements.
	Emit(ctx context.Context, onDuration time.Duration) error
	// Available reports whether a real output line is attached.
	Available() bool
	// Close releases the output line.
	Close() error
}

var hostInitOnce sync.Once
var hostInitErr error

// New returns an emitter for the configured buzzer pin. If the buzzer is
// disabled, the periph host fails to initialize, or the pin cannot be found,
// it returns a no-op emitter and logs why, so the rest of the pipeline keeps
// working in degraded mode.
func New(settings *conf.BuzzerSettings) Emitter {
	logger := logging.ForService("pulse")

	if !settings.Enabled {
		logger.Info("buzzer disabled in configuration, pulse emission is a no-op")
		return &noopEmitter{}
	}

	hostInitOnce.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		logger.Warn("GPIO host initialization failed, continuing without buzzer",
			"error", hostInitErr)
		return &noopEmitter{}
	}

	pin := gpioreg.ByName(settings.Pin)
	if pin == nil {
		logger.Warn("buzzer pin not found, continuing without buzzer",
			"pin", settings.Pin)
		return &noopEmitter{}
	}

	// Make sure the line starts inactive
	if err := pin.Out(gpio.Low); err != nil {
		logger.Warn("buzzer pin refused initial low state, continuing without buzzer",
			"pin", settings.Pin, "error", err)
		return &noopEmitter{}
	}

	logger.Info("buzzer attached", "pin", pin.Name())
	return &gpioEmitter{pin: pin, logger: logger}
}

// gpioEmitter owns a single output line for the process lifetime.
type gpioEmitter struct {
	mu     sync.Mutex
	pin    gpio.PinIO
	logger *slog.Logger
}

func (e *gpioEmitter) Emit(ctx context.Context, onDuration time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.pin.Out(gpio.High); err != nil {
		return errors.New(err).
			Component("pulse").
			Category(errors.CategoryGPIO).
			Context("pin", e.pin.Name()).
			Build()
	}
	// The line must come back down even if the hold is cut short.
	defer func() {
		if err := e.pin.Out(gpio.Low); err != nil {
			e.logger.Error("failed to deactivate buzzer pin", "pin", e.pin.Name(), "error", err)
		}
	}()

	timer := time.NewTimer(onDuration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (e *gpioEmitter) Available() bool { return true }

func (e *gpioEmitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.pin.Out(gpio.Low); err != nil {
		return errors.New(err).
			Component("pulse").
			Category(errors.CategoryGPIO).
			Context("pin", e.pin.Name()).
			Build()
	}
	return e.pin.Halt()
}

// noopEmitter is the degraded-mode emitter used when no buzzer is attached.
type noopEmitter struct{}

func (*noopEmitter) Emit(ctx context.Context, onDuration time.Duration) error { return nil }
func (*noopEmitter) Available() bool                                          { return false }
func (*noopEmitter) Close() error                                             { return nil }
