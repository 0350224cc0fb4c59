// Package measurement coordinates one echo measurement at a time: start the
// recorder, fire the pulse once sampling has begun, locate the reflection in
// the captured waveform and convert it to a speed estimate.
package measurement

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nstokely/echotube/internal/capture"
	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/errors"
	"github.com/nstokely/echotube/internal/locator"
	"github.com/nstokely/echotube/internal/logging"
	"github.com/nstokely/echotube/internal/observability/metrics"
	"github.com/nstokely/echotube/internal/pulse"
)

// settleDelay gives the capture device a moment between its first delivered
// frames and the pulse, so the pulse onset always lands inside the buffer.
const settleDelay = 5 * time.Millisecond

// captureGrace bounds how long past the nominal record duration we wait for
// the backend before declaring the capture stalled.
const captureGrace = 2 * time.Second

// ErrMeasurementInFlight is returned by Start while a measurement is running.
var ErrMeasurementInFlight = errors.NewStd("a measurement is already in flight")

// CaptureSession is the in-progress capture handed back by a Recorder.
type CaptureSession interface {
	Started() <-chan struct{}
	Wait(ctx context.Context) ([]float32, error)
}

// Recorder begins fixed-length captures.
type Recorder interface {
	Begin(ctx context.Context) (CaptureSession, error)
}

// WrapRecorder adapts the concrete capture recorder to the Recorder interface.
func WrapRecorder(r *capture.Recorder) Recorder {
	return recorderAdapter{r}
}

type recorderAdapter struct {
	r *capture.Recorder
}

func (a recorderAdapter) Begin(ctx context.Context) (CaptureSession, error) {
	return a.r.Begin(ctx)
}

// Result is one completed measurement. All fields are measurement-scoped and
// never mutated after delivery.
type Result struct {
	Waveform     []float32
	SampleRate   int
	Estimate     locator.Estimate
	SpeedMPS     float64
	PulseEmitted bool
	Elapsed      time.Duration
	CompletedAt  time.Time
}

// Outcome is what the presentation layer receives per attempt: a result or
// an error, never both.
type Outcome struct {
	Result *Result
	Err    error
}

// Manager runs measurements, enforcing that at most one is in flight.
type Manager struct {
	settings *conf.Settings
	recorder Recorder
	emitter  pulse.Emitter
	metrics  *metrics.MeasurementMetrics
	logger   *slog.Logger

	inFlight atomic.Bool
	results  chan Outcome

	mu     sync.RWMutex
	latest *Outcome
	seq    int
}

// NewManager wires a measurement manager. metrics may be nil.
func NewManager(settings *conf.Settings, recorder Recorder, emitter pulse.Emitter, m *metrics.MeasurementMetrics) *Manager {
	return &Manager{
		settings: settings,
		recorder: recorder,
		emitter:  emitter,
		metrics:  m,
		logger:   logging.ForService("measurement"),
		results:  make(chan Outcome, 4),
	}
}

// InFlight reports whether a measurement is currently running.
func (mgr *Manager) InFlight() bool {
	return mgr.inFlight.Load()
}

// PulseAvailable reports whether a real buzzer is attached.
func (mgr *Manager) PulseAvailable() bool {
	return mgr.emitter.Available()
}

// Results returns the channel on which completed outcomes are delivered.
func (mgr *Manager) Results() <-chan Outcome {
	return mgr.results
}

// Latest returns the outcome of the most recent attempt, or nil before the
// first one completes.
func (mgr *Manager) Latest() *Outcome {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return mgr.latest
}

// Start launches one measurement on a worker goroutine. It returns
// ErrMeasurementInFlight while another measurement is running; the gate is
// released when the outcome has been delivered, success or failure.
func (mgr *Manager) Start(ctx context.Context) error {
	if !mgr.inFlight.CompareAndSwap(false, true) {
		return errors.New(ErrMeasurementInFlight).
			Component("measurement").
			Category(errors.CategoryState).
			Build()
	}

	// The trigger context (an HTTP request, a button press) ends long before
	// the measurement does; the worker must not inherit its cancellation.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		defer mgr.inFlight.Store(false)

		result, err := mgr.Run(runCtx)
		outcome := Outcome{Result: result, Err: err}

		mgr.mu.Lock()
		mgr.latest = &outcome
		mgr.mu.Unlock()

		select {
		case mgr.results <- outcome:
		default:
			// Nobody drained the previous outcome, drop the oldest so the
			// newest is always deliverable.
			select {
			case <-mgr.results:
			default:
			}
			mgr.results <- outcome
		}
	}()

	return nil
}

// Run executes one measurement synchronously. Step order is fixed: capture
// start, pulse, capture completion, echo location, speed estimation.
func (mgr *Manager) Run(ctx context.Context) (*Result, error) {
	began := time.Now()

	mgr.mu.Lock()
	mgr.seq++
	seq := mgr.seq
	mgr.mu.Unlock()

	status := metrics.StatusFailed
	defer func() {
		if mgr.metrics != nil {
			mgr.metrics.RecordMeasurement(status, time.Since(began).Seconds())
		}
	}()

	session, err := mgr.recorder.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting capture: %w", err)
	}

	// Pulse only after the device has delivered its first frames, plus a
	// short settle so the onset is well inside the buffer.
	select {
	case <-session.Started():
	case <-ctx.Done():
		mgr.abandon(session)
		return nil, fmt.Errorf("waiting for capture to start: %w", ctx.Err())
	case <-time.After(captureGrace):
		mgr.abandon(session)
		return nil, errors.Newf("capture produced no frames within %s", captureGrace).
			Component("measurement").
			Category(errors.CategoryTimeout).
			Build()
	}
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		mgr.abandon(session)
		return nil, fmt.Errorf("waiting for capture to settle: %w", ctx.Err())
	}

	pulseEmitted := mgr.emitter.Available()
	if err := mgr.emitter.Emit(ctx, time.Duration(mgr.settings.Buzzer.OnMs)*time.Millisecond); err != nil {
		mgr.abandon(session)
		return nil, fmt.Errorf("emitting pulse: %w", err)
	}
	if !pulseEmitted && mgr.metrics != nil {
		mgr.metrics.RecordPulseSkipped()
	}

	recordDuration := time.Duration(mgr.settings.Audio.RecordMs) * time.Millisecond
	waitCtx, cancel := context.WithTimeout(ctx, recordDuration+captureGrace)
	defer cancel()

	wave, err := session.Wait(waitCtx)
	if err != nil {
		return nil, fmt.Errorf("completing capture: %w", err)
	}

	est := locator.Locate(wave, mgr.settings.Audio.SampleRate,
		mgr.settings.Echo.IgnoreFirstMs,
		mgr.settings.Echo.SearchStartMs,
		mgr.settings.Echo.SearchEndMs)
	speed := locator.Speed(est.EchoTimeMs, mgr.settings.Tube.DistanceM)

	result := &Result{
		Waveform:     wave,
		SampleRate:   mgr.settings.Audio.SampleRate,
		Estimate:     est,
		SpeedMPS:     speed,
		PulseEmitted: pulseEmitted,
		Elapsed:      time.Since(began),
		CompletedAt:  time.Now(),
	}

	status = metrics.StatusCompleted
	if est.Degenerate || speed == 0 {
		status = metrics.StatusDegenerate
	}
	if mgr.metrics != nil {
		mgr.metrics.RecordResult(est.EchoTimeMs, speed)
	}

	mgr.export(seq, result)

	mgr.logger.Info("measurement complete",
		"echo_ms", est.EchoTimeMs,
		"speed_mps", speed,
		"degenerate", est.Degenerate,
		"pulse_emitted", pulseEmitted,
		"elapsed", result.Elapsed)

	return result, nil
}

// abandon tears down a session we will not collect a waveform from. The
// session's own teardown releases the device.
func (mgr *Manager) abandon(session CaptureSession) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := session.Wait(cancelled); err != nil {
		mgr.logger.Debug("abandoned capture session", "error", err)
	}
}

// export writes the waveform to the configured export directory. Export
// failures do not fail the measurement.
func (mgr *Manager) export(seq int, result *Result) {
	if !mgr.settings.Export.Enabled {
		return
	}
	path := filepath.Join(mgr.settings.Export.Path, fmt.Sprintf("measurement-%04d.wav", seq))
	if err := capture.SaveWaveform(path, result.Waveform, result.SampleRate); err != nil {
		mgr.logger.Warn("failed to export waveform", "path", path, "error", err)
	}
}

// Close releases the pulse emitter.
func (mgr *Manager) Close() error {
	return mgr.emitter.Close()
}
