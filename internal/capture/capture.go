// Package capture records fixed-length single-channel audio buffers through
// miniaudio. One capture owns the input device for its whole duration.
package capture

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/errors"
	"github.com/nstokely/echotube/internal/logging"
)

const bytesPerSample = 2 // S16

// ErrDeviceBusy is returned when a capture is requested while one is running.
var ErrDeviceBusy = errors.NewStd("capture device is busy")

// ErrShortCapture is returned when the device stopped before delivering the
// full buffer.
var ErrShortCapture = errors.NewStd("capture ended before buffer was full")

// Recorder captures fixed-length waveforms from a single input device.
type Recorder struct {
	settings *conf.AudioSettings
	logger   *slog.Logger
	busy     sync.Mutex // the input device is an exclusive resource
}

// NewRecorder returns a Recorder for the configured capture device.
func NewRecorder(settings *conf.AudioSettings) *Recorder {
	return &Recorder{
		settings: settings,
		logger:   logging.ForService("capture"),
	}
}

// SampleCount returns the exact number of samples one capture produces.
func (r *Recorder) SampleCount() int {
	return int(math.Round(float64(r.settings.RecordMs) / 1000.0 * float64(r.settings.SampleRate)))
}

// Session is one in-progress capture. It is created by Begin and consumed by
// a single Wait call.
type Session struct {
	recorder *Recorder
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	startedOnce sync.Once
	started     chan struct{}
	done        chan struct{}

	mu     sync.Mutex
	wave   []float32
	filled int
	err    error
}

// Started returns a channel closed once the device has delivered its first
// frames, so a caller can sequence a stimulus after sampling has truly begun.
func (s *Session) Started() <-chan struct{} {
	return s.started
}

// push accumulates raw S16LE frames into the waveform until it is full.
// Called from the miniaudio callback thread.
func (s *Session) push(pcm []byte) {
	s.startedOnce.Do(func() { close(s.started) })

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.filled >= len(s.wave) {
		return
	}
	for i := 0; i+bytesPerSample <= len(pcm) && s.filled < len(s.wave); i += bytesPerSample {
		sample := int16(binary.LittleEndian.Uint16(pcm[i : i+bytesPerSample]))
		s.wave[s.filled] = float32(sample) / 32768.0
		s.filled++
	}
	if s.filled >= len(s.wave) {
		s.finish(nil)
	}
}

// finish records the capture outcome once. Callers hold s.mu or are the only
// writer (device stop callback after the device is quiescent).
func (s *Session) finish(err error) {
	select {
	case <-s.done:
		return
	default:
	}
	s.err = err
	close(s.done)
}

// stop is the miniaudio stop callback. A device stopping before the buffer is
// full means the backend gave up on us.
func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filled < len(s.wave) {
		s.finish(ErrShortCapture)
	}
}

// Wait blocks until the capture completes or ctx expires, then releases the
// device and returns the waveform. The returned slice is owned by the caller;
// the session never reuses it.
func (s *Session) Wait(ctx context.Context) ([]float32, error) {
	var waitErr error
	select {
	case <-s.done:
	case <-ctx.Done():
		waitErr = errors.New(ctx.Err()).
			Component("capture").
			Category(errors.CategoryTimeout).
			Timing("record", time.Duration(s.recorder.settings.RecordMs)*time.Millisecond).
			Build()
	}

	s.teardown()

	if waitErr != nil {
		return nil, waitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, errors.New(s.err).
			Component("capture").
			Category(errors.CategoryAudioCapture).
			Context("samples_expected", len(s.wave)).
			Context("samples_received", s.filled).
			Build()
	}
	return s.wave, nil
}

// teardown stops the device and frees the miniaudio context. Always releases
// the recorder's busy lock.
func (s *Session) teardown() {
	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	if s.malgoCtx != nil {
		_ = s.malgoCtx.Uninit()
		s.malgoCtx.Free()
		s.malgoCtx = nil
	}
	s.recorder.busy.Unlock()
}

// Begin initializes the capture device and starts recording. The returned
// session must be finished with Wait, which releases the device.
func (r *Recorder) Begin(ctx context.Context) (*Session, error) {
	if !r.busy.TryLock() {
		return nil, errors.New(ErrDeviceBusy).
			Component("capture").
			Category(errors.CategoryState).
			Build()
	}

	session := &Session{
		recorder: r,
		started:  make(chan struct{}),
		done:     make(chan struct{}),
		wave:     make([]float32, r.SampleCount()),
	}

	malgoCtx, err := malgo.InitContext(preferredBackends(), malgo.ContextConfig{}, func(message string) {
		r.logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		r.busy.Unlock()
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Build()
	}
	session.malgoCtx = malgoCtx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(r.settings.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	if r.settings.Device != "" {
		source, err := selectCaptureSource(malgoCtx, r.settings.Device)
		if err != nil {
			session.teardown()
			return nil, err
		}
		deviceConfig.Capture.DeviceID = source.Pointer
		r.logger.Info("recording from source", "name", source.Name, "id", source.ID)
	} else {
		r.logger.Info("recording from system default source")
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, pInputSamples []byte, _ uint32) {
			session.push(pInputSamples)
		},
		Stop: session.stop,
	})
	if err != nil {
		session.teardown()
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Context("sample_rate", r.settings.SampleRate).
			Build()
	}
	session.device = device

	if err := device.Start(); err != nil {
		session.teardown()
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Build()
	}

	return session, nil
}

// preferredBackends picks the miniaudio backend per platform, matching what
// the capture stack is tested against.
func preferredBackends() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}
