package httpcontroller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nstokely/echotube/internal/errors"
	"github.com/nstokely/echotube/internal/measurement"
)

// maxWaveformPoints bounds the number of samples shipped to the browser; a
// 60 ms capture at 48 kHz is decimated roughly 2:1.
const maxWaveformPoints = 1500

// statusResponse is the payload of GET /api/v1/status.
type statusResponse struct {
	State  string `json:"state"`
	Buzzer bool   `json:"buzzer"`
}

// resultResponse is the payload of GET /api/v1/measurements/latest.
type resultResponse struct {
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	EchoTimeMs   float64   `json:"echo_time_ms"`
	SpeedMPS     float64   `json:"speed_m_per_s"`
	Degenerate   bool      `json:"degenerate"`
	PulseEmitted bool      `json:"pulse_emitted"`
	SampleRate   int       `json:"sample_rate"`
	WaveformStep int       `json:"waveform_step"`
	Waveform     []float32 `json:"waveform"`
	CompletedAt  time.Time `json:"completed_at"`
}

func (s *Server) handleStartMeasurement(c echo.Context) error {
	if err := s.service.Start(c.Request().Context()); err != nil {
		if errors.Is(err, measurement.ErrMeasurementInFlight) {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "measurement already in flight",
			})
		}
		s.logger.Error("failed to start measurement", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "measuring"})
}

func (s *Server) handleLatestMeasurement(c echo.Context) error {
	outcome := s.service.Latest()
	if outcome == nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "no measurement has completed yet",
		})
	}

	if outcome.Err != nil {
		return c.JSON(http.StatusOK, resultResponse{
			Status: "failed",
			Error:  outcome.Err.Error(),
		})
	}

	result := outcome.Result
	wave, step := decimate(result.Waveform, maxWaveformPoints)
	return c.JSON(http.StatusOK, resultResponse{
		Status:       "ok",
		EchoTimeMs:   result.Estimate.EchoTimeMs,
		SpeedMPS:     result.SpeedMPS,
		Degenerate:   result.Estimate.Degenerate,
		PulseEmitted: result.PulseEmitted,
		SampleRate:   result.SampleRate,
		WaveformStep: step,
		Waveform:     wave,
		CompletedAt:  result.CompletedAt,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	state := "idle"
	if s.service.InFlight() {
		state = "measuring"
	}
	return c.JSON(http.StatusOK, statusResponse{
		State:  state,
		Buzzer: s.service.PulseAvailable(),
	})
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTML(http.StatusOK, indexPage)
}

// decimate reduces a waveform to at most maxPoints samples by keeping every
// step-th sample. Returns the reduced waveform and the step used, so the
// client can reconstruct time axes.
func decimate(wave []float32, maxPoints int) ([]float32, int) {
	if len(wave) <= maxPoints {
		out := make([]float32, len(wave))
		copy(out, wave)
		return out, 1
	}
	step := (len(wave) + maxPoints - 1) / maxPoints
	out := make([]float32, 0, (len(wave)+step-1)/step)
	for i := 0; i < len(wave); i += step {
		out = append(out, wave[i])
	}
	return out, step
}
