package httpcontroller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/errors"
	"github.com/nstokely/echotube/internal/locator"
	"github.com/nstokely/echotube/internal/measurement"
)

type fakeService struct {
	startErr error
	inFlight bool
	buzzer   bool
	latest   *measurement.Outcome
	starts   int
}

func (f *fakeService) Start(ctx context.Context) error {
	f.starts++
	return f.startErr
}

func (f *fakeService) InFlight() bool               { return f.inFlight }
func (f *fakeService) PulseAvailable() bool         { return f.buzzer }
func (f *fakeService) Latest() *measurement.Outcome { return f.latest }

func newTestServer(service MeasurementService) *Server {
	settings := &conf.Settings{}
	settings.WebServer = conf.WebServerSettings{Enabled: true, Port: "8080"}
	return New(settings, service, nil)
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func completedOutcome() *measurement.Outcome {
	wave := make([]float32, 2880)
	wave[480] = 1.0
	return &measurement.Outcome{
		Result: &measurement.Result{
			Waveform:     wave,
			SampleRate:   48000,
			Estimate:     locator.Estimate{EchoTimeMs: 10.0, PeakIndex: 480},
			SpeedMPS:     600.0,
			PulseEmitted: true,
			CompletedAt:  time.Now(),
		},
	}
}

func TestStartMeasurementAccepted(t *testing.T) {
	svc := &fakeService{}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/api/v1/measurements")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, svc.starts)
}

func TestStartMeasurementConflictWhileInFlight(t *testing.T) {
	svc := &fakeService{
		startErr: errors.New(measurement.ErrMeasurementInFlight).
			Category(errors.CategoryState).
			Build(),
	}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/api/v1/measurements")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in flight")
}

func TestLatestNotFoundBeforeFirstMeasurement(t *testing.T) {
	rec := doRequest(newTestServer(&fakeService{}), http.MethodGet, "/api/v1/measurements/latest")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestReturnsResult(t *testing.T) {
	svc := &fakeService{latest: completedOutcome()}
	rec := doRequest(newTestServer(svc), http.MethodGet, "/api/v1/measurements/latest")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp resultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.InDelta(t, 10.0, resp.EchoTimeMs, 1e-9)
	assert.InDelta(t, 600.0, resp.SpeedMPS, 1e-9)
	assert.True(t, resp.PulseEmitted)
	assert.Equal(t, 48000, resp.SampleRate)
	assert.LessOrEqual(t, len(resp.Waveform), maxWaveformPoints)
	assert.Equal(t, 2, resp.WaveformStep)
}

func TestLatestReportsFailure(t *testing.T) {
	svc := &fakeService{latest: &measurement.Outcome{Err: errors.NewStd("capture died")}}
	rec := doRequest(newTestServer(svc), http.MethodGet, "/api/v1/measurements/latest")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp resultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.Contains(t, resp.Error, "capture died")
}

func TestStatusReflectsInFlight(t *testing.T) {
	svc := &fakeService{inFlight: true}
	rec := doRequest(newTestServer(svc), http.MethodGet, "/api/v1/status")

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "measuring", resp.State)
}

func TestStatusIdleWithBuzzer(t *testing.T) {
	svc := &fakeService{buzzer: true, latest: completedOutcome()}
	rec := doRequest(newTestServer(svc), http.MethodGet, "/api/v1/status")

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "idle", resp.State)
	assert.True(t, resp.Buzzer)
}

func TestIndexServesDashboard(t *testing.T) {
	rec := doRequest(newTestServer(&fakeService{}), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "MEASURE")
}

func TestDecimate(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		maxPoints int
		wantStep  int
		wantLen   int
	}{
		{"no_reduction", 100, 1500, 1, 100},
		{"halved", 2880, 1500, 2, 1440},
		{"exact_fit", 1500, 1500, 1, 1500},
		{"empty", 0, 1500, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wave := make([]float32, tt.n)
			out, step := decimate(wave, tt.maxPoints)
			assert.Equal(t, tt.wantStep, step)
			assert.Len(t, out, tt.wantLen)
		})
	}
}
