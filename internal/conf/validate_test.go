package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validSettings returns a Settings struct matching the shipped defaults.
func validSettings() *Settings {
	s := &Settings{}
	s.Audio = AudioSettings{SampleRate: 48000, RecordMs: 60}
	s.Echo = EchoSettings{IgnoreFirstMs: 2, SearchStartMs: 6, SearchEndMs: 55}
	s.Tube = TubeSettings{DistanceM: 3.0}
	s.Buzzer = BuzzerSettings{Enabled: true, Pin: "GPIO18", OnMs: 8}
	s.WebServer = WebServerSettings{Enabled: true, Port: "8080"}
	return s
}

func TestValidateSettingsDefaults(t *testing.T) {
	assert.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettingsRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantMsg string
	}{
		{
			name:    "zero_sample_rate",
			mutate:  func(s *Settings) { s.Audio.SampleRate = 0 },
			wantMsg: "sample rate",
		},
		{
			name:    "negative_sample_rate",
			mutate:  func(s *Settings) { s.Audio.SampleRate = -48000 },
			wantMsg: "sample rate",
		},
		{
			name:    "zero_record_duration",
			mutate:  func(s *Settings) { s.Audio.RecordMs = 0 },
			wantMsg: "record duration",
		},
		{
			name:    "negative_lead_in",
			mutate:  func(s *Settings) { s.Echo.IgnoreFirstMs = -1 },
			wantMsg: "lead-in",
		},
		{
			name:    "start_before_lead_in",
			mutate:  func(s *Settings) { s.Echo.SearchStartMs = 1 },
			wantMsg: "ignore lead-in",
		},
		{
			name:    "start_equals_end",
			mutate:  func(s *Settings) { s.Echo.SearchStartMs = 55 },
			wantMsg: "before search end",
		},
		{
			name:    "window_past_record_end",
			mutate:  func(s *Settings) { s.Echo.SearchEndMs = 61 },
			wantMsg: "record duration",
		},
		{
			name:    "zero_distance",
			mutate:  func(s *Settings) { s.Tube.DistanceM = 0 },
			wantMsg: "distance",
		},
		{
			name:    "negative_distance",
			mutate:  func(s *Settings) { s.Tube.DistanceM = -3 },
			wantMsg: "distance",
		},
		{
			name:    "zero_pulse_duration",
			mutate:  func(s *Settings) { s.Buzzer.OnMs = 0 },
			wantMsg: "on-duration",
		},
		{
			name:    "enabled_buzzer_without_pin",
			mutate:  func(s *Settings) { s.Buzzer.Pin = "" },
			wantMsg: "pin",
		},
		{
			name:    "bad_port",
			mutate:  func(s *Settings) { s.WebServer.Port = "http" },
			wantMsg: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSettingsDisabledWebServerSkipsPortCheck(t *testing.T) {
	s := validSettings()
	s.WebServer.Enabled = false
	s.WebServer.Port = "not-a-port"

	assert.NoError(t, ValidateSettings(s))
}

func TestValidateSettingsDisabledBuzzerAllowsEmptyPin(t *testing.T) {
	s := validSettings()
	s.Buzzer.Enabled = false
	s.Buzzer.Pin = ""

	assert.NoError(t, ValidateSettings(s))
}

func TestValidateSettingsAggregatesErrors(t *testing.T) {
	s := validSettings()
	s.Audio.SampleRate = 0
	s.Tube.DistanceM = -1

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 2)
}
