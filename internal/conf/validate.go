// conf/validate.go

package conf

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateAudioSettings(&settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateEchoSettings(&settings.Echo, &settings.Audio); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateTubeSettings(&settings.Tube); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateBuzzerSettings(&settings.Buzzer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateAudioSettings validates the capture settings
func validateAudioSettings(settings *AudioSettings) error {
	var errs []string

	if settings.SampleRate <= 0 {
		errs = append(errs, "audio sample rate must be a positive integer")
	}

	if settings.RecordMs <= 0 {
		errs = append(errs, "audio record duration must be greater than 0 ms")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateEchoSettings validates the echo search window against the capture length.
// The window invariant is ignore <= start < end <= record duration.
func validateEchoSettings(settings *EchoSettings, audio *AudioSettings) error {
	var errs []string

	if settings.IgnoreFirstMs < 0 {
		errs = append(errs, "echo ignore lead-in must not be negative")
	}

	if settings.SearchStartMs < settings.IgnoreFirstMs {
		errs = append(errs, "echo search start must not be before the ignore lead-in")
	}

	if settings.SearchStartMs >= settings.SearchEndMs {
		errs = append(errs, "echo search start must be before search end")
	}

	if settings.SearchEndMs > audio.RecordMs {
		errs = append(errs, "echo search end must not exceed the record duration")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateTubeSettings validates the physical setup
func validateTubeSettings(settings *TubeSettings) error {
	if settings.DistanceM <= 0 {
		return fmt.Errorf("tube one-way distance must be greater than 0 m")
	}
	return nil
}

// validateBuzzerSettings validates the pulse output settings
func validateBuzzerSettings(settings *BuzzerSettings) error {
	var errs []string

	if settings.OnMs <= 0 {
		errs = append(errs, "buzzer on-duration must be greater than 0 ms")
	}

	if settings.Enabled && settings.Pin == "" {
		errs = append(errs, "buzzer pin must be set when the buzzer is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// validateWebServerSettings validates the web server settings
func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}

	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("web server port must be a valid port number between 1 and 65535")
	}
	return nil
}
