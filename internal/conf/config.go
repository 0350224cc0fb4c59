// Package conf loads and validates the application configuration.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/nstokely/echotube/internal/errors"
)

// AudioSettings contains settings for the capture device.
type AudioSettings struct {
	SampleRate int    // capture sample rate in samples per second
	RecordMs   int    // capture length in milliseconds
	Device     string // capture device name or decoded ID, empty for system default
}

// EchoSettings bounds the reflection search inside a capture.
type EchoSettings struct {
	IgnoreFirstMs int // initial lead-in dominated by direct buzzer leak
	SearchStartMs int // do not look for echoes before this time
	SearchEndMs   int // do not look for echoes after this time
}

// TubeSettings describes the physical measurement setup.
type TubeSettings struct {
	DistanceM float64 // one-way distance to the reflecting end in meters
}

// BuzzerSettings contains settings for the pulse output line.
type BuzzerSettings struct {
	Enabled bool   // false to skip GPIO setup entirely
	Pin     string // GPIO pin name, e.g. "GPIO18"
	OnMs    int    // pulse hold duration in milliseconds
}

// ExportSettings controls per-measurement WAV dumps.
type ExportSettings struct {
	Enabled bool   // write each captured waveform to disk
	Path    string // directory for exported WAV files
}

// WebServerSettings contains settings for the HTTP presentation server.
type WebServerSettings struct {
	Enabled bool   // start the web server with the serve command
	Port    string // port to listen on
}

// LogConfig contains settings for the measurement log file.
type LogConfig struct {
	Enabled bool   // true to enable the log file
	Path    string // path to the log file
}

// Settings is the top-level configuration, loaded once at startup and
// immutable afterwards.
type Settings struct {
	Debug bool // enable debug output

	Main struct {
		Name string    // name of this node, used in logs
		Log  LogConfig // measurement log file settings
	}

	Audio     AudioSettings
	Echo      EchoSettings
	Tube      TubeSettings
	Buzzer    BuzzerSettings
	Export    ExportSettings
	WebServer WebServerSettings
}

// Load reads the configuration file and environment into a Settings struct
// and validates it.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := getDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("echotube")
	viper.AutomaticEnv()

	// Defaults defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file is fine, defaults cover a complete setup
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// getDefaultConfigPaths returns the config file search paths: the working
// directory first, then the user config directory.
func getDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving user config directory: %w", err)
	}
	paths = append(paths, filepath.Join(configDir, "echotube"))

	return paths, nil
}
