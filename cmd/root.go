package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nstokely/echotube/cmd/devices"
	"github.com/nstokely/echotube/cmd/measure"
	"github.com/nstokely/echotube/cmd/serve"
	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/logging"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echotube",
		Short: "EchoTube measures the speed of sound through a tube",
		Long: "EchoTube emits a short buzzer pulse into a tube, records the microphone\n" +
			"response, locates the reflected echo and reports the speed of sound.",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		measure.Command(settings),
		serve.Command(settings),
		devices.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.Init(slog.LevelDebug)
		}
		// Flags may have overridden loaded values, check the invariants again
		if err := conf.ValidateSettings(settings); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.Device, "device", viper.GetString("audio.device"), "Capture device name or ID, empty for system default")
	rootCmd.PersistentFlags().IntVar(&settings.Audio.SampleRate, "sample-rate", viper.GetInt("audio.samplerate"), "Capture sample rate in Hz")
	rootCmd.PersistentFlags().Float64Var(&settings.Tube.DistanceM, "distance", viper.GetFloat64("tube.distancem"), "One-way distance to the reflecting end in meters")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
