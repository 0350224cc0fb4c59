// Package measure implements the one-shot measurement command.
package measure

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nstokely/echotube/internal/capture"
	"github.com/nstokely/echotube/internal/conf"
	"github.com/nstokely/echotube/internal/measurement"
	"github.com/nstokely/echotube/internal/pulse"
)

// Command returns the measure subcommand
func Command(settings *conf.Settings) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Run one echo measurement and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeasure(settings, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the captured waveform to a WAV file")

	return cmd
}

func runMeasure(settings *conf.Settings, outPath string) error {
	recorder := capture.NewRecorder(&settings.Audio)
	emitter := pulse.New(&settings.Buzzer)
	mgr := measurement.NewManager(settings, measurement.WrapRecorder(recorder), emitter, nil)
	defer mgr.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(settings.Audio.RecordMs)*time.Millisecond+10*time.Second)
	defer cancel()

	result, err := mgr.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Echo time:  %.2f ms\n", result.Estimate.EchoTimeMs)
	fmt.Printf("Speed:      %.1f m/s\n", result.SpeedMPS)
	fmt.Printf("Max |amplitude|: %.3f\n", maxAbs(result.Waveform))
	if result.Estimate.Degenerate {
		fmt.Println("No measurable echo in the search window.")
	}
	if !result.PulseEmitted {
		fmt.Println("(No buzzer attached, measurement ran without a pulse.)")
	}

	if outPath != "" {
		if err := capture.SaveWaveform(outPath, result.Waveform, result.SampleRate); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		fmt.Printf("Waveform written to %s\n", outPath)
	}

	return nil
}

func maxAbs(wave []float32) float32 {
	var peak float32
	for _, s := range wave {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
