// Package devices implements the capture device listing command.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nstokely/echotube/internal/capture"
	"github.com/nstokely/echotube/internal/conf"
)

// Command returns the devices subcommand
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevices(settings)
		},
	}
}

func runDevices(settings *conf.Settings) error {
	devices, err := capture.ListCaptureDevices()
	if err != nil {
		return err
	}

	if len(devices) == 0 {
		fmt.Println("No capture devices found.")
		return nil
	}

	fmt.Println("Available capture devices:")
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf(" %s %d: %s, %s\n", marker, d.Index, d.Name, d.ID)
	}
	if settings.Audio.Device != "" {
		fmt.Printf("\nConfigured device: %s\n", settings.Audio.Device)
	} else {
		fmt.Println("\nConfigured device: system default")
	}

	return nil
}
