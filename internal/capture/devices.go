package capture

import (
	"encoding/hex"
	"runtime"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/nstokely/echotube/internal/errors"
)

// captureSource holds information about a selected capture source.
type captureSource struct {
	Name    string
	ID      string
	Pointer unsafe.Pointer
}

// DeviceInfo describes an available audio capture device.
type DeviceInfo struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}

// ListCaptureDevices returns the available audio capture devices.
func ListCaptureDevices() ([]DeviceInfo, error) {
	malgoCtx, err := malgo.InitContext(preferredBackends(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Build()
	}
	defer func() {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
	}()

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Build()
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:     i,
			Name:      info.Name(),
			ID:        decodedID,
			IsDefault: info.IsDefault == 1,
		})
	}

	return devices, nil
}

// selectCaptureSource picks the capture device matching the configured name
// or decoded device ID.
func selectCaptureSource(malgoCtx *malgo.AllocatedContext, wanted string) (captureSource, error) {
	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return captureSource{}, errors.New(err).
			Component("capture").
			Category(errors.CategoryAudioDevice).
			Build()
	}

	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDeviceSetting(decodedID, info, wanted) {
			return captureSource{
				Name:    info.Name(),
				ID:      decodedID,
				Pointer: info.ID.Pointer(),
			}, nil
		}
	}

	return captureSource{}, errors.Newf("no capture source matches %q", wanted).
		Component("capture").
		Category(errors.CategoryAudioDevice).
		Build()
}

// matchesDeviceSetting checks if a device matches the user's device setting.
func matchesDeviceSetting(decodedID string, info malgo.DeviceInfo, wanted string) bool {
	if runtime.GOOS == "windows" && wanted == "sysdefault" {
		// There is no "sysdefault" device on Windows, use the system default.
		return info.IsDefault == 1
	}
	return decodedID == wanted || strings.Contains(info.Name(), wanted)
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(bytes), "\x00"), nil
}
