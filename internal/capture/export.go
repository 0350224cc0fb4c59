package capture

import (
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/nstokely/echotube/internal/errors"
)

const exportBitDepth = 16

// SaveWaveform writes a captured waveform to filePath as a 16-bit mono WAV
// file, creating the directory structure if needed.
func SaveWaveform(filePath string, wave []float32, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryFileIO).
			Build()
	}

	outFile, err := os.Create(filePath)
	if err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryFileIO).
			Build()
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, sampleRate, exportBitDepth, 1, 1)

	buf := &audio.IntBuffer{
		Data:           floatToIntSamples(wave),
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: exportBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryFileIO).
			Context("samples", len(wave)).
			Build()
	}

	if err := enc.Close(); err != nil {
		return errors.New(err).
			Component("capture").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

// floatToIntSamples converts float32 samples in [-1, 1) to 16-bit integer
// samples, clipping anything outside the nominal range.
func floatToIntSamples(wave []float32) []int {
	samples := make([]int, len(wave))
	for i, f := range wave {
		s := int(f * 32767.0)
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		samples[i] = s
	}
	return samples
}
