package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWaveform(t *testing.T) {
	wave := []float32{0, 0.5, -0.5, 1.0, -1.0, 0.25}
	path := filepath.Join(t.TempDir(), "captures", "wave.wav")

	require.NoError(t, SaveWaveform(path, wave, 48000))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 48000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	require.Len(t, buf.Data, len(wave))
	assert.Equal(t, 0, buf.Data[0])
	assert.Equal(t, 16383, buf.Data[1])
	assert.Equal(t, -16383, buf.Data[2])
	assert.Equal(t, 32767, buf.Data[3])
}

func TestFloatToIntSamplesClips(t *testing.T) {
	samples := floatToIntSamples([]float32{2.0, -2.0})

	assert.Equal(t, 32767, samples[0])
	assert.Equal(t, -32768, samples[1])
}
