package errors

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	ee := Newf("capture device vanished").Build()

	assert.Equal(t, ComponentUnknown, ee.Component)
	assert.Equal(t, CategoryGeneric, ee.Category)
	assert.Equal(t, "capture device vanished", ee.Error())
	assert.False(t, ee.Timestamp.IsZero())
}

func TestBuilderFullChain(t *testing.T) {
	base := NewStd("short read")
	ee := New(base).
		Component("capture").
		Category(CategoryAudioCapture).
		Context("device", "hw:1").
		Timing("record", 60*time.Millisecond).
		Build()

	assert.Equal(t, "capture", ee.Component)
	assert.Equal(t, CategoryAudioCapture, ee.Category)

	ctx := ee.GetContext()
	require.NotNil(t, ctx)
	assert.Equal(t, "hw:1", ctx["device"])
	assert.Equal(t, "record", ctx["operation"])
	assert.Equal(t, int64(60), ctx["duration_ms"])
}

func TestUnwrapPreservesCause(t *testing.T) {
	ee := New(fmt.Errorf("record: %w", io.ErrUnexpectedEOF)).
		Category(CategoryAudioCapture).
		Build()

	assert.True(t, Is(ee, io.ErrUnexpectedEOF))
}

func TestIsMatchesByCategory(t *testing.T) {
	a := Newf("busy").Category(CategoryState).Build()
	b := Newf("other message entirely").Category(CategoryState).Build()
	c := Newf("busy").Category(CategoryTimeout).Build()

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, c))
}

func TestIsCategory(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Newf("pin missing").Category(CategoryGPIO).Build())

	assert.True(t, IsCategory(wrapped, CategoryGPIO))
	assert.False(t, IsCategory(wrapped, CategoryValidation))
	assert.False(t, IsCategory(NewStd("plain"), CategoryGPIO))
}

func TestGetContextReturnsCopy(t *testing.T) {
	ee := Newf("x").Context("k", "v").Build()

	ctx := ee.GetContext()
	ctx["k"] = "mutated"

	assert.Equal(t, "v", ee.GetContext()["k"])
}

func TestGetContextNil(t *testing.T) {
	assert.Nil(t, Newf("no context").Build().GetContext())
}
