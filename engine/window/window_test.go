package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampSize(t *testing.T) {
	w := &engineWindow{}
	WithSizeLimits(640, 480, 1920, 1080)(w)

	tests := []struct {
		name       string
		inW, inH   int
		outW, outH int
	}{
		{"inside", 800, 600, 800, 600},
		{"too small", 100, 100, 640, 480},
		{"too large", 4000, 3000, 1920, 1080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := w.clampSize(tt.inW, tt.inH)
			assert.Equal(t, tt.outW, gotW)
			assert.Equal(t, tt.outH, gotH)
		})
	}
}

func TestCloseUninitialized(t *testing.T) {
	w := &engineWindow{}
	assert.ErrorIs(t, w.Close(), ErrClosed)
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
}

func TestProcessMessagesReturnsWhenClosed(t *testing.T) {
	w := &engineWindow{}
	called := false
	w.SetUpdateCallback(func() { called = true })
	w.ProcessMessages()
	assert.False(t, called)
}

func TestFramebufferResized(t *testing.T) {
	w := &engineWindow{width: 800, height: 600}
	var got [][2]int
	w.SetResizeCallback(func(width, height int) {
		got = append(got, [2]int{width, height})
	})

	w.framebufferResized(800, 600)
	w.framebufferResized(1024, 768)
	assert.Equal(t, [][2]int{{1024, 768}}, got, "unchanged sizes are not reported")
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
}
