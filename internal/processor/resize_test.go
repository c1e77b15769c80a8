package processor

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeFixture(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 90, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func TestScaleToFit(t *testing.T) {
	box := Box{Width: 100, Height: 100}

	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{400, 200, 100, 50},
		{200, 400, 50, 100},
		{100, 100, 100, 100},
		{1000, 333, 100, 33},
		{50, 25, 100, 50},
		{1, 1, 100, 100},
		{10000, 1, 100, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.w, tt.h), func(t *testing.T) {
			w, h, err := ScaleToFit(tt.w, tt.h, box)
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}

	_, _, err := ScaleToFit(0, 10, box)
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestScaleToFitStaysInBoxAndKeepsRatio(t *testing.T) {
	boxes := []Box{{100, 100}, {160, 90}, {64, 256}, {1, 1}}
	for _, box := range boxes {
		for w := 1; w <= 1200; w += 37 {
			for h := 1; h <= 1200; h += 53 {
				tw, th, err := ScaleToFit(w, h, box)
				require.NoError(t, err)
				require.LessOrEqual(t, tw, box.Width)
				require.LessOrEqual(t, th, box.Height)
				require.GreaterOrEqual(t, tw, 1)
				require.GreaterOrEqual(t, th, 1)

				scale := math.Min(float64(box.Width)/float64(w), float64(box.Height)/float64(h))
				if tw > 1 {
					require.InDelta(t, scale*float64(w), float64(tw), 0.5+1e-9, "%dx%d in %v", w, h, box)
				}
				if th > 1 {
					require.InDelta(t, scale*float64(h), float64(th), 0.5+1e-9, "%dx%d in %v", w, h, box)
				}
			}
		}
	}
}

func TestResizeRoundTrip(t *testing.T) {
	r := NewResizer(Box{Width: 100, Height: 100}, 85)

	for _, format := range []imaging.Format{imaging.JPEG, imaging.PNG, imaging.GIF} {
		t.Run(format.String(), func(t *testing.T) {
			out, err := r.Resize(encodeFixture(t, 400, 200, format), format)
			require.NoError(t, err)
			assert.Equal(t, 100, out.Width)
			assert.Equal(t, 50, out.Height)

			img, err := imaging.Decode(bytes.NewReader(out.Data))
			require.NoError(t, err)
			assert.Equal(t, 100, img.Bounds().Dx())
			assert.Equal(t, 50, img.Bounds().Dy())
		})
	}
}

func TestResizeReencodesInRequestedFormat(t *testing.T) {
	r := NewResizer(Box{Width: 32, Height: 32}, 85)

	// PNG bytes behind a .jpg key are written back as JPEG.
	out, err := r.Resize(encodeFixture(t, 64, 64, imaging.PNG), imaging.JPEG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, []byte{0xFF, 0xD8}), "expected JPEG SOI marker")
}

func TestResizeRejectsGarbage(t *testing.T) {
	r := NewResizer(Box{Width: 100, Height: 100}, 85)
	_, err := r.Resize([]byte("definitely not an image"), imaging.PNG)
	assert.ErrorContains(t, err, "decode image")
}
