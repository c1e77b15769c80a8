package processor

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned for images with a zero dimension.
var ErrEmptyImage = errors.New("image has no pixels")

// Box bounds a thumbnail's dimensions.
type Box struct {
	Width  int
	Height int
}

// ScaleToFit returns the largest w×h that fits in box while keeping the
// source aspect ratio: one uniform factor min(W/w, H/h), rounded, clamped
// to [1, W] × [1, H].
func ScaleToFit(width, height int, box Box) (int, int, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, ErrEmptyImage
	}
	scale := math.Min(
		float64(box.Width)/float64(width),
		float64(box.Height)/float64(height),
	)
	w := clamp(int(math.Round(scale*float64(width))), 1, box.Width)
	h := clamp(int(math.Round(scale*float64(height))), 1, box.Height)
	return w, h, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Rendered is an encoded thumbnail.
type Rendered struct {
	Data   []byte
	Width  int
	Height int
}

// Resizer decodes, scales and re-encodes images.
type Resizer struct {
	box         Box
	jpegQuality int
}

// NewResizer creates a Resizer bounded by box.
func NewResizer(box Box, jpegQuality int) *Resizer {
	return &Resizer{box: box, jpegQuality: jpegQuality}
}

// Resize decodes data, scales it to fit the box and encodes the result in
// format, whatever the source bytes were actually encoded as.
func (r *Resizer) Resize(data []byte, format imaging.Format) (*Rendered, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	w, h, err := ScaleToFit(b.Dx(), b.Dy(), r.box)
	if err != nil {
		return nil, err
	}

	dst := imaging.Resize(img, w, h, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, format, imaging.JPEGQuality(r.jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	return &Rendered{Data: buf.Bytes(), Width: w, Height: h}, nil
}
