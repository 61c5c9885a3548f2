// Package thumbnail shrinks images so they fit inside a square bound.
package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when an image cannot be decoded or
// re-encoded.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FitSize returns the dimensions of a w×h image scaled down to fit in a
// bound×bound box with the aspect ratio kept. Images already inside the box are
// returned unchanged.
func FitSize(w, h, bound int) (int, int) {
	if w <= bound && h <= bound {
		return w, h
	}
	if w >= h {
		nh := int(float64(h)*float64(bound)/float64(w) + 0.5)
		return bound, atLeastOne(nh)
	}
	nw := int(float64(w)*float64(bound)/float64(h) + 0.5)
	return atLeastOne(nw), bound
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Fit decodes an image from r and, when it exceeds bound in either dimension,
// writes a downscaled copy in the same format to w. It reports whether the
// image was resized; when it was not, nothing is written.
func Fit(r io.Reader, w io.Writer, bound int) (bool, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	b := src.Bounds()
	nw, nh := FitSize(b.Dx(), b.Dy(), bound)
	if nw == b.Dx() && nh == b.Dy() {
		return false, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	if err := encode(w, dst, format); err != nil {
		return false, err
	}
	return true, nil
}

// FitFile resizes the image stored at path in place.
func FitFile(fs afero.Fs, path string, bound int) (bool, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return false, fmt.Errorf("read image: %w", err)
	}

	var out bytes.Buffer
	resized, err := Fit(bytes.NewReader(data), &out, bound)
	if err != nil || !resized {
		return false, err
	}

	if err := afero.WriteFile(fs, path, out.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("write image: %w", err)
	}
	return true, nil
}

func encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	// x/image only decodes webp, so those are re-encoded as png.
	case "png", "webp":
		return png.Encode(w, img)
	case "gif":
		return gif.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// DetectFormat returns the registered format name of the encoded image in
// data without decoding the pixels.
func DetectFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return format, nil
}
