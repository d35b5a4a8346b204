// Package imaging normalizes uploaded avatar images: it accepts JPEG or PNG
// input, scales it to a fixed square and re-encodes it as PNG.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for input that is not a JPEG or PNG image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrImageTooLarge is returned when the decoded image would exceed
// MaxSourcePixels. It wraps ErrUnsupportedFormat.
var ErrImageTooLarge = fmt.Errorf("%w: dimensions too large", ErrUnsupportedFormat)

// MaxSourcePixels bounds the pixel count of an accepted image. The upload
// size limit only bounds compressed bytes, and a small PNG can declare a
// huge canvas.
const MaxSourcePixels = 4096 * 4096

// Content types accepted as avatar input.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

// SniffContentType detects the content type from the leading bytes of data
// and rejects anything other than JPEG or PNG.
func SniffContentType(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	switch ct {
	case ContentTypeJPEG, ContentTypePNG:
		return ct, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ct)
}

// NormalizeAvatar decodes data, scales it to size×size and returns PNG bytes.
func NormalizeAvatar(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid avatar size %d", size)
	}
	if _, err := SniffContentType(data); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
