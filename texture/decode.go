package texture

import (
	"errors"
	"fmt"
	"image"
	"io"

	// Register the stdlib decoders plus the extended formats from
	// x/image. Decoding goes through image.Decode, so adding a format
	// is just another blank import.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned when no registered decoder recognizes
// the image data.
var ErrUnsupportedFormat = errors.New("texture: unsupported image format")

// Decode reads an image from r and converts it to RGBA. The returned
// format is the registered decoder name ("png", "webp", ...).
func Decode(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", ErrUnsupportedFormat
		}
		return nil, "", fmt.Errorf("texture: decode: %w", err)
	}
	return toRGBA(img), format, nil
}
