// Package atlas loads source images and pattern atlases and generates the
// built-in fallbacks.
package atlas

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Load decodes a PNG, JPEG, BMP or WebP file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("atlas: open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("atlas: decode %s: %w", path, err)
	}
	slog.Debug("image loaded", "path", path, "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// LoadOrPlaceholder loads path, or renders the placeholder described by ph
// when path is empty or cannot be decoded. The second result reports
// whether the placeholder was used.
func LoadOrPlaceholder(path string, ph PlaceholderSpec) (image.Image, bool, error) {
	if path != "" {
		img, err := Load(path)
		if err == nil {
			return img, false, nil
		}
		slog.Warn("image unavailable, using placeholder", "path", path, "error", err)
	}
	img, err := Placeholder(ph)
	if err != nil {
		return nil, true, err
	}
	return img, true, nil
}
