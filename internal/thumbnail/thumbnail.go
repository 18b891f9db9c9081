// Package thumbnail derives fixed-box thumbnails from image files on disk.
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

// ErrThumbnail is returned when the source cannot be decoded or the
// thumbnail cannot be encoded or written.
var ErrThumbnail = errors.New("thumbnail generation failed")

// Generator resizes images to fit a bounding box.
type Generator struct {
	filter      imaging.ResampleFilter
	jpegQuality int
}

// New returns a Generator using Lanczos resampling.
func New() *Generator {
	return &Generator{filter: imaging.Lanczos, jpegQuality: 85}
}

// Generate reads the image at src and writes a copy scaled to fit within
// maxWidth x maxHeight to dst, keeping the aspect ratio and the source's
// encoding format. Images smaller than the box are scaled up. dst is flushed
// to disk before Generate returns.
func (g *Generator) Generate(src, dst string, maxWidth, maxHeight int) error {
	if maxWidth <= 0 || maxHeight <= 0 {
		return fmt.Errorf("%w: invalid box %dx%d", ErrThumbnail, maxWidth, maxHeight)
	}

	img, format, err := decode(src)
	if err != nil {
		return err
	}

	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxWidth, maxHeight)
	thumb := imaging.Resize(img, w, h, g.filter)

	if err := g.write(dst, thumb, format); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// Fit returns the dimensions of a w x h image scaled to fit within
// maxW x maxH. The longer side relative to the box touches its bound.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return clamp(nw, maxW), clamp(nh, maxH)
}

func clamp(v, upper int) int {
	if v < 1 {
		return 1
	}
	if v > upper {
		return upper
	}
	return v
}

func decode(src string) (image.Image, imaging.Format, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open source: %w", ErrThumbnail, err)
	}
	defer f.Close()

	_, name, err := image.DecodeConfig(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: detect format: %w", ErrThumbnail, err)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: unsupported format %q: %w", ErrThumbnail, name, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("%w: rewind source: %w", ErrThumbnail, err)
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: decode source: %w", ErrThumbnail, err)
	}
	return img, format, nil
}

func (g *Generator) write(dst string, img image.Image, format imaging.Format) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("%w: create destination: %w", ErrThumbnail, err)
	}

	if err := imaging.Encode(out, img, format, imaging.JPEGQuality(g.jpegQuality)); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: encode %s: %w", ErrThumbnail, format, err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: sync destination: %w", ErrThumbnail, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close destination: %w", ErrThumbnail, err)
	}
	return nil
}
