package loader

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/oukeidos/walldisplay/internal/apperrors"
)

// FitDecoder decodes with EXIF auto-orientation and scales the result down
// to fit the requested box, preserving aspect ratio. Images already inside
// the box are not upscaled.
type FitDecoder struct {
	Filter imaging.ResampleFilter
}

// NewFitDecoder uses Lanczos resampling.
func NewFitDecoder() FitDecoder {
	return FitDecoder{Filter: imaging.Lanczos}
}

func (d FitDecoder) Decode(path string, width, height int) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ImageLoad(apperrors.ReasonNotFound, err)
		}
		return nil, apperrors.ImageLoad(apperrors.ReasonUnreadable, fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, apperrors.ImageLoad(apperrors.ReasonUnsupported, fmt.Errorf("decode %s: %w", path, err))
		}
		return nil, apperrors.ImageLoad(apperrors.ReasonDecode, fmt.Errorf("decode %s: %w", path, err))
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.ImageLoad(apperrors.ReasonDecode, fmt.Errorf("decode %s: empty image", path))
	}
	if width <= 0 || height <= 0 {
		return imaging.Clone(img), nil
	}
	filter := d.Filter
	if filter.Support == 0 && filter.Kernel == nil {
		filter = imaging.Lanczos
	}
	return imaging.Fit(img, width, height, filter), nil
}
