package scaler

import (
	"fmt"
	"math"
)

const (
	BackendDraw     = "draw"
	BackendLilliput = "lilliput"

	DefaultJPEGQuality = 90
)

// DefaultPercentages lists the scale factors applied to every original,
// in the order variants are generated.
var DefaultPercentages = []int{10, 20, 30, 40, 50, 60, 70, 80, 90}

// Original is a decoded source image ready to be scaled any number
// of times. Every variant is computed from the Original, never from a
// previously generated variant.
type Original interface {
	Path() string
	Width() int
	Height() int
	Close() error
}

type Scaler interface {

	// Open reads and decodes the image stored at 'path'.
	Open(path string) (Original, error)

	// Scale resamples 'original' into a width x height raster and
	// encodes it to 'outPath'. Output format follows the extension
	// of 'outPath'.
	Scale(original Original, width, height int, outPath string) error
}

type Options struct {
	JPEGQuality  int
	Interpolator string
}

// New builds the Scaler registered under 'backend'.
func New(backend string, opts Options) (Scaler, error) {
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		return nil, fmt.Errorf(
			"jpeg quality must be within 1-100, got %d",
			opts.JPEGQuality,
		)
	}

	switch backend {
	case "", BackendDraw:
		interpolator, err := InterpolatorByName(opts.Interpolator)
		if err != nil {
			return nil, err
		}
		return NewDrawScaler(interpolator, opts.JPEGQuality), nil
	case BackendLilliput:
		return NewLilliputScaler(opts.JPEGQuality), nil
	default:
		return nil, fmt.Errorf("unknown scaler backend %q", backend)
	}
}

// TargetDimensions computes the size of the variant scaled to 'percent'
// of a width x height original. Each side is rounded to the nearest
// pixel and never drops below 1.
func TargetDimensions(width, height, percent int) (int, int) {
	return scaleSide(width, percent), scaleSide(height, percent)
}

func scaleSide(side, percent int) int {
	scaled := int(math.Round(float64(side) * float64(percent) / 100))
	if scaled < 1 {
		return 1
	}

	return scaled
}
