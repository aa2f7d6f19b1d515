package scaler

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Register WEBP decoder
)

const (
	InterpolatorNearest        = "nearest"
	InterpolatorApproxBiLinear = "approx-bilinear"
	InterpolatorBiLinear       = "bilinear"
	InterpolatorCatmullRom     = "catmull-rom"
)

func InterpolatorByName(name string) (draw.Interpolator, error) {
	switch name {
	case InterpolatorNearest:
		return draw.NearestNeighbor, nil
	case InterpolatorApproxBiLinear:
		return draw.ApproxBiLinear, nil
	case InterpolatorBiLinear:
		return draw.BiLinear, nil
	case "", InterpolatorCatmullRom:
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown interpolator %q", name)
	}
}

// DrawScaler resamples images in pure Go with golang.org/x/image/draw.
type DrawScaler struct {
	interpolator draw.Interpolator
	jpegQuality  int
}

type drawOriginal struct {
	path string
	kind types.Type
	img  image.Image
}

func (o *drawOriginal) Path() string { return o.path }
func (o *drawOriginal) Width() int   { return o.img.Bounds().Dx() }
func (o *drawOriginal) Height() int  { return o.img.Bounds().Dy() }
func (o *drawOriginal) Close() error { return nil }

func NewDrawScaler(
	interpolator draw.Interpolator,
	jpegQuality int,
) *DrawScaler {
	return &DrawScaler{
		interpolator: interpolator,
		jpegQuality:  jpegQuality,
	}
}

func (s *DrawScaler) Open(path string) (Original, error) {
	inputBuf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to read original file %s: %w",
			path,
			err,
		)
	}

	kind, err := sniffImage(path, inputBuf)
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(inputBuf))
	if err != nil {
		return nil, fmt.Errorf(
			"failed to decode %s image %s: %w",
			kind.Extension,
			path,
			err,
		)
	}

	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image %s has no pixels", path)
	}

	return &drawOriginal{path: path, kind: kind, img: img}, nil
}

func (s *DrawScaler) Scale(
	original Original,
	width, height int,
	outPath string,
) error {
	orig, ok := original.(*drawOriginal)
	if !ok {
		return fmt.Errorf(
			"original %s was not opened by the draw scaler",
			original.Path(),
		)
	}

	slog.Debug(
		"Scaling image",
		"origFile", orig.path,
		"width", width,
		"height", height,
	)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	s.interpolator.Scale(dst, dst.Bounds(), orig.img, orig.img.Bounds(), draw.Src, nil)

	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create variant file %s: %w", outPath, err)
	}

	err = s.encode(outFile, dst, s.outputKind(outPath, orig.kind))
	if closeErr := outFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to write variant file %s: %w", outPath, err)
	}

	return nil
}

// outputKind resolves the type to encode for 'outPath'. Types without a
// pure Go encoder, such as webp, are written as png.
func (s *DrawScaler) outputKind(outPath string, original types.Type) types.Type {
	kind := kindForOutput(outPath, original)
	if drawEncodable[kind.MIME.Value] {
		return kind
	}

	slog.Debug(
		"No encoder for output type, falling back to png",
		"outFile", outPath,
		"mime", kind.MIME.Value,
	)
	return filetype.GetType("png")
}

var drawEncodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

func (s *DrawScaler) encode(w io.Writer, img image.Image, kind types.Type) error {
	switch kind.MIME.Value {
	case "image/jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: s.jpegQuality})
	case "image/png":
		return png.Encode(w, img)
	case "image/gif":
		return gif.Encode(w, img, nil)
	case "image/bmp":
		return bmp.Encode(w, img)
	case "image/tiff":
		return tiff.Encode(w, img, nil)
	default:
		return fmt.Errorf("no encoder available for %q", kind.MIME.Value)
	}
}
