package scaler

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/discord/lilliput"
)

const minEncodeBufferSize = 1024 * 1024

// LilliputScaler resamples and encodes through discord/lilliput
// (requires cgo).
type LilliputScaler struct {
	jpegQuality int
}

type lilliputOriginal struct {
	path   string
	buf    []byte
	width  int
	height int
}

func (o *lilliputOriginal) Path() string { return o.path }
func (o *lilliputOriginal) Width() int   { return o.width }
func (o *lilliputOriginal) Height() int  { return o.height }
func (o *lilliputOriginal) Close() error {
	o.buf = nil
	return nil
}

func NewLilliputScaler(jpegQuality int) *LilliputScaler {
	return &LilliputScaler{jpegQuality: jpegQuality}
}

func (s *LilliputScaler) Open(path string) (Original, error) {
	inputBuf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to read original file %s: %w",
			path,
			err,
		)
	}

	if _, err := sniffImage(path, inputBuf); err != nil {
		return nil, err
	}

	decoder, err := s.decode(path, inputBuf)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	imgHeader, err := decoder.Header()
	if err != nil {
		return nil, fmt.Errorf(
			"failed to get image header for %s: %w",
			path,
			err,
		)
	}

	width := imgHeader.Width()
	height := imgHeader.Height()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf(
			"invalid original image dimensions: width=%d, height=%d",
			width,
			height,
		)
	}

	return &lilliputOriginal{
		path:   path,
		buf:    inputBuf,
		width:  width,
		height: height,
	}, nil
}

func (s *LilliputScaler) Scale(
	original Original,
	width, height int,
	outPath string,
) error {
	orig, ok := original.(*lilliputOriginal)
	if !ok {
		return fmt.Errorf(
			"original %s was not opened by the lilliput scaler",
			original.Path(),
		)
	}

	slog.Debug(
		"Scaling image",
		"origFile", orig.path,
		"width", width,
		"height", height,
	)

	// Lilliput decoders are single use, one per variant
	decoder, err := s.decode(orig.path, orig.buf)
	if err != nil {
		return err
	}
	defer decoder.Close()

	ops := lilliput.NewImageOps(max(orig.width, orig.height))
	defer ops.Close()

	opts := &lilliput.ImageOptions{
		FileType:             strings.ToLower(filepath.Ext(outPath)),
		Width:                width,
		Height:               height,
		ResizeMethod:         lilliput.ImageOpsResize,
		NormalizeOrientation: true,
		EncodeOptions: map[int]int{
			lilliput.JpegQuality: s.jpegQuality,
			lilliput.WebpQuality: s.jpegQuality,
		},
	}

	resizeBuffer := make([]byte, max(width*height*4, minEncodeBufferSize))
	resizedImgBuf, err := ops.Transform(decoder, opts, resizeBuffer)
	if err != nil {
		return fmt.Errorf(
			"failed to scale %s to %dx%d: %w",
			orig.path,
			width,
			height,
			err,
		)
	}

	if err := os.WriteFile(outPath, resizedImgBuf, 0644); err != nil {
		return fmt.Errorf(
			"failed to write variant file %s: %w",
			outPath,
			err,
		)
	}

	return nil
}

func (s *LilliputScaler) decode(
	path string,
	inputBuf []byte,
) (lilliput.Decoder, error) {
	decoder, err := lilliput.NewDecoder(inputBuf)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to create lilliput decoder for %s: %w",
			path,
			err,
		)
	}

	return decoder, nil
}
