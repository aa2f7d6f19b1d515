package scaler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// sniffImage matches the leading bytes of 'buf' against the known
// image signatures.
func sniffImage(path string, buf []byte) (types.Type, error) {
	if !filetype.IsImage(buf) {
		return filetype.Unknown, fmt.Errorf(
			"file %s is not a supported image",
			path,
		)
	}

	kind, err := filetype.Match(buf)
	if err != nil {
		return filetype.Unknown, fmt.Errorf(
			"failed to detect image type of %s: %w",
			path,
			err,
		)
	}

	return kind, nil
}

// kindForOutput resolves the image type to encode based on the
// extension of 'outPath', falling back to 'original' when the
// extension is unknown.
func kindForOutput(outPath string, original types.Type) types.Type {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outPath), "."))

	// filetype registers a single extension per type
	switch ext {
	case "jpeg":
		ext = "jpg"
	case "tiff":
		ext = "tif"
	}

	kind := filetype.GetType(ext)
	if kind == filetype.Unknown {
		return original
	}

	return kind
}
