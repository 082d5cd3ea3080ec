package cno

import (
	"fmt"
	"io"
	"os"

	"cnoview/internal/geometry"
)

// Decode parses r according to format.
func Decode(r io.Reader, format Format) (*geometry.Geometry, error) {
	switch format {
	case FormatText:
		return DecodeText(r)
	case FormatBinary:
		return DecodeBinary(r)
	default:
		return nil, fmt.Errorf("decode: %s", format)
	}
}

// DecodeFile opens path and decodes it according to format. Decode errors
// carry the path.
func DecodeFile(path string, format Format) (*geometry.Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overlay: %w", err)
	}
	defer f.Close()

	g, err := Decode(f, format)
	if err != nil {
		return nil, withPath(err, path)
	}
	return g, nil
}

// Encode writes g to w according to format.
func Encode(w io.Writer, g *geometry.Geometry, format Format) error {
	switch format {
	case FormatText:
		return EncodeText(w, g)
	case FormatBinary:
		return EncodeBinary(w, g)
	default:
		return fmt.Errorf("encode: %s", format)
	}
}
