package cno

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format tags the on-disk encoding of an overlay.
type Format int

const (
	FormatUnknown Format = iota
	FormatText           // CNO
	FormatBinary         // CNOB
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "CNO"
	case FormatBinary:
		return "CNOB"
	default:
		return "unknown format"
	}
}

// Extension returns the canonical file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".cno"
	case FormatBinary:
		return ".cnob"
	default:
		return ""
	}
}

// ParseFormat maps a user supplied name ("cno", "cnob", ".cnob", ...) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "cno", "text":
		return FormatText, nil
	case "cnob", "binary":
		return FormatBinary, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown overlay format: %q (supported: cno, cnob)", name)
	}
}

// FormatFromPath determines the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cno":
		return FormatText
	case ".cnob":
		return FormatBinary
	default:
		return FormatUnknown
	}
}

// DetectFormat resolves the format of the file at path, first by extension
// and then by looking for the CNOB magic at the start of the file.
func DetectFormat(path string) (Format, error) {
	if f := FormatFromPath(path); f != FormatUnknown {
		return f, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer file.Close()

	head := make([]byte, len(Magic))
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	if n == len(Magic) && bytes.Equal(head, []byte(Magic)) {
		return FormatBinary, nil
	}
	return FormatText, nil
}
