package cno

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"cnoview/internal/geometry"
)

// TextSeparator is the line that ends a part in a CNO file. A blank line
// ends a part as well.
const TextSeparator = "9999"

// maxLineSize bounds a single CNO line.
const maxLineSize = 1 << 20

// DecodeText parses a CNO stream. Each non-separator line holds one
// "lon,lat" pair; parts are separated by a line holding 9999 or by a blank
// line. Runs of separators produce no empty parts.
func DecodeText(r io.Reader) (*geometry.Geometry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanAnyLines)

	var parts orb.MultiLineString
	var current orb.LineString
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, current)
			current = nil
		}
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == TextSeparator {
			flush()
			continue
		}

		p, reason := parsePair(line)
		if reason != "" {
			return nil, &FormatError{
				Format: FormatText,
				Line:   lineNo,
				Offset: -1,
				Reason: reason + ": " + strconv.Quote(line),
			}
		}
		current = append(current, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, &FormatError{Format: FormatText, Line: lineNo + 1, Offset: -1, Reason: err.Error()}
	}
	flush()

	if len(parts) == 0 {
		return nil, &EmptyInputError{Format: FormatText}
	}
	return geometry.New(parts)
}

// parsePair parses "lon,lat" (or "lon lat") and returns a non-empty reason
// when the line is not a coordinate pair.
func parsePair(line string) (orb.Point, string) {
	var fields []string
	if strings.Contains(line, ",") {
		fields = strings.Split(line, ",")
	} else {
		fields = strings.Fields(line)
	}
	if len(fields) != 2 {
		return orb.Point{}, "expected two comma separated values"
	}

	var p orb.Point
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return orb.Point{}, "not a number"
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return orb.Point{}, "non-finite coordinate"
		}
		p[i] = v
	}
	return p, ""
}

// scanAnyLines is bufio.ScanLines extended to treat "\n", "\r\n" and a
// lone "\r" as line endings.
func scanAnyLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r': need one more byte to tell "\r\n" from a lone "\r".
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// EncodeText writes g as CNO: one "lon,lat" line per point with a 9999 line
// between parts. Values are written with the shortest representation that
// parses back to the same float64.
func EncodeText(w io.Writer, g *geometry.Geometry) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)
	for i, part := range g.Parts {
		if i > 0 {
			bw.WriteString(TextSeparator)
			bw.WriteByte('\n')
		}
		for _, p := range part {
			buf = buf[:0]
			buf = strconv.AppendFloat(buf, p[0], 'g', -1, 64)
			buf = append(buf, ',')
			buf = strconv.AppendFloat(buf, p[1], 'g', -1, 64)
			buf = append(buf, '\n')
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
