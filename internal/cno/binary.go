package cno

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/paulmach/orb"

	"cnoview/internal/geometry"
)

// CNOB layout, as found in the GISS Panoply overlay files:
//
//	"GISSCNOB"                     8 byte ASCII magic
//	D x y x y ... D x y ... D      big-endian int32 words
//
// D is the delimiter word 999999. Every part is bounded by a delimiter on
// both sides and adjacent parts share one. Coordinates are lon/lat in
// thousandths of a degree, rounded to the nearest integer.
const (
	Magic     = "GISSCNOB"
	Delimiter = int32(999999)
	Scale     = 1000.0

	wordSize = 4
)

// DecodeBinary parses a CNOB stream.
func DecodeBinary(r io.Reader) (*geometry.Geometry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read CNOB: %w", err)
	}
	return decodeBinary(data)
}

func decodeBinary(data []byte) (*geometry.Geometry, error) {
	if len(data) < len(Magic) {
		return nil, binaryError(0, fmt.Sprintf("short header: %d bytes", len(data)))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, binaryError(0, fmt.Sprintf("bad magic %q", data[:len(Magic)]))
	}

	body := data[len(Magic):]
	if rem := len(body) % wordSize; rem != 0 {
		return nil, binaryError(int64(len(data)-rem), fmt.Sprintf("trailing %d bytes do not form a word", rem))
	}

	n := len(body) / wordSize
	if n == 0 {
		return nil, &EmptyInputError{Format: FormatBinary}
	}

	word := func(i int) int32 {
		return int32(binary.BigEndian.Uint32(body[i*wordSize:]))
	}
	offset := func(i int) int64 {
		return int64(len(Magic) + i*wordSize)
	}

	if word(0) != Delimiter {
		return nil, binaryError(offset(0), "data does not start with a part delimiter")
	}

	var parts orb.MultiLineString
	start := 1
	for i := 1; i < n; i++ {
		if word(i) != Delimiter {
			continue
		}
		count := i - start
		if count%2 != 0 {
			return nil, binaryError(offset(start), fmt.Sprintf("part holds %d words, expected lon/lat pairs", count))
		}
		if count > 0 {
			part := make(orb.LineString, 0, count/2)
			for j := start; j < i; j += 2 {
				part = append(part, orb.Point{
					float64(word(j)) / Scale,
					float64(word(j+1)) / Scale,
				})
			}
			parts = append(parts, part)
		}
		start = i + 1
	}
	if start < n {
		return nil, binaryError(offset(start), fmt.Sprintf("truncated part: %d words without closing delimiter", n-start))
	}

	if len(parts) == 0 {
		return nil, &EmptyInputError{Format: FormatBinary}
	}
	return geometry.New(parts)
}

func binaryError(offset int64, reason string) *FormatError {
	return &FormatError{Format: FormatBinary, Offset: offset, Reason: reason}
}

// EncodeBinary writes g as CNOB. Coordinates are stored at millidegree
// precision, so DecodeBinary(EncodeBinary(g)) equals g whenever every
// coordinate of g already is a multiple of 0.001.
func EncodeBinary(w io.Writer, g *geometry.Geometry) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Magic); err != nil {
		return err
	}

	var buf [wordSize]byte
	put := func(v int32) error {
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		_, err := bw.Write(buf[:])
		return err
	}

	if err := put(Delimiter); err != nil {
		return err
	}
	for i, part := range g.Parts {
		for j, p := range part {
			for _, c := range p {
				v, err := toMillidegrees(c)
				if err != nil {
					return fmt.Errorf("part %d point %d: %w", i, j, err)
				}
				if err := put(v); err != nil {
					return err
				}
			}
		}
		if err := put(Delimiter); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func toMillidegrees(c float64) (int32, error) {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, fmt.Errorf("non-finite coordinate %v", c)
	}
	v := math.Round(c * Scale)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, fmt.Errorf("coordinate %v out of CNOB range", c)
	}
	if int32(v) == Delimiter {
		return 0, fmt.Errorf("coordinate %v collides with the part delimiter", c)
	}
	return int32(v), nil
}
