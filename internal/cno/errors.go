package cno

import (
	"fmt"
)

// FormatError indicates malformed or truncated overlay content.
type FormatError struct {
	Format Format
	Path   string // empty when decoding a stream
	Line   int    // 1-based line for text input, 0 otherwise
	Offset int64  // byte offset for binary input, -1 otherwise
	Reason string
}

func (e *FormatError) Error() string {
	where := ""
	switch {
	case e.Line > 0:
		where = fmt.Sprintf(" line %d", e.Line)
	case e.Offset >= 0:
		where = fmt.Sprintf(" offset %d", e.Offset)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: invalid %s%s: %s", e.Path, e.Format, where, e.Reason)
	}
	return fmt.Sprintf("invalid %s%s: %s", e.Format, where, e.Reason)
}

// EmptyInputError indicates well-formed input that holds no parts.
type EmptyInputError struct {
	Format Format
	Path   string
}

func (e *EmptyInputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s holds no parts", e.Path, e.Format)
	}
	return fmt.Sprintf("%s holds no parts", e.Format)
}

// withPath stamps path onto decode errors produced from a stream.
func withPath(err error, path string) error {
	switch e := err.(type) {
	case *FormatError:
		e.Path = path
	case *EmptyInputError:
		e.Path = path
	}
	return err
}
