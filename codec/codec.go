// Package codec renders cached values as fixed-width decimal text for the
// record store, and parses that text back. The cache engine is generic over
// V; persistence is not, so every instantiation supplies a Codec.
package codec

import (
	"strconv"
	"strings"
)

// Codec converts a value of type V to and from the decimal text field
// stored in the record file. Decode must return the zero value of V for
// blank or unparsable input rather than an error: the record store treats
// an uninitialised field as value zero by convention.
type Codec[V any] interface {
	Encode(v V) string
	Decode(s string) V
}

// Int is the Codec for signed integer line values.
type Int struct{}

func (Int) Encode(v int64) string { return strconv.FormatInt(v, 10) }

func (Int) Decode(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Float is the Codec for floating-point line values.
type Float struct{}

func (Float) Encode(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func (Float) Decode(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
