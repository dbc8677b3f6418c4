package evo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrLengthMismatch is returned when two genomes that must align differ in length.
var ErrLengthMismatch = errors.New("genome lengths differ")

// Bitstring is a genome over the alphabet {'0', '1'}.
// Values are immutable; operators always return new bitstrings.
type Bitstring string

// RandomBitstring returns n independent fair bits.
func RandomBitstring(rng *Rand, n int) Bitstring {
	buf := make([]byte, n)
	for i := range buf {
		if rng.IntN(2) == 1 {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return Bitstring(buf)
}

// ParseBitstring validates s and converts it to a Bitstring.
func ParseBitstring(s string) (Bitstring, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return "", fmt.Errorf("invalid bit %q at position %d", s[i], i)
		}
	}
	return Bitstring(s), nil
}

// Len returns the number of bits.
func (b Bitstring) Len() int {
	return len(b)
}

// Ones counts the bits set to '1'.
func (b Bitstring) Ones() int {
	return strings.Count(string(b), "1")
}

// Codec decodes bitstrings into points of a box-bounded real space.
// Each dimension takes an equal share of the bits and is read as an unsigned
// base-2 integer scaled linearly onto [Min, Max].
type Codec struct {
	Dims int
	Min  float64
	Max  float64
}

// NewCodec creates a codec for dims dimensions over [min, max].
func NewCodec(dims int, min, max float64) (*Codec, error) {
	if dims < 1 {
		return nil, fmt.Errorf("codec: dims must be positive, got %d", dims)
	}
	if !(min < max) {
		return nil, fmt.Errorf("codec: range min (%g) must be below max (%g)", min, max)
	}
	return &Codec{Dims: dims, Min: min, Max: max}, nil
}

// Check reports whether bitstrings of n bits can be decoded.
func (c *Codec) Check(n int) error {
	if n <= 0 || n%c.Dims != 0 {
		return fmt.Errorf("codec: bitstring length %d is not a positive multiple of %d dimensions", n, c.Dims)
	}
	if n/c.Dims > 63 {
		return fmt.Errorf("codec: %d bits per dimension exceeds the 63 bit limit", n/c.Dims)
	}
	return nil
}

// Decode maps b onto a point with c.Dims coordinates.
func (c *Codec) Decode(b Bitstring) ([]float64, error) {
	if err := c.Check(len(b)); err != nil {
		return nil, err
	}

	width := len(b) / c.Dims
	scale := float64(uint64(1)<<uint(width) - 1)
	x := make([]float64, c.Dims)
	for i := range x {
		segment := b[i*width : (i+1)*width]
		var v uint64
		for j := 0; j < len(segment); j++ {
			v <<= 1
			switch segment[j] {
			case '1':
				v |= 1
			case '0':
			default:
				return nil, fmt.Errorf("codec: invalid bit %q at position %d", segment[j], i*width+j)
			}
		}
		x[i] = c.Min + float64(v)/scale*(c.Max-c.Min)
	}
	return x, nil
}

// Resolution is the distance between two neighbouring decoded values for
// bitstrings of n bits.
func (c *Codec) Resolution(n int) float64 {
	width := n / c.Dims
	return (c.Max - c.Min) / (math.Exp2(float64(width)) - 1)
}
