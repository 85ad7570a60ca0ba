// Package varint implements the variable-length integer layer of the wire
// format.
//
// Unsigned ints are written as little-endian 7-bit groups with a
// continuation high bit. Signed ints complement negative values bitwise
// and carry the sign in bit 6 of the first byte, which therefore holds
// only 6 data bits. This is not the zigzag scheme; the two encodings are
// not interchangeable.
//
// Enum ordinals are not variable length. They occupy the fixed number of
// little-endian bytes needed for the highest ordinal of their enum, which
// is zero bytes for a single-variant enum.
package varint

import (
	"io"
	"math"

	"github.com/wippyai/binschema/errors"
)

const (
	moreBit = 0b1000_0000
	lo7Bits = 0b0111_1111

	signBit = 0b0100_0000
	lo6Bits = 0b0011_1111
)

// maxShift bounds accepted encodings at 128 bits of payload. Wider input
// is malformed no matter the platform.
const maxShift = 128

func readByte(r io.Reader, phase errors.Phase) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.IO(phase, err)
	}
	return buf[0], nil
}

func writeByte(w io.Writer, b byte) error {
	var buf = [1]byte{b}
	if _, err := w.Write(buf[:]); err != nil {
		return errors.IO(errors.PhaseEncode, err)
	}
	return nil
}

// WriteUint writes n as a variable-length unsigned int.
func WriteUint(w io.Writer, n uint64) error {
	for {
		b := byte(n & lo7Bits)
		n >>= 7
		if n != 0 {
			b |= moreBit
		}
		if err := writeByte(w, b); err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// ReadUint reads a variable-length unsigned int. An encoding wider than
// 128 bits is malformed data; a valid encoding whose value does not fit
// in 64 bits is a platform limit.
func ReadUint(r io.Reader) (uint64, error) {
	var n uint64
	var shift uint
	overflow := false
	for {
		if shift >= maxShift {
			return 0, errors.MalformedData(errors.PhaseDecode,
				"too many bytes in var len uint")
		}
		b, err := readByte(r, errors.PhaseDecode)
		if err != nil {
			return 0, err
		}
		payload := b & lo7Bits
		switch {
		case shift >= 64:
			if payload != 0 {
				overflow = true
			}
		case shift > 57:
			if payload>>(64-shift) != 0 {
				overflow = true
			}
			n |= uint64(payload) << shift
		default:
			n |= uint64(payload) << shift
		}
		shift += 7
		if b&moreBit == 0 {
			break
		}
	}
	if overflow {
		return 0, errors.PlatformLimits(errors.PhaseDecode,
			"var len uint does not fit in 64 bits")
	}
	return n, nil
}

// WriteSint writes n as a variable-length signed int.
func WriteSint(w io.Writer, n int64) error {
	u := uint64(n)
	neg := n < 0
	if neg {
		u = ^u
	}

	b := byte(u & lo6Bits)
	if neg {
		b |= signBit
	}
	u >>= 6
	if u != 0 {
		b |= moreBit
	}
	if err := writeByte(w, b); err != nil {
		return err
	}

	for u != 0 {
		b := byte(u & lo7Bits)
		u >>= 7
		if u != 0 {
			b |= moreBit
		}
		if err := writeByte(w, b); err != nil {
			return err
		}
	}
	return nil
}

// ReadSint reads a variable-length signed int. An encoding wider than 128
// bits is malformed data; a valid encoding whose value does not fit in 64
// bits is a platform limit.
func ReadSint(r io.Reader) (int64, error) {
	b, err := readByte(r, errors.PhaseDecode)
	if err != nil {
		return 0, err
	}
	neg := b&signBit != 0
	u := uint64(b & lo6Bits)
	more := b&moreBit != 0
	shift := uint(6)
	overflow := false

	for more {
		if shift >= maxShift {
			return 0, errors.MalformedData(errors.PhaseDecode,
				"too many bytes in var len sint")
		}
		b, err := readByte(r, errors.PhaseDecode)
		if err != nil {
			return 0, err
		}
		payload := b & lo7Bits
		switch {
		case shift >= 64:
			if payload != 0 {
				overflow = true
			}
		case shift > 57:
			if payload>>(64-shift) != 0 {
				overflow = true
			}
			u |= uint64(payload) << shift
		default:
			u |= uint64(payload) << shift
		}
		shift += 7
		more = b&moreBit != 0
	}

	// the complemented magnitude of any int64 fits in 63 bits
	if overflow || u > math.MaxInt64 {
		return 0, errors.PlatformLimits(errors.PhaseDecode,
			"var len sint does not fit in 64 bits")
	}
	if neg {
		return int64(^u), nil
	}
	return int64(u), nil
}

// OrdLen is the number of bytes an ordinal of an enum with numVariants
// variants occupies on the wire.
func OrdLen(numVariants int) int {
	maxOrd := numVariants - 1
	mask := ^0
	bytes := 0
	for mask&maxOrd != 0 {
		mask <<= 8
		bytes++
	}
	return bytes
}

// WriteOrd writes an enum ordinal. The caller guarantees
// ord < numVariants.
func WriteOrd(w io.Writer, ord, numVariants int) error {
	n := uint64(ord)
	for i := 0; i < OrdLen(numVariants); i++ {
		if err := writeByte(w, byte(n)); err != nil {
			return err
		}
		n >>= 8
	}
	return nil
}

// ReadOrd reads an enum ordinal and rejects values at or above
// numVariants.
func ReadOrd(r io.Reader, numVariants int) (int, error) {
	if numVariants <= 0 {
		return 0, errors.IllegalSchema(errors.PhaseDecode,
			"enum with zero variants")
	}
	var ord uint64
	for i := 0; i < OrdLen(numVariants); i++ {
		b, err := readByte(r, errors.PhaseDecode)
		if err != nil {
			return 0, err
		}
		ord |= uint64(b) << (8 * i)
	}
	if ord >= uint64(numVariants) {
		return 0, errors.InvalidOrdinal(errors.PhaseDecode, ord, numVariants)
	}
	return int(ord), nil
}
