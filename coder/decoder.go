package coder

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	"github.com/wippyai/binschema/coder/internal/varint"
	"github.com/wippyai/binschema/errors"
	"github.com/wippyai/binschema/schema"
)

// Decoder reads one schema-conforming message from an io.Reader. Every
// call first validates against the shared CoderState, so bytes are only
// consumed for the element the message has at this position.
type Decoder struct {
	state *CoderState
	r     io.Reader
}

// NewDecoder returns a decoder driving state and reading from r.
func NewDecoder(state *CoderState, r io.Reader) *Decoder {
	return &Decoder{state: state, r: r}
}

// Need returns the schema that must be decoded next. It is what lets a
// caller decode a message it knows nothing about: inspect, then dispatch.
// See CoderState.Need.
func (d *Decoder) Need() (*schema.Schema, error) {
	return d.state.Need()
}

// State exposes the underlying coder state.
func (d *Decoder) State() *CoderState {
	return d.state
}

// read fills buf, latching the broken state on failure.
func (d *Decoder) read(buf []byte) error {
	if _, err := io.ReadFull(d.r, buf); err != nil {
		d.state.markBroken()
		return errors.IO(errors.PhaseDecode, err)
	}
	return nil
}

// fatal latches the broken state when the varint layer or a data
// validity check fails.
func (d *Decoder) fatal(err error) error {
	if err != nil {
		d.state.markBroken()
	}
	return err
}

// readLen reads a var len length and bounds it to int.
func (d *Decoder) readLen() (int, error) {
	n, err := varint.ReadUint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	if n > uint64(math.MaxInt) {
		return 0, d.fatal(errors.PlatformLimits(errors.PhaseDecode,
			"%d out of range for a length", n))
	}
	return int(n), nil
}

func (d *Decoder) DecodeU8() (uint8, error) {
	if err := d.state.codeScalar(schema.ScalarU8); err != nil {
		return 0, err
	}
	var buf [1]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (d *Decoder) DecodeU16() (uint16, error) {
	if err := d.state.codeScalar(schema.ScalarU16); err != nil {
		return 0, err
	}
	var buf [2]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (d *Decoder) DecodeU32() (uint32, error) {
	if err := d.state.codeScalar(schema.ScalarU32); err != nil {
		return 0, err
	}
	n, err := varint.ReadUint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	if n > math.MaxUint32 {
		return 0, d.fatal(errors.MalformedData(errors.PhaseDecode,
			"%d out of range for a u32", n))
	}
	return uint32(n), nil
}

func (d *Decoder) DecodeU64() (uint64, error) {
	if err := d.state.codeScalar(schema.ScalarU64); err != nil {
		return 0, err
	}
	n, err := varint.ReadUint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	return n, nil
}

// DecodeU128 decodes a u128 value. A value above 64 bits is valid on the
// wire but not representable here, which fails with platform_limits.
func (d *Decoder) DecodeU128() (uint64, error) {
	if err := d.state.codeScalar(schema.ScalarU128); err != nil {
		return 0, err
	}
	n, err := varint.ReadUint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	return n, nil
}

func (d *Decoder) DecodeI8() (int8, error) {
	if err := d.state.codeScalar(schema.ScalarI8); err != nil {
		return 0, err
	}
	var buf [1]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return int8(buf[0]), nil
}

func (d *Decoder) DecodeI16() (int16, error) {
	if err := d.state.codeScalar(schema.ScalarI16); err != nil {
		return 0, err
	}
	var buf [2]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(buf[:])), nil
}

func (d *Decoder) DecodeI32() (int32, error) {
	if err := d.state.codeScalar(schema.ScalarI32); err != nil {
		return 0, err
	}
	n, err := varint.ReadSint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, d.fatal(errors.MalformedData(errors.PhaseDecode,
			"%d out of range for an i32", n))
	}
	return int32(n), nil
}

func (d *Decoder) DecodeI64() (int64, error) {
	if err := d.state.codeScalar(schema.ScalarI64); err != nil {
		return 0, err
	}
	n, err := varint.ReadSint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	return n, nil
}

// DecodeI128 decodes an i128 value, subject to the same 64 bit platform
// bound as DecodeU128.
func (d *Decoder) DecodeI128() (int64, error) {
	if err := d.state.codeScalar(schema.ScalarI128); err != nil {
		return 0, err
	}
	n, err := varint.ReadSint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	return n, nil
}

func (d *Decoder) DecodeF32() (float32, error) {
	if err := d.state.codeScalar(schema.ScalarF32); err != nil {
		return 0, err
	}
	var buf [4]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

func (d *Decoder) DecodeF64() (float64, error) {
	if err := d.state.codeScalar(schema.ScalarF64); err != nil {
		return 0, err
	}
	var buf [8]byte
	if err := d.read(buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

// DecodeChar decodes a Unicode scalar value, rejecting surrogates and
// out-of-range code points.
func (d *Decoder) DecodeChar() (rune, error) {
	if err := d.state.codeScalar(schema.ScalarChar); err != nil {
		return 0, err
	}
	n, err := varint.ReadUint(d.r)
	if err != nil {
		return 0, d.fatal(err)
	}
	if n > math.MaxInt32 || !utf8.ValidRune(rune(n)) {
		return 0, d.fatal(errors.MalformedData(errors.PhaseDecode,
			"%d is not a valid char", n))
	}
	return rune(n), nil
}

func (d *Decoder) DecodeBool() (bool, error) {
	if err := d.state.codeScalar(schema.ScalarBool); err != nil {
		return false, err
	}
	var buf [1]byte
	if err := d.read(buf[:]); err != nil {
		return false, err
	}
	switch buf[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, d.fatal(errors.MalformedData(errors.PhaseDecode,
			"%d is not a valid bool", buf[0]))
	}
}

func (d *Decoder) DecodeUnit() error {
	return d.state.codeUnit()
}

// DecodeStr decodes a UTF-8 string.
func (d *Decoder) DecodeStr() (string, error) {
	if err := d.state.codeStr(); err != nil {
		return "", err
	}
	length, err := d.readLen()
	if err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if err := d.read(buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", d.fatal(errors.InvalidUTF8(errors.PhaseDecode, buf))
	}
	return string(buf), nil
}

// DecodeBytes decodes a byte string into a new allocation.
func (d *Decoder) DecodeBytes() ([]byte, error) {
	if err := d.state.codeBytes(); err != nil {
		return nil, err
	}
	length, err := d.readLen()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if err := d.read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeBytesInto clears buf and decodes a byte string into it, returning
// the possibly regrown buffer.
func (d *Decoder) DecodeBytesInto(buf []byte) ([]byte, error) {
	if err := d.state.codeBytes(); err != nil {
		return buf[:0], err
	}
	length, err := d.readLen()
	if err != nil {
		return buf[:0], err
	}
	if cap(buf) < length {
		buf = make([]byte, length)
	} else {
		buf = buf[:length]
	}
	if err := d.read(buf); err != nil {
		return buf[:0], err
	}
	return buf, nil
}

// BeginOption begins decoding an option and returns its someness. A none
// finishes decoding immediately; a some should be followed by decoding
// the inner value, which auto-finishes the option.
func (d *Decoder) BeginOption() (bool, error) {
	if err := d.state.beginOption(); err != nil {
		return false, err
	}
	var buf [1]byte
	if err := d.read(buf[:]); err != nil {
		return false, err
	}
	switch buf[0] {
	case 0:
		d.state.setOptionNone()
		return false, nil
	case 1:
		if err := d.state.setOptionSome(); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, d.fatal(errors.MalformedData(errors.PhaseDecode,
			"%d is not a valid option someness", buf[0]))
	}
}

// BeginFixedLenSeq begins decoding a fixed len seq of the given length.
// This should be followed by length calls to BeginSeqElem, each with its
// element, then FinishSeq.
func (d *Decoder) BeginFixedLenSeq(length int) error {
	return d.state.beginFixedLenSeq(length)
}

// BeginVarLenSeq begins decoding a var len seq and returns the length
// read from the wire. This should be followed by that many calls to
// BeginSeqElem, each with its element, then FinishSeq.
func (d *Decoder) BeginVarLenSeq() (int, error) {
	if err := d.state.beginVarLenSeq(); err != nil {
		return 0, err
	}
	length, err := d.readLen()
	if err != nil {
		return 0, err
	}
	d.state.setVarLenSeqLen(length)
	return length, nil
}

// BeginSeqElem begins decoding the next seq element.
func (d *Decoder) BeginSeqElem() error {
	return d.state.beginSeqElem()
}

// FinishSeq finishes decoding a seq.
func (d *Decoder) FinishSeq() error {
	return d.state.finishSeq()
}

// BeginTuple begins decoding a tuple. This should be followed by
// BeginTupleElem for each element, then FinishTuple.
func (d *Decoder) BeginTuple() error {
	return d.state.beginTuple()
}

// BeginTupleElem begins decoding the next tuple element.
func (d *Decoder) BeginTupleElem() error {
	return d.state.beginTupleElem()
}

// FinishTuple finishes decoding a tuple.
func (d *Decoder) FinishTuple() error {
	return d.state.finishTuple()
}

// BeginStruct begins decoding a struct. This should be followed by
// BeginStructField for each field in declared order, then FinishStruct.
func (d *Decoder) BeginStruct() error {
	return d.state.beginStruct()
}

// BeginStructField begins decoding the named field, which must be the
// next field in declared order.
func (d *Decoder) BeginStructField(name string) error {
	return d.state.beginStructField(name)
}

// FinishStruct finishes decoding a struct.
func (d *Decoder) FinishStruct() error {
	return d.state.finishStruct()
}

// BeginEnum begins decoding an enum and returns the variant ordinal read
// from the wire. This should be followed by BeginEnumVariant with the
// variant's declared name, then decoding the inner value, which
// auto-finishes the enum. An ordinal at or above the variant count is
// malformed data.
func (d *Decoder) BeginEnum() (int, error) {
	numVariants, err := d.state.beginEnum()
	if err != nil {
		return 0, err
	}
	ord, err := varint.ReadOrd(d.r, numVariants)
	if err != nil {
		return 0, d.fatal(err)
	}
	if err := d.state.beginEnumVariantOrd(ord); err != nil {
		return 0, d.fatal(err)
	}
	return ord, nil
}

// BeginEnumVariant provides the name of the variant whose ordinal
// BeginEnum returned.
func (d *Decoder) BeginEnumVariant(name string) error {
	return d.state.beginEnumVariantName(name)
}
