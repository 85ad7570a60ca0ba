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

// Encoder writes one schema-conforming message to an io.Writer. Every
// call first validates against the shared CoderState, so no byte is
// written unless it belongs in the message at this position.
type Encoder struct {
	state *CoderState
	w     io.Writer
}

// NewEncoder returns an encoder driving state and writing to w.
func NewEncoder(state *CoderState, w io.Writer) *Encoder {
	return &Encoder{state: state, w: w}
}

// Need returns the schema that must be encoded next. See CoderState.Need.
func (e *Encoder) Need() (*schema.Schema, error) {
	return e.state.Need()
}

// State exposes the underlying coder state.
func (e *Encoder) State() *CoderState {
	return e.state
}

// write sends raw bytes, latching the broken state on failure.
func (e *Encoder) write(b []byte) error {
	if _, err := e.w.Write(b); err != nil {
		e.state.markBroken()
		return errors.IO(errors.PhaseEncode, err)
	}
	return nil
}

// fatal latches the broken state when the varint layer fails.
func (e *Encoder) fatal(err error) error {
	if err != nil {
		e.state.markBroken()
	}
	return err
}

func (e *Encoder) EncodeU8(n uint8) error {
	if err := e.state.codeScalar(schema.ScalarU8); err != nil {
		return err
	}
	return e.write([]byte{n})
}

func (e *Encoder) EncodeU16(n uint16) error {
	if err := e.state.codeScalar(schema.ScalarU16); err != nil {
		return err
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], n)
	return e.write(buf[:])
}

func (e *Encoder) EncodeU32(n uint32) error {
	if err := e.state.codeScalar(schema.ScalarU32); err != nil {
		return err
	}
	return e.fatal(varint.WriteUint(e.w, uint64(n)))
}

func (e *Encoder) EncodeU64(n uint64) error {
	if err := e.state.codeScalar(schema.ScalarU64); err != nil {
		return err
	}
	return e.fatal(varint.WriteUint(e.w, n))
}

// EncodeU128 encodes a u128 value. Values above 64 bits are not
// representable on this platform, so the argument is a uint64; the wire
// form is identical either way.
func (e *Encoder) EncodeU128(n uint64) error {
	if err := e.state.codeScalar(schema.ScalarU128); err != nil {
		return err
	}
	return e.fatal(varint.WriteUint(e.w, n))
}

func (e *Encoder) EncodeI8(n int8) error {
	if err := e.state.codeScalar(schema.ScalarI8); err != nil {
		return err
	}
	return e.write([]byte{byte(n)})
}

func (e *Encoder) EncodeI16(n int16) error {
	if err := e.state.codeScalar(schema.ScalarI16); err != nil {
		return err
	}
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(n))
	return e.write(buf[:])
}

func (e *Encoder) EncodeI32(n int32) error {
	if err := e.state.codeScalar(schema.ScalarI32); err != nil {
		return err
	}
	return e.fatal(varint.WriteSint(e.w, int64(n)))
}

func (e *Encoder) EncodeI64(n int64) error {
	if err := e.state.codeScalar(schema.ScalarI64); err != nil {
		return err
	}
	return e.fatal(varint.WriteSint(e.w, n))
}

// EncodeI128 encodes an i128 value, subject to the same 64 bit platform
// bound as EncodeU128.
func (e *Encoder) EncodeI128(n int64) error {
	if err := e.state.codeScalar(schema.ScalarI128); err != nil {
		return err
	}
	return e.fatal(varint.WriteSint(e.w, n))
}

func (e *Encoder) EncodeF32(n float32) error {
	if err := e.state.codeScalar(schema.ScalarF32); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(n))
	return e.write(buf[:])
}

func (e *Encoder) EncodeF64(n float64) error {
	if err := e.state.codeScalar(schema.ScalarF64); err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(n))
	return e.write(buf[:])
}

// EncodeChar encodes a Unicode scalar value. Surrogate and out-of-range
// runes are rejected before any state change.
func (e *Encoder) EncodeChar(r rune) error {
	if !utf8.ValidRune(r) {
		return errors.NonConformance(errors.PhaseEncode, "%d is not a valid char", r)
	}
	if err := e.state.codeScalar(schema.ScalarChar); err != nil {
		return err
	}
	return e.fatal(varint.WriteUint(e.w, uint64(r)))
}

func (e *Encoder) EncodeBool(b bool) error {
	if err := e.state.codeScalar(schema.ScalarBool); err != nil {
		return err
	}
	n := byte(0)
	if b {
		n = 1
	}
	return e.write([]byte{n})
}

func (e *Encoder) EncodeUnit() error {
	return e.state.codeUnit()
}

// EncodeStr encodes a UTF-8 string. Invalid UTF-8 is rejected before any
// state change.
func (e *Encoder) EncodeStr(s string) error {
	if !utf8.ValidString(s) {
		return errors.NonConformance(errors.PhaseEncode, "non UTF8 str bytes")
	}
	if err := e.state.codeStr(); err != nil {
		return err
	}
	if err := e.fatal(varint.WriteUint(e.w, uint64(len(s)))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

func (e *Encoder) EncodeBytes(b []byte) error {
	if err := e.state.codeBytes(); err != nil {
		return err
	}
	if err := e.fatal(varint.WriteUint(e.w, uint64(len(b)))); err != nil {
		return err
	}
	return e.write(b)
}

// EncodeNone completely encodes an option as none.
func (e *Encoder) EncodeNone() error {
	if err := e.state.beginOption(); err != nil {
		return err
	}
	e.state.setOptionNone()
	return e.write([]byte{0})
}

// BeginSome begins encoding an option as some. This should be followed by
// encoding the inner value, which auto-finishes the option.
func (e *Encoder) BeginSome() error {
	if err := e.state.beginOption(); err != nil {
		return err
	}
	if err := e.state.setOptionSome(); err != nil {
		return err
	}
	return e.write([]byte{1})
}

// BeginFixedLenSeq begins encoding a fixed len seq. This should be
// followed by length calls to BeginSeqElem, each with its element, then
// FinishSeq. No length byte is written; it is part of the schema.
func (e *Encoder) BeginFixedLenSeq(length int) error {
	return e.state.beginFixedLenSeq(length)
}

// BeginVarLenSeq begins encoding a var len seq of the given length, which
// is written on the wire. This should be followed by length calls to
// BeginSeqElem, each with its element, then FinishSeq.
func (e *Encoder) BeginVarLenSeq(length int) error {
	if err := e.state.beginVarLenSeq(); err != nil {
		return err
	}
	e.state.setVarLenSeqLen(length)
	return e.fatal(varint.WriteUint(e.w, uint64(length)))
}

// BeginSeqElem begins encoding the next seq element.
func (e *Encoder) BeginSeqElem() error {
	return e.state.beginSeqElem()
}

// FinishSeq finishes encoding a seq.
func (e *Encoder) FinishSeq() error {
	return e.state.finishSeq()
}

// BeginTuple begins encoding a tuple. This should be followed by
// BeginTupleElem for each element, then FinishTuple.
func (e *Encoder) BeginTuple() error {
	return e.state.beginTuple()
}

// BeginTupleElem begins encoding the next tuple element.
func (e *Encoder) BeginTupleElem() error {
	return e.state.beginTupleElem()
}

// FinishTuple finishes encoding a tuple.
func (e *Encoder) FinishTuple() error {
	return e.state.finishTuple()
}

// BeginStruct begins encoding a struct. This should be followed by
// BeginStructField for each field in declared order, then FinishStruct.
func (e *Encoder) BeginStruct() error {
	return e.state.beginStruct()
}

// BeginStructField begins encoding the named field, which must be the
// next field in declared order. Field names never reach the wire.
func (e *Encoder) BeginStructField(name string) error {
	return e.state.beginStructField(name)
}

// FinishStruct finishes encoding a struct.
func (e *Encoder) FinishStruct() error {
	return e.state.finishStruct()
}

// BeginEnum begins encoding an enum as the variant with the given ordinal
// and name, as a single all-or-nothing state change. This should be
// followed by encoding the inner value, which auto-finishes the enum.
func (e *Encoder) BeginEnum(ord int, name string) error {
	numVariants, err := e.state.beginEnum()
	if err != nil {
		return err
	}
	if err := e.state.beginEnumVariantOrd(ord); err != nil {
		e.state.cancelEnum()
		return err
	}
	if err := e.state.beginEnumVariantName(name); err != nil {
		e.state.cancelEnum()
		return err
	}
	return e.fatal(varint.WriteOrd(e.w, ord, numVariants))
}
