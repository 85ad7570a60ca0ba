// Package value provides a dynamic representation of data within the
// serialized data model, for working with messages whose schema is only
// known at runtime. Decoding dispatches on Decoder.Need, so any message
// can be lifted into a Value tree and encoded back byte for byte.
package value

import (
	"github.com/wippyai/binschema/coder"
	"github.com/wippyai/binschema/errors"
	"github.com/wippyai/binschema/schema"
)

// Kind discriminates the value variant set. Fixed and var len seqs are
// kept apart because they encode differently.
type Kind uint8

const (
	KindScalar Kind = iota
	KindStr
	KindBytes
	KindUnit
	KindOption
	KindFixedLenSeq
	KindVarLenSeq
	KindTuple
	KindStruct
	KindEnum
)

var kindNames = [...]string{
	KindScalar:      "scalar",
	KindStr:         "str",
	KindBytes:       "bytes",
	KindUnit:        "unit",
	KindOption:      "option",
	KindFixedLenSeq: "fixed len seq",
	KindVarLenSeq:   "var len seq",
	KindTuple:       "tuple",
	KindStruct:      "struct",
	KindEnum:        "enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is one node of a dynamic message tree. The Kind field selects
// which of the remaining fields are meaningful:
//
//	KindScalar                 Scalar
//	KindStr                    Str
//	KindBytes                  Bytes
//	KindOption                 Some, nil meaning none
//	KindFixedLenSeq            Elems
//	KindVarLenSeq              Elems
//	KindTuple                  Elems
//	KindStruct                 Fields
//	KindEnum                   Ord, Variant, Inner
type Value struct {
	Kind    Kind
	Scalar  Scalar
	Str     string
	Bytes   []byte
	Some    *Value
	Elems   []Value
	Fields  []Field
	Ord     int
	Variant string
	Inner   *Value
}

// Scalar holds one scalar value. Type selects the live field: U for the
// unsigned types, I for the signed, F32/F64, Ch, B.
type Scalar struct {
	Type schema.ScalarType
	U    uint64
	I    int64
	F32  float32
	F64  float64
	Ch   rune
	B    bool
}

// Field is a named struct field value.
type Field struct {
	Name  string
	Value Value
}

// Scalar constructors.

func U8(n uint8) Value   { return Value{Scalar: Scalar{Type: schema.ScalarU8, U: uint64(n)}} }
func U16(n uint16) Value { return Value{Scalar: Scalar{Type: schema.ScalarU16, U: uint64(n)}} }
func U32(n uint32) Value { return Value{Scalar: Scalar{Type: schema.ScalarU32, U: uint64(n)}} }
func U64(n uint64) Value { return Value{Scalar: Scalar{Type: schema.ScalarU64, U: n}} }
func U128(n uint64) Value {
	return Value{Scalar: Scalar{Type: schema.ScalarU128, U: n}}
}
func I8(n int8) Value   { return Value{Scalar: Scalar{Type: schema.ScalarI8, I: int64(n)}} }
func I16(n int16) Value { return Value{Scalar: Scalar{Type: schema.ScalarI16, I: int64(n)}} }
func I32(n int32) Value { return Value{Scalar: Scalar{Type: schema.ScalarI32, I: int64(n)}} }
func I64(n int64) Value { return Value{Scalar: Scalar{Type: schema.ScalarI64, I: n}} }
func I128(n int64) Value {
	return Value{Scalar: Scalar{Type: schema.ScalarI128, I: n}}
}
func F32(n float32) Value { return Value{Scalar: Scalar{Type: schema.ScalarF32, F32: n}} }
func F64(n float64) Value { return Value{Scalar: Scalar{Type: schema.ScalarF64, F64: n}} }
func Char(r rune) Value   { return Value{Scalar: Scalar{Type: schema.ScalarChar, Ch: r}} }
func Bool(b bool) Value   { return Value{Scalar: Scalar{Type: schema.ScalarBool, B: b}} }

// Str returns a string value.
func Str(s string) Value { return Value{Kind: KindStr, Str: s} }

// Bytes returns a byte string value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// Unit returns the unit value.
func Unit() Value { return Value{Kind: KindUnit} }

// None returns an absent option value.
func None() Value { return Value{Kind: KindOption} }

// Some returns a present option value.
func Some(v Value) Value { return Value{Kind: KindOption, Some: &v} }

// FixedSeqOf returns a fixed len seq value.
func FixedSeqOf(elems ...Value) Value {
	return Value{Kind: KindFixedLenSeq, Elems: elems}
}

// SeqOf returns a var len seq value.
func SeqOf(elems ...Value) Value {
	return Value{Kind: KindVarLenSeq, Elems: elems}
}

// TupleOf returns a tuple value.
func TupleOf(elems ...Value) Value {
	return Value{Kind: KindTuple, Elems: elems}
}

// StructOf returns a struct value.
func StructOf(fields ...Field) Value {
	return Value{Kind: KindStruct, Fields: fields}
}

// EnumOf returns an enum value for the variant with the given ordinal and
// name.
func EnumOf(ord int, name string, inner Value) Value {
	return Value{Kind: KindEnum, Ord: ord, Variant: name, Inner: &inner}
}

// EncodeTo encodes the value tree through e. The tree must conform to the
// encoder's schema; any mismatch surfaces as the coder's usual errors.
func (v *Value) EncodeTo(e *coder.Encoder) error {
	switch v.Kind {
	case KindScalar:
		return v.Scalar.encodeTo(e)
	case KindStr:
		return e.EncodeStr(v.Str)
	case KindBytes:
		return e.EncodeBytes(v.Bytes)
	case KindUnit:
		return e.EncodeUnit()
	case KindOption:
		if v.Some == nil {
			return e.EncodeNone()
		}
		if err := e.BeginSome(); err != nil {
			return err
		}
		return v.Some.EncodeTo(e)
	case KindFixedLenSeq:
		if err := e.BeginFixedLenSeq(len(v.Elems)); err != nil {
			return err
		}
		for i := range v.Elems {
			if err := e.BeginSeqElem(); err != nil {
				return err
			}
			if err := v.Elems[i].EncodeTo(e); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	case KindVarLenSeq:
		if err := e.BeginVarLenSeq(len(v.Elems)); err != nil {
			return err
		}
		for i := range v.Elems {
			if err := e.BeginSeqElem(); err != nil {
				return err
			}
			if err := v.Elems[i].EncodeTo(e); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	case KindTuple:
		if err := e.BeginTuple(); err != nil {
			return err
		}
		for i := range v.Elems {
			if err := e.BeginTupleElem(); err != nil {
				return err
			}
			if err := v.Elems[i].EncodeTo(e); err != nil {
				return err
			}
		}
		return e.FinishTuple()
	case KindStruct:
		if err := e.BeginStruct(); err != nil {
			return err
		}
		for i := range v.Fields {
			if err := e.BeginStructField(v.Fields[i].Name); err != nil {
				return err
			}
			if err := v.Fields[i].Value.EncodeTo(e); err != nil {
				return err
			}
		}
		return e.FinishStruct()
	case KindEnum:
		if err := e.BeginEnum(v.Ord, v.Variant); err != nil {
			return err
		}
		return v.Inner.EncodeTo(e)
	default:
		return errors.APIUsage(errors.PhaseEncode, "encode of unknown value kind %d", v.Kind)
	}
}

// DecodeFrom decodes one value tree through d, dispatching on the schema
// the decoder needs at each position.
func DecodeFrom(d *coder.Decoder) (Value, error) {
	need, err := d.Need()
	if err != nil {
		return Value{}, err
	}
	switch need.Kind {
	case schema.KindScalar:
		s, err := decodeScalar(d, need.Scalar)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindScalar, Scalar: s}, nil
	case schema.KindStr:
		s, err := d.DecodeStr()
		if err != nil {
			return Value{}, err
		}
		return Str(s), nil
	case schema.KindBytes:
		b, err := d.DecodeBytes()
		if err != nil {
			return Value{}, err
		}
		return Bytes(b), nil
	case schema.KindUnit:
		if err := d.DecodeUnit(); err != nil {
			return Value{}, err
		}
		return Unit(), nil
	case schema.KindOption:
		isSome, err := d.BeginOption()
		if err != nil {
			return Value{}, err
		}
		if !isSome {
			return None(), nil
		}
		inner, err := DecodeFrom(d)
		if err != nil {
			return Value{}, err
		}
		return Some(inner), nil
	case schema.KindSeq:
		if need.VarLen {
			length, err := d.BeginVarLenSeq()
			if err != nil {
				return Value{}, err
			}
			elems, err := decodeElems(d, length)
			if err != nil {
				return Value{}, err
			}
			if err := d.FinishSeq(); err != nil {
				return Value{}, err
			}
			return Value{Kind: KindVarLenSeq, Elems: elems}, nil
		}
		if err := d.BeginFixedLenSeq(need.Len); err != nil {
			return Value{}, err
		}
		elems, err := decodeElems(d, need.Len)
		if err != nil {
			return Value{}, err
		}
		if err := d.FinishSeq(); err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFixedLenSeq, Elems: elems}, nil
	case schema.KindTuple:
		if err := d.BeginTuple(); err != nil {
			return Value{}, err
		}
		elems := make([]Value, 0, len(need.Elems))
		for range need.Elems {
			if err := d.BeginTupleElem(); err != nil {
				return Value{}, err
			}
			elem, err := DecodeFrom(d)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, elem)
		}
		if err := d.FinishTuple(); err != nil {
			return Value{}, err
		}
		return TupleOf(elems...), nil
	case schema.KindStruct:
		if err := d.BeginStruct(); err != nil {
			return Value{}, err
		}
		fields := make([]Field, 0, len(need.Fields))
		for i := range need.Fields {
			name := need.Fields[i].Name
			if err := d.BeginStructField(name); err != nil {
				return Value{}, err
			}
			fv, err := DecodeFrom(d)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: name, Value: fv})
		}
		if err := d.FinishStruct(); err != nil {
			return Value{}, err
		}
		return StructOf(fields...), nil
	case schema.KindEnum:
		ord, err := d.BeginEnum()
		if err != nil {
			return Value{}, err
		}
		name := need.Variants[ord].Name
		if err := d.BeginEnumVariant(name); err != nil {
			return Value{}, err
		}
		inner, err := DecodeFrom(d)
		if err != nil {
			return Value{}, err
		}
		return EnumOf(ord, name, inner), nil
	default:
		// Need never returns a recurse node
		return Value{}, errors.APIUsage(errors.PhaseDecode,
			"decode of unknown schema kind %d", need.Kind)
	}
}

func decodeElems(d *coder.Decoder, n int) ([]Value, error) {
	// trust the element count only up to a point, the data may lie
	capHint := n
	if capHint > 1024 {
		capHint = 1024
	}
	elems := make([]Value, 0, capHint)
	for i := 0; i < n; i++ {
		if err := d.BeginSeqElem(); err != nil {
			return nil, err
		}
		elem, err := DecodeFrom(d)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
	return elems, nil
}

func (s Scalar) encodeTo(e *coder.Encoder) error {
	switch s.Type {
	case schema.ScalarU8:
		return e.EncodeU8(uint8(s.U))
	case schema.ScalarU16:
		return e.EncodeU16(uint16(s.U))
	case schema.ScalarU32:
		return e.EncodeU32(uint32(s.U))
	case schema.ScalarU64:
		return e.EncodeU64(s.U)
	case schema.ScalarU128:
		return e.EncodeU128(s.U)
	case schema.ScalarI8:
		return e.EncodeI8(int8(s.I))
	case schema.ScalarI16:
		return e.EncodeI16(int16(s.I))
	case schema.ScalarI32:
		return e.EncodeI32(int32(s.I))
	case schema.ScalarI64:
		return e.EncodeI64(s.I)
	case schema.ScalarI128:
		return e.EncodeI128(s.I)
	case schema.ScalarF32:
		return e.EncodeF32(s.F32)
	case schema.ScalarF64:
		return e.EncodeF64(s.F64)
	case schema.ScalarChar:
		return e.EncodeChar(s.Ch)
	case schema.ScalarBool:
		return e.EncodeBool(s.B)
	default:
		return errors.APIUsage(errors.PhaseEncode, "encode of unknown scalar type %d", s.Type)
	}
}

func decodeScalar(d *coder.Decoder, st schema.ScalarType) (Scalar, error) {
	s := Scalar{Type: st}
	var err error
	switch st {
	case schema.ScalarU8:
		var n uint8
		n, err = d.DecodeU8()
		s.U = uint64(n)
	case schema.ScalarU16:
		var n uint16
		n, err = d.DecodeU16()
		s.U = uint64(n)
	case schema.ScalarU32:
		var n uint32
		n, err = d.DecodeU32()
		s.U = uint64(n)
	case schema.ScalarU64:
		s.U, err = d.DecodeU64()
	case schema.ScalarU128:
		s.U, err = d.DecodeU128()
	case schema.ScalarI8:
		var n int8
		n, err = d.DecodeI8()
		s.I = int64(n)
	case schema.ScalarI16:
		var n int16
		n, err = d.DecodeI16()
		s.I = int64(n)
	case schema.ScalarI32:
		var n int32
		n, err = d.DecodeI32()
		s.I = int64(n)
	case schema.ScalarI64:
		s.I, err = d.DecodeI64()
	case schema.ScalarI128:
		s.I, err = d.DecodeI128()
	case schema.ScalarF32:
		s.F32, err = d.DecodeF32()
	case schema.ScalarF64:
		s.F64, err = d.DecodeF64()
	case schema.ScalarChar:
		s.Ch, err = d.DecodeChar()
	case schema.ScalarBool:
		s.B, err = d.DecodeBool()
	default:
		err = errors.MalformedData(errors.PhaseDecode, "unknown scalar type %d", st)
	}
	if err != nil {
		return Scalar{}, err
	}
	return s, nil
}
