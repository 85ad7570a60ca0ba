package schema

import "strings"

// Schema is a runtime-inspectable description of a value's binary shape.
// The Kind field selects which of the remaining fields are meaningful:
//
//	KindScalar   Scalar
//	KindOption   Elem
//	KindSeq      Elem, and Len when VarLen is false
//	KindTuple    Elems
//	KindStruct   Fields
//	KindEnum     Variants
//	KindRecurse  Up
//
// Str, Bytes, and Unit carry no payload. Schemas are immutable after
// construction; a single *Schema may be shared by any number of coders.
type Schema struct {
	Kind   Kind
	Scalar ScalarType

	// Elem is the element schema of an option or seq.
	Elem *Schema

	// Len is the fixed element count of a seq when VarLen is false.
	Len int
	// VarLen marks a seq whose length is carried in each message.
	VarLen bool

	// Up is the recurse distance, in ancestor levels. Must be at least 1.
	Up int

	// Elems are the element schemas of a tuple, in order.
	Elems []*Schema

	// Fields are the fields of a struct, in declared order.
	Fields []Field

	// Variants are the variants of an enum, in ordinal order.
	Variants []Variant
}

// Field is a named struct field.
type Field struct {
	Name   string
	Schema *Schema
}

// Variant is a named enum variant. Its ordinal is its index in the
// enclosing Variants slice.
type Variant struct {
	Name   string
	Schema *Schema
}

// Scalar constructors.

func ScalarOf(s ScalarType) *Schema { return &Schema{Kind: KindScalar, Scalar: s} }

func U8() *Schema   { return ScalarOf(ScalarU8) }
func U16() *Schema  { return ScalarOf(ScalarU16) }
func U32() *Schema  { return ScalarOf(ScalarU32) }
func U64() *Schema  { return ScalarOf(ScalarU64) }
func U128() *Schema { return ScalarOf(ScalarU128) }
func I8() *Schema   { return ScalarOf(ScalarI8) }
func I16() *Schema  { return ScalarOf(ScalarI16) }
func I32() *Schema  { return ScalarOf(ScalarI32) }
func I64() *Schema  { return ScalarOf(ScalarI64) }
func I128() *Schema { return ScalarOf(ScalarI128) }
func F32() *Schema  { return ScalarOf(ScalarF32) }
func F64() *Schema  { return ScalarOf(ScalarF64) }
func Char() *Schema { return ScalarOf(ScalarChar) }
func Bool() *Schema { return ScalarOf(ScalarBool) }

// Str returns the UTF-8 string schema.
func Str() *Schema { return &Schema{Kind: KindStr} }

// Bytes returns the byte string schema.
func Bytes() *Schema { return &Schema{Kind: KindBytes} }

// Unit returns the zero-byte unit schema.
func Unit() *Schema { return &Schema{Kind: KindUnit} }

// OptionOf returns an option wrapping inner.
func OptionOf(inner *Schema) *Schema {
	return &Schema{Kind: KindOption, Elem: inner}
}

// SeqOf returns a variable-length sequence of inner. Each message carries
// its own element count.
func SeqOf(inner *Schema) *Schema {
	return &Schema{Kind: KindSeq, VarLen: true, Elem: inner}
}

// ArrayOf returns a fixed-length sequence of exactly n elements of inner.
// The length is part of the schema and never appears on the wire.
func ArrayOf(n int, inner *Schema) *Schema {
	return &Schema{Kind: KindSeq, Len: n, Elem: inner}
}

// TupleOf returns a tuple of the given element schemas, in order.
func TupleOf(elems ...*Schema) *Schema {
	return &Schema{Kind: KindTuple, Elems: elems}
}

// StructOf returns a struct of the given fields, in declared order.
func StructOf(fields ...Field) *Schema {
	return &Schema{Kind: KindStruct, Fields: fields}
}

// EnumOf returns an enum of the given variants, in ordinal order.
func EnumOf(variants ...Variant) *Schema {
	return &Schema{Kind: KindEnum, Variants: variants}
}

// RecurseUp returns a back-reference to the schema node n levels above
// this node's position in a value traversal. n must be at least 1; it is
// resolved against the coder's runtime position stack, not at build time.
func RecurseUp(n int) *Schema {
	return &Schema{Kind: KindRecurse, Up: n}
}

// NonRecursive reports whether the schema tree contains no Recurse nodes,
// meaning every message for it has statically bounded depth.
func (s *Schema) NonRecursive() bool {
	switch s.Kind {
	case KindRecurse:
		return false
	case KindOption, KindSeq:
		return s.Elem.NonRecursive()
	case KindTuple:
		for _, e := range s.Elems {
			if !e.NonRecursive() {
				return false
			}
		}
	case KindStruct:
		for _, f := range s.Fields {
			if !f.Schema.NonRecursive() {
				return false
			}
		}
	case KindEnum:
		for _, v := range s.Variants {
			if !v.Schema.NonRecursive() {
				return false
			}
		}
	}
	return true
}

// FieldNamed returns the field with the given name and its index, or nil
// and -1.
func (s *Schema) FieldNamed(name string) (*Field, int) {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i], i
		}
	}
	return nil, -1
}

// VariantNamed returns the variant with the given name and its ordinal, or
// nil and -1.
func (s *Schema) VariantNamed(name string) (*Variant, int) {
	for i := range s.Variants {
		if s.Variants[i].Name == name {
			return &s.Variants[i], i
		}
	}
	return nil, -1
}

// Equal reports whether two schemas are structurally identical, including
// field and variant names and ordering.
func (s *Schema) Equal(o *Schema) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case KindScalar:
		return s.Scalar == o.Scalar
	case KindStr, KindBytes, KindUnit:
		return true
	case KindOption:
		return s.Elem.Equal(o.Elem)
	case KindSeq:
		if s.VarLen != o.VarLen || (!s.VarLen && s.Len != o.Len) {
			return false
		}
		return s.Elem.Equal(o.Elem)
	case KindTuple:
		if len(s.Elems) != len(o.Elems) {
			return false
		}
		for i := range s.Elems {
			if !s.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
		return true
	case KindStruct:
		if len(s.Fields) != len(o.Fields) {
			return false
		}
		for i := range s.Fields {
			if s.Fields[i].Name != o.Fields[i].Name ||
				!s.Fields[i].Schema.Equal(o.Fields[i].Schema) {
				return false
			}
		}
		return true
	case KindEnum:
		if len(s.Variants) != len(o.Variants) {
			return false
		}
		for i := range s.Variants {
			if s.Variants[i].Name != o.Variants[i].Name ||
				!s.Variants[i].Schema.Equal(o.Variants[i].Schema) {
				return false
			}
		}
		return true
	case KindRecurse:
		return s.Up == o.Up
	}
	return false
}

// String renders the schema on a single line, e.g.
// "struct{a: u8, b: option(str)}".
func (s *Schema) String() string {
	var b strings.Builder
	s.writeTo(&b)
	return b.String()
}

func (s *Schema) writeTo(b *strings.Builder) {
	switch s.Kind {
	case KindScalar:
		b.WriteString(s.Scalar.String())
	case KindStr:
		b.WriteString("str")
	case KindBytes:
		b.WriteString("bytes")
	case KindUnit:
		b.WriteString("unit")
	case KindOption:
		b.WriteString("option(")
		s.Elem.writeTo(b)
		b.WriteByte(')')
	case KindSeq:
		b.WriteString("seq")
		if !s.VarLen {
			writeInt(b, s.Len)
		}
		b.WriteByte('(')
		s.Elem.writeTo(b)
		b.WriteByte(')')
	case KindTuple:
		b.WriteString("tuple(")
		for i, e := range s.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.writeTo(b)
		}
		b.WriteByte(')')
	case KindStruct:
		b.WriteString("struct{")
		for i, f := range s.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			f.Schema.writeTo(b)
		}
		b.WriteByte('}')
	case KindEnum:
		b.WriteString("enum{")
		for i, v := range s.Variants {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.Name)
			b.WriteByte('(')
			v.Schema.writeTo(b)
			b.WriteByte(')')
		}
		b.WriteByte('}')
	case KindRecurse:
		b.WriteString("recurse(")
		writeInt(b, s.Up)
		b.WriteByte(')')
	default:
		b.WriteString("unknown")
	}
}

func writeInt(b *strings.Builder, n int) {
	if n == 0 {
		b.WriteByte('0')
		return
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	b.Write(buf[i:])
}
