package coder

import (
	"bytes"
	"testing"

	"github.com/wippyai/binschema/schema"
)

// encode runs fn over a fresh encoder for s and returns the message
// bytes, requiring a cleanly finished state.
func encode(t *testing.T, s *schema.Schema, fn func(*Encoder) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	state := NewState(s)
	if err := fn(NewEncoder(state, &buf)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := state.IsFinishedOrErr(); err != nil {
		t.Fatalf("encode did not finish: %v", err)
	}
	return buf.Bytes()
}

// decode runs fn over a fresh decoder for s on data, requiring a cleanly
// finished state.
func decode(t *testing.T, s *schema.Schema, data []byte, fn func(*Decoder) error) {
	t.Helper()
	state := NewState(s)
	if err := fn(NewDecoder(state, bytes.NewReader(data))); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := state.IsFinishedOrErr(); err != nil {
		t.Fatalf("decode did not finish: %v", err)
	}
}

func TestStructWireFormat(t *testing.T) {
	s := schema.StructOf(
		schema.Field{Name: "a", Schema: schema.U8()},
		schema.Field{Name: "b", Schema: schema.Str()},
	)

	// field names and struct framing never reach the wire
	data := encode(t, s, func(e *Encoder) error {
		if err := e.BeginStruct(); err != nil {
			return err
		}
		if err := e.BeginStructField("a"); err != nil {
			return err
		}
		if err := e.EncodeU8(5); err != nil {
			return err
		}
		if err := e.BeginStructField("b"); err != nil {
			return err
		}
		if err := e.EncodeStr("hi"); err != nil {
			return err
		}
		return e.FinishStruct()
	})
	want := []byte{0x05, 0x02, 0x68, 0x69}
	if !bytes.Equal(data, want) {
		t.Fatalf("encoded %x, want %x", data, want)
	}

	decode(t, s, data, func(d *Decoder) error {
		if err := d.BeginStruct(); err != nil {
			return err
		}
		if err := d.BeginStructField("a"); err != nil {
			return err
		}
		a, err := d.DecodeU8()
		if err != nil {
			return err
		}
		if a != 5 {
			t.Errorf("a = %d, want 5", a)
		}
		if err := d.BeginStructField("b"); err != nil {
			return err
		}
		b, err := d.DecodeStr()
		if err != nil {
			return err
		}
		if b != "hi" {
			t.Errorf("b = %q, want hi", b)
		}
		return d.FinishStruct()
	})
}

func TestOptionWireFormat(t *testing.T) {
	s := schema.OptionOf(schema.U16())

	none := encode(t, s, func(e *Encoder) error {
		return e.EncodeNone()
	})
	if !bytes.Equal(none, []byte{0x00}) {
		t.Errorf("none = %x, want 00", none)
	}

	some := encode(t, s, func(e *Encoder) error {
		if err := e.BeginSome(); err != nil {
			return err
		}
		return e.EncodeU16(0x1234)
	})
	if !bytes.Equal(some, []byte{0x01, 0x34, 0x12}) {
		t.Errorf("some = %x, want 013412", some)
	}

	decode(t, s, some, func(d *Decoder) error {
		isSome, err := d.BeginOption()
		if err != nil {
			return err
		}
		if !isSome {
			t.Error("BeginOption() = false, want true")
		}
		n, err := d.DecodeU16()
		if err != nil {
			return err
		}
		if n != 0x1234 {
			t.Errorf("inner = %#x, want 0x1234", n)
		}
		return nil
	})
}

func TestSeqWireFormat(t *testing.T) {
	varSeq := schema.SeqOf(schema.U8())
	data := encode(t, varSeq, func(e *Encoder) error {
		if err := e.BeginVarLenSeq(3); err != nil {
			return err
		}
		for _, n := range []uint8{7, 8, 9} {
			if err := e.BeginSeqElem(); err != nil {
				return err
			}
			if err := e.EncodeU8(n); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	})
	if !bytes.Equal(data, []byte{0x03, 0x07, 0x08, 0x09}) {
		t.Errorf("var seq = %x, want 03070809", data)
	}

	// a fixed len seq of the same elements has no length prefix
	fixedSeq := schema.ArrayOf(3, schema.U8())
	data = encode(t, fixedSeq, func(e *Encoder) error {
		if err := e.BeginFixedLenSeq(3); err != nil {
			return err
		}
		for _, n := range []uint8{7, 8, 9} {
			if err := e.BeginSeqElem(); err != nil {
				return err
			}
			if err := e.EncodeU8(n); err != nil {
				return err
			}
		}
		return e.FinishSeq()
	})
	if !bytes.Equal(data, []byte{0x07, 0x08, 0x09}) {
		t.Errorf("fixed seq = %x, want 070809", data)
	}
}

func TestEnumWireFormat(t *testing.T) {
	s := schema.EnumOf(
		schema.Variant{Name: "A", Schema: schema.Unit()},
		schema.Variant{Name: "B", Schema: schema.Unit()},
		schema.Variant{Name: "C", Schema: schema.U8()},
	)
	data := encode(t, s, func(e *Encoder) error {
		if err := e.BeginEnum(2, "C"); err != nil {
			return err
		}
		return e.EncodeU8(9)
	})
	if !bytes.Equal(data, []byte{0x02, 0x09}) {
		t.Errorf("enum = %x, want 0209", data)
	}

	decode(t, s, data, func(d *Decoder) error {
		ord, err := d.BeginEnum()
		if err != nil {
			return err
		}
		if ord != 2 {
			t.Errorf("ord = %d, want 2", ord)
		}
		if err := d.BeginEnumVariant("C"); err != nil {
			return err
		}
		n, err := d.DecodeU8()
		if err != nil {
			return err
		}
		if n != 9 {
			t.Errorf("inner = %d, want 9", n)
		}
		return nil
	})
}

func TestEnumOrdWidth(t *testing.T) {
	single := schema.EnumOf(schema.Variant{Name: "Only", Schema: schema.Unit()})
	data := encode(t, single, func(e *Encoder) error {
		return e.BeginEnum(0, "Only")
	})
	if len(data) != 0 {
		t.Errorf("single-variant enum encoded %x, want zero bytes", data)
	}
	decode(t, single, nil, func(d *Decoder) error {
		ord, err := d.BeginEnum()
		if err != nil {
			return err
		}
		if ord != 0 {
			t.Errorf("ord = %d, want 0", ord)
		}
		return d.BeginEnumVariant("Only")
	})

	variants := make([]schema.Variant, 300)
	names := make([]string, 300)
	for i := range variants {
		names[i] = "v" + string(rune('0'+i/100)) + string(rune('0'+i/10%10)) + string(rune('0'+i%10))
		variants[i] = schema.Variant{Name: names[i], Schema: schema.Unit()}
	}
	wide := schema.EnumOf(variants...)
	data = encode(t, wide, func(e *Encoder) error {
		return e.BeginEnum(258, names[258])
	})
	if !bytes.Equal(data, []byte{0x02, 0x01}) {
		t.Errorf("300-variant enum ord 258 = %x, want 0201", data)
	}
}

func TestUnitWireFormat(t *testing.T) {
	data := encode(t, schema.Unit(), func(e *Encoder) error {
		return e.EncodeUnit()
	})
	if len(data) != 0 {
		t.Errorf("unit encoded %x, want zero bytes", data)
	}
}

func TestScalarRoundTrip(t *testing.T) {
	s := schema.TupleOf(
		schema.U8(), schema.U16(), schema.U32(), schema.U64(), schema.U128(),
		schema.I8(), schema.I16(), schema.I32(), schema.I64(), schema.I128(),
		schema.F32(), schema.F64(), schema.Char(), schema.Bool(),
	)
	data := encode(t, s, func(e *Encoder) error {
		if err := e.BeginTuple(); err != nil {
			return err
		}
		steps := []func() error{
			func() error { return e.EncodeU8(200) },
			func() error { return e.EncodeU16(60000) },
			func() error { return e.EncodeU32(4000000000) },
			func() error { return e.EncodeU64(1 << 60) },
			func() error { return e.EncodeU128(1<<64 - 1) },
			func() error { return e.EncodeI8(-100) },
			func() error { return e.EncodeI16(-30000) },
			func() error { return e.EncodeI32(-2000000000) },
			func() error { return e.EncodeI64(-(1 << 60)) },
			func() error { return e.EncodeI128(-1) },
			func() error { return e.EncodeF32(3.5) },
			func() error { return e.EncodeF64(-2.25) },
			func() error { return e.EncodeChar('☃') },
			func() error { return e.EncodeBool(true) },
		}
		for _, step := range steps {
			if err := e.BeginTupleElem(); err != nil {
				return err
			}
			if err := step(); err != nil {
				return err
			}
		}
		return e.FinishTuple()
	})

	decode(t, s, data, func(d *Decoder) error {
		if err := d.BeginTuple(); err != nil {
			return err
		}
		check := func(got, want any, name string) {
			if got != want {
				t.Errorf("%s = %v, want %v", name, got, want)
			}
		}
		steps := []func() error{
			func() error { n, err := d.DecodeU8(); check(n, uint8(200), "u8"); return err },
			func() error { n, err := d.DecodeU16(); check(n, uint16(60000), "u16"); return err },
			func() error { n, err := d.DecodeU32(); check(n, uint32(4000000000), "u32"); return err },
			func() error { n, err := d.DecodeU64(); check(n, uint64(1<<60), "u64"); return err },
			func() error { n, err := d.DecodeU128(); check(n, uint64(1<<64-1), "u128"); return err },
			func() error { n, err := d.DecodeI8(); check(n, int8(-100), "i8"); return err },
			func() error { n, err := d.DecodeI16(); check(n, int16(-30000), "i16"); return err },
			func() error { n, err := d.DecodeI32(); check(n, int32(-2000000000), "i32"); return err },
			func() error { n, err := d.DecodeI64(); check(n, int64(-(1 << 60)), "i64"); return err },
			func() error { n, err := d.DecodeI128(); check(n, int64(-1), "i128"); return err },
			func() error { n, err := d.DecodeF32(); check(n, float32(3.5), "f32"); return err },
			func() error { n, err := d.DecodeF64(); check(n, float64(-2.25), "f64"); return err },
			func() error { n, err := d.DecodeChar(); check(n, '☃', "char"); return err },
			func() error { n, err := d.DecodeBool(); check(n, true, "bool"); return err },
		}
		for _, step := range steps {
			if err := d.BeginTupleElem(); err != nil {
				return err
			}
			if err := step(); err != nil {
				return err
			}
		}
		return d.FinishTuple()
	})
}

// list is Nil | Cons(i64, list), the canonical recursive schema.
func listSchema() *schema.Schema {
	return schema.EnumOf(
		schema.Variant{Name: "Nil", Schema: schema.Unit()},
		schema.Variant{Name: "Cons", Schema: schema.TupleOf(
			schema.I64(), schema.RecurseUp(2),
		)},
	)
}

func encodeList(e *Encoder, elems []int64) error {
	if len(elems) == 0 {
		if err := e.BeginEnum(0, "Nil"); err != nil {
			return err
		}
		return e.EncodeUnit()
	}
	if err := e.BeginEnum(1, "Cons"); err != nil {
		return err
	}
	if err := e.BeginTuple(); err != nil {
		return err
	}
	if err := e.BeginTupleElem(); err != nil {
		return err
	}
	if err := e.EncodeI64(elems[0]); err != nil {
		return err
	}
	if err := e.BeginTupleElem(); err != nil {
		return err
	}
	if err := encodeList(e, elems[1:]); err != nil {
		return err
	}
	return e.FinishTuple()
}

func decodeList(d *Decoder) ([]int64, error) {
	var elems []int64
	for {
		ord, err := d.BeginEnum()
		if err != nil {
			return nil, err
		}
		if ord == 0 {
			if err := d.BeginEnumVariant("Nil"); err != nil {
				return nil, err
			}
			return elems, d.DecodeUnit()
		}
		if err := d.BeginEnumVariant("Cons"); err != nil {
			return nil, err
		}
		if err := d.BeginTuple(); err != nil {
			return nil, err
		}
		if err := d.BeginTupleElem(); err != nil {
			return nil, err
		}
		n, err := d.DecodeI64()
		if err != nil {
			return nil, err
		}
		elems = append(elems, n)
		if err := d.BeginTupleElem(); err != nil {
			return nil, err
		}
	}
}

func TestRecursiveRoundTrip(t *testing.T) {
	s := listSchema()
	want := []int64{3, -14, 159}
	data := encode(t, s, func(e *Encoder) error {
		return encodeList(e, want)
	})

	state := NewState(s)
	d := NewDecoder(state, bytes.NewReader(data))
	got, err := decodeList(d)
	if err != nil {
		t.Fatalf("decodeList: %v", err)
	}
	// the tail of tuples left open by recursion is closed as the decode
	// unwinds
	for range got {
		if err := d.FinishTuple(); err != nil {
			t.Fatalf("FinishTuple: %v", err)
		}
	}
	if err := state.IsFinishedOrErr(); err != nil {
		t.Fatalf("decode did not finish: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("elem %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDeepRecursion(t *testing.T) {
	s := listSchema()
	elems := make([]int64, 2000)
	for i := range elems {
		elems[i] = int64(i)
	}

	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)
	// iterative since the helper recursion would be fine but this keeps
	// the frame count in the coder, not the goroutine stack
	for range elems {
		if err := e.BeginEnum(1, "Cons"); err != nil {
			t.Fatal(err)
		}
		if err := e.BeginTuple(); err != nil {
			t.Fatal(err)
		}
		if err := e.BeginTupleElem(); err != nil {
			t.Fatal(err)
		}
		if err := e.EncodeI64(1); err != nil {
			t.Fatal(err)
		}
		if err := e.BeginTupleElem(); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.BeginEnum(0, "Nil"); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeUnit(); err != nil {
		t.Fatal(err)
	}
	for range elems {
		if err := e.FinishTuple(); err != nil {
			t.Fatal(err)
		}
	}
	if err := state.IsFinishedOrErr(); err != nil {
		t.Fatalf("deep encode did not finish: %v", err)
	}
}

func TestNeedDispatch(t *testing.T) {
	s := schema.OptionOf(schema.Str())
	data := encode(t, s, func(e *Encoder) error {
		if err := e.BeginSome(); err != nil {
			return err
		}
		return e.EncodeStr("dyn")
	})

	state := NewState(s)
	d := NewDecoder(state, bytes.NewReader(data))
	need, err := d.Need()
	if err != nil {
		t.Fatalf("Need: %v", err)
	}
	if need.Kind != schema.KindOption {
		t.Fatalf("Need() = %s, want option", need)
	}
	isSome, err := d.BeginOption()
	if err != nil || !isSome {
		t.Fatalf("BeginOption() = %t, %v", isSome, err)
	}
	// inside the some, Need resolves to the inner schema
	need, err = d.Need()
	if err != nil {
		t.Fatalf("Need: %v", err)
	}
	if need.Kind != schema.KindStr {
		t.Fatalf("Need() = %s, want str", need)
	}
	got, err := d.DecodeStr()
	if err != nil || got != "dyn" {
		t.Fatalf("DecodeStr() = %q, %v", got, err)
	}
	if !state.IsFinished() {
		t.Error("state should be finished")
	}
}

func TestNeedResolvesRecurse(t *testing.T) {
	s := listSchema()
	data := encode(t, s, func(e *Encoder) error {
		return encodeList(e, []int64{1})
	})

	state := NewState(s)
	d := NewDecoder(state, bytes.NewReader(data))
	if _, err := d.BeginEnum(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginEnumVariant("Cons"); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginTuple(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginTupleElem(); err != nil {
		t.Fatal(err)
	}
	if _, err := d.DecodeI64(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginTupleElem(); err != nil {
		t.Fatal(err)
	}
	// the second tuple elem is recurse(2) in the schema; Need must hand
	// back the resolved enum, never a recurse node
	need, err := d.Need()
	if err != nil {
		t.Fatal(err)
	}
	if need.Kind != schema.KindEnum {
		t.Errorf("Need() = %s, want the list enum", need)
	}
}

func TestAllocReuse(t *testing.T) {
	s := schema.U8()
	alloc := NewAlloc()
	for i := 0; i < 3; i++ {
		var buf bytes.Buffer
		state := NewState(s, WithAlloc(alloc))
		if err := NewEncoder(state, &buf).EncodeU8(uint8(i)); err != nil {
			t.Fatal(err)
		}
		if err := state.IsFinishedOrErr(); err != nil {
			t.Fatal(err)
		}
		alloc = state.IntoAlloc()
	}
}

func TestPooledAlloc(t *testing.T) {
	a := GetAlloc()
	state := NewState(schema.Unit(), WithAlloc(a))
	var buf bytes.Buffer
	if err := NewEncoder(state, &buf).EncodeUnit(); err != nil {
		t.Fatal(err)
	}
	PutAlloc(state.IntoAlloc())
	PutAlloc(nil) // must not panic
}
