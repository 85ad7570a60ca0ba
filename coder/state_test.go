package coder

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/binschema/errors"
	"github.com/wippyai/binschema/schema"
)

func TestNonConformanceLeavesStateUsable(t *testing.T) {
	var buf bytes.Buffer
	state := NewState(schema.Str())
	e := NewEncoder(state, &buf)

	err := e.EncodeU8(1)
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("EncodeU8 against str = %v, want schema_non_conformance", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("rejected call wrote %x", buf.Bytes())
	}

	// the state is exactly as before; the right call still works
	if err := e.EncodeStr("ok"); err != nil {
		t.Fatalf("EncodeStr after rejection: %v", err)
	}
	if err := state.IsFinishedOrErr(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIUsageMidContainer(t *testing.T) {
	s := schema.StructOf(schema.Field{Name: "a", Schema: schema.U8()})
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	if err := e.BeginStruct(); err != nil {
		t.Fatal(err)
	}
	// a scalar while the struct awaits a field is a call sequence no
	// schema could make valid
	err := e.EncodeU8(1)
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("EncodeU8 mid-struct = %v, want api_usage", err)
	}

	if err := e.BeginStructField("a"); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeU8(1); err != nil {
		t.Fatal(err)
	}
	if err := e.FinishStruct(); err != nil {
		t.Fatal(err)
	}
}

func TestWrongFieldName(t *testing.T) {
	s := schema.StructOf(
		schema.Field{Name: "a", Schema: schema.U8()},
		schema.Field{Name: "b", Schema: schema.U8()},
	)
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	if err := e.BeginStruct(); err != nil {
		t.Fatal(err)
	}
	// fields must come in declared order
	err := e.BeginStructField("b")
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("out-of-order field = %v, want schema_non_conformance", err)
	}
	if err := e.BeginStructField("a"); err != nil {
		t.Fatal(err)
	}
}

func TestEarlyFinish(t *testing.T) {
	s := schema.StructOf(
		schema.Field{Name: "a", Schema: schema.U8()},
		schema.Field{Name: "b", Schema: schema.U8()},
	)
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	if err := e.BeginStruct(); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginStructField("a"); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeU8(1); err != nil {
		t.Fatal(err)
	}
	err := e.FinishStruct()
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("early FinishStruct = %v, want schema_non_conformance", err)
	}
}

func TestSeqOverrun(t *testing.T) {
	s := schema.SeqOf(schema.U8())
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	if err := e.BeginVarLenSeq(1); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginSeqElem(); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeU8(1); err != nil {
		t.Fatal(err)
	}
	// the declared length was already written, so exceeding it is an
	// api_usage error, not a conformance one
	err := e.BeginSeqElem()
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("seq overrun = %v, want api_usage", err)
	}
	if err := e.FinishSeq(); err != nil {
		t.Fatal(err)
	}
}

func TestSeqUnderrun(t *testing.T) {
	s := schema.SeqOf(schema.U8())
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	if err := e.BeginVarLenSeq(2); err != nil {
		t.Fatal(err)
	}
	err := e.FinishSeq()
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("seq underrun = %v, want api_usage", err)
	}
}

func TestTupleOverrun(t *testing.T) {
	s := schema.TupleOf(schema.U8())
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	if err := e.BeginTuple(); err != nil {
		t.Fatal(err)
	}
	if err := e.BeginTupleElem(); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeU8(1); err != nil {
		t.Fatal(err)
	}
	// unlike a seq, a tuple's length lives in the schema, so overrunning
	// it is the data failing to conform
	err := e.BeginTupleElem()
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("tuple overrun = %v, want schema_non_conformance", err)
	}
	if err := e.FinishTuple(); err != nil {
		t.Fatal(err)
	}
}

func TestFixedLenSeqWrongLen(t *testing.T) {
	s := schema.ArrayOf(4, schema.U8())
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	err := e.BeginFixedLenSeq(3)
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("wrong fixed len = %v, want schema_non_conformance", err)
	}
	if err := e.BeginFixedLenSeq(4); err != nil {
		t.Fatal(err)
	}
}

func TestEnumAllOrNothing(t *testing.T) {
	s := schema.EnumOf(
		schema.Variant{Name: "A", Schema: schema.Unit()},
		schema.Variant{Name: "B", Schema: schema.U8()},
	)
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	err := e.BeginEnum(5, "A")
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("out-of-range ord = %v, want schema_non_conformance", err)
	}
	err = e.BeginEnum(0, "B")
	if !errors.IsKind(err, errors.KindSchemaNonConformance) {
		t.Fatalf("mismatched name = %v, want schema_non_conformance", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("failed enum begins wrote %x", buf.Bytes())
	}

	// both failures rolled back; a correct begin still works
	if err := e.BeginEnum(1, "B"); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeU8(3); err != nil {
		t.Fatal(err)
	}
	if err := state.IsFinishedOrErr(); err != nil {
		t.Fatal(err)
	}
}

func TestFinishedCoderRejectsUsage(t *testing.T) {
	var buf bytes.Buffer
	state := NewState(schema.U8())
	e := NewEncoder(state, &buf)

	if err := e.EncodeU8(1); err != nil {
		t.Fatal(err)
	}
	err := e.EncodeU8(2)
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("usage after finish = %v, want api_usage", err)
	}
	if !strings.Contains(err.Error(), "finished coder") {
		t.Errorf("error should name the finished coder, got %v", err)
	}
}

func TestBrokenLatch(t *testing.T) {
	s := schema.TupleOf(schema.Str(), schema.U8())
	// only the length prefix of the str arrives
	state := NewState(s)
	d := NewDecoder(state, bytes.NewReader([]byte{0x05}))

	if err := d.BeginTuple(); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginTupleElem(); err != nil {
		t.Fatal(err)
	}
	_, err := d.DecodeStr()
	if !errors.IsKind(err, errors.KindIO) {
		t.Fatalf("truncated str = %v, want io", err)
	}

	// every further operation fails, the stream position is unknown
	err = d.BeginTupleElem()
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("usage after io error = %v, want api_usage", err)
	}
	if state.IsFinished() {
		t.Error("broken state must never report finished")
	}
	if err := state.IsFinishedOrErr(); err == nil {
		t.Error("IsFinishedOrErr on broken state = nil")
	}
}

func TestRecursePastRootIsFatal(t *testing.T) {
	s := schema.OptionOf(schema.RecurseUp(5))
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	err := e.BeginSome()
	if !errors.IsKind(err, errors.KindIllegalSchema) {
		t.Fatalf("recurse past root = %v, want illegal_schema", err)
	}
	err = e.EncodeU8(1)
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("usage after illegal schema = %v, want api_usage", err)
	}
}

func TestRecurseZeroIsFatal(t *testing.T) {
	s := schema.OptionOf(schema.RecurseUp(0))
	var buf bytes.Buffer
	state := NewState(s)
	e := NewEncoder(state, &buf)

	err := e.BeginSome()
	if !errors.IsKind(err, errors.KindIllegalSchema) {
		t.Fatalf("recurse of level 0 = %v, want illegal_schema", err)
	}
}

func TestUnfinishedCoder(t *testing.T) {
	state := NewState(schema.TupleOf(schema.U8(), schema.U8()))
	err := state.IsFinishedOrErr()
	if !errors.IsKind(err, errors.KindAPIUsage) {
		t.Fatalf("IsFinishedOrErr on fresh state = %v, want api_usage", err)
	}
}

func TestNeedWhileMidElement(t *testing.T) {
	var buf bytes.Buffer
	state := NewState(schema.StructOf(schema.Field{Name: "a", Schema: schema.U8()}))
	e := NewEncoder(state, &buf)

	if _, err := e.Need(); err != nil {
		t.Fatalf("Need on fresh state: %v", err)
	}
	if err := e.BeginStruct(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Need(); !errors.IsKind(err, errors.KindAPIUsage) {
		t.Errorf("Need mid-struct should fail with api_usage")
	}
}

func TestErrorCarriesStateDump(t *testing.T) {
	var buf bytes.Buffer
	state := NewState(schema.Str())
	e := NewEncoder(state, &buf)

	err := e.EncodeU8(1)
	if err == nil || !strings.Contains(err.Error(), "state:") {
		t.Errorf("conformance error should carry a state dump, got %v", err)
	}
	if !strings.Contains(err.Error(), "str") {
		t.Errorf("state dump should show the needed schema, got %v", err)
	}
}

func TestTraceLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var buf bytes.Buffer
	state := NewState(schema.OptionOf(schema.U8()), WithTrace(zap.New(core)))
	e := NewEncoder(state, &buf)

	if err := e.BeginSome(); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeU8(7); err != nil {
		t.Fatal(err)
	}

	var msgs []string
	for _, entry := range logs.All() {
		msgs = append(msgs, entry.Message)
	}
	joined := strings.Join(msgs, ",")
	for _, want := range []string{"some", "u8", "auto finish"} {
		if !strings.Contains(joined, want) {
			t.Errorf("trace log %q missing %q", joined, want)
		}
	}
}
