package coder

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/binschema/errors"
	"github.com/wippyai/binschema/schema"
)

// apiState is the per-frame protocol position.
type apiState uint8

const (
	// stateNeed means this element has not started being coded.
	stateNeed apiState = iota
	// stateAutoFinish means an inner element is being coded and its
	// completion completes this element too.
	stateAutoFinish
	// stateOptionPending means an option began but its someness is not yet
	// known.
	stateOptionPending
	// stateSeqPendingLen means a var len seq began but its length is not
	// yet known.
	stateSeqPendingLen
	stateSeq
	stateTuple
	stateStruct
	stateEnum
)

var apiStateNames = [...]string{
	stateNeed:          "need",
	stateAutoFinish:    "auto finish",
	stateOptionPending: "option pending someness",
	stateSeqPendingLen: "seq pending len",
	stateSeq:           "seq",
	stateTuple:         "tuple",
	stateStruct:        "struct",
	stateEnum:          "enum",
}

func (s apiState) String() string {
	if int(s) < len(apiStateNames) {
		return apiStateNames[s]
	}
	return "unknown"
}

type frame struct {
	schema *schema.Schema
	state  apiState

	// len and next track seq/tuple/struct progress.
	len  int
	next int
	// ord is the coded enum variant ordinal, -1 until provided.
	ord int
}

// CoderState validates API usage and schema conformance for one message.
// It is shared between encoding and decoding; Encoder and Decoder consult
// it before moving any bytes.
//
// A CoderState must not be used concurrently.
type CoderState struct {
	stack  []frame
	broken bool
	log    *zap.Logger
}

// Option configures a CoderState.
type Option func(*CoderState)

// WithAlloc reuses a previously released stack allocation.
func WithAlloc(a *Alloc) Option {
	return func(c *CoderState) {
		if a != nil {
			c.stack = a.stack[:0]
		}
	}
}

// WithTrace logs every protocol transition at debug level. Intended for
// diagnosing conformance failures; the default is a nop logger.
func WithTrace(log *zap.Logger) Option {
	return func(c *CoderState) {
		if log != nil {
			c.log = log
		}
	}
}

// NewState returns a coder state positioned at the start of one message
// of the given schema.
func NewState(s *schema.Schema, opts ...Option) *CoderState {
	c := &CoderState{log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.stack = append(c.stack, frame{schema: s, state: stateNeed, ord: -1})
	return c
}

// IsFinished reports whether the whole message was coded without a fatal
// error.
func (c *CoderState) IsFinished() bool {
	return len(c.stack) == 0 && !c.broken
}

// IsFinishedOrErr returns an api_usage error unless the whole message was
// coded without a fatal error.
func (c *CoderState) IsFinishedOrErr() error {
	if c.IsFinished() {
		return nil
	}
	return errors.New(errors.PhaseCode, errors.KindAPIUsage).
		Detail("didn't finish coding, broken = %t", c.broken).
		State(c.dump()).
		Build()
}

// IntoAlloc releases the stack allocation for reuse. The state must not
// be used afterward.
func (c *CoderState) IntoAlloc() *Alloc {
	a := &Alloc{stack: c.stack[:0]}
	c.stack = nil
	return a
}

// Need returns the schema that must be coded next. It fails if coding of
// the current element has already begun. It never returns a Recurse node;
// back-references are resolved when their frame is pushed.
func (c *CoderState) Need() (*schema.Schema, error) {
	if top := c.peek(); top != nil && top.state == stateNeed {
		return top.schema, nil
	}
	return nil, errors.New(errors.PhaseCode, errors.KindAPIUsage).
		Detail("Need call while not in need state").
		State(c.dump()).
		Build()
}

// String renders the stack and broken flag, top frame first.
func (c *CoderState) String() string {
	return "CoderState{\n" + c.dump() + "\n}"
}

func (c *CoderState) dump() string {
	var b strings.Builder
	b.WriteString("broken: ")
	b.WriteString(strconv.FormatBool(c.broken))
	for i := len(c.stack) - 1; i >= 0; i-- {
		f := &c.stack[i]
		b.WriteString("\n  ")
		b.WriteString(strconv.Itoa(len(c.stack) - 1 - i))
		b.WriteString(". schema: ")
		b.WriteString(f.schema.String())
		b.WriteString(" state: ")
		b.WriteString(f.state.String())
	}
	return b.String()
}

func (c *CoderState) trace(msg string) {
	if ce := c.log.Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(zap.Int("depth", len(c.stack)))
	}
}

func (c *CoderState) peek() *frame {
	if len(c.stack) == 0 {
		return nil
	}
	return &c.stack[len(c.stack)-1]
}

// markBroken latches the fatal state. Every later call fails with an
// api_usage error.
func (c *CoderState) markBroken() {
	c.broken = true
}

// checkTop enforces the two preconditions common to every operation: the
// state is not broken and the message is not already finished.
func (c *CoderState) checkTop() (*frame, error) {
	if c.broken {
		return nil, errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("usage after fatal error").
			State(c.dump()).
			Build()
	}
	top := c.peek()
	if top == nil {
		return nil, errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("usage of finished coder").
			State(c.dump()).
			Build()
	}
	return top, nil
}

// mismatch builds the error for an operation that does not fit the top
// frame. A mismatch against a frame still in the need state is the data
// not conforming to the schema; a mismatch against a frame already being
// coded is a call sequence that no schema could make valid.
func (c *CoderState) mismatch(top *frame, got string) error {
	switch top.state {
	case stateNeed:
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("need %s, got %s", top.schema, got).
			State(c.dump()).
			Build()
	case stateSeq, stateSeqPendingLen:
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("need seq elem/finish, got %s", got).
			State(c.dump()).
			Build()
	case stateTuple:
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("need tuple elem/finish, got %s", got).
			State(c.dump()).
			Build()
	case stateStruct:
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("need struct field/finish, got %s", got).
			State(c.dump()).
			Build()
	case stateEnum:
		what := "enum variant ord"
		if top.ord >= 0 {
			what = "enum variant name"
		}
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("need %s, got %s", what, got).
			State(c.dump()).
			Build()
	default:
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("need %s, got %s", top.state, got).
			State(c.dump()).
			Build()
	}
}

// pushNeed pushes a frame needing s, first resolving any chain of
// back-references against the current stack. Unresolvable back-references
// are fatal.
func (c *CoderState) pushNeed(s *schema.Schema) error {
	i := len(c.stack)
	for s.Kind == schema.KindRecurse {
		if s.Up == 0 {
			c.markBroken()
			return errors.New(errors.PhaseCode, errors.KindIllegalSchema).
				Detail("recurse of level 0").
				State(c.dump()).
				Build()
		}
		if s.Up > i {
			c.markBroken()
			return errors.New(errors.PhaseCode, errors.KindIllegalSchema).
				Detail("recurse past base of stack").
				State(c.dump()).
				Build()
		}
		i -= s.Up
		s = c.stack[i].schema
	}
	c.stack = append(c.stack, frame{schema: s, state: stateNeed, ord: -1})
	return nil
}

// pop removes the top frame, then any auto finish frames it uncovers.
func (c *CoderState) pop() {
	c.stack = c.stack[:len(c.stack)-1]
	for len(c.stack) > 0 && c.stack[len(c.stack)-1].state == stateAutoFinish {
		c.trace("auto finish")
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// codeScalar codes a scalar of the given type.
func (c *CoderState) codeScalar(st schema.ScalarType) error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindScalar || top.schema.Scalar != st {
		return c.mismatch(top, "code "+st.String())
	}
	c.trace(st.String())
	c.pop()
	return nil
}

// codeSimple codes a payload-free non-scalar node (str, bytes, unit).
func (c *CoderState) codeSimple(k schema.Kind) error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != k {
		return c.mismatch(top, "code "+k.String())
	}
	c.trace(k.String())
	c.pop()
	return nil
}

func (c *CoderState) codeStr() error   { return c.codeSimple(schema.KindStr) }
func (c *CoderState) codeBytes() error { return c.codeSimple(schema.KindBytes) }
func (c *CoderState) codeUnit() error  { return c.codeSimple(schema.KindUnit) }

// beginOption begins coding an option. A successful call must be
// immediately followed by setOptionNone or setOptionSome.
func (c *CoderState) beginOption() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindOption {
		return c.mismatch(top, "option begin")
	}
	top.state = stateOptionPending
	return nil
}

// setOptionNone finishes the option as none. Must immediately follow a
// successful beginOption.
func (c *CoderState) setOptionNone() {
	c.trace("none")
	c.pop()
}

// setOptionSome continues the option as some. Must immediately follow a
// successful beginOption; coding the inner value auto-finishes the
// option.
func (c *CoderState) setOptionSome() error {
	top := c.peek()
	inner := top.schema.Elem
	top.state = stateAutoFinish
	c.trace("some")
	return c.pushNeed(inner)
}

// beginFixedLenSeq begins coding a fixed len seq, checking the caller's
// length against the schema's.
func (c *CoderState) beginFixedLenSeq(length int) error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindSeq || top.schema.VarLen {
		return c.mismatch(top, "fixed len seq begin")
	}
	if top.schema.Len != length {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("need seq len %d, got seq len %d", top.schema.Len, length).
			State(c.dump()).
			Build()
	}
	c.trace("fixed len seq")
	top.state = stateSeq
	top.len = length
	top.next = 0
	return nil
}

// beginVarLenSeq begins coding a var len seq. A successful call must be
// immediately followed by setVarLenSeqLen.
func (c *CoderState) beginVarLenSeq() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindSeq || !top.schema.VarLen {
		return c.mismatch(top, "var len seq begin")
	}
	top.state = stateSeqPendingLen
	return nil
}

// setVarLenSeqLen provides the length of a var len seq. Must immediately
// follow a successful beginVarLenSeq.
func (c *CoderState) setVarLenSeqLen(length int) {
	top := c.peek()
	c.trace("var len seq")
	top.state = stateSeq
	top.len = length
	top.next = 0
}

// beginSeqElem begins coding the next seq element.
func (c *CoderState) beginSeqElem() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateSeq {
		return c.mismatch(top, "seq elem")
	}
	if top.next >= top.len {
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("begin seq elem at idx %d, but that is seq's declared len", top.next).
			State(c.dump()).
			Build()
	}
	top.next++
	return c.pushNeed(top.schema.Elem)
}

// finishSeq finishes coding a seq, checking that all declared elements
// were coded.
func (c *CoderState) finishSeq() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateSeq {
		return c.mismatch(top, "seq finish")
	}
	if top.next != top.len {
		return errors.New(errors.PhaseCode, errors.KindAPIUsage).
			Detail("finish seq of declared len %d, but only coded %d elems", top.len, top.next).
			State(c.dump()).
			Build()
	}
	c.trace("seq finish")
	c.pop()
	return nil
}

// beginTuple begins coding a tuple.
func (c *CoderState) beginTuple() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindTuple {
		return c.mismatch(top, "tuple begin")
	}
	c.trace("tuple")
	top.state = stateTuple
	top.next = 0
	return nil
}

// beginTupleElem begins coding the next tuple element.
func (c *CoderState) beginTupleElem() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateTuple {
		return c.mismatch(top, "tuple elem")
	}
	if top.next >= len(top.schema.Elems) {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("begin tuple elem at idx %d, but that is the tuple's len", top.next).
			State(c.dump()).
			Build()
	}
	inner := top.schema.Elems[top.next]
	top.next++
	return c.pushNeed(inner)
}

// finishTuple finishes coding a tuple, checking that all elements were
// coded.
func (c *CoderState) finishTuple() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateTuple {
		return c.mismatch(top, "tuple finish")
	}
	if top.next != len(top.schema.Elems) {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("finish tuple of len %d, but only coded %d elems", len(top.schema.Elems), top.next).
			State(c.dump()).
			Build()
	}
	c.trace("tuple finish")
	c.pop()
	return nil
}

// beginStruct begins coding a struct.
func (c *CoderState) beginStruct() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindStruct {
		return c.mismatch(top, "struct begin")
	}
	c.trace("struct")
	top.state = stateStruct
	top.next = 0
	return nil
}

// beginStructField begins coding the next struct field, checking its
// name against the schema's declared order.
func (c *CoderState) beginStructField(name string) error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateStruct {
		return c.mismatch(top, "struct field")
	}
	if top.next >= len(top.schema.Fields) {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("begin struct field at idx %d, but that is the struct's len", top.next).
			State(c.dump()).
			Build()
	}
	field := &top.schema.Fields[top.next]
	if field.Name != name {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("need struct field %q, got struct field %q", field.Name, name).
			State(c.dump()).
			Build()
	}
	top.next++
	c.trace("struct field " + name)
	return c.pushNeed(field.Schema)
}

// finishStruct finishes coding a struct, checking that all fields were
// coded.
func (c *CoderState) finishStruct() error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateStruct {
		return c.mismatch(top, "struct finish")
	}
	if top.next != len(top.schema.Fields) {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("finish struct of len %d, but only coded %d fields", len(top.schema.Fields), top.next).
			State(c.dump()).
			Build()
	}
	c.trace("struct finish")
	c.pop()
	return nil
}

// beginEnum begins coding an enum and returns its number of variants.
// It must be followed by beginEnumVariantOrd, then beginEnumVariantName,
// then the inner value, which auto-finishes the enum. Until the name is
// accepted, cancelEnum restores the state preceding beginEnum.
func (c *CoderState) beginEnum() (int, error) {
	top, err := c.checkTop()
	if err != nil {
		return 0, err
	}
	if top.state != stateNeed || top.schema.Kind != schema.KindEnum {
		return 0, c.mismatch(top, "code enum")
	}
	c.trace("enum")
	top.state = stateEnum
	top.ord = -1
	return len(top.schema.Variants), nil
}

// beginEnumVariantOrd provides the variant ordinal. See beginEnum.
func (c *CoderState) beginEnumVariantOrd(ord int) error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateEnum || top.ord >= 0 {
		return c.mismatch(top, "enum variant ord")
	}
	numVariants := len(top.schema.Variants)
	if ord < 0 || ord >= numVariants {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("begin enum with variant ordinal %d, but enum only has %d variants", ord, numVariants).
			State(c.dump()).
			Build()
	}
	c.trace("variant ord")
	top.ord = ord
	return nil
}

// beginEnumVariantName provides the variant name. See beginEnum.
func (c *CoderState) beginEnumVariantName(name string) error {
	top, err := c.checkTop()
	if err != nil {
		return err
	}
	if top.state != stateEnum || top.ord < 0 {
		return c.mismatch(top, "enum variant name")
	}
	variant := &top.schema.Variants[top.ord]
	if variant.Name != name {
		return errors.New(errors.PhaseCode, errors.KindSchemaNonConformance).
			Detail("begin enum with variant name %q, but variant at that ordinal has name %q", name, variant.Name).
			State(c.dump()).
			Build()
	}
	c.trace("variant name " + name)
	top.state = stateAutoFinish
	return c.pushNeed(variant.Schema)
}

// cancelEnum restores the state preceding beginEnum. Must only be called
// after a successful beginEnum and before a successful
// beginEnumVariantName.
func (c *CoderState) cancelEnum() {
	top := c.peek()
	top.state = stateNeed
	top.ord = -1
}
