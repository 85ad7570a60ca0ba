package binschema

import (
	"bytes"
	"crypto/sha256"
	"io"

	"github.com/wippyai/binschema/coder"
	"github.com/wippyai/binschema/schema"
	"github.com/wippyai/binschema/value"
)

// Encode writes one complete message of s to w through fn and verifies
// that fn coded the whole message. The coder allocation is pooled.
func Encode(w io.Writer, s *schema.Schema, fn func(*coder.Encoder) error) error {
	state := coder.NewState(s, coder.WithAlloc(coder.GetAlloc()))
	defer func() {
		coder.PutAlloc(state.IntoAlloc())
	}()
	if err := fn(coder.NewEncoder(state, w)); err != nil {
		return err
	}
	return state.IsFinishedOrErr()
}

// Decode reads one complete message of s from r through fn and verifies
// that fn coded the whole message. The coder allocation is pooled.
func Decode(r io.Reader, s *schema.Schema, fn func(*coder.Decoder) error) error {
	state := coder.NewState(s, coder.WithAlloc(coder.GetAlloc()))
	defer func() {
		coder.PutAlloc(state.IntoAlloc())
	}()
	if err := fn(coder.NewDecoder(state, r)); err != nil {
		return err
	}
	return state.IsFinishedOrErr()
}

// EncodeValue writes one message of s holding the dynamic value v.
func EncodeValue(w io.Writer, s *schema.Schema, v value.Value) error {
	return Encode(w, s, func(e *coder.Encoder) error {
		return v.EncodeTo(e)
	})
}

// DecodeValue reads one message of s into a dynamic value tree.
func DecodeValue(r io.Reader, s *schema.Schema) (value.Value, error) {
	var v value.Value
	err := Decode(r, s, func(d *coder.Decoder) error {
		var err error
		v, err = value.DecodeFrom(d)
		return err
	})
	return v, err
}

// MarshalSchema serializes s against the meta schema, producing the
// portable wire form a peer can decode with UnmarshalSchema.
func MarshalSchema(s *schema.Schema) ([]byte, error) {
	var buf bytes.Buffer
	err := Encode(&buf, schema.MetaSchema(), func(e *coder.Encoder) error {
		return encodeSchema(e, s)
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalSchema deserializes a schema produced by MarshalSchema. The
// result is validated before being returned.
func UnmarshalSchema(data []byte) (*schema.Schema, error) {
	var s *schema.Schema
	err := Decode(bytes.NewReader(data), schema.MetaSchema(), func(d *coder.Decoder) error {
		var err error
		s, err = decodeSchema(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SchemaHash digests the serialized form of s. Two peers whose schema
// hashes match hold structurally equal schemas and can exchange
// messages.
func SchemaHash(s *schema.Schema) ([sha256.Size]byte, error) {
	data, err := MarshalSchema(s)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}
