// Package binschema implements a self-describing binary serialization
// format built around runtime-inspectable schemas.
//
// A schema is ordinary data describing the shape of values; an encoder
// and decoder share a validation state machine that enforces, call by
// call, that what moves over the wire is exactly a value of that schema.
// Because the format has a schema of schemas, a schema can be shipped
// over the wire ahead of the messages it describes.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	binschema/           Root package: whole-message helpers, schema serialization
//	├── schema/          Schema data model, validation, reflection, the meta schema
//	├── coder/           CoderState machine, Encoder, Decoder, wire primitives
//	├── value/           Dynamic value trees for schemas known only at runtime
//	├── errors/          Structured error types for debugging
//	└── cmd/binschema/   Inspection tool for schemas and messages
//
// # Quick Start
//
// Encode and decode one message:
//
//	s := schema.StructOf(
//	    schema.Field{Name: "id", Schema: schema.U64()},
//	    schema.Field{Name: "name", Schema: schema.Str()},
//	)
//
//	var buf bytes.Buffer
//	err := binschema.Encode(&buf, s, func(e *coder.Encoder) error {
//	    if err := e.BeginStruct(); err != nil {
//	        return err
//	    }
//	    if err := e.BeginStructField("id"); err != nil {
//	        return err
//	    }
//	    if err := e.EncodeU64(42); err != nil {
//	        return err
//	    }
//	    if err := e.BeginStructField("name"); err != nil {
//	        return err
//	    }
//	    if err := e.EncodeStr("zvezda"); err != nil {
//	        return err
//	    }
//	    return e.FinishStruct()
//	})
//
// Or, when the schema is only known at runtime, lift the message into a
// dynamic tree:
//
//	v, err := binschema.DecodeValue(&buf, s)
//
// # Wire Format
//
// Messages carry no framing, no field names, and no type tags; both
// sides must hold structurally equal schemas. MarshalSchema and
// UnmarshalSchema serialize the schema itself for transmission, and
// SchemaHash gives a short digest for cheap compatibility checks.
package binschema
