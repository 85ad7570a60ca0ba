// Package coder implements schema-conforming encoding and decoding over
// io.Writer and io.Reader.
//
// A CoderState is the shared validation machine: it tracks the position
// inside one message as a stack of frames over the schema and rejects any
// call sequence that would not produce, or could not have been produced
// by, a value of that schema. Encoder and Decoder drive the same machine;
// an encoder moves bytes out as it walks, a decoder moves bytes in.
//
// Lifecycle for one message:
//
//	state := coder.NewState(s)
//	enc := coder.NewEncoder(state, w)
//	... Encode / Begin / Finish calls mirroring the schema ...
//	err := state.IsFinishedOrErr()
//
// Errors of fatal kinds (io, malformed_data, platform_limits,
// illegal_schema) leave the state broken; everything afterward fails with
// an api_usage error because the byte stream position can no longer be
// trusted. Errors of recoverable kinds (schema_non_conformance,
// api_usage) leave the state exactly as it was.
package coder
