// Package errors provides the structured error types used throughout the
// codec.
//
// Every error carries a Phase (where in processing it occurred) and a Kind
// (what went wrong). The Kind determines the recovery contract:
//
//   - Fatal kinds (io, malformed_data, platform_limits, illegal_schema)
//     correspond to the coder being left in a permanently broken state;
//     the byte stream can no longer be trusted.
//   - Recoverable kinds (schema_non_conformance, api_usage) correspond to
//     the coder being left unchanged; the caller may retry a different,
//     valid operation.
//
// Errors render as:
//
//	[decode] malformed_data: enum ordinal 7 out of range 0..3
package errors
