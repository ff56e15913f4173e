// Package wire is the runtime support imported by code that apigen generates.
//
// The wire format is little-endian. Plain structs encode as a fixed-size
// concatenation of their fields, each aligned to its natural alignment.
// Extensible structs encode a fixed prefix followed by one payload section per
// pointer field, in declaration order; a payload's length is implied by its
// count field and never stored separately. Protocol commands are framed by an
// 8-byte Header and padded to a multiple of MessageAlign bytes.
//
// Decoders must call Check or PayloadLen before slicing into the input, so a
// sub-slice is only ever materialized over bytes that were confirmed to be in
// bounds. Byte payloads returned by Borrow alias the input buffer; their
// capacity is clipped so that appending to them never writes into the
// caller's buffer.
package wire
