// Package common defines the wire contract shared by the RPC client and
// server: the Message protocol with its closed operation set, the structured
// Value domain (primitives, sequences, mappings, byte buffers, numeric
// arrays, and the reference/range-slice wire markers), the error taxonomy,
// configuration structures, and logging utilities.
//
// A Message is used for both requests and responses; the MessageType selects
// which fields are meaningful. Responses are exactly one of: success with a
// fresh reference id, success with a terminal value (materialize only),
// a bare ack (release only), or an error with message and optional trace.
package common
