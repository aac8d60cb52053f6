// Package protocol implements the binary wire format spoken between a Kinet
// server and its browser client.
//
// All traffic rides on WebSocket binary messages. Each message is one frame:
// a fixed header (type, flags, payload length) followed by a type-specific
// payload. Integers use protobuf-style varints; strings and byte blobs are
// length-prefixed.
//
// Frame types:
//
//	Hello    connection setup and session resume
//	Event    client -> server DOM events
//	Patches  server -> client element mutations
//	Control  ping/pong and close
//	Ack      client acknowledgment of applied patches
//	Error    error reports in either direction
//
// The patch set is deliberately imperative: set a style, toggle a class,
// force a layout read (Measure), attach a native listener by its exact name
// (Listen), mount or replace a rendered subtree. Events carry the concrete
// DOM event name they were registered under, so vendor-prefixed registrations
// such as webkitTransitionEnd stay distinct from transitionend all the way to
// the server's handler table.
//
// Decoding enforces allocation and depth limits so a malicious peer cannot
// force large allocations or deep recursion with a short input.
package protocol
