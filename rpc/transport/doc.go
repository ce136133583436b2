// Package transport defines the interfaces for the pluggable transport
// layer of the remote object RPC system.
//
// A server transport accepts connections, performs the token handshake and
// feeds each connection's requests, one at a time, to a SessionHandler
// created for that connection. A client transport owns a single connection
// and correlates concurrent requests with their responses.
//
// Concrete implementations live in the subpackages:
//
//   - base: protocol-agnostic framing, handshake and session plumbing
//   - tcp: TCP sockets for remote communication
//   - unix: Unix domain sockets for same-machine communication
package transport
