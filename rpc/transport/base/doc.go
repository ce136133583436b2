// Package base provides a foundation for transport layers of the remote
// object RPC system, implementing core functionality independent of the
// specific network protocol (TCP, Unix sockets, etc.). It serves as a base
// layer that can be extended with protocol-specific connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Frame-based message protocol with requestID correlation
//   - The token handshake that guards every connection
//   - Per-connection session state on the server side
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific
//     operations that allow extending the base transport with different
//     network protocols.
//
//   - clientTransport: Core client implementation owning exactly one
//     connection. Object references issued by the server are scoped to the
//     connection's execution context, so there is deliberately no pooling,
//     no round robin and no transparent reconnect; a dead connection fails
//     pending requests immediately instead of retrying them elsewhere.
//
//   - serverTransport: Core server implementation that authenticates each
//     connection, creates a dedicated session handler for it and processes
//     its requests strictly sequentially. Different connections are handled
//     concurrently in separate goroutines.
//
// Handshake:
//
//	The first bytes of every connection are a length-prefixed token frame.
//	The server compares it in constant time and answers with a single
//	acknowledgement byte; on mismatch it closes the connection without a
//	response, which the client reports as an AuthError.
//
// Performance Optimizations:
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse read buffers,
//     reducing GC pressure and memory allocations.
//
//   - Frame Batching: The transport uses net.Buffers to reduce syscalls
//     when writing frames, combining header and payload into a single
//     write operation.
//
// Thread Safety:
//
//	All public methods are thread-safe. The client transport may be used
//	from multiple goroutines; responses are correlated by requestID.
package base
