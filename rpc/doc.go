// Package rpc provides a remote object RPC framework: clients hold lazy
// references to objects living on a server and operate on them through a
// small set of protocol operations, fetching actual values only on demand.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including
//     the Message protocol, the tagged wire Value, the error taxonomy,
//     configuration structures and logging.
//
//   - object: What a server can expose (modules, callables, sequences,
//     mappings) and the generic attribute/call/index operations over it,
//     guarded by an allow-list namespace.
//
//   - serializer: Message serialization with multiple format options
//     (Binary, JSON, GOB) for converting between Message objects and byte
//     arrays.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets), including the token handshake
//     and per-connection sessions.
//
//   - server: The dispatcher executing protocol operations against exposed
//     objects, with one isolated execution context per connection.
//
//   - client: Connections and the lazy Ref handle mirroring server-side
//     objects.
package rpc
