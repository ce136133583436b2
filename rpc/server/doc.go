// Package server implements the server side of the remote object RPC
// system: it accepts authenticated connections, gives each one an isolated
// execution context and dispatches the protocol's operations against the
// objects the server exposes.
//
// Key Components:
//
//   - rpcServer: Ties together a transport, a serializer and the namespace
//     of exposed entry points. Created via NewRPCServer; Serve blocks,
//     Start serves in the background. When no handshake token is
//     configured the server generates one at startup and logs it.
//
//   - Executor: The per-connection execution context. It dispatches
//     resolve_entry, get_attr, call, get_item, materialize and release
//     requests and owns the connection's ObjectRegistry. Faults raised by
//     exposed objects, including panics, become error responses; the
//     connection itself always stays usable.
//
//   - ObjectRegistry: Maps reference ids to live objects. Ids are issued
//     monotonically starting at 1 and are never reused. The registry is
//     dropped wholesale when its connection closes, which is the bulk
//     lifecycle for references; the release operation exists for clients
//     that need to bound registry growth on a long-lived connection.
//
// Reference Semantics:
//
//	Every ref-producing operation registers its result and answers with a
//	fresh id, even for primitive results. Values only cross the wire when
//	a client explicitly materializes a reference. Reference ids are
//	meaningless outside the connection that issued them.
//
// Metrics:
//
//	The executor maintains Prometheus-style counters per operation and a
//	request duration summary. Setting MetricsEndpoint in the server
//	configuration exposes them over HTTP.
package server
