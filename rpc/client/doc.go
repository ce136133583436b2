// Package client implements the client side of the remote object RPC
// system: authenticated connections and lazy references to server-side
// objects.
//
// The model follows the remote object pattern: resolving an entry point,
// reading an attribute, calling a callable or indexing a sequence all
// return a *Ref, a handle to a value that stays on the server. Chains of
// operations therefore cost one small round trip each, and large
// intermediate results never cross the wire. Only Ref.Materialize transfers
// an actual value.
//
// Refs can be passed back to the server as call arguments, which makes
// server-to-server data flow possible without the client ever holding the
// data:
//
//	list, _ := rangeFn.Call(int64(1000000)) // result stays remote
//	total, _ := sum.Call(list)              // passed by reference
//	v, _ := total.Materialize()             // only the sum comes back
//
// Error Handling:
//
//	Faults raised by server-side objects come back as *common.RemoteError
//	with a best-effort trace. Malformed requests yield *common.ProtocolError
//	and leave the connection usable. A broken connection fails pending and
//	subsequent calls fast with *common.TransportError. A rejected handshake
//	token is *common.AuthError.
package client
