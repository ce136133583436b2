// Package object defines what a server can expose over the RPC protocol and
// how generic operations are applied to exposed values.
//
// The package focuses on:
//   - Contracts for exposed objects (Attributer, Caller, Indexer, Func)
//   - Modules as the standard way of grouping named attributes
//   - A Namespace acting as the strict allow-list of entry points
//   - Generic Attr/Call/Index operations over arbitrary exposed values,
//     including negative indices and range-slice access on sequences
//
// Anything a server wants reachable must be registered in its Namespace;
// names that were never registered cannot be resolved through the protocol.
// The Builtins namespace provides a small standard library ("math",
// "builtins", "strings") that servers expose by default.
//
// Thread Safety:
//
//	Namespaces are safe for concurrent registration and resolution. Modules
//	are not synchronized; define all attributes before exposing a module.
package object
