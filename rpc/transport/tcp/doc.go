// Package tcp implements a TCP socket-based transport for the remote object
// RPC system. It provides concrete implementations of the base package's
// connector interfaces optimized for TCP connections.
//
// This package builds on the base package's transport functionality,
// inheriting its framing, token handshake and per-connection session
// handling. See the base package documentation for detailed information on
// the underlying transport mechanisms.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector
//
//   - serverConnector: TCP-specific implementation of base.IServerConnector
//
// Both connectors apply the shared socket tuning (NoDelay, keep-alive,
// linger, buffer sizes) from the configuration. The default server read
// buffer size is 512 KB.
package tcp
