// Package unix implements a transport layer for the remote object RPC
// system using Unix domain sockets. It provides optimized communication for
// processes running on the same machine.
//
// This package extends the base transport layer with Unix socket-specific
// connectors while inheriting framing, the token handshake and session
// handling from the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners, removing a stale
//     socket file before binding
//
// Performance Characteristics:
//
//   - Default buffer size: 64 KB, optimized for local communication patterns
//   - Lower latency: Direct kernel-mediated IPC avoids network subsystem overhead
package unix
