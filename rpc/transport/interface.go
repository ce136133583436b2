package transport

import (
	"github.com/MilkClouds/SimpleRPyC/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// SessionHandler processes the requests of a single connection. The
// transport layer calls Handle strictly sequentially, one request at a
// time, and Close exactly once when the connection ends.
type SessionHandler interface {
	// Handle processes one serialized request and returns the serialized
	// response
	Handle(req []byte) (resp []byte)
	// Close releases all per-connection state
	Close()
}

// SessionFactory creates a fresh handler for every accepted connection.
// Each connection gets its own handler so per-connection state never leaks
// between clients.
type SessionFactory func() SessionHandler

// IRPCServerTransport is the interface for the server-side RPC transport layer
type IRPCServerTransport interface {
	// RegisterSessionFactory registers the factory used to create a handler
	// for each accepted connection. Must be called before Serve.
	RegisterSessionFactory(factory SessionFactory)
	// Listen binds the transport to its endpoint
	Listen(config common.ServerConfig) error
	// Serve accepts connections until the transport is closed. It blocks.
	Serve() error
	// Addr returns the bound endpoint (useful when listening on ":0")
	Addr() string
	// Close stops accepting connections and closes the listener
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the client-side RPC transport.
// A transport owns exactly one connection: object references issued by the
// server are scoped to that connection, so pooling or failover between
// connections would silently invalidate them.
type IRPCClientTransport interface {
	// Connect establishes the connection and performs the token handshake
	Connect(config common.ClientConfig) error
	// Send sends a request to the server and blocks for the response
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
