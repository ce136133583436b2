package common

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenEnvVar is the well-known environment variable the client falls back
// to when no handshake token is configured explicitly.
const TokenEnvVar = "SIMPLERPC_TOKEN"

// --------------------------------------------------------------------------
// Shared transport tuning structs
// --------------------------------------------------------------------------

// SocketConf holds socket buffer tuning shared by client and server.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP-specific tuning shared by client and server.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the RPC server.
type ServerConfig struct {
	// Endpoint is the address the server listens on (host:port for tcp,
	// a filesystem path for unix)
	Endpoint string

	// Token is the handshake token clients must present. Left empty, the
	// server generates one at startup and logs it.
	Token string

	// TimeoutSecond bounds handshake reads and response writes. 0 disables
	// the deadlines. Idle established connections are never timed out.
	TimeoutSecond int64

	// MetricsEndpoint optionally exposes Prometheus metrics over HTTP
	// (e.g. "127.0.0.1:9090"). Empty disables the endpoint.
	MetricsEndpoint string

	// Logging configuration
	LogLevel string

	// Transport tuning
	Socket SocketConf
	TCP    TCPConf
}

// String returns a formatted string representation of the configuration.
// The token is deliberately not included.
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Transport Tuning")
	addField("Write Buffer", strconv.Itoa(c.Socket.WriteBufferSize))
	addField("Read Buffer", strconv.Itoa(c.Socket.ReadBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCP.TCPNoDelay))
	addField("TCP KeepAlive (s)", strconv.Itoa(c.TCP.TCPKeepAliveSec))
	addField("TCP Linger (s)", strconv.Itoa(c.TCP.TCPLingerSec))

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for one client connection.
// A connection owns exactly one execution context on the server, so there is
// no endpoint pooling: references issued on one connection are meaningless
// on any other.
type ClientConfig struct {
	// Endpoint is the address of the RPC server
	Endpoint string

	// Token is the handshake token. Left empty, the client falls back to
	// the TokenEnvVar environment variable.
	Token string

	// TimeoutSecond bounds the blocking wait for each response. 0 disables
	// the timeout.
	TimeoutSecond int

	// Transport tuning
	Socket SocketConf
	TCP    TCPConf
}

// String returns a formatted string representation of the client
// configuration. The token is deliberately not included.
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	return sb.String()
}
