package client

import (
	"fmt"
	"os"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/MilkClouds/SimpleRPyC/rpc/serializer"
	"github.com/MilkClouds/SimpleRPyC/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// Connection is an authenticated connection to an RPC server. All
// references obtained through it are scoped to this connection and become
// unusable when it closes.
//
// Usage:
//
//	conn, err := client.Connect(
//		config,
//		tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	math, err := conn.Entry("math")
//	sqrt, err := math.Attr("sqrt")
//	result, err := sqrt.Call(16.0)
//	value, err := result.Materialize() // 4.0
type Connection struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// Connect establishes a connection to an RPC server, performing the token
// handshake. With no token configured it falls back to the SIMPLERPC_TOKEN
// environment variable. A refused token surfaces as *common.AuthError.
func Connect(
	config common.ClientConfig,
	tr transport.IRPCClientTransport,
	ser serializer.IRPCSerializer,
) (*Connection, error) {
	if config.Token == "" {
		config.Token = os.Getenv(common.TokenEnvVar)
	}

	if err := tr.Connect(config); err != nil {
		return nil, err
	}

	Logger.Debugf("Connected to %s", config.Endpoint)

	return &Connection{
		config:     config,
		transport:  tr,
		serializer: ser,
	}, nil
}

// Entry resolves an entry-point path ("math" or dotted "math.sqrt") to a
// lazy reference. Nothing but the reference id crosses the wire.
func (c *Connection) Entry(path string) (*Ref, error) {
	resp, err := c.invoke(common.NewResolveEntryRequest(path))
	if err != nil {
		return nil, err
	}
	return &Ref{conn: c, id: resp.Ref, path: path}, nil
}

// Close closes the connection. The server drops every reference this
// connection held.
func (c *Connection) Close() error {
	return c.transport.Close()
}

// invoke sends one request and decodes the response. Error responses come
// back as Go errors from the taxonomy in the common package.
func (c *Connection) invoke(req *common.Message) (*common.Message, error) {
	data, err := c.serializer.Serialize(*req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	respData, err := c.transport.Send(data)
	if err != nil {
		return nil, err
	}

	var resp common.Message
	if err := c.serializer.Deserialize(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %w", err)
	}

	if err := resp.AsError(); err != nil {
		return nil, err
	}
	return &resp, nil
}
