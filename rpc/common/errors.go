package common

import "fmt"

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

// RemoteError is a fault raised by the underlying operation on the server
// side (attribute lookup, call, indexing, serialization). It is carried
// across the wire verbatim as data and reconstituted on the client.
type RemoteError struct {
	Message string
	Trace   string
}

func (e *RemoteError) Error() string {
	if e.Trace != "" {
		return fmt.Sprintf("%s\n\nremote trace:\n%s", e.Message, e.Trace)
	}
	return e.Message
}

// ProtocolError indicates a malformed or unrecognized request. It is always
// local-recoverable: the connection stays open and usable afterwards.
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Detail)
}

// AuthError indicates a token mismatch at handshake. It is fatal to the
// connection attempt; the server sends no application-level message.
type AuthError struct {
	Endpoint string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication rejected by %s", e.Endpoint)
}

// TransportError indicates the channel closed or failed mid-request. Any
// pending blocking call is unblocked with this error instead of hanging.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
