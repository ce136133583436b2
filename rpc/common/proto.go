package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// Request fields

	Target uint64           `json:"target,omitempty"` // Reference id of the operation target; 0 means absent (ids start at 1)
	Path   string           `json:"path,omitempty"`   // Entry-point path; fallback lookup when no target id is supplied, diagnostics otherwise
	Name   string           `json:"name,omitempty"`   // Used for: GetAttr (attribute name)
	Args   []Value          `json:"args,omitempty"`   // Used for: Call (positional arguments)
	Kwargs map[string]Value `json:"kwargs,omitempty"` // Used for: Call (named arguments)
	Key    *Value           `json:"key,omitempty"`    // Used for: GetItem (scalar or range-slice key)

	// Response fields

	Ref      uint64 `json:"ref,omitempty"`      // New reference id for every ref-producing operation
	Value    *Value `json:"value,omitempty"`    // Terminal value, Materialize only
	Err      string `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message
	Trace    string `json:"trace,omitempty"`    // Best-effort server-side trace text accompanying Err
	Protocol bool   `json:"protocol,omitempty"` // Marks Err as a protocol-level fault rather than a remote fault
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewResolveEntryRequest creates a new ResolveEntry request for a dotted
// entry-point path.
func NewResolveEntryRequest(path string) *Message {
	return &Message{
		MsgType: MsgTResolveEntry,
		Path:    path,
	}
}

// NewGetAttrRequest creates a new GetAttr request. A target of 0 makes the
// server fall back to resolving path against its namespace.
func NewGetAttrRequest(target uint64, path, name string) *Message {
	return &Message{
		MsgType: MsgTGetAttr,
		Target:  target,
		Path:    path,
		Name:    name,
	}
}

// NewCallRequest creates a new Call request.
func NewCallRequest(target uint64, path string, args []Value, kwargs map[string]Value) *Message {
	return &Message{
		MsgType: MsgTCall,
		Target:  target,
		Path:    path,
		Args:    args,
		Kwargs:  kwargs,
	}
}

// NewGetItemRequest creates a new GetItem request.
func NewGetItemRequest(target uint64, key Value) *Message {
	return &Message{
		MsgType: MsgTGetItem,
		Target:  target,
		Key:     &key,
	}
}

// NewMaterializeRequest creates a new Materialize request.
func NewMaterializeRequest(target uint64) *Message {
	return &Message{
		MsgType: MsgTMaterialize,
		Target:  target,
	}
}

// NewReleaseRequest creates a new Release request.
func NewReleaseRequest(target uint64) *Message {
	return &Message{
		MsgType: MsgTRelease,
		Target:  target,
	}
}

// NewRefResponse creates a success response carrying a fresh reference id.
func NewRefResponse(id uint64) *Message {
	return &Message{
		MsgType: MsgTSuccess,
		Ref:     id,
	}
}

// NewValueResponse creates a terminal success response carrying a
// materialized value.
func NewValueResponse(v Value) *Message {
	return &Message{
		MsgType: MsgTSuccess,
		Value:   &v,
	}
}

// NewAckResponse creates a success response carrying neither a reference
// nor a value (Release only).
func NewAckResponse() *Message {
	return &Message{
		MsgType: MsgTSuccess,
	}
}

// NewRemoteErrorResponse creates an error response for a fault raised by
// the underlying operation. The trace is best-effort and may be empty.
func NewRemoteErrorResponse(err string, trace string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
		Trace:   trace,
	}
}

// NewProtocolErrorResponse creates an error response for a malformed or
// unrecognized request. The connection stays usable afterwards.
func NewProtocolErrorResponse(err string) *Message {
	return &Message{
		MsgType:  MsgTError,
		Err:      err,
		Protocol: true,
	}
}

// AsError converts an error response into the matching error value from the
// taxonomy in errors.go. It returns nil for success responses.
func (m *Message) AsError() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	if m.Protocol {
		return &ProtocolError{Detail: m.Err}
	}
	return &RemoteError{Message: m.Err, Trace: m.Trace}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTSuccess:
		return "success"
	case MsgTError:
		return "error"
	case MsgTResolveEntry:
		return "resolve_entry"
	case MsgTGetAttr:
		return "get_attr"
	case MsgTCall:
		return "call"
	case MsgTGetItem:
		return "get_item"
	case MsgTMaterialize:
		return "materialize"
	case MsgTRelease:
		return "release"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "success":
		*t = MsgTSuccess
	case "error":
		*t = MsgTError
	case "resolve_entry":
		*t = MsgTResolveEntry
	case "get_attr":
		*t = MsgTGetAttr
	case "call":
		*t = MsgTCall
	case "get_item":
		*t = MsgTGetItem
	case "materialize":
		*t = MsgTMaterialize
	case "release":
		*t = MsgTRelease
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// Operation message types

	MsgTResolveEntry // Resolve an entry-point name to a new reference
	MsgTGetAttr      // Get an attribute of a referenced object
	MsgTCall         // Call a referenced callable
	MsgTGetItem      // Index into a referenced object
	MsgTMaterialize  // Fetch the fully serialized value of a reference
	MsgTRelease      // Release a reference held by the registry
)
