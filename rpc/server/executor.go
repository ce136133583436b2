package server

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/MilkClouds/SimpleRPyC/rpc/object"
	"github.com/MilkClouds/SimpleRPyC/rpc/serializer"
	"github.com/VictoriaMetrics/metrics"
)

// Executor is the per-connection execution context. It owns the object
// registry for its connection: every reference a client holds lives here
// and dies with the connection. The transport layer calls Handle strictly
// sequentially, so an executor never processes two requests at once.
type Executor struct {
	registry   *ObjectRegistry
	namespace  *object.Namespace
	serializer serializer.IRPCSerializer
}

// NewExecutor creates an execution context resolving entry points against
// the given namespace.
func NewExecutor(namespace *object.Namespace, ser serializer.IRPCSerializer) *Executor {
	return &Executor{
		registry:   NewObjectRegistry(),
		namespace:  namespace,
		serializer: ser,
	}
}

// Registry exposes the underlying object registry, mainly for inspection
// in tests and metrics.
func (e *Executor) Registry() *ObjectRegistry {
	return e.registry
}

// Handle implements transport.SessionHandler. It never returns an invalid
// response: every fault becomes a serialized error message.
func (e *Executor) Handle(req []byte) []byte {
	var msg common.Message
	var respMsg *common.Message

	start := time.Now()

	if err := e.serializer.Deserialize(req, &msg); err != nil {
		respMsg = common.NewProtocolErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		respMsg = e.dispatch(&msg)
	}

	data, err := e.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("Failed to serialize response: %v", err)
		if respMsg.MsgType != common.MsgTError {
			// The operation produced a value the active codec cannot
			// encode (e.g. NaN under JSON). That is an operation fault;
			// the reference and the connection stay valid.
			respMsg = common.NewRemoteErrorResponse(
				fmt.Sprintf("value is not serializable: %s", err), "")
		} else {
			// The error response itself failed to serialize, fall back
			// to a plain protocol error which always serializes
			respMsg = common.NewProtocolErrorResponse(
				fmt.Sprintf("failed to serialize response: %s", err))
		}
		if data, err = e.serializer.Serialize(*respMsg); err != nil {
			data, _ = e.serializer.Serialize(*common.NewProtocolErrorResponse("failed to serialize response"))
		}
	}

	requestsTotal(msg.MsgType).Inc()
	if respMsg.MsgType == common.MsgTError {
		errorsTotal(msg.MsgType).Inc()
	}
	requestDuration.UpdateDuration(start)

	return data
}

// Close implements transport.SessionHandler. It drops every reference the
// connection held.
func (e *Executor) Close() {
	Logger.Debugf("Closing execution context with %d live references", e.registry.Size())
	e.registry.Clear()
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// dispatch routes one decoded request to its operation. A panic anywhere
// below is recovered into an error response so a faulty exposed object can
// never kill the connection.
func (e *Executor) dispatch(msg *common.Message) (resp *common.Message) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Errorf("Recovered from panic in %s: %v", msg.MsgType, r)
			resp = common.NewRemoteErrorResponse(
				fmt.Sprintf("panic: %v", r),
				string(debug.Stack()),
			)
		}
	}()

	switch msg.MsgType {
	case common.MsgTResolveEntry:
		return e.handleResolveEntry(msg)
	case common.MsgTGetAttr:
		return e.handleGetAttr(msg)
	case common.MsgTCall:
		return e.handleCall(msg)
	case common.MsgTGetItem:
		return e.handleGetItem(msg)
	case common.MsgTMaterialize:
		return e.handleMaterialize(msg)
	case common.MsgTRelease:
		return e.handleRelease(msg)
	default:
		return common.NewProtocolErrorResponse(
			fmt.Sprintf("unsupported message type: %s", msg.MsgType))
	}
}

func (e *Executor) handleResolveEntry(msg *common.Message) *common.Message {
	obj, err := e.namespace.ResolvePath(msg.Path)
	if err != nil {
		return common.NewRemoteErrorResponse(err.Error(), "")
	}
	return common.NewRefResponse(e.registry.Store(obj))
}

func (e *Executor) handleGetAttr(msg *common.Message) *common.Message {
	target, errResp := e.target(msg)
	if errResp != nil {
		return errResp
	}

	result, err := object.Attr(target, msg.Name)
	if err != nil {
		return common.NewRemoteErrorResponse(err.Error(), "")
	}
	return common.NewRefResponse(e.registry.Store(result))
}

func (e *Executor) handleCall(msg *common.Message) *common.Message {
	target, errResp := e.target(msg)
	if errResp != nil {
		return errResp
	}

	// Decode arguments, resolving reference markers against this
	// connection's registry
	args := make([]any, len(msg.Args))
	for i, v := range msg.Args {
		decoded, err := v.Interface(e.registry.Resolve)
		if err != nil {
			return common.NewProtocolErrorResponse(
				fmt.Sprintf("invalid argument %d: %s", i, err))
		}
		args[i] = decoded
	}

	var kwargs map[string]any
	if len(msg.Kwargs) > 0 {
		kwargs = make(map[string]any, len(msg.Kwargs))
		for k, v := range msg.Kwargs {
			decoded, err := v.Interface(e.registry.Resolve)
			if err != nil {
				return common.NewProtocolErrorResponse(
					fmt.Sprintf("invalid argument %q: %s", k, err))
			}
			kwargs[k] = decoded
		}
	}

	result, err := object.Call(target, args, kwargs)
	if err != nil {
		return common.NewRemoteErrorResponse(err.Error(), "")
	}
	return common.NewRefResponse(e.registry.Store(result))
}

func (e *Executor) handleGetItem(msg *common.Message) *common.Message {
	target, errResp := e.target(msg)
	if errResp != nil {
		return errResp
	}
	if msg.Key == nil {
		return common.NewProtocolErrorResponse("get_item request without a key")
	}

	key, err := msg.Key.Interface(e.registry.Resolve)
	if err != nil {
		return common.NewProtocolErrorResponse(fmt.Sprintf("invalid key: %s", err))
	}

	result, err := object.Index(target, key)
	if err != nil {
		return common.NewRemoteErrorResponse(err.Error(), "")
	}
	return common.NewRefResponse(e.registry.Store(result))
}

func (e *Executor) handleMaterialize(msg *common.Message) *common.Message {
	target, errResp := e.target(msg)
	if errResp != nil {
		return errResp
	}

	// The conversion is atomic: it either yields a complete value or a
	// fault, never a partial result. The reference stays valid either way.
	value, err := common.ValueOf(target)
	if err != nil {
		return common.NewRemoteErrorResponse(err.Error(), "")
	}
	return common.NewValueResponse(value)
}

func (e *Executor) handleRelease(msg *common.Message) *common.Message {
	if msg.Target == 0 {
		return common.NewProtocolErrorResponse("release request without a target")
	}
	if err := e.registry.Release(msg.Target); err != nil {
		return common.NewProtocolErrorResponse(err.Error())
	}
	return common.NewAckResponse()
}

// target resolves the operation target: a reference id when present,
// otherwise the entry-point path. An unresolvable target is a protocol
// error and leaves the connection fully usable.
func (e *Executor) target(msg *common.Message) (any, *common.Message) {
	if msg.Target != 0 {
		obj, err := e.registry.Resolve(msg.Target)
		if err != nil {
			return nil, common.NewProtocolErrorResponse(err.Error())
		}
		return obj, nil
	}
	if msg.Path != "" {
		obj, err := e.namespace.ResolvePath(msg.Path)
		if err != nil {
			return nil, common.NewRemoteErrorResponse(err.Error(), "")
		}
		return obj, nil
	}
	return nil, common.NewProtocolErrorResponse(
		fmt.Sprintf("%s request without a target", msg.MsgType))
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var requestDuration = metrics.NewSummary("simplerpc_request_duration_seconds")

func requestsTotal(op common.MessageType) *metrics.Counter {
	return metrics.GetOrCreateCounter(
		fmt.Sprintf(`simplerpc_requests_total{op=%q}`, op.String()))
}

func errorsTotal(op common.MessageType) *metrics.Counter {
	return metrics.GetOrCreateCounter(
		fmt.Sprintf(`simplerpc_request_errors_total{op=%q}`, op.String()))
}
