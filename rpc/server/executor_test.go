package server

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/MilkClouds/SimpleRPyC/rpc/object"
	"github.com/MilkClouds/SimpleRPyC/rpc/serializer"
)

// newTestExecutor creates an executor over the builtin namespace plus a few
// objects exercised by the tests
func newTestExecutor() *Executor {
	ns := object.Builtins()
	ns.Register("demo", object.NewModule("demo").
		Define("numbers", []int64{10, 20, 30, 40}).
		Define("config", map[string]any{"host": "localhost", "port": int64(8080)}).
		Define("panics", object.Func(func(args []any, kwargs map[string]any) (any, error) {
			panic("boom")
		})).
		Define("echo", object.Func(func(args []any, kwargs map[string]any) (any, error) {
			return args[0], nil
		})))
	return NewExecutor(ns, serializer.NewBinarySerializer())
}

// roundTrip pushes one request through the executor's full serialize and
// dispatch path
func roundTrip(t *testing.T, e *Executor, req *common.Message) *common.Message {
	t.Helper()

	ser := serializer.NewBinarySerializer()
	data, err := ser.Serialize(*req)
	if err != nil {
		t.Fatalf("Failed to serialize request: %v", err)
	}

	respData := e.Handle(data)

	var resp common.Message
	if err := ser.Deserialize(respData, &resp); err != nil {
		t.Fatalf("Failed to deserialize response: %v", err)
	}
	return &resp
}

// expectRef asserts a success response carrying a reference id
func expectRef(t *testing.T, resp *common.Message) uint64 {
	t.Helper()
	if resp.MsgType != common.MsgTSuccess {
		t.Fatalf("Expected success response, got %s (%s)", resp.MsgType, resp.Err)
	}
	if resp.Ref == 0 {
		t.Fatalf("Expected a reference id, got none")
	}
	return resp.Ref
}

// TestExecutorResolveEntry tests entry-point resolution
func TestExecutorResolveEntry(t *testing.T) {
	e := newTestExecutor()

	resp := roundTrip(t, e, common.NewResolveEntryRequest("math"))
	id := expectRef(t, resp)

	if id != 1 {
		t.Errorf("First reference id = %d, expected 1", id)
	}

	// Unknown entry points fault without closing the context
	resp = roundTrip(t, e, common.NewResolveEntryRequest("os"))
	if resp.MsgType != common.MsgTError || resp.Protocol {
		t.Errorf("Expected remote error for unknown entry point, got %+v", resp)
	}

	// Dotted paths resolve in one step
	resp = roundTrip(t, e, common.NewResolveEntryRequest("math.sqrt"))
	expectRef(t, resp)
}

// TestExecutorAttrCallMaterialize tests the central lazy-reference flow:
// resolve an entry, walk to an attribute, call it and fetch the result
func TestExecutorAttrCallMaterialize(t *testing.T) {
	e := newTestExecutor()

	mathID := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("math")))
	sqrtID := expectRef(t, roundTrip(t, e, common.NewGetAttrRequest(mathID, "math", "sqrt")))

	resultID := expectRef(t, roundTrip(t, e, common.NewCallRequest(
		sqrtID, "math.sqrt", []common.Value{common.FloatValue(16)}, nil)))

	// The call result stayed on the server, only the id came back. Pull the
	// value across explicitly.
	resp := roundTrip(t, e, common.NewMaterializeRequest(resultID))
	if resp.MsgType != common.MsgTSuccess || resp.Value == nil {
		t.Fatalf("Expected value response, got %+v", resp)
	}
	if resp.Value.Kind != common.KindFloat || resp.Value.Float != 4.0 {
		t.Errorf("Materialized value = %+v, expected float 4", resp.Value)
	}

	// All intermediate references stay alive and usable
	resp = roundTrip(t, e, common.NewMaterializeRequest(mathID))
	if resp.MsgType != common.MsgTError {
		t.Errorf("Expected error materializing a module, got %+v", resp)
	}
	resp = roundTrip(t, e, common.NewCallRequest(
		sqrtID, "math.sqrt", []common.Value{common.FloatValue(81)}, nil))
	expectRef(t, resp)
}

// TestExecutorCallWithKwargsAndRefArgs tests reference markers and named
// arguments in call requests
func TestExecutorCallWithRefArgs(t *testing.T) {
	e := newTestExecutor()

	// Produce a server-side value: builtins.range(5) -> [0 1 2 3 4]
	rangeID := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("builtins.range")))
	listID := expectRef(t, roundTrip(t, e, common.NewCallRequest(
		rangeID, "builtins.range", []common.Value{common.IntValue(5)}, nil)))

	// Pass the result by reference into builtins.sum without materializing
	sumID := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("builtins.sum")))
	resultID := expectRef(t, roundTrip(t, e, common.NewCallRequest(
		sumID, "builtins.sum", []common.Value{common.RefValue(listID)}, nil)))

	resp := roundTrip(t, e, common.NewMaterializeRequest(resultID))
	if resp.Value == nil || resp.Value.Int != 10 {
		t.Errorf("sum(range(5)) = %+v, expected 10", resp.Value)
	}

	// A marker for a nonexistent reference is a protocol error
	resp = roundTrip(t, e, common.NewCallRequest(
		sumID, "builtins.sum", []common.Value{common.RefValue(9999)}, nil))
	if resp.MsgType != common.MsgTError || !resp.Protocol {
		t.Errorf("Expected protocol error for unknown ref marker, got %+v", resp)
	}
}

// TestExecutorGetItem tests indexing and range slicing through the protocol
func TestExecutorGetItem(t *testing.T) {
	e := newTestExecutor()

	demoID := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("demo")))
	numsID := expectRef(t, roundTrip(t, e, common.NewGetAttrRequest(demoID, "demo", "numbers")))

	// Scalar index, negative from the end
	itemID := expectRef(t, roundTrip(t, e, common.NewGetItemRequest(numsID, common.IntValue(-1))))
	resp := roundTrip(t, e, common.NewMaterializeRequest(itemID))
	if resp.Value == nil || resp.Value.Int != 40 {
		t.Errorf("numbers[-1] = %+v, expected 40", resp.Value)
	}

	// Range slice
	sliceID := expectRef(t, roundTrip(t, e, common.NewGetItemRequest(
		numsID, common.RangeValue(common.NewRange(1, 3)))))
	resp = roundTrip(t, e, common.NewMaterializeRequest(sliceID))
	if resp.Value == nil || !reflect.DeepEqual(resp.Value.Ints, []int64{20, 30}) {
		t.Errorf("numbers[1:3] = %+v, expected [20 30]", resp.Value)
	}

	// String key on a mapping attribute
	confID := expectRef(t, roundTrip(t, e, common.NewGetAttrRequest(demoID, "demo", "config")))
	hostID := expectRef(t, roundTrip(t, e, common.NewGetItemRequest(confID, common.StringValue("host"))))
	resp = roundTrip(t, e, common.NewMaterializeRequest(hostID))
	if resp.Value == nil || resp.Value.Str != "localhost" {
		t.Errorf("config[host] = %+v, expected localhost", resp.Value)
	}

	// Out of range faults but keeps the context usable
	resp = roundTrip(t, e, common.NewGetItemRequest(numsID, common.IntValue(100)))
	if resp.MsgType != common.MsgTError || resp.Protocol {
		t.Errorf("Expected remote error for out-of-range index, got %+v", resp)
	}
	resp = roundTrip(t, e, common.NewGetItemRequest(numsID, common.IntValue(0)))
	expectRef(t, resp)
}

// TestExecutorRelease tests explicit reference release
func TestExecutorRelease(t *testing.T) {
	e := newTestExecutor()

	id := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("math")))
	if e.Registry().Size() != 1 {
		t.Fatalf("Registry size = %d, expected 1", e.Registry().Size())
	}

	resp := roundTrip(t, e, common.NewReleaseRequest(id))
	if resp.MsgType != common.MsgTSuccess {
		t.Fatalf("Release failed: %+v", resp)
	}
	if e.Registry().Size() != 0 {
		t.Errorf("Registry size after release = %d, expected 0", e.Registry().Size())
	}

	// Using a released reference is a protocol error
	resp = roundTrip(t, e, common.NewGetAttrRequest(id, "", "sqrt"))
	if resp.MsgType != common.MsgTError || !resp.Protocol {
		t.Errorf("Expected protocol error for released reference, got %+v", resp)
	}

	// Double release too
	resp = roundTrip(t, e, common.NewReleaseRequest(id))
	if resp.MsgType != common.MsgTError || !resp.Protocol {
		t.Errorf("Expected protocol error for double release, got %+v", resp)
	}
}

// TestExecutorFaultsKeepContextAlive tests that remote faults, protocol
// errors and panics never invalidate the execution context
func TestExecutorFaultsKeepContextAlive(t *testing.T) {
	e := newTestExecutor()

	demoID := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("demo")))

	// Remote fault from a missing attribute
	resp := roundTrip(t, e, common.NewGetAttrRequest(demoID, "demo", "missing"))
	if resp.MsgType != common.MsgTError || resp.Protocol {
		t.Errorf("Expected remote error, got %+v", resp)
	}
	if !strings.Contains(resp.Err, "missing") {
		t.Errorf("Error %q should name the attribute", resp.Err)
	}

	// Panic inside an exposed callable is recovered with a trace
	panicsID := expectRef(t, roundTrip(t, e, common.NewGetAttrRequest(demoID, "demo", "panics")))
	resp = roundTrip(t, e, common.NewCallRequest(panicsID, "", nil, nil))
	if resp.MsgType != common.MsgTError || resp.Protocol {
		t.Fatalf("Expected remote error from panic, got %+v", resp)
	}
	if !strings.Contains(resp.Err, "boom") || resp.Trace == "" {
		t.Errorf("Panic error should carry message and trace, got %q / %d trace bytes", resp.Err, len(resp.Trace))
	}

	// Garbage request bytes are a protocol error
	var protoResp common.Message
	ser := serializer.NewBinarySerializer()
	if err := ser.Deserialize(e.Handle([]byte{0xff}), &protoResp); err != nil {
		t.Fatalf("Failed to deserialize response: %v", err)
	}
	if protoResp.MsgType != common.MsgTError || !protoResp.Protocol {
		t.Errorf("Expected protocol error for garbage request, got %+v", protoResp)
	}

	// Unknown operation type is a protocol error
	resp = roundTrip(t, e, &common.Message{MsgType: common.MessageType(200)})
	if resp.MsgType != common.MsgTError || !resp.Protocol {
		t.Errorf("Expected protocol error for unknown operation, got %+v", resp)
	}

	// After all of that the context still works
	resp = roundTrip(t, e, common.NewGetAttrRequest(demoID, "demo", "numbers"))
	expectRef(t, resp)
}

// TestExecutorUnserializableValue tests that a value the active codec
// cannot encode comes back as a remote fault, not a protocol error, and
// that the reference survives the failed materialize
func TestExecutorUnserializableValue(t *testing.T) {
	ns := object.Builtins()
	ns.Register("weird", object.NewModule("weird").
		Define("nan", math.NaN()).
		Define("ok", int64(7)))

	// json.Marshal rejects NaN, the binary and gob codecs do not
	e := NewExecutor(ns, serializer.NewJSONSerializer())
	ser := serializer.NewJSONSerializer()

	jsonRoundTrip := func(t *testing.T, req *common.Message) *common.Message {
		t.Helper()
		data, err := ser.Serialize(*req)
		if err != nil {
			t.Fatalf("Failed to serialize request: %v", err)
		}
		var resp common.Message
		if err := ser.Deserialize(e.Handle(data), &resp); err != nil {
			t.Fatalf("Failed to deserialize response: %v", err)
		}
		return &resp
	}

	resp := jsonRoundTrip(t, common.NewResolveEntryRequest("weird.nan"))
	if resp.MsgType != common.MsgTSuccess || resp.Ref == 0 {
		t.Fatalf("Expected a reference, got %+v", resp)
	}
	nanID := resp.Ref

	resp = jsonRoundTrip(t, common.NewMaterializeRequest(nanID))
	if resp.MsgType != common.MsgTError || resp.Protocol {
		t.Fatalf("Expected remote error for unserializable value, got %+v", resp)
	}
	if !strings.Contains(resp.Err, "not serializable") {
		t.Errorf("Error %q should name the serialization failure", resp.Err)
	}

	// The reference and the context stay fully usable
	resp = jsonRoundTrip(t, common.NewMaterializeRequest(nanID))
	if resp.MsgType != common.MsgTError || resp.Protocol {
		t.Errorf("Expected the reference to stay valid, got %+v", resp)
	}
	resp = jsonRoundTrip(t, common.NewResolveEntryRequest("weird.ok"))
	if resp.MsgType != common.MsgTSuccess {
		t.Fatalf("Expected context to stay usable, got %+v", resp)
	}
	resp = jsonRoundTrip(t, common.NewMaterializeRequest(resp.Ref))
	if resp.Value == nil || resp.Value.Int != 7 {
		t.Errorf("weird.ok = %+v, expected 7", resp.Value)
	}
}

// TestExecutorPathFallback tests that operations without a target id fall
// back to resolving the entry-point path
func TestExecutorPathFallback(t *testing.T) {
	e := newTestExecutor()

	// Call with no prior resolve, addressing the callable by path
	resultID := expectRef(t, roundTrip(t, e, common.NewCallRequest(
		0, "strings.upper", []common.Value{common.StringValue("abc")}, nil)))

	resp := roundTrip(t, e, common.NewMaterializeRequest(resultID))
	if resp.Value == nil || resp.Value.Str != "ABC" {
		t.Errorf("strings.upper(abc) = %+v, expected ABC", resp.Value)
	}

	// Neither target nor path is a protocol error
	resp = roundTrip(t, e, &common.Message{MsgType: common.MsgTCall})
	if resp.MsgType != common.MsgTError || !resp.Protocol {
		t.Errorf("Expected protocol error for missing target, got %+v", resp)
	}
}

// TestExecutorClose tests that closing drops all references
func TestExecutorClose(t *testing.T) {
	e := newTestExecutor()

	expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("math")))
	expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("demo")))
	if e.Registry().Size() != 2 {
		t.Fatalf("Registry size = %d, expected 2", e.Registry().Size())
	}

	e.Close()
	if e.Registry().Size() != 0 {
		t.Errorf("Registry size after Close = %d, expected 0", e.Registry().Size())
	}
}

// TestExecutorEchoKwargs tests named arguments arriving as Go maps
func TestExecutorEchoKwargs(t *testing.T) {
	e := newTestExecutor()

	// math.pow exposed takes positional args; use demo.echo to check kwargs
	// decoding faults cleanly when unexpected
	echoID := expectRef(t, roundTrip(t, e, common.NewResolveEntryRequest("demo.echo")))

	resultID := expectRef(t, roundTrip(t, e, common.NewCallRequest(
		echoID, "",
		[]common.Value{common.ListValue(common.IntValue(1), common.StringValue("x"))},
		map[string]common.Value{"ignored": common.BoolValue(true)})))

	resp := roundTrip(t, e, common.NewMaterializeRequest(resultID))
	if resp.Value == nil || resp.Value.Kind != common.KindList {
		t.Fatalf("Expected list value, got %+v", resp.Value)
	}
	expected := common.ListValue(common.IntValue(1), common.StringValue("x"))
	if !reflect.DeepEqual(*resp.Value, expected) {
		t.Errorf("Echoed value = %+v, expected %+v", resp.Value, expected)
	}
}
