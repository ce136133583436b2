package serializer

import (
	"reflect"
	"testing"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Entry resolution request
		*common.NewResolveEntryRequest("math"),

		// Attribute request with a target id
		*common.NewGetAttrRequest(3, "math", "sqrt"),

		// Attribute request falling back to a path lookup
		*common.NewGetAttrRequest(0, "builtins", "len"),

		// Call with positional and named arguments
		*common.NewCallRequest(7, "math.pow",
			[]common.Value{
				common.IntValue(2),
				common.FloatValue(-1.5),
				common.StringValue("hello"),
				common.BoolValue(true),
				common.NilValue(),
			},
			map[string]common.Value{
				"scale":  common.FloatValue(0.25),
				"labels": common.ListValue(common.StringValue("a"), common.StringValue("b")),
			},
		),

		// Call with nested collections and a reference marker
		*common.NewCallRequest(7, "math.pow",
			[]common.Value{
				common.ListValue(
					common.IntValue(1),
					common.ListValue(common.IntValue(2), common.IntValue(3)),
				),
				common.MapValue(map[string]common.Value{
					"ref":   common.RefValue(42),
					"bytes": common.BytesValue([]byte{0x00, 0xff, 0x10}),
				}),
				common.IntArrayValue([]int64{-1, 0, 1}),
				common.FloatArrayValue([]float64{0.5, 1.5}),
			},
			nil,
		),

		// Index with a scalar key
		*common.NewGetItemRequest(9, common.IntValue(-1)),

		// Index with a range-slice key
		*common.NewGetItemRequest(9, common.RangeValue(common.NewRange(1, 5))),

		// Index with a partially bounded range
		*common.NewGetItemRequest(9, common.RangeValue(&common.Range{Step: common.Bound(2)})),

		// Materialize and release requests
		*common.NewMaterializeRequest(12),
		*common.NewReleaseRequest(12),

		// Reference and value responses
		*common.NewRefResponse(13),
		*common.NewValueResponse(common.MapValue(map[string]common.Value{
			"result": common.FloatValue(3.14159),
			"tags":   common.ListValue(common.StringValue("x")),
		})),
		*common.NewAckResponse(),

		// Error responses
		*common.NewRemoteErrorResponse("division by zero", "in div at line 3"),
		*common.NewProtocolErrorResponse("unknown message type: 99"),
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestDeserializeResetsTarget tests that deserializing into a previously used
// message does not leak fields from the earlier message
func TestDeserializeResetsTarget(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			first := *common.NewCallRequest(5, "math.pow",
				[]common.Value{common.IntValue(1)},
				map[string]common.Value{"x": common.IntValue(2)},
			)
			second := *common.NewMaterializeRequest(8)

			firstData, err := serializer.Serialize(first)
			if err != nil {
				t.Fatalf("Failed to serialize first message: %v", err)
			}
			secondData, err := serializer.Serialize(second)
			if err != nil {
				t.Fatalf("Failed to serialize second message: %v", err)
			}

			var result common.Message
			if err := serializer.Deserialize(firstData, &result); err != nil {
				t.Fatalf("Failed to deserialize first message: %v", err)
			}
			if err := serializer.Deserialize(secondData, &result); err != nil {
				t.Fatalf("Failed to deserialize second message: %v", err)
			}

			if !reflect.DeepEqual(second, result) {
				t.Errorf("Reused message retains stale fields:\nExpected: %+v\nResult: %+v",
					second, result)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTRelease; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with zero target and empty strings",
			msg: common.Message{
				MsgType: common.MsgTGetAttr,
				Target:  0,
				Path:    "",
				Name:    "",
			},
		},
		{
			name: "Call with no arguments at all",
			msg: common.Message{
				MsgType: common.MsgTCall,
				Target:  4,
			},
		},
		{
			name: "Protocol flag without error text",
			msg: common.Message{
				MsgType:  common.MsgTError,
				Protocol: true,
			},
		},
		{
			name: "Key holding an explicit nil value",
			msg: common.Message{
				MsgType: common.MsgTGetItem,
				Target:  2,
				Key:     valuePtr(common.NilValue()),
			},
		},
		{
			name: "Value holding empty collections",
			msg: common.Message{
				MsgType: common.MsgTSuccess,
				Value: valuePtr(common.MapValue(map[string]common.Value{
					"list":  common.ListValue(),
					"bytes": common.BytesValue(nil),
					"ints":  common.IntArrayValue(nil),
				})),
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			if !reflect.DeepEqual(tc.msg, result) {
				t.Errorf("Message doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
					tc.msg, result)
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Message type plus one flag byte, flags need two
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for path",
			data:        []byte{1, 0, 2, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims path length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Truncated args count",
			data:        []byte{1, 0, 8, 0, 0}, // Args flag set but count cut off
			expectError: true,
		},
		{
			name:        "Unknown value kind in key",
			data:        []byte{1, 0, 32, 99}, // Key flag set, kind byte 99 is not defined
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}

func valuePtr(v common.Value) *common.Value {
	return &v
}
