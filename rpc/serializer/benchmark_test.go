package serializer

import (
	"testing"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	largeList := make([]common.Value, 256)
	for i := range largeList {
		largeList[i] = common.IntValue(int64(i))
	}

	largeInts := make([]int64, 2048)
	for i := range largeInts {
		largeInts[i] = int64(i)
	}

	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"ResolveEntry": *common.NewResolveEntryRequest("math"),
		"GetAttr":      *common.NewGetAttrRequest(3, "math", "sqrt"),
		"SmallCall": *common.NewCallRequest(3, "math.sqrt",
			[]common.Value{common.FloatValue(2.0)},
			nil,
		),
		"KwargCall": *common.NewCallRequest(3, "math.pow",
			[]common.Value{common.IntValue(2)},
			map[string]common.Value{
				"exponent": common.IntValue(10),
				"rounded":  common.BoolValue(true),
			},
		),
		"NestedCall": *common.NewCallRequest(3, "builtins.sum",
			[]common.Value{
				common.ListValue(
					common.ListValue(common.IntValue(1), common.IntValue(2)),
					common.MapValue(map[string]common.Value{
						"ref": common.RefValue(42),
					}),
				),
			},
			nil,
		),
		"LargeListCall": *common.NewCallRequest(3, "builtins.sum",
			[]common.Value{common.ListValue(largeList...)},
			nil,
		),
		"GetItemRange": *common.NewGetItemRequest(9,
			common.RangeValue(common.NewRange(0, 128)),
		),
		"RefResponse": *common.NewRefResponse(13),
		"IntArrayResponse": *common.NewValueResponse(
			common.IntArrayValue(largeInts),
		),
		"BytesResponse": *common.NewValueResponse(
			common.BytesValue(make([]byte, 1024*16)), // 16KB of data
		),
		"ErrorResponse": *common.NewRemoteErrorResponse(
			"Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
			"in handler at line 3\nin dispatch at line 7",
		),
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
