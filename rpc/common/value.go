package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Wire Value Domain
// --------------------------------------------------------------------------

// ValueKind identifies the concrete type carried by a Value.
type ValueKind uint8

const (
	// KindNil is the zero value, so an empty Value is the nil value.

	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindIntArray
	KindFloatArray

	// Wire markers - these never survive into a materialized value.

	KindReference // stands in for a server-side object (see Value.Ref)
	KindRange     // range-slice descriptor used as an indexing key
)

// String returns the string representation of a ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindIntArray:
		return "int_array"
	case KindFloatArray:
		return "float_array"
	case KindReference:
		return "reference"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for ValueKind.
// This allows ValueKind to be serialized as a string in JSON.
func (k ValueKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for ValueKind.
func (k *ValueKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "nil":
		*k = KindNil
	case "bool":
		*k = KindBool
	case "int":
		*k = KindInt
	case "float":
		*k = KindFloat
	case "string":
		*k = KindString
	case "bytes":
		*k = KindBytes
	case "list":
		*k = KindList
	case "map":
		*k = KindMap
	case "int_array":
		*k = KindIntArray
	case "float_array":
		*k = KindFloatArray
	case "reference":
		*k = KindReference
	case "range":
		*k = KindRange
	default:
		return fmt.Errorf("unknown value kind: %s", s)
	}

	return nil
}

// Value is the structured wire representation of a runtime value. Exactly one
// field (selected by Kind) is meaningful; all others stay at their zero value
// so the struct serializes compactly with every codec.
type Value struct {
	Kind   ValueKind        `json:"kind,omitempty"`
	Bool   bool             `json:"bool,omitempty"`
	Int    int64            `json:"int,omitempty"`
	Float  float64          `json:"float,omitempty"`
	Str    string           `json:"str,omitempty"`
	Bytes  []byte           `json:"bytes,omitempty"`
	List   []Value          `json:"list,omitempty"`
	Map    map[string]Value `json:"map,omitempty"`
	Ints   []int64          `json:"ints,omitempty"`
	Floats []float64        `json:"floats,omitempty"`
	Ref    uint64           `json:"ref,omitempty"`
	Range  *Range           `json:"range,omitempty"`
}

// Range is a range-slice descriptor. Nil bounds keep the open-ended
// semantics of the originating slice expression (e.g. v[2:] has no stop).
// A nil step means step 1.
type Range struct {
	Start *int64 `json:"start,omitempty"`
	Stop  *int64 `json:"stop,omitempty"`
	Step  *int64 `json:"step,omitempty"`
}

// Bound is a convenience helper for building Range literals.
func Bound(i int64) *int64 {
	return &i
}

// NewRange creates a range-slice descriptor with the given start and stop
// bounds and step 1.
func NewRange(start, stop int64) *Range {
	return &Range{Start: &start, Stop: &stop}
}

// String returns the slice-expression form of the range, e.g. "1:5" or "::2".
func (r *Range) String() string {
	fmtBound := func(b *int64) string {
		if b == nil {
			return ""
		}
		return fmt.Sprintf("%d", *b)
	}
	s := fmtBound(r.Start) + ":" + fmtBound(r.Stop)
	if r.Step != nil {
		s += ":" + fmtBound(r.Step)
	}
	return s
}

// --------------------------------------------------------------------------
// Value Factory Functions
// --------------------------------------------------------------------------

// NilValue creates the nil wire value.
func NilValue() Value { return Value{} }

// BoolValue creates a boolean wire value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue creates an integer wire value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue creates a floating point wire value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// StringValue creates a string wire value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// BytesValue creates a byte buffer wire value.
func BytesValue(b []byte) Value {
	if len(b) == 0 {
		b = nil
	}
	return Value{Kind: KindBytes, Bytes: b}
}

// ListValue creates an ordered sequence wire value.
func ListValue(items ...Value) Value {
	if len(items) == 0 {
		items = nil
	}
	return Value{Kind: KindList, List: items}
}

// MapValue creates a key-value mapping wire value.
func MapValue(m map[string]Value) Value {
	if len(m) == 0 {
		m = nil
	}
	return Value{Kind: KindMap, Map: m}
}

// IntArrayValue creates a numeric integer array wire value.
func IntArrayValue(a []int64) Value {
	if len(a) == 0 {
		a = nil
	}
	return Value{Kind: KindIntArray, Ints: a}
}

// FloatArrayValue creates a numeric float array wire value.
func FloatArrayValue(a []float64) Value {
	if len(a) == 0 {
		a = nil
	}
	return Value{Kind: KindFloatArray, Floats: a}
}

// RefValue creates a reference marker for a server-side object id.
func RefValue(id uint64) Value { return Value{Kind: KindReference, Ref: id} }

// RangeValue creates a range-slice marker.
func RangeValue(r *Range) Value { return Value{Kind: KindRange, Range: r} }

// --------------------------------------------------------------------------
// Go <-> Wire Conversion
// --------------------------------------------------------------------------

// ValueOf converts a Go runtime value into its wire representation. It
// accepts primitives, ordered sequences ([]any), string-keyed mappings,
// byte buffers, numeric arrays and nested combinations thereof. Any other
// type is a serialization fault.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NilValue(), nil
	case Value:
		return x, nil
	case bool:
		return BoolValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int8:
		return IntValue(int64(x)), nil
	case int16:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint:
		return IntValue(int64(x)), nil
	case uint8:
		return IntValue(int64(x)), nil
	case uint16:
		return IntValue(int64(x)), nil
	case uint32:
		return IntValue(int64(x)), nil
	case uint64:
		if x > 1<<63-1 {
			return Value{}, fmt.Errorf("uint64 value %d overflows the wire integer type", x)
		}
		return IntValue(int64(x)), nil
	case float32:
		return FloatValue(float64(x)), nil
	case float64:
		return FloatValue(x), nil
	case string:
		return StringValue(x), nil
	case []byte:
		return BytesValue(x), nil
	case []int64:
		return IntArrayValue(x), nil
	case []int:
		a := make([]int64, len(x))
		for i, n := range x {
			a[i] = int64(n)
		}
		return IntArrayValue(a), nil
	case []float64:
		return FloatArrayValue(x), nil
	case *Range:
		return RangeValue(x), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return ListValue(items...), nil
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			converted, err := ValueOf(item)
			if err != nil {
				return Value{}, err
			}
			m[k] = converted
		}
		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("value of type %T is not serializable", v)
	}
}

// Interface converts a wire value back into its Go runtime form. Reference
// markers are resolved through resolveRef; passing nil faults on any
// reference marker, which is the correct behavior everywhere except the
// server-side argument decoding step.
func (v Value) Interface(resolveRef func(id uint64) (any, error)) (any, error) {
	switch v.Kind {
	case KindNil:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindInt:
		return v.Int, nil
	case KindFloat:
		return v.Float, nil
	case KindString:
		return v.Str, nil
	case KindBytes:
		return v.Bytes, nil
	case KindList:
		items := make([]any, len(v.List))
		for i, item := range v.List {
			converted, err := item.Interface(resolveRef)
			if err != nil {
				return nil, err
			}
			items[i] = converted
		}
		return items, nil
	case KindMap:
		m := make(map[string]any, len(v.Map))
		for k, item := range v.Map {
			converted, err := item.Interface(resolveRef)
			if err != nil {
				return nil, err
			}
			m[k] = converted
		}
		return m, nil
	case KindIntArray:
		return v.Ints, nil
	case KindFloatArray:
		return v.Floats, nil
	case KindReference:
		if resolveRef == nil {
			return nil, fmt.Errorf("unexpected reference marker (id %d) in value", v.Ref)
		}
		return resolveRef(v.Ref)
	case KindRange:
		if v.Range == nil {
			return nil, fmt.Errorf("range marker without a range descriptor")
		}
		return v.Range, nil
	default:
		return nil, fmt.Errorf("unknown value kind: %d", v.Kind)
	}
}
