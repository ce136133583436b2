package object

import (
	"fmt"
	"strings"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
)

// --------------------------------------------------------------------------
// Exposed Object Contracts
// --------------------------------------------------------------------------

// Func adapts a plain function into a callable object. Positional arguments
// arrive in order, named arguments by name; either may be empty.
type Func func(args []any, kwargs map[string]any) (any, error)

// Attributer is implemented by objects that expose named attributes.
type Attributer interface {
	Attribute(name string) (any, error)
}

// Caller is implemented by objects that can be invoked.
type Caller interface {
	Call(args []any, kwargs map[string]any) (any, error)
}

// Indexer is implemented by objects that support item access. The key is
// either a scalar, a string or a *common.Range for slice access.
type Indexer interface {
	Item(key any) (any, error)
}

// --------------------------------------------------------------------------
// Module
// --------------------------------------------------------------------------

// Module is a named, immutable-after-setup collection of attributes. It is
// the standard building block for everything a server exposes.
type Module struct {
	name  string
	attrs map[string]any
}

// NewModule creates an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{
		name:  name,
		attrs: map[string]any{},
	}
}

// Define adds an attribute to the module and returns the module for
// chaining. Defining the same name twice overwrites the earlier value.
func (m *Module) Define(name string, v any) *Module {
	m.attrs[name] = v
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Attribute implements Attributer.
func (m *Module) Attribute(name string) (any, error) {
	v, ok := m.attrs[name]
	if !ok {
		return nil, fmt.Errorf("module %q has no attribute %q", m.name, name)
	}
	return v, nil
}

// Attributes returns the defined attribute names in no particular order.
func (m *Module) Attributes() []string {
	names := make([]string, 0, len(m.attrs))
	for name := range m.attrs {
		names = append(names, name)
	}
	return names
}

// String returns a short diagnostic representation of the module.
func (m *Module) String() string {
	return fmt.Sprintf("<module %s (%d attributes)>", m.name, len(m.attrs))
}

// --------------------------------------------------------------------------
// Generic Object Operations
// --------------------------------------------------------------------------

// Attr looks up a named attribute on an object. Objects implementing
// Attributer serve the lookup themselves; string-keyed maps expose their
// entries as attributes. Everything else has no attributes.
func Attr(obj any, name string) (any, error) {
	switch x := obj.(type) {
	case Attributer:
		return x.Attribute(name)
	case map[string]any:
		v, ok := x[name]
		if !ok {
			return nil, fmt.Errorf("no attribute %q", name)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("object of type %T has no attributes", obj)
	}
}

// Call invokes a callable object with positional and named arguments.
func Call(obj any, args []any, kwargs map[string]any) (any, error) {
	switch x := obj.(type) {
	case Caller:
		return x.Call(args, kwargs)
	case Func:
		return x(args, kwargs)
	case func(args []any, kwargs map[string]any) (any, error):
		return x(args, kwargs)
	default:
		return nil, fmt.Errorf("object of type %T is not callable", obj)
	}
}

// Index accesses an item of an object. Sequences accept integer keys
// (negative counts from the end) and *common.Range keys for slice access;
// string-keyed maps accept string keys; Indexer implementations serve the
// access themselves.
func Index(obj any, key any) (any, error) {
	if x, ok := obj.(Indexer); ok {
		return x.Item(key)
	}

	if r, ok := key.(*common.Range); ok {
		return slice(obj, r)
	}

	switch x := obj.(type) {
	case map[string]any:
		s, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("map key must be a string, got %T", key)
		}
		v, ok := x[s]
		if !ok {
			return nil, fmt.Errorf("no entry for key %q", s)
		}
		return v, nil
	case []any:
		i, err := seqIndex(key, len(x))
		if err != nil {
			return nil, err
		}
		return x[i], nil
	case []int64:
		i, err := seqIndex(key, len(x))
		if err != nil {
			return nil, err
		}
		return x[i], nil
	case []float64:
		i, err := seqIndex(key, len(x))
		if err != nil {
			return nil, err
		}
		return x[i], nil
	case []byte:
		i, err := seqIndex(key, len(x))
		if err != nil {
			return nil, err
		}
		return int64(x[i]), nil
	case string:
		i, err := seqIndex(key, len(x))
		if err != nil {
			return nil, err
		}
		return x[i : i+1], nil
	default:
		return nil, fmt.Errorf("object of type %T is not indexable", obj)
	}
}

// slice applies a range key to a sequence. String slicing is byte-wise.
func slice(obj any, r *common.Range) (any, error) {
	switch x := obj.(type) {
	case []any:
		idx, err := rangeIndices(r, len(x))
		if err != nil {
			return nil, err
		}
		out := make([]any, len(idx))
		for i, j := range idx {
			out[i] = x[j]
		}
		return out, nil
	case []int64:
		idx, err := rangeIndices(r, len(x))
		if err != nil {
			return nil, err
		}
		out := make([]int64, len(idx))
		for i, j := range idx {
			out[i] = x[j]
		}
		return out, nil
	case []float64:
		idx, err := rangeIndices(r, len(x))
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = x[j]
		}
		return out, nil
	case []byte:
		idx, err := rangeIndices(r, len(x))
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(idx))
		for i, j := range idx {
			out[i] = x[j]
		}
		return out, nil
	case string:
		idx, err := rangeIndices(r, len(x))
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		b.Grow(len(idx))
		for _, j := range idx {
			b.WriteByte(x[j])
		}
		return b.String(), nil
	default:
		return nil, fmt.Errorf("object of type %T is not sliceable", obj)
	}
}

// seqIndex normalizes a scalar key into a valid sequence index. Negative
// indices count from the end.
func seqIndex(key any, length int) (int, error) {
	i, ok := key.(int64)
	if !ok {
		return 0, fmt.Errorf("sequence index must be an integer, got %T", key)
	}
	idx := i
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return 0, fmt.Errorf("index %d out of range for sequence of length %d", i, length)
	}
	return int(idx), nil
}

// rangeIndices resolves a range against a sequence length and returns the
// selected indices in iteration order. The semantics match slice
// expressions with an optional step: bounds are clamped, negative bounds
// count from the end, a negative step iterates backwards and a step of
// zero is a fault.
func rangeIndices(r *common.Range, length int) ([]int, error) {
	step := int64(1)
	if r.Step != nil {
		step = *r.Step
	}
	if step == 0 {
		return nil, fmt.Errorf("slice step cannot be zero")
	}

	// Defaults depend on the iteration direction
	var start, stop int64
	if step > 0 {
		start, stop = 0, int64(length)
	} else {
		start, stop = int64(length)-1, -1
	}

	clamp := func(b int64, low, high int64) int64 {
		if b < 0 {
			b += int64(length)
		}
		if b < low {
			return low
		}
		if b > high {
			return high
		}
		return b
	}

	if r.Start != nil {
		if step > 0 {
			start = clamp(*r.Start, 0, int64(length))
		} else {
			start = clamp(*r.Start, -1, int64(length)-1)
		}
	}
	if r.Stop != nil {
		if step > 0 {
			stop = clamp(*r.Stop, 0, int64(length))
		} else {
			stop = clamp(*r.Stop, -1, int64(length)-1)
		}
	}

	var idx []int
	if step > 0 {
		for i := start; i < stop; i += step {
			idx = append(idx, int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			idx = append(idx, int(i))
		}
	}
	return idx, nil
}
