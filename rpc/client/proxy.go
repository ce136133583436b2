package client

import (
	"fmt"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
)

// Ref is a lazy reference to an object living on the server. Operations on
// it return further references without moving any values; only Materialize
// pulls data across the wire.
//
// A Ref is only meaningful on the connection that issued it.
type Ref struct {
	conn *Connection
	id   uint64
	path string // Display path, best effort
}

// ID returns the server-side reference id.
func (r *Ref) ID() uint64 {
	return r.id
}

// String returns a diagnostic representation. It never contacts the server.
func (r *Ref) String() string {
	return fmt.Sprintf("<Ref %s (id=%d)>", r.path, r.id)
}

// Attr returns a reference to a named attribute of the referenced object.
func (r *Ref) Attr(name string) (*Ref, error) {
	resp, err := r.conn.invoke(common.NewGetAttrRequest(r.id, r.path, name))
	if err != nil {
		return nil, err
	}
	return &Ref{conn: r.conn, id: resp.Ref, path: r.path + "." + name}, nil
}

// Call invokes the referenced callable with positional arguments and
// returns a reference to the result. Arguments may be Go primitives,
// []any, string-keyed maps, *common.Range values or other Refs from the
// same connection; Refs are passed by reference and never materialized.
func (r *Ref) Call(args ...any) (*Ref, error) {
	return r.CallKw(args, nil)
}

// CallKw invokes the referenced callable with positional and named
// arguments.
func (r *Ref) CallKw(args []any, kwargs map[string]any) (*Ref, error) {
	wireArgs := make([]common.Value, len(args))
	for i, a := range args {
		v, err := r.encodeArg(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		wireArgs[i] = v
	}

	var wireKwargs map[string]common.Value
	if len(kwargs) > 0 {
		wireKwargs = make(map[string]common.Value, len(kwargs))
		for k, a := range kwargs {
			v, err := r.encodeArg(a)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", k, err)
			}
			wireKwargs[k] = v
		}
	}

	resp, err := r.conn.invoke(common.NewCallRequest(r.id, r.path, wireArgs, wireKwargs))
	if err != nil {
		return nil, err
	}
	return &Ref{conn: r.conn, id: resp.Ref, path: r.path + "()"}, nil
}

// Index returns a reference to an item of the referenced object. The key is
// an integer (negative counts from the end), a string for mappings, or a
// *common.Range for slice access.
func (r *Ref) Index(key any) (*Ref, error) {
	wireKey, err := r.encodeArg(key)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}

	resp, err := r.conn.invoke(common.NewGetItemRequest(r.id, wireKey))
	if err != nil {
		return nil, err
	}
	return &Ref{conn: r.conn, id: resp.Ref, path: fmt.Sprintf("%s[%s]", r.path, formatKey(key))}, nil
}

// Materialize fetches the complete value behind the reference. It fails if
// the value is not serializable (modules, callables); the reference itself
// stays valid in that case.
func (r *Ref) Materialize() (any, error) {
	resp, err := r.conn.invoke(common.NewMaterializeRequest(r.id))
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("materialize response without a value")
	}
	return resp.Value.Interface(nil)
}

// Release drops the server-side reference. The Ref must not be used
// afterwards. Most code never needs this: closing the connection releases
// everything at once. It exists for long-lived connections that create
// references in bulk.
func (r *Ref) Release() error {
	_, err := r.conn.invoke(common.NewReleaseRequest(r.id))
	return err
}

// --------------------------------------------------------------------------
// Argument Encoding
// --------------------------------------------------------------------------

// encodeArg converts a Go argument into its wire form. Refs become
// reference markers, ranges become range markers, collections are walked
// recursively so markers nest anywhere.
func (r *Ref) encodeArg(v any) (common.Value, error) {
	switch x := v.(type) {
	case *Ref:
		if x.conn != r.conn {
			return common.Value{}, fmt.Errorf("reference %s belongs to a different connection", x)
		}
		return common.RefValue(x.id), nil
	case *common.Range:
		return common.RangeValue(x), nil
	case []any:
		items := make([]common.Value, len(x))
		for i, item := range x {
			converted, err := r.encodeArg(item)
			if err != nil {
				return common.Value{}, err
			}
			items[i] = converted
		}
		return common.ListValue(items...), nil
	case map[string]any:
		m := make(map[string]common.Value, len(x))
		for k, item := range x {
			converted, err := r.encodeArg(item)
			if err != nil {
				return common.Value{}, err
			}
			m[k] = converted
		}
		return common.MapValue(m), nil
	default:
		return common.ValueOf(v)
	}
}

// formatKey renders an index key for the display path.
func formatKey(key any) string {
	switch x := key.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case *common.Range:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// IsRef reports whether a value is a lazy reference.
func IsRef(v any) bool {
	_, ok := v.(*Ref)
	return ok
}
