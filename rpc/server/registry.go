package server

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// ObjectRegistry holds every object a single connection has referenced.
// Ids are handed out monotonically starting at 1; id 0 is never issued so
// the wire protocol can use it as "absent". Each registered object gets a
// fresh id even if the same object is registered twice.
type ObjectRegistry struct {
	objects *xsync.MapOf[uint64, any]
	nextID  atomic.Uint64
}

// NewObjectRegistry creates an empty registry.
func NewObjectRegistry() *ObjectRegistry {
	return &ObjectRegistry{
		objects: xsync.NewMapOf[uint64, any](),
	}
}

// Store registers an object and returns its new reference id.
func (r *ObjectRegistry) Store(obj any) uint64 {
	id := r.nextID.Add(1)
	r.objects.Store(id, obj)
	return id
}

// Resolve returns the object behind a reference id.
func (r *ObjectRegistry) Resolve(id uint64) (any, error) {
	obj, ok := r.objects.Load(id)
	if !ok {
		return nil, fmt.Errorf("no such reference: %d", id)
	}
	return obj, nil
}

// Release drops a reference id. Releasing an unknown id is an error so
// client-side double releases are visible.
func (r *ObjectRegistry) Release(id uint64) error {
	if _, ok := r.objects.LoadAndDelete(id); !ok {
		return fmt.Errorf("no such reference: %d", id)
	}
	return nil
}

// Size returns the number of live references.
func (r *ObjectRegistry) Size() int {
	return r.objects.Size()
}

// Clear drops all references. Issued ids are not reused afterwards.
func (r *ObjectRegistry) Clear() {
	r.objects.Clear()
}
