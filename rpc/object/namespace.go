package object

import (
	"fmt"
	"sort"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Namespace is the allow-list of entry points a server exposes. Only
// explicitly registered names are resolvable; nothing else on the server is
// reachable through the protocol.
type Namespace struct {
	entries *xsync.MapOf[string, any]
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		entries: xsync.NewMapOf[string, any](),
	}
}

// Register exposes an object under the given entry-point name. Registering
// an existing name replaces the earlier object. Safe for concurrent use,
// including while the server is running.
func (n *Namespace) Register(name string, obj any) {
	n.entries.Store(name, obj)
}

// Resolve looks up a single entry-point name.
func (n *Namespace) Resolve(name string) (any, error) {
	obj, ok := n.entries.Load(name)
	if !ok {
		return nil, fmt.Errorf("no entry point %q", name)
	}
	return obj, nil
}

// ResolvePath resolves a dotted path: the first segment against the
// namespace, every following segment as an attribute lookup.
func (n *Namespace) ResolvePath(path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("empty entry-point path")
	}

	segments := strings.Split(path, ".")
	obj, err := n.Resolve(segments[0])
	if err != nil {
		return nil, err
	}

	for _, segment := range segments[1:] {
		if obj, err = Attr(obj, segment); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// Names returns the sorted list of registered entry-point names.
func (n *Namespace) Names() []string {
	names := make([]string, 0, n.entries.Size())
	n.entries.Range(func(name string, _ any) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
