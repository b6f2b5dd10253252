package soap

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// A Registry resolves the type names used in class maps to Go types.
//
// Types are usually registered once at program start, typically from
// init functions. A Registry is safe for concurrent use, and
// lookups never block each other.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]reflect.Type{}}
}

// DefaultRegistry is the Registry used by the package-level
// [Register] and [MapResult] functions.
var DefaultRegistry = NewRegistry()

// Register adds the type of proto to the registry under name. proto
// may be a struct value or a pointer to one. If name is empty, the
// type's qualified Go name is used, for example
// "weather.ForecastEntry".
//
// Registering a different type under an existing name is an error.
func (r *Registry) Register(name string, proto any) error {
	if proto == nil {
		return paramErr("proto", "cannot register nil")
	}
	t := derefType(reflect.TypeOf(proto))
	if t.Kind() != reflect.Struct {
		return paramErr("proto", "%s is not a struct type", t)
	}
	if _, err := Describe(t); err != nil {
		return err
	}
	if name == "" {
		name = t.String()
	}
	name = normalizeTypeName(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.types == nil {
		r.types = map[string]reflect.Type{}
	}
	if prev, ok := r.types[name]; ok && prev != t {
		return fmt.Errorf("type name %q already registered to %s", name, prev)
	}
	r.types[name] = t
	return nil
}

// MustRegister is like [Registry.Register], but panics on error.
func (r *Registry) MustRegister(name string, proto any) {
	if err := r.Register(name, proto); err != nil {
		panic(err)
	}
}

// RegisterType adds T to reg under name. See [Registry.Register].
func RegisterType[T any](reg *Registry, name string) error {
	var zero T
	return reg.Register(name, &zero)
}

// Register adds the type of proto to [DefaultRegistry]. See
// [Registry.Register].
func Register(name string, proto any) error {
	return DefaultRegistry.Register(name, proto)
}

// MustRegister adds the type of proto to [DefaultRegistry], and panics
// on error.
func MustRegister(name string, proto any) {
	DefaultRegistry.MustRegister(name, proto)
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	name = normalizeTypeName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Describe returns the TypeDescriptor of the type registered under
// name.
func (r *Registry) Describe(name string) (*TypeDescriptor, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, &InvalidClassMappingError{Type: name, Reason: "type is not registered"}
	}
	return Describe(t)
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.types))
}

// normalizeTypeName trims surrounding whitespace and a leading
// namespace separator from a type name.
func normalizeTypeName(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), ".")
}

// namespacedName joins a namespace and an element name into a type
// name.
func namespacedName(namespace, element string) string {
	return strings.TrimRight(namespace, ".") + "." + element
}

// simpleTypeName returns the name of t without its package
// qualifier.
func simpleTypeName(t reflect.Type) string {
	if n := t.Name(); n != "" {
		// Generic instantiations carry their type arguments in the
		// name, which are not valid element names.
		n, _, _ = strings.Cut(n, "[")
		return n
	}
	s := t.String()
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}
