package soap

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/araddon/dateparse"
	"github.com/camcima/camcima-soap-client/wire"
)

// MapOptions are the optional parameters of [Registry.MapResult].
type MapOptions struct {
	// Namespace is the type name prefix used to resolve elements that
	// have no class map entry. An element "Forecast" under namespace
	// "weather" resolves to the type registered as
	// "weather.Forecast".
	Namespace string
	// SkipRoot discards the root element name passed to MapResult,
	// and uses the first member of the tree as the root instead.
	SkipRoot bool
}

// MapResult maps tree into the types named by cm, and returns the
// value produced for the root element.
//
// The root element's content is the member of tree named root. If
// tree has no such member, tree itself is taken to be the root's
// content. With opts.SkipRoot, the first member of tree is the root
// element regardless of root.
//
// The returned value is a pointer to a new instance of the root's
// type for mapped elements, a [wire.Sequence] for ARRAY wrappers, or
// whatever [Registry.MapObject] produces for the root node.
func (r *Registry) MapResult(tree wire.Mapping, root string, cm ClassMap, opts MapOptions) (any, error) {
	var node wire.Value = tree
	rootMissing := false
	if opts.SkipRoot {
		first, ok := tree.First()
		if !ok {
			return nil, paramErr("tree", "cannot skip the root of an empty tree")
		}
		root, node = first.Key, first.Value
	} else {
		if root == "" {
			return nil, paramErr("rootElementName", "root element name is empty")
		}
		v, ok := tree.Get(root)
		if ok {
			node = v
		}
		rootMissing = !ok
	}
	ret, err := r.MapObject(node, root, cm, opts.Namespace)
	var cerr *InvalidClassMappingError
	if rootMissing && errors.As(err, &cerr) && cerr.Element == root && cerr.Property != "" {
		cerr.Reason += fmt.Sprintf(" (tree has no member %q, so the whole tree was mapped as its content)", root)
	}
	return ret, err
}

// MapResult is [Registry.MapResult] on [DefaultRegistry].
func MapResult(tree wire.Mapping, root string, cm ClassMap, opts MapOptions) (any, error) {
	return DefaultRegistry.MapResult(tree, root, cm, opts)
}

// MapResultAs is like [Registry.MapResult], but requires the root
// element to map to a *T.
func MapResultAs[T any](reg *Registry, tree wire.Mapping, root string, cm ClassMap, opts MapOptions) (*T, error) {
	v, err := reg.MapResult(tree, root, cm, opts)
	if err != nil {
		return nil, err
	}
	ret, ok := v.(*T)
	if !ok {
		return nil, &InvalidClassMappingError{
			Element: root,
			Type:    reflect.TypeFor[T]().String(),
			Reason:  fmt.Sprintf("root element mapped to %T", v),
		}
	}
	return ret, nil
}

// MapObject maps node, the content of the element named element,
// according to cm.
//
// Mappings become instances of the type resolved for element, unless
// cm marks element as an [Array] wrapper, in which case the
// wrapper's single member is returned as a [wire.Sequence]. The type
// is resolved from cm, failing that from namespace + "." + element.
// Each member of the mapping is assigned to the instance, through a
// method named "Set" + key if the type has one, otherwise to the
// field named key. Members whose values are Mappings or Sequences are
// mapped recursively first, using their key as element name.
//
// Sequences whose element has an [ArrayKey] entry in cm are mapped
// item by item into a []any. Other sequences, and Scalars, are
// returned unchanged.
func (r *Registry) MapObject(node wire.Value, element string, cm ClassMap, namespace string) (any, error) {
	switch n := node.(type) {
	case nil:
		return nil, nil
	case wire.Mapping:
		if e, ok := cm.Lookup(element); ok && e.IsArray() {
			return unwrapArray(n, element)
		}
		return r.mapStruct(n, element, cm, namespace)
	case wire.Sequence:
		key := ArrayKey(element)
		if _, ok := cm.Lookup(key); !ok {
			return n, nil
		}
		ret := make([]any, 0, len(n))
		for _, item := range n {
			v, err := r.MapObject(item, key, cm, namespace)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil
	case wire.Scalar:
		return n, nil
	default:
		return nil, &InvalidClassMappingError{Element: element, Reason: fmt.Sprintf("unknown wire value %T", node)}
	}
}

// unwrapArray returns the content of an ARRAY wrapper element as a
// sequence.
func unwrapArray(n wire.Mapping, element string) (wire.Sequence, error) {
	if n.Len() != 1 {
		return nil, &InvalidClassMappingError{
			Element: element,
			Type:    Array.String(),
			Reason:  fmt.Sprintf("array wrapper has %d members, want exactly 1", n.Len()),
		}
	}
	switch v := n[0].Value.(type) {
	case nil:
		return wire.Sequence{}, nil
	case wire.Sequence:
		return v, nil
	default:
		return wire.Sequence{v}, nil
	}
}

// resolveType returns the name of the type that element maps to.
func resolveType(element string, cm ClassMap, namespace string) (string, error) {
	if e, ok := cm.Lookup(element); ok {
		return e.TypeName(), nil
	}
	if namespace != "" {
		return namespacedName(namespace, element), nil
	}
	return "", &MissingClassMappingError{Element: element}
}

func (r *Registry) mapStruct(n wire.Mapping, element string, cm ClassMap, namespace string) (any, error) {
	typeName, err := resolveType(element, cm, namespace)
	if err != nil {
		return nil, err
	}
	t, ok := r.Lookup(typeName)
	if !ok {
		return nil, &InvalidClassMappingError{Element: element, Type: typeName, Reason: "type does not exist"}
	}
	desc, err := Describe(t)
	if err != nil {
		return nil, &InvalidClassMappingError{Element: element, Type: typeName, Reason: "cannot introspect type", Err: err}
	}

	ptr := reflect.New(t)
	for key, val := range n.All() {
		if val == nil {
			continue
		}
		var mapped any = val
		switch val.(type) {
		case wire.Mapping, wire.Sequence:
			if mapped, err = r.MapObject(val, key, cm, namespace); err != nil {
				return nil, err
			}
		}

		propErr := func(reason string, err error) error {
			return &InvalidClassMappingError{
				Element:  element,
				Type:     typeName,
				Property: key,
				Reason:   reason,
				Err:      err,
			}
		}

		if s, ok := desc.Setter(key); ok {
			if err := callSetter(ptr, s, mapped); err != nil {
				return nil, propErr(fmt.Sprintf("calling %s", s.Method), err)
			}
			continue
		}
		if f, ok := desc.field(key); ok {
			if err := assign(f.GetWithAlloc(ptr.Elem()), mapped); err != nil {
				return nil, propErr(fmt.Sprintf("assigning field %s", f.GoName), err)
			}
			continue
		}
		return nil, propErr("property does not exist", nil)
	}
	return ptr.Interface(), nil
}

// errWrongArgCount is the error for setters that don't take exactly
// one argument.
type errWrongArgCount struct {
	method string
	n      int
}

func (e errWrongArgCount) Error() string {
	if e.n < 0 {
		return fmt.Sprintf("wrong argument count: %s is variadic", e.method)
	}
	return fmt.Sprintf("wrong argument count: %s takes %d arguments, want 1", e.method, e.n)
}

// callSetter calls the setter s on ptr with v, converting v to the
// setter's parameter type.
func callSetter(ptr reflect.Value, s *Setter, v any) error {
	if s.NumParams != 1 {
		return errWrongArgCount{s.Method, s.NumParams}
	}

	arg := reflect.New(s.ParamType).Elem()
	if s.IsDate {
		if isEmptyScalar(v) {
			// Null stand-in, pass the zero time or a nil pointer.
			return s.call(ptr, arg)
		}
		t, err := parseDate(v)
		if err != nil {
			return err
		}
		if s.ParamType.Kind() == reflect.Pointer {
			arg.Set(reflect.ValueOf(&t))
		} else {
			arg.Set(reflect.ValueOf(t))
		}
	} else if err := assign(arg, v); err != nil {
		return err
	}

	return s.call(ptr, arg)
}

func (s *Setter) call(ptr, arg reflect.Value) error {
	if err := allocEmbedded(ptr.Elem(), s.embed); err != nil {
		return err
	}
	out := ptr.MethodByName(s.Method).Call([]reflect.Value{arg})
	if s.returnsErr {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}

func isEmptyScalar(v any) bool {
	switch d := v.(type) {
	case wire.Scalar:
		return d == ""
	case string:
		return d == ""
	}
	return false
}

// parseDate parses the date in v, which must be a scalar.
func parseDate(v any) (time.Time, error) {
	var s string
	switch d := v.(type) {
	case wire.Scalar:
		s = string(d)
	case string:
		s = d
	case time.Time:
		return d, nil
	default:
		return time.Time{}, fmt.Errorf("cannot parse %s as a date", describeValue(v))
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}
