package soap

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creachadair/mds/mapset"
)

// A Setter describes a method of a type that the deserializer can use
// to assign a response member. Setters are methods named "Set"
// followed by the member name.
type Setter struct {
	// Method is the Go method name, for example "SetDate".
	Method string
	// NumParams is the number of parameters the method takes, not
	// counting the receiver. Only setters with exactly one parameter
	// are usable.
	NumParams int
	// ParamType is the declared type of the single parameter, or nil
	// if NumParams is not 1.
	ParamType reflect.Type
	// IsDate reports whether ParamType is time.Time or a pointer to
	// it. Scalar values are parsed into a time before calling such
	// setters.
	IsDate bool

	returnsErr bool
	// embed is the index path of the embedded fields the method is
	// promoted through, empty if the type declares it.
	embed []int
}

// ParamTypeName returns the name of the setter's parameter type, or
// "" if the setter doesn't take exactly one parameter.
func (s *Setter) ParamTypeName() string {
	if s.ParamType == nil {
		return ""
	}
	return s.ParamType.String()
}

// structField is the information about a struct field that the
// serializer and deserializer read and write.
type structField struct {
	// Name is the field's name in the wire tree.
	Name string
	// GoName is the Go name of the field.
	GoName string
	Index  [][]int
	Type   reflect.Type
}

// GetWithZero loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithZero returns a non-settable zero value of the field.
func (f *structField) GetWithZero(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				return reflect.Zero(f.Type)
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// GetWithAlloc loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithAlloc allocates zero values appropriately. The returned
// [reflect.Value] is settable.
func (f *structField) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

func (f *structField) String() string {
	return fmt.Sprintf("%s (%s): %s at %v", f.Name, f.GoName, f.Type, f.Index)
}

// TypeDescriptor is what the deserializer knows about a target type:
// the names of its fields in the wire tree and its setter methods.
type TypeDescriptor struct {
	// Name is the type's name, for use in diagnostics.
	Name string
	// Type is the described struct type.
	Type reflect.Type
	// Fields is the set of wire names of the type's fields.
	Fields mapset.Set[string]
	// Setters are the type's setter methods, keyed by lower-cased
	// method name.
	Setters map[string]*Setter

	fields  []*structField
	byName  map[string]*structField
	byLower map[string][]*structField
}

// Setter returns the setter for the response member key, if the type
// has one. Method names are matched case-insensitively, so a member
// "success" finds a method SetSuccess.
func (d *TypeDescriptor) Setter(key string) (*Setter, bool) {
	s, ok := d.Setters["set"+strings.ToLower(key)]
	return s, ok
}

// field returns the field for the response member key. An exact wire
// name match wins, failing that a single case-insensitive match is
// used.
func (d *TypeDescriptor) field(key string) (*structField, bool) {
	if f, ok := d.byName[key]; ok {
		return f, true
	}
	if fs := d.byLower[strings.ToLower(key)]; len(fs) == 1 {
		return fs[0], true
	}
	return nil, false
}

// Field returns the Go name of the field that the response member
// key assigns to.
func (d *TypeDescriptor) Field(key string) (goName string, ok bool) {
	f, ok := d.field(key)
	if !ok {
		return "", false
	}
	return f.GoName, true
}

// HasField reports whether key names a field of the type.
func (d *TypeDescriptor) HasField(key string) bool {
	_, ok := d.field(key)
	return ok
}

func (d *TypeDescriptor) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s, fields:\n", d.Name)
	for _, f := range d.fields {
		ret.WriteString("  ")
		ret.WriteString(f.String())
		ret.WriteByte('\n')
	}
	for _, s := range d.Setters {
		fmt.Fprintf(&ret, "  %s(%s)\n", s.Method, s.ParamTypeName())
	}
	return ret.String()
}

var descriptors cache[*TypeDescriptor]

// Describe returns the TypeDescriptor of t, which must be a struct
// type or a pointer to one.
func Describe(t reflect.Type) (*TypeDescriptor, error) {
	if t == nil {
		return nil, typeErr(nil, "cannot describe nil type")
	}
	return descriptors.Get(derefType(t), newTypeDescriptor)
}

func newTypeDescriptor(t reflect.Type) (*TypeDescriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, typeErr(t, "not a struct type")
	}

	ret := &TypeDescriptor{
		Name:    t.String(),
		Type:    t,
		Fields:  mapset.New[string](),
		Setters: map[string]*Setter{},
		byName:  map[string]*structField{},
		byLower: map[string][]*structField{},
	}

	for _, field := range reflect.VisibleFields(t) {
		if field.Anonymous && derefType(field.Type).Kind() == reflect.Struct {
			continue
		}
		if !field.IsExported() || viaUnexportedPointer(t, field.Index) {
			continue
		}
		name, skip := parseStructTag(field)
		if skip {
			continue
		}
		if ret.Fields.Has(name) {
			return nil, typeErr(t, "duplicate wire name %q on field %s", name, field.Name)
		}
		f := &structField{
			Name:   name,
			GoName: field.Name,
			Index:  allocSteps(t, field.Index),
			Type:   field.Type,
		}
		ret.Fields.Add(name)
		ret.fields = append(ret.fields, f)
		ret.byName[name] = f
		lower := strings.ToLower(name)
		ret.byLower[lower] = append(ret.byLower[lower], f)
	}

	pt := reflect.PointerTo(t)
	for i := range pt.NumMethod() {
		m := pt.Method(i)
		if len(m.Name) <= len("Set") || !strings.HasPrefix(m.Name, "Set") {
			continue
		}
		key := strings.ToLower(m.Name)
		if _, dup := ret.Setters[key]; dup {
			continue
		}
		// m.Type includes the receiver as its first parameter.
		s := &Setter{
			Method:    m.Name,
			NumParams: m.Type.NumIn() - 1,
			embed:     promotionPath(t, m.Name),
		}
		if m.Type.IsVariadic() {
			s.NumParams = -1
		}
		if s.NumParams == 1 {
			s.ParamType = m.Type.In(1)
			s.IsDate = derefType(s.ParamType) == timeType
		}
		if n := m.Type.NumOut(); n > 0 && m.Type.Out(n-1) == errorType {
			s.returnsErr = true
		}
		ret.Setters[key] = s
	}

	return ret, nil
}

// viaUnexportedPointer reports whether the field at idx is reached
// through an unexported embedded struct pointer. Such fields can be
// neither allocated nor read through reflection.
func viaUnexportedPointer(t reflect.Type, idx []int) bool {
	for _, i := range idx[:len(idx)-1] {
		f := t.Field(i)
		if !f.IsExported() && f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = derefType(f.Type)
	}
	return false
}

// promotionPath returns the index path of the embedded fields that
// the method name of *t is promoted through.
func promotionPath(t reflect.Type, name string) []int {
	var ret []int
	seen := mapset.New(t)
	for {
		next := -1
		for i := range t.NumField() {
			f := t.Field(i)
			et := derefType(f.Type)
			if !f.Anonymous || et.Kind() != reflect.Struct || seen.Has(et) {
				continue
			}
			if _, ok := reflect.PointerTo(et).MethodByName(name); ok {
				next = i
				break
			}
		}
		if next < 0 {
			return ret
		}
		ret = append(ret, next)
		t = derefType(t.Field(next).Type)
		seen.Add(t)
	}
}

// allocEmbedded allocates the nil embedded struct pointers on path,
// so that a method promoted through them has a receiver.
func allocEmbedded(structVal reflect.Value, path []int) error {
	v := structVal
	for i, idx := range path {
		v = v.Field(idx)
		if v.Kind() != reflect.Pointer {
			continue
		}
		if v.IsNil() {
			if !v.CanSet() {
				return fmt.Errorf("embedded %s is a nil pointer to an unexported type", structVal.Type().FieldByIndex(path[:i+1]).Name)
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	}
	return nil
}

// parseStructTag returns the wire name of field, and whether the
// field is excluded from marshaling with `soap:"-"`.
func parseStructTag(field reflect.StructField) (name string, skip bool) {
	tag, ok := field.Tag.Lookup("soap")
	if !ok {
		return field.Name, false
	}
	name, _, _ = strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	if name == "" {
		name = field.Name
	}
	return name, false
}
