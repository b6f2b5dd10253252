package soap

import (
	"cmp"
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/camcima/camcima-soap-client/wire"
)

// MappingConfig controls how [Serialize] shapes the wire tree.
type MappingConfig struct {
	// LowerCaseFirst lower-cases the first character of the root
	// element name.
	LowerCaseFirst bool
	// KeepNullProperties keeps null fields in the output as empty
	// scalars. If false, null fields are omitted.
	KeepNullProperties bool
}

// DefaultMappingConfig returns the configuration used when none is
// given: the root element name is kept as is, and null fields are
// kept.
func DefaultMappingConfig() MappingConfig {
	return MappingConfig{KeepNullProperties: true}
}

// Marshaler is the interface implemented by types that produce their
// own wire representation. MarshalWire may return a nil Value to
// signal a null.
type Marshaler interface {
	MarshalWire() (wire.Value, error)
}

var marshalerType = reflect.TypeFor[Marshaler]()

// Serialize returns the wire tree for v, which must be a struct or a
// non-nil pointer to one.
//
// The result is a single-member Mapping, whose key is the simple name
// of v's type (without package qualifier) and whose value holds v's
// fields in declaration order.
//
// Serialize traverses v recursively, using the following rules:
//
// Struct values become Mappings. Each exported field is stored under
// its name, or the name given by a `soap:"name"` tag. Fields tagged
// `soap:"-"` are skipped. Embedded struct fields are flattened into
// the outer struct, subject to the usual Go visibility rules.
//
// Slice and array values become Sequences. []byte values become a
// Scalar holding their base64 encoding.
//
// Map values become Mappings, with members sorted by key. Map keys
// must be of a basic kind.
//
// bool, integer, float and string values become Scalars holding their
// textual form. time.Time values are formatted with RFC 3339.
// Values implementing [Marshaler] or [encoding.TextMarshaler] supply
// their own representation.
//
// Nil pointers, interfaces, slices and maps are null. A null field is
// stored as an empty Scalar if cfg.KeepNullProperties is set, and
// omitted otherwise.
//
// Channel, function and complex values cannot be serialized, nor can
// cyclic pointer graphs. Attempting to serialize such values causes
// Serialize to return an [InvalidParameterError].
func Serialize(v any, cfg MappingConfig) (wire.Mapping, error) {
	if v == nil {
		return nil, paramErr("requestObject", "parameter is not an object")
	}
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, paramErr("requestObject", "parameter is a nil %s", val.Type())
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, paramErr("requestObject", "parameter is not an object, got %s", val.Type())
	}

	name := simpleTypeName(val.Type())
	if cfg.LowerCaseFirst {
		name = lowerFirst(name)
	}

	st := &encodeState{cfg: cfg, seen: map[seenKey]bool{}}
	enc, err := encoderFor(val.Type())
	if err != nil {
		return nil, err
	}
	body, err := enc(st, val)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = wire.Mapping{}
	}
	return wire.Mapping{{Key: name, Value: body}}, nil
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// encodeState is the state of one Serialize call.
type encodeState struct {
	cfg MappingConfig
	// seen are the pointers on the path from the root to the value
	// being encoded.
	seen map[seenKey]bool
}

type seenKey struct {
	ptr uintptr
	typ reflect.Type
}

// null returns the stand-in for a null member, or nil if the member
// is to be omitted.
func (st *encodeState) null() wire.Value {
	if st.cfg.KeepNullProperties {
		return wire.Scalar("")
	}
	return nil
}

// encoderFunc returns the wire form of v. A nil Value means v is null.
type encoderFunc func(st *encodeState, v reflect.Value) (wire.Value, error)

var encoders cache[encoderFunc]

func encoderFor(t reflect.Type) (encoderFunc, error) {
	return encoders.Get(t, deriveEncoder)
}

func deriveEncoder(t reflect.Type) (encoderFunc, error) {
	// Pointers to Marshalers are handled by the pointer encoder,
	// which then finds the implementation on the pointer type.
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(marshalerType) {
		return newCondAddrEncoder(t, marshalerType, marshalEncoder), nil
	} else if t.Implements(marshalerType) {
		return marshalEncoder, nil
	}
	if t.Implements(wireValueType) {
		return newWireValueEncoder(), nil
	}
	if t == timeType {
		return timeEncoder, nil
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textMarshalerType) {
		return newCondAddrEncoder(t, textMarshalerType, textEncoder), nil
	} else if t.Kind() != reflect.Pointer && t.Implements(textMarshalerType) {
		return textEncoder, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return newPtrEncoder(t), nil
	case reflect.Interface:
		return interfaceEncoder, nil
	case reflect.Bool:
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			return wire.Scalar(strconv.FormatBool(v.Bool())), nil
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			return wire.Scalar(strconv.FormatInt(v.Int(), 10)), nil
		}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			return wire.Scalar(strconv.FormatUint(v.Uint(), 10)), nil
		}, nil
	case reflect.Float32, reflect.Float64:
		bits := t.Bits()
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			return wire.Scalar(strconv.FormatFloat(v.Float(), 'f', -1, bits)), nil
		}, nil
	case reflect.String:
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			return wire.Scalar(v.String()), nil
		}, nil
	case reflect.Slice, reflect.Array:
		return newSliceEncoder(t)
	case reflect.Map:
		return newMapEncoder(t)
	case reflect.Struct:
		return newStructEncoder(t)
	}
	return nil, paramErr("requestObject", "values of type %s cannot be serialized", t)
}

// newCondAddrEncoder returns an encoder for a value type whose
// pointer implements iface. The value's address is used when it is
// addressable, otherwise the value is copied to make it so.
func newCondAddrEncoder(t reflect.Type, iface reflect.Type, enc encoderFunc) encoderFunc {
	if t.Implements(iface) {
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			if v.CanAddr() {
				return enc(st, v.Addr())
			}
			return enc(st, v)
		}
	}
	return func(st *encodeState, v reflect.Value) (wire.Value, error) {
		if !v.CanAddr() {
			cp := reflect.New(t)
			cp.Elem().Set(v)
			v = cp.Elem()
		}
		return enc(st, v.Addr())
	}
}

func marshalEncoder(st *encodeState, v reflect.Value) (wire.Value, error) {
	if isNil(v) {
		return nil, nil
	}
	ret, err := v.Interface().(Marshaler).MarshalWire()
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", v.Type(), err)
	}
	return ret, nil
}

func textEncoder(st *encodeState, v reflect.Value) (wire.Value, error) {
	if isNil(v) {
		return nil, nil
	}
	bs, err := v.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", v.Type(), err)
	}
	return wire.Scalar(bs), nil
}

func timeEncoder(st *encodeState, v reflect.Value) (wire.Value, error) {
	return wire.Scalar(v.Interface().(time.Time).Format(time.RFC3339Nano)), nil
}

func newWireValueEncoder() encoderFunc {
	return func(st *encodeState, v reflect.Value) (wire.Value, error) {
		if isNil(v) {
			return nil, nil
		}
		return v.Interface().(wire.Value), nil
	}
}

func interfaceEncoder(st *encodeState, v reflect.Value) (wire.Value, error) {
	if v.IsNil() {
		return nil, nil
	}
	elem := v.Elem()
	enc, err := encoderFor(elem.Type())
	if err != nil {
		return nil, err
	}
	return enc(st, elem)
}

func newPtrEncoder(t reflect.Type) encoderFunc {
	return func(st *encodeState, v reflect.Value) (wire.Value, error) {
		if v.IsNil() {
			return nil, nil
		}
		key := seenKey{v.Pointer(), t}
		if st.seen[key] {
			return nil, paramErr("requestObject", "cyclic reference through %s", t)
		}
		st.seen[key] = true
		defer delete(st.seen, key)

		// Resolved at encode time rather than construction time, so
		// that self-referential types like linked lists work.
		elemEnc, err := encoderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		return elemEnc(st, v.Elem())
	}
}

func newSliceEncoder(t reflect.Type) (encoderFunc, error) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return func(st *encodeState, v reflect.Value) (wire.Value, error) {
			if v.IsNil() {
				return nil, nil
			}
			return wire.Scalar(base64.StdEncoding.EncodeToString(v.Bytes())), nil
		}, nil
	}

	elem := t.Elem()
	fn := func(st *encodeState, v reflect.Value) (wire.Value, error) {
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil, nil
		}
		elemEnc, err := encoderFor(elem)
		if err != nil {
			return nil, err
		}
		ret := make(wire.Sequence, 0, v.Len())
		for i := range v.Len() {
			ev, err := elemEnc(st, v.Index(i))
			if err != nil {
				return nil, err
			}
			if ev == nil {
				if ev = st.null(); ev == nil {
					continue
				}
			}
			ret = append(ret, ev)
		}
		return ret, nil
	}
	return fn, nil
}

func newMapEncoder(t reflect.Type) (encoderFunc, error) {
	kt := t.Key()
	if !scalarKinds.Has(kt.Kind()) {
		return nil, paramErr("requestObject", "map key type %s of %s cannot be serialized", kt, t)
	}
	kEnc, err := encoderFor(kt)
	if err != nil {
		return nil, err
	}

	fn := func(st *encodeState, v reflect.Value) (wire.Value, error) {
		if v.IsNil() {
			return nil, nil
		}
		vEnc, err := encoderFor(t.Elem())
		if err != nil {
			return nil, err
		}
		type member struct {
			key string
			val reflect.Value
		}
		ms := make([]member, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k, err := kEnc(st, iter.Key())
			if err != nil {
				return nil, err
			}
			ms = append(ms, member{string(k.(wire.Scalar)), iter.Value()})
		}
		slices.SortFunc(ms, func(a, b member) int {
			return cmp.Compare(a.key, b.key)
		})

		ret := wire.Mapping{}
		for _, m := range ms {
			mv, err := vEnc(st, m.val)
			if err != nil {
				return nil, err
			}
			if mv == nil {
				if mv = st.null(); mv == nil {
					continue
				}
			}
			ret.Set(m.key, mv)
		}
		return ret, nil
	}
	return fn, nil
}

func newStructEncoder(t reflect.Type) (encoderFunc, error) {
	desc, err := Describe(t)
	if err != nil {
		return nil, err
	}
	for _, f := range desc.fields {
		switch derefType(f.Type).Kind() {
		case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
			return nil, paramErr("requestObject", "field %s.%s of type %s cannot be serialized", t, f.GoName, f.Type)
		}
	}

	fn := func(st *encodeState, v reflect.Value) (wire.Value, error) {
		ret := make(wire.Mapping, 0, len(desc.fields))
		for _, f := range desc.fields {
			fEnc, err := encoderFor(f.Type)
			if err != nil {
				return nil, err
			}
			fv, err := fEnc(st, f.GetWithZero(v))
			if err != nil {
				return nil, err
			}
			if fv == nil {
				if fv = st.null(); fv == nil {
					continue
				}
			}
			ret.Set(f.Name, fv)
		}
		return ret, nil
	}
	return fn, nil
}
