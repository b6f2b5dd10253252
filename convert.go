package soap

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/camcima/camcima-soap-client/wire"
)

// assign stores v, a value produced by the deserializer, into dst.
//
// v is nil, a wire.Value, a []any of mapped sequence items, or a
// pointer to a mapped struct. It is converted as needed to fit dst's
// type. A nil v leaves dst as its zero value.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		return cannotAssign(dst, v)
	case reflect.Pointer:
		if rv.Kind() == reflect.Pointer && rv.Type().Elem() != dst.Type().Elem() {
			return cannotAssign(dst, v)
		}
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch x := v.(type) {
	case wire.Scalar:
		return assignScalar(dst, string(x))
	case string:
		return assignScalar(dst, x)
	case wire.Sequence:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = item
		}
		return assignItems(dst, items, v)
	case []any:
		return assignItems(dst, x, v)
	case wire.Mapping:
		return assignMapping(dst, x)
	}

	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == dst.Type() {
		dst.Set(rv.Elem())
		return nil
	}
	if dst.Kind() == reflect.Slice {
		// A single repeated element arrives without its sequence.
		return assignItems(dst, []any{v}, v)
	}
	return cannotAssign(dst, v)
}

func assignItems(dst reflect.Value, items []any, orig any) error {
	switch dst.Kind() {
	case reflect.Array:
		if len(items) != dst.Len() {
			return fmt.Errorf("cannot assign %d items to %s", len(items), dst.Type())
		}
		for i, item := range items {
			if err := assign(dst.Index(i), item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case reflect.Slice:
		s := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(s.Index(i), item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		dst.Set(s)
		return nil
	}
	return cannotAssign(dst, orig)
}

func assignMapping(dst reflect.Value, m wire.Mapping) error {
	t := dst.Type()
	if t.Kind() != reflect.Map || t.Key().Kind() != reflect.String {
		return cannotAssign(dst, m)
	}
	ret := reflect.MakeMapWithSize(t, m.Len())
	for k, v := range m.All() {
		if v == nil {
			continue
		}
		kv := reflect.New(t.Key()).Elem()
		kv.SetString(k)
		ev := reflect.New(t.Elem()).Elem()
		if err := assign(ev, v); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		ret.SetMapIndex(kv, ev)
	}
	dst.Set(ret)
	return nil
}

// assignScalar parses s into dst. An empty s is the null stand-in,
// and leaves non-string destinations at their zero value.
func assignScalar(dst reflect.Value, s string) error {
	t := dst.Type()
	if dst.CanAddr() && reflect.PointerTo(t).Implements(textUnmarshalerType) && t != timeType {
		return dst.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}

	k := t.Kind()
	if s == "" && k != reflect.String {
		dst.SetZero()
		return nil
	}
	if t == timeType {
		tm, err := parseDate(s)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(tm))
		return nil
	}

	num := strings.TrimSpace(s)
	switch k {
	case reflect.String:
		dst.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(num)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(num, 10, t.Bits())
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(num, 10, t.Bits())
		if err != nil {
			return err
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(num, t.Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			bs, err := base64.StdEncoding.DecodeString(num)
			if err != nil {
				return err
			}
			dst.SetBytes(bs)
			return nil
		}
		return assignItems(dst, []any{wire.Scalar(s)}, wire.Scalar(s))
	default:
		return cannotAssign(dst, wire.Scalar(s))
	}
	return nil
}

func cannotAssign(dst reflect.Value, v any) error {
	return fmt.Errorf("cannot assign %s to %s", describeValue(v), dst.Type())
}

// describeValue returns a short description of a deserializer value,
// for error messages.
func describeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case wire.Scalar:
		return "scalar " + strconv.Quote(string(x))
	case wire.Value:
		return wire.KindOf(x).String()
	case []any:
		return fmt.Sprintf("sequence of %d items", len(x))
	}
	return fmt.Sprintf("%T", v)
}
