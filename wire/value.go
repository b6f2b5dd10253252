package wire

import (
	"fmt"
	"iter"
	"strings"
)

// Value is a node of a wire tree. The only implementations are
// [Scalar], [Sequence] and [Mapping].
type Value interface {
	isWireValue()
}

// Kind identifies the variant of a [Value].
type Kind int

const (
	InvalidKind Kind = iota
	ScalarKind
	SequenceKind
	MappingKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case SequenceKind:
		return "sequence"
	case MappingKind:
		return "mapping"
	default:
		return "invalid"
	}
}

// KindOf returns the kind of v. A nil Value is InvalidKind.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Scalar:
		return ScalarKind
	case Sequence:
		return SequenceKind
	case Mapping:
		return MappingKind
	default:
		return InvalidKind
	}
}

// Scalar is a primitive value in its textual wire form.
type Scalar string

func (Scalar) isWireValue() {}

// Sequence is an ordered list of values.
type Sequence []Value

func (Sequence) isWireValue() {}

// Member is one key/value pair of a [Mapping].
type Member struct {
	Key   string
	Value Value
}

// Mapping is an ordered list of uniquely keyed members. The order in
// which members were added is preserved.
//
// The zero Mapping is empty and ready to use.
type Mapping []Member

func (Mapping) isWireValue() {}

// NewMapping returns a Mapping built from alternating key, value
// arguments. It panics if kv has an odd length, a key is not a string,
// or a value is not a Value. It is intended for literals in tests and
// examples.
func NewMapping(kv ...any) Mapping {
	if len(kv)%2 != 0 {
		panic("wire.NewMapping: odd number of arguments")
	}
	var ret Mapping
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("wire.NewMapping: key %v is %T, not string", kv[i], kv[i]))
		}
		var v Value
		switch x := kv[i+1].(type) {
		case Value:
			v = x
		case string:
			v = Scalar(x)
		default:
			panic(fmt.Sprintf("wire.NewMapping: value for %q is %T, not wire.Value", k, kv[i+1]))
		}
		ret.Set(k, v)
	}
	return ret
}

// Len returns the number of members in m.
func (m Mapping) Len() int { return len(m) }

func (m Mapping) index(key string) int {
	for i, mem := range m {
		if mem.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (m Mapping) Get(key string) (Value, bool) {
	if i := m.index(key); i >= 0 {
		return m[i].Value, true
	}
	return nil, false
}

// Has reports whether m has a member with the given key.
func (m Mapping) Has(key string) bool {
	return m.index(key) >= 0
}

// Set stores v under key. An existing member keeps its position and
// has its value replaced, otherwise the member is appended. Setting a
// nil value removes the key, since absence is how a mapping represents
// a missing value.
func (m *Mapping) Set(key string, v Value) {
	i := m.index(key)
	switch {
	case v == nil && i >= 0:
		*m = append((*m)[:i], (*m)[i+1:]...)
	case v == nil:
	case i >= 0:
		(*m)[i].Value = v
	default:
		*m = append(*m, Member{key, v})
	}
}

// Delete removes key from m, if present.
func (m *Mapping) Delete(key string) {
	m.Set(key, nil)
}

// First returns the first member of m in insertion order.
func (m Mapping) First() (Member, bool) {
	if len(m) == 0 {
		return Member{}, false
	}
	return m[0], true
}

// Keys returns the keys of m in insertion order.
func (m Mapping) Keys() []string {
	ret := make([]string, 0, len(m))
	for _, mem := range m {
		ret = append(ret, mem.Key)
	}
	return ret
}

// All iterates over the members of m in insertion order.
func (m Mapping) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, mem := range m {
			if !yield(mem.Key, mem.Value) {
				return
			}
		}
	}
}

// Equal reports whether a and b are structurally identical, including
// member order.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x == y
	case Sequence:
		y, ok := b.(Sequence)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Mapping:
		y, ok := b.(Mapping)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Key != y[i].Key || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String returns a compact, human readable rendering of v, for use in
// diagnostics.
func String(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case Scalar:
		fmt.Fprintf(b, "%q", string(x))
	case Sequence:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, e)
		}
		b.WriteByte(']')
	case Mapping:
		b.WriteByte('{')
		for i, mem := range x {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s: ", mem.Key)
			writeValue(b, mem.Value)
		}
		b.WriteByte('}')
	}
}
