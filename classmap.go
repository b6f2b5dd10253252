package soap

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArrayPrefix is the class map key prefix that designates the type of
// each item of a repeated element. The entry "array|Forecast" gives
// the type of every item of a sequence found under "Forecast".
const ArrayPrefix = "array|"

// arrayMarker is the textual form of the [Array] entry in
// configuration files.
const arrayMarker = "array"

// ArrayKey returns the class map key giving the item type of
// sequences found under element.
func ArrayKey(element string) string {
	return ArrayPrefix + element
}

// An Entry is the target of a class map entry: either the name of a
// registered type, or the [Array] marker.
type Entry struct {
	typeName string
	array    bool
}

// Array marks an element as a wrapper around repeated scalars. The
// deserializer unwraps such elements into a [wire.Sequence] instead
// of mapping them to a type.
var Array = Entry{array: true}

// Type returns an Entry that maps an element to the named type.
func Type(name string) Entry {
	return Entry{typeName: name}
}

// IsArray reports whether e is the [Array] marker.
func (e Entry) IsArray() bool { return e.array }

// TypeName returns the type name of e, or "" for the [Array] marker.
func (e Entry) TypeName() string { return e.typeName }

// IsZero reports whether e is the zero Entry, which maps nothing.
func (e Entry) IsZero() bool { return !e.array && e.typeName == "" }

func (e Entry) String() string {
	if e.array {
		return "ARRAY"
	}
	return e.typeName
}

// ClassMap binds response element names to the types they
// deserialize into.
//
// Keys are element names, or [ArrayKey] of an element name for the
// items of a repeated element.
type ClassMap map[string]Entry

// ParseClassMap builds a ClassMap from its textual form, in which the
// string "array" denotes the [Array] marker and any other string is a
// type name.
func ParseClassMap(m map[string]string) (ClassMap, error) {
	ret := make(ClassMap, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		e, err := parseEntry(m[k])
		if err != nil {
			return nil, fmt.Errorf("class map entry %q: %w", k, err)
		}
		ret[k] = e
	}
	return ret, nil
}

func parseEntry(s string) (Entry, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return Entry{}, fmt.Errorf("empty type name")
	case arrayMarker:
		return Array, nil
	default:
		return Type(s), nil
	}
}

// Lookup returns the entry for element.
func (cm ClassMap) Lookup(element string) (Entry, bool) {
	e, ok := cm[element]
	if !ok || e.IsZero() {
		return Entry{}, false
	}
	return e, true
}

// Strings returns the textual form of cm, the inverse of
// [ParseClassMap].
func (cm ClassMap) Strings() map[string]string {
	ret := make(map[string]string, len(cm))
	for k, e := range cm {
		if e.array {
			ret[k] = arrayMarker
		} else {
			ret[k] = e.typeName
		}
	}
	return ret
}

// UnmarshalYAML implements yaml.Unmarshaler, reading the textual form
// accepted by [ParseClassMap].
func (cm *ClassMap) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseClassMap(raw)
	if err != nil {
		return err
	}
	*cm = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (cm ClassMap) MarshalYAML() (any, error) {
	return cm.Strings(), nil
}
