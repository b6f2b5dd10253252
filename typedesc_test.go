package soap

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type setterShapes struct {
	A string
}

func (s *setterShapes) SetA(v string) {}
func (s *setterShapes) SetDate(t time.Time) {}
func (s *setterShapes) SetDatePtr(t *time.Time) {}
func (s *setterShapes) SetNone() {}
func (s *setterShapes) SetMany(a, b int) {}
func (s *setterShapes) SetVariadic(xs ...string) {}
func (s *setterShapes) SetChecked(n int) error { return nil }
func (s *setterShapes) Set() {}
func (s *setterShapes) Settle(v string) {}
func (s setterShapes) SetByValue(v string) {}
func (s *setterShapes) setUnexported(v string) {}
func (s *setterShapes) SetMultiOut(v int) (int, error) { return v, nil }

func TestDescribeSetters(t *testing.T) {
	desc, err := Describe(reflect.TypeFor[setterShapes]())
	if err != nil {
		t.Fatalf("Describe() got err: %v", err)
	}

	type setter struct {
		Method    string
		NumParams int
		Param     string
		IsDate    bool
	}
	got := map[string]setter{}
	for k, s := range desc.Setters {
		got[k] = setter{s.Method, s.NumParams, s.ParamTypeName(), s.IsDate}
	}
	want := map[string]setter{
		"seta":        {"SetA", 1, "string", false},
		"setdate":     {"SetDate", 1, "time.Time", true},
		"setdateptr":  {"SetDatePtr", 1, "*time.Time", true},
		"setnone":     {"SetNone", 0, "", false},
		"setmany":     {"SetMany", 2, "", false},
		"setvariadic": {"SetVariadic", -1, "", false},
		"setchecked":  {"SetChecked", 1, "int", false},
		"settle":      {"Settle", 1, "string", false},
		"setbyvalue":  {"SetByValue", 1, "string", false},
		"setmultiout": {"SetMultiOut", 1, "int", false},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("Describe() wrong setters (-got+want):\n%s", diff)
	}

	if s, ok := desc.Setter("DATE"); !ok || s.Method != "SetDate" {
		t.Errorf(`Setter("DATE") = %v, %v, want SetDate`, s, ok)
	}
	if !desc.Setters["setchecked"].returnsErr {
		t.Error("SetChecked not detected as returning an error")
	}
	if !desc.Setters["setmultiout"].returnsErr {
		t.Error("SetMultiOut not detected as returning an error")
	}
}

func TestDescribeFields(t *testing.T) {
	type Inner struct {
		X int
	}
	type Dup struct {
		A string `soap:"same"`
		B string `soap:"same"`
	}
	type Caseless struct {
		Name string
		NAME string `soap:"NAME"`
		Zip  string
	}
	type Outer struct {
		*Inner
		Tagged string `soap:"tagged,omitempty"`
		Plain  string `soap:",omitempty"`
		Skip   string `soap:"-"`
		hidden string
	}

	desc, err := Describe(reflect.TypeFor[*Outer]())
	if err != nil {
		t.Fatalf("Describe() got err: %v", err)
	}
	if desc.Type != reflect.TypeFor[Outer]() {
		t.Errorf("Describe(*Outer).Type = %v, want Outer", desc.Type)
	}
	var names []string
	for _, f := range desc.fields {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff(names, []string{"X", "tagged", "Plain"}); diff != "" {
		t.Errorf("Describe() wrong fields (-got+want):\n%s", diff)
	}
	for _, name := range names {
		if !desc.Fields.Has(name) {
			t.Errorf("Fields missing %q", name)
		}
	}

	// Promoted fields through nil embedded pointers are allocated on
	// assignment.
	var o Outer
	f, _ := desc.field("X")
	f.GetWithAlloc(reflect.ValueOf(&o).Elem()).SetInt(5)
	if o.Inner == nil || o.X != 5 {
		t.Errorf("GetWithAlloc didn't allocate embedded pointer: %+v", o)
	}
	var o2 Outer
	if got := f.GetWithZero(reflect.ValueOf(o2)).Int(); got != 0 {
		t.Errorf("GetWithZero = %d, want 0", got)
	}

	cdesc, err := Describe(reflect.TypeFor[Caseless]())
	if err != nil {
		t.Fatalf("Describe(Caseless) got err: %v", err)
	}
	tests := []struct {
		key    string
		goName string
		ok     bool
	}{
		{"Name", "Name", true},
		{"NAME", "NAME", true},
		{"name", "", false}, // ambiguous
		{"zip", "Zip", true},
		{"ZIP", "Zip", true},
		{"Nope", "", false},
	}
	for _, tc := range tests {
		goName, ok := cdesc.Field(tc.key)
		if goName != tc.goName || ok != tc.ok {
			t.Errorf("Field(%q) = %q, %v, want %q, %v", tc.key, goName, ok, tc.goName, tc.ok)
		}
	}

	_, err = Describe(reflect.TypeFor[Dup]())
	var cerr *InvalidClassMappingError
	if !errors.As(err, &cerr) {
		t.Errorf("Describe(Dup) err = %v, want InvalidClassMappingError", err)
	}
}

func TestDescribeNonStruct(t *testing.T) {
	for _, typ := range []reflect.Type{
		nil,
		reflect.TypeFor[int](),
		reflect.TypeFor[*string](),
		reflect.TypeFor[[]Child](),
		reflect.TypeFor[map[string]any](),
	} {
		_, err := Describe(typ)
		var cerr *InvalidClassMappingError
		if !errors.As(err, &cerr) {
			t.Errorf("Describe(%v) err = %v, want InvalidClassMappingError", typ, err)
		}
	}
}
