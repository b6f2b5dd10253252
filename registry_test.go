package soap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type generic[T any] struct {
	V T
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("", Child{}); err != nil {
		t.Fatalf("Register(default name) got err: %v", err)
	}
	if err := reg.Register(" .weather.Temperatures", &Temperatures{}); err != nil {
		t.Fatalf("Register(weather.Temperatures) got err: %v", err)
	}
	if err := RegisterType[ForecastEntry](reg, "weather.ForecastEntry"); err != nil {
		t.Fatalf("RegisterType() got err: %v", err)
	}
	// Re-registering the same type is fine.
	if err := reg.Register("weather.ForecastEntry", ForecastEntry{}); err != nil {
		t.Errorf("Register(same type again) got err: %v", err)
	}
	if err := reg.Register("weather.ForecastEntry", Temperatures{}); err == nil {
		t.Error("Register(conflicting type) got nil err")
	}

	want := []string{"soap.Child", "weather.ForecastEntry", "weather.Temperatures"}
	if diff := cmp.Diff(reg.Names(), want); diff != "" {
		t.Errorf("Names() wrong result (-got+want):\n%s", diff)
	}

	if typ, ok := reg.Lookup(".weather.Temperatures"); !ok || typ != reflect.TypeFor[Temperatures]() {
		t.Errorf("Lookup(.weather.Temperatures) = %v, %v", typ, ok)
	}
	if _, ok := reg.Lookup("weather.Nope"); ok {
		t.Error("Lookup(unregistered) succeeded")
	}

	desc, err := reg.Describe("weather.ForecastEntry")
	if err != nil {
		t.Fatalf("Describe() got err: %v", err)
	}
	if !desc.HasField("WeatherID") {
		t.Errorf("Describe(weather.ForecastEntry) missing WeatherID:\n%s", desc)
	}
	if s, ok := desc.Setter("Date"); !ok || !s.IsDate {
		t.Errorf("Describe(weather.ForecastEntry).Setter(Date) = %v, %v, want date setter", s, ok)
	}

	_, err = reg.Describe("weather.Nope")
	var cerr *InvalidClassMappingError
	if !errors.As(err, &cerr) || cerr.Type != "weather.Nope" {
		t.Errorf("Describe(unregistered) err = %v, want InvalidClassMappingError", err)
	}
}

func TestRegisterInvalid(t *testing.T) {
	reg := NewRegistry()
	for _, proto := range []any{nil, 42, "x", []Child{}, (*int)(nil)} {
		err := reg.Register("bad", proto)
		var perr *InvalidParameterError
		if !errors.As(err, &perr) {
			t.Errorf("Register(%#v) err = %v, want InvalidParameterError", proto, err)
		}
	}

	type Dup struct {
		A string `soap:"x"`
		B string `soap:"x"`
	}
	err := reg.Register("bad", Dup{})
	var cerr *InvalidClassMappingError
	if !errors.As(err, &cerr) {
		t.Errorf("Register(Dup) err = %v, want InvalidClassMappingError", err)
	}
}

func TestTypeNames(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[Parent](), "Parent"},
		{reflect.TypeFor[generic[int]](), "generic"},
		{reflect.TypeFor[struct{ A int }](), "struct { A int }"},
	}
	for _, tc := range tests {
		if got := simpleTypeName(tc.typ); got != tc.want {
			t.Errorf("simpleTypeName(%v) = %q, want %q", tc.typ, got, tc.want)
		}
	}

	for _, tc := range []struct{ ns, el, want string }{
		{"weather", "Forecast", "weather.Forecast"},
		{"weather.", "Forecast", "weather.Forecast"},
		{"a.b", "C", "a.b.C"},
	} {
		if got := namespacedName(tc.ns, tc.el); got != tc.want {
			t.Errorf("namespacedName(%q, %q) = %q, want %q", tc.ns, tc.el, got, tc.want)
		}
	}
}
