package soap

import (
	"fmt"
	"reflect"
)

// InvalidParameterError is the error returned when a caller passes a
// value of the wrong shape to an entry point, for example a
// non-struct to [Serialize].
type InvalidParameterError struct {
	// Param is the name of the offending parameter.
	Param string
	// Reason is an explanation of what is wrong with the parameter.
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

func paramErr(param, reason string, args ...any) error {
	return &InvalidParameterError{param, fmt.Sprintf(reason, args...)}
}

// MissingClassMappingError is the error returned when the
// deserializer meets an element that has no class map entry, and no
// namespace was supplied to derive a type name from.
type MissingClassMappingError struct {
	// Element is the name of the unmapped element.
	Element string
}

func (e *MissingClassMappingError) Error() string {
	return fmt.Sprintf("no class mapping for element %q", e.Element)
}

// InvalidClassMappingError is the error returned when a class map
// entry cannot be applied to the response: the named type doesn't
// exist, a response member has nowhere to go on the target type, or a
// setter has an unusable signature.
type InvalidClassMappingError struct {
	// Element is the element being mapped when the error happened.
	Element string
	// Type is the name of the target type, if one was resolved.
	Type string
	// Property is the response member being assigned, if any.
	Property string
	// Reason is an explanation of what went wrong.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

func (e *InvalidClassMappingError) Error() string {
	msg := "invalid class mapping"
	if e.Element != "" {
		msg += fmt.Sprintf(" for element %q", e.Element)
	}
	if e.Type != "" {
		msg += fmt.Sprintf(" (type %s)", e.Type)
	}
	if e.Property != "" {
		msg += fmt.Sprintf(", property %q", e.Property)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidClassMappingError) Unwrap() error {
	return e.Err
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := ""
	if t != nil {
		ts = t.String()
	}
	return &InvalidClassMappingError{Type: ts, Reason: fmt.Sprintf(reason, args...)}
}
