package envelope

import (
	"fmt"

	"github.com/camcima/camcima-soap-client/wire"
)

// Fault is a SOAP fault returned by the server in place of a
// response.
type Fault struct {
	// Code is the fault code, for example "soap:Server".
	Code string
	// String is the human readable explanation of the fault.
	String string
	// Actor identifies the node that caused the fault, if given.
	Actor string
	// Detail is the application specific fault detail, if any.
	Detail wire.Value
}

func (f *Fault) Error() string {
	if f.Code == "" {
		return "SOAP fault: " + f.String
	}
	return fmt.Sprintf("SOAP fault %s: %s", f.Code, f.String)
}

// newFault builds a Fault from the decoded content of a Fault
// element.
func newFault(v wire.Value) *Fault {
	m, ok := v.(wire.Mapping)
	if !ok {
		if s, ok := v.(wire.Scalar); ok {
			return &Fault{String: string(s)}
		}
		return &Fault{}
	}
	ret := &Fault{
		Code:   scalar(m, "faultcode"),
		String: scalar(m, "faultstring"),
		Actor:  scalar(m, "faultactor"),
	}
	if d, ok := m.Get("detail"); ok {
		ret.Detail = d
	}
	return ret
}

func scalar(m wire.Mapping, key string) string {
	v, _ := m.Get(key)
	s, _ := v.(wire.Scalar)
	return string(s)
}
