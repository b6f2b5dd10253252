package soap

import (
	"encoding"
	"reflect"
	"time"

	"github.com/camcima/camcima-soap-client/wire"
	"github.com/creachadair/mds/mapset"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	errorType           = reflect.TypeFor[error]()
	wireValueType       = reflect.TypeFor[wire.Value]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

	// scalarKinds is the set of reflect.Kinds that serialize to a
	// single wire.Scalar and parse back from one.
	scalarKinds = mapset.New(
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32,
		reflect.Float64,
		reflect.String,
	)
)
