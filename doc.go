// Package soap maps Go values to and from the loosely typed value
// trees of SOAP messages.
//
// [Serialize] turns a request struct into a [wire.Mapping] whose only
// key is the struct's type name. Exported fields become members named
// after the field, or after the field's `soap:"name"` tag. A tag of
// "-" skips the field. Nested structs become nested Mappings, slices
// and arrays become Sequences, and scalar values become Scalars of
// their text. Values implementing [Marshaler] or
// encoding.TextMarshaler encode themselves.
//
// Two options shape the result. With LowerCaseFirst, the first letter
// of the root key is lowercased. With KeepNullProperties, nil pointers,
// slices, maps and interfaces are sent as empty Scalars rather than
// omitted.
//
// In the other direction, [Registry.MapResult] walks a response tree
// and builds typed values from it. Go has no way to find a type by
// name at runtime, so the types that responses can map into must
// first be added to a [Registry] under the names used in class maps:
//
//	soap.MustRegister("weather.ForecastEntry", ForecastEntry{})
//
// A [ClassMap] then says which element maps to which registered type.
// An element absent from the class map resolves to the type named
// namespace + "." + element when a namespace is given. The [Array]
// marker unwraps an element whose single child holds the real items,
// and the key [ArrayKey](element) types the items of a repeated
// element.
//
// Each member of a mapped element is assigned through a setter method
// SetName(v) when the type has one, or else to the field of the same
// name. Setters taking a time.Time receive the member's text parsed as
// a date. Members that have nowhere to go are an error, so that
// schema drift is noticed rather than silently dropped.
//
// [Client] ties both directions to an HTTP transport, for calling SOAP
// services end to end.
package soap
