// Package wire provides the loosely typed value tree exchanged with
// SOAP services.
//
// A tree is built from three kinds of node: [Scalar] for already
// stringified primitives, [Sequence] for ordered lists and [Mapping]
// for ordered keyed members. Trees are what the serializer in the
// parent package produces from Go values, and what the deserializer
// consumes when building typed results from a parsed response.
//
// The package has no knowledge of XML or of SOAP. Converting a tree
// to and from an envelope is the job of the envelope package.
package wire
