// Package envelope converts between SOAP 1.1 envelopes and wire
// trees.
package envelope

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/camcima/camcima-soap-client/wire"
)

const (
	// NamespaceSOAP is the SOAP 1.1 envelope namespace.
	NamespaceSOAP = "http://schemas.xmlsoap.org/soap/envelope/"
	// NamespaceXSI is the XML Schema instance namespace, home of the
	// nil attribute.
	NamespaceXSI = "http://www.w3.org/2001/XMLSchema-instance"

	envPrefix = "SOAP-ENV"
)

// EncodeOptions are the optional parameters of [Encode].
type EncodeOptions struct {
	// Namespace, if set, is declared as the default namespace of each
	// top-level body element.
	Namespace string
	// Indent, if set, indents nested elements with the given string.
	Indent string
}

// Encode returns a SOAP envelope whose body holds the elements of
// body.
//
// Each member of a Mapping becomes an element named after its key. A
// Sequence member becomes one element per item, all with the member's
// key. Scalars become the escaped text of their element.
func Encode(body wire.Mapping, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if opts.Indent != "" {
		enc.Indent("", opts.Indent)
	}

	envelope := xml.StartElement{
		Name: xml.Name{Local: envPrefix + ":Envelope"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:" + envPrefix}, Value: NamespaceSOAP}},
	}
	bodyElt := xml.StartElement{Name: xml.Name{Local: envPrefix + ":Body"}}
	if err := enc.EncodeToken(envelope); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(bodyElt); err != nil {
		return nil, err
	}
	for _, m := range body {
		var attrs []xml.Attr
		if opts.Namespace != "" {
			attrs = []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: opts.Namespace}}
		}
		if err := encodeMember(enc, m.Key, m.Value, attrs); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(bodyElt.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(envelope.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeMember(enc *xml.Encoder, key string, v wire.Value, attrs []xml.Attr) error {
	if seq, ok := v.(wire.Sequence); ok {
		for _, item := range seq {
			if nested, ok := item.(wire.Sequence); ok {
				// Sequences directly inside sequences have no element
				// name of their own.
				item = wire.Mapping{{Key: "item", Value: nested}}
			}
			if err := encodeElement(enc, key, item, attrs); err != nil {
				return err
			}
		}
		return nil
	}
	return encodeElement(enc, key, v, attrs)
}

func encodeElement(enc *xml.Encoder, key string, v wire.Value, attrs []xml.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: key}, Attr: attrs}
	if v == nil {
		start.Attr = append(start.Attr,
			xml.Attr{Name: xml.Name{Local: "xmlns:xsi"}, Value: NamespaceXSI},
			xml.Attr{Name: xml.Name{Local: "xsi:nil"}, Value: "true"})
	}
	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("encoding element %q: %w", key, err)
	}
	switch x := v.(type) {
	case nil:
	case wire.Scalar:
		if err := enc.EncodeToken(xml.CharData(x)); err != nil {
			return err
		}
	case wire.Mapping:
		for _, m := range x {
			if err := encodeMember(enc, m.Key, m.Value, nil); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("encoding element %q: unexpected %T", key, v)
	}
	return enc.EncodeToken(start.End())
}

// Decode parses a SOAP envelope and returns the content of its body:
// a Mapping with one member per body element, usually just the
// operation's response element.
//
// Elements with child elements decode to Mappings, with repeated
// child names collected into a Sequence. Other elements decode to
// Scalars of their text. Elements marked xsi:nil are omitted.
// Namespace prefixes and attributes are discarded.
//
// If the body holds a SOAP fault, Decode returns a [*Fault] error.
func Decode(data []byte) (wire.Mapping, error) {
	return Read(bytes.NewReader(data))
}

// Read is like [Decode], but reads the envelope from r.
func Read(r io.Reader) (wire.Mapping, error) {
	dec := xml.NewDecoder(r)
	env, err := findStart(dec, "Envelope")
	if err != nil {
		return nil, fmt.Errorf("reading SOAP envelope: %w", err)
	}
	for {
		start, err := nextChild(dec, env)
		if err != nil {
			return nil, fmt.Errorf("reading SOAP envelope: %w", err)
		}
		if start == nil {
			return nil, errors.New("SOAP envelope has no Body")
		}
		if start.Name.Local != "Body" {
			if err := dec.Skip(); err != nil {
				return nil, err
			}
			continue
		}

		body, err := decodeChildren(dec, *start)
		if err != nil {
			return nil, fmt.Errorf("reading SOAP body: %w", err)
		}
		if f, ok := body.Get("Fault"); ok {
			return nil, newFault(f)
		}
		return body, nil
	}
}

// findStart skips tokens until the start of an element named local.
func findStart(dec *xml.Decoder, local string) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, fmt.Errorf("no %s element", local)
		} else if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != local {
				return xml.StartElement{}, fmt.Errorf("unexpected root element %q, want %s", start.Name.Local, local)
			}
			return start, nil
		}
	}
}

// nextChild returns the next child element of parent, or nil when
// parent ends.
func nextChild(dec *xml.Decoder, parent xml.StartElement) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		} else if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &t, nil
		case xml.EndElement:
			return nil, nil
		}
	}
}

// decodeChildren decodes the child elements of start into a Mapping,
// ignoring any text between them.
func decodeChildren(dec *xml.Decoder, start xml.StartElement) (wire.Mapping, error) {
	v, err := decodeElement(dec, start)
	if err != nil {
		return nil, err
	}
	if m, ok := v.(wire.Mapping); ok {
		return m, nil
	}
	return wire.Mapping{}, nil
}

// decodeElement decodes the element that start opens. It returns nil
// for xsi:nil elements.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (wire.Value, error) {
	if isNil(start) {
		return nil, dec.Skip()
	}

	var (
		text     bytes.Buffer
		children wire.Mapping
		hasChild bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		} else if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			hasChild = true
			v, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			addChild(&children, t.Name.Local, v)
		case xml.EndElement:
			if hasChild {
				if children == nil {
					children = wire.Mapping{}
				}
				return children, nil
			}
			return wire.Scalar(text.String()), nil
		}
	}
}

// addChild stores v under key in m. Repeated keys collect their
// values into a Sequence, in document order.
func addChild(m *wire.Mapping, key string, v wire.Value) {
	prev, ok := m.Get(key)
	if !ok {
		m.Set(key, v)
		return
	}
	// Element values are never Sequences themselves, so an existing
	// Sequence is a previous repetition.
	if seq, ok := prev.(wire.Sequence); ok {
		m.Set(key, append(seq, v))
		return
	}
	m.Set(key, wire.Sequence{prev, v})
}

func isNil(start xml.StartElement) bool {
	for _, a := range start.Attr {
		if a.Name.Local == "nil" && (a.Name.Space == NamespaceXSI || a.Name.Space == "xsi") {
			return a.Value == "true" || a.Value == "1"
		}
	}
	return false
}
