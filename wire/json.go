package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

// MarshalJSON encodes m as a JSON object, with members in insertion
// order.
func (m Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes s as a JSON array.
func (s Sequence) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, v Value) error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
	case Scalar:
		bs, err := json.Marshal(string(x))
		if err != nil {
			return err
		}
		buf.Write(bs)
	case Sequence:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Mapping:
		buf.WriteByte('{')
		for i, mem := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(mem.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := appendJSON(buf, mem.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown wire value type %T", v)
	}
	return nil
}

// ParseJSON builds a tree from a JSON document.
//
// Objects become Mappings with their member order preserved, and
// arrays become Sequences. Strings, numbers and booleans become
// Scalars holding their literal text, so 7 and "7" parse
// identically. A null object member is dropped, and a null array item
// becomes an empty Scalar.
func ParseJSON(data []byte) (Value, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ReadJSON is like [ParseJSON], but reads the document from r.
func ReadJSON(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := readJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, errors.New("trailing data after JSON value")
		}
		return nil, err
	}
	if v == nil {
		return Scalar(""), nil
	}
	return v, nil
}

// readJSONValue reads one value from dec. It returns a nil Value for
// JSON null.
func readJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var ret Mapping
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", kt)
				}
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, fmt.Errorf("reading member %q: %w", k, err)
				}
				ret.Set(k, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if ret == nil {
				ret = Mapping{}
			}
			return ret, nil
		case '[':
			ret := Sequence{}
			for dec.More() {
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, fmt.Errorf("reading item %d: %w", len(ret), err)
				}
				if v == nil {
					v = Scalar("")
				}
				ret = append(ret, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return ret, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return Scalar(t), nil
	case json.Number:
		return Scalar(t.String()), nil
	case float64:
		return Scalar(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case bool:
		return Scalar(strconv.FormatBool(t)), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected JSON token %v (%T)", tok, tok)
}
