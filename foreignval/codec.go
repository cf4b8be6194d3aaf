package foreignval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/scarter4work/bayesianastro/domain/errors"
)

// Encode serializes a value tree to its wire form. Encoding is strict:
// strings containing NUL bytes or invalid UTF-8 and non-finite floats are
// rejected with a MarshalError before anything reaches the foreign layer.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return &errors.MarshalError{Reason: fmt.Sprintf("float %v is not representable on the wire", v.f)}
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		// Keep floats distinguishable from integers on the wire.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case KindString:
		return encodeString(buf, v.s)
	case KindList, KindTuple:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindRecord:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeValue(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return &errors.MarshalError{Reason: fmt.Sprintf("unknown value kind %v", v.kind)}
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	if strings.ContainsRune(s, 0) {
		return &errors.MarshalError{Reason: "string contains NUL byte"}
	}
	if !utf8.ValidString(s) {
		return &errors.MarshalError{Reason: "string is not valid UTF-8"}
	}
	quoted, err := json.Marshal(s)
	if err != nil {
		return &errors.MarshalError{Reason: err.Error()}
	}
	buf.Write(quoted)
	return nil
}

// Decode parses wire bytes into a value tree. Parsing is strict: integers
// and floats stay distinct, null is not representable, and trailing data is
// an error. Sequences decode as lists; AsTuple distinguishes by arity.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("foreignval: trailing data after value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("foreignval: decode: %w", err)
	}

	switch t := tok.(type) {
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		return decodeNumber(t)
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("foreignval: decode: %w", err)
			}
			return List(items...), nil
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("foreignval: decode: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("foreignval: record key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				fields = append(fields, Field{Name: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("foreignval: decode: %w", err)
			}
			return Record(fields...), nil
		}
		return Value{}, fmt.Errorf("foreignval: unexpected delimiter %v", t)
	case nil:
		return Value{}, fmt.Errorf("foreignval: null is not representable")
	}
	return Value{}, fmt.Errorf("foreignval: unexpected token %v", tok)
}

func decodeNumber(n json.Number) (Value, error) {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		f, err := n.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("foreignval: bad float %q: %w", s, err)
		}
		return Float(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		return Value{}, fmt.Errorf("foreignval: bad integer %q: %w", s, err)
	}
	return Int(i), nil
}
