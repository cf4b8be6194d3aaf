// Package foreignval implements the typed value tree that crosses the
// native/foreign boundary. Native data is built into a tagged tree through
// total constructors, serialized by a strict encoder that rejects anything
// the foreign evaluator could misinterpret, and read back through accessors
// that hard-error on tag mismatch. All injection-safety concerns live in
// this one package.
package foreignval

import "fmt"

// Kind tags a Value with its foreign type.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindList
	KindTuple
	KindRecord
)

// kindNames is indexed by Kind.
var kindNames = []string{"bool", "int", "float", "string", "list", "tuple", "record"}

// String returns the kind name used in error messages.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Field is one named entry of a record. Field order is preserved and
// significant on the wire.
type Field struct {
	Name  string
	Value Value
}

// Value is one node of the tagged tree. The zero Value is a false bool.
type Value struct {
	s      string
	items  []Value
	fields []Field
	i      int64
	f      float64
	kind   Kind
	b      bool
}

// Bool constructs a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int constructs an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float constructs a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Str constructs a string value.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// List constructs an ordered sequence value.
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

// Tuple constructs a fixed-arity sequence value.
func Tuple(items ...Value) Value { return Value{kind: KindTuple, items: items} }

// Record constructs an ordered named-field value.
func Record(fields ...Field) Value { return Value{kind: KindRecord, fields: fields} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload or errors on any other tag.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v.kind)
	}
	return v.b, nil
}

// AsInt returns the integer payload. A Float never coerces, even when its
// value is integral.
func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, mismatch(KindInt, v.kind)
	}
	return v.i, nil
}

// AsFloat returns the floating-point payload or errors on any other tag.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, mismatch(KindFloat, v.kind)
	}
	return v.f, nil
}

// AsString returns the string payload or errors on any other tag.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", mismatch(KindString, v.kind)
	}
	return v.s, nil
}

// AsList returns the sequence items of a list or tuple.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList && v.kind != KindTuple {
		return nil, mismatch(KindList, v.kind)
	}
	return v.items, nil
}

// AsTuple returns the sequence items of a list or tuple of exactly n
// elements. The wire does not distinguish tuples from lists; arity does.
func (v Value) AsTuple(n int) ([]Value, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, mismatch(KindTuple, v.kind)
	}
	if len(items) != n {
		return nil, fmt.Errorf("foreignval: expected tuple of %d elements, got %d", n, len(items))
	}
	return items, nil
}

// Fields returns the ordered fields of a record.
func (v Value) Fields() ([]Field, error) {
	if v.kind != KindRecord {
		return nil, mismatch(KindRecord, v.kind)
	}
	return v.fields, nil
}

// Get returns the named field of a record, or errors when the field is
// absent or the value is not a record.
func (v Value) Get(name string) (Value, error) {
	fields, err := v.Fields()
	if err != nil {
		return Value{}, err
	}
	for _, f := range fields {
		if f.Name == name {
			return f.Value, nil
		}
	}
	return Value{}, fmt.Errorf("foreignval: record has no field %q", name)
}

// Equal reports deep equality of two values, including field order of
// records. An Int never equals a Float.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		// Tuples and lists are indistinguishable on the wire; treat them
		// as the same kind for equality so encode/decode round-trips.
		seq := func(k Kind) bool { return k == KindList || k == KindTuple }
		if !(seq(v.kind) && seq(o.kind)) {
			return false
		}
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindList, KindTuple:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func mismatch(want, got Kind) error {
	return fmt.Errorf("foreignval: expected %s, got %s", want, got)
}
