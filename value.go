package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind reports which JSON type a Value holds.
type Kind uint8

// The JSON kinds a Value can hold.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single JSON value read from (or written to) a token segment.
//
// Header and payload contents arrive as arbitrary JSON, so every member is
// kept as a Value and type-checked at the point of use: "alg" must be a
// string, "exp" must be a number, "crit" must be an array of strings.
//
// Numbers keep their literal text and objects keep their member order, so a
// parsed value re-serializes to the exact bytes it was parsed from
// (for compact input). Values are immutable once built.
//
// The zero Value is a JSON null.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value
	obj  *Object
}

// NullValue returns the JSON null.
func NullValue() Value { return Value{} }

// BoolValue returns a JSON boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// StringValue returns a JSON string.
func StringValue(s string) Value {
	return Value{kind: KindString, str: validUTF8(s)}
}

// validUTF8 replaces invalid UTF-8 sequences the way the JSON encoder does,
// so a Value serializes to what it decodes from.
func validUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// IntValue returns a JSON number holding an integer.
func IntValue(i int64) Value {
	return Value{kind: KindNumber, num: json.Number(strconv.FormatInt(i, 10))}
}

// FloatValue returns a JSON number. NaN and infinities have no JSON form
// and become null.
func FloatValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NullValue()
	}

	b, _ := json.Marshal(f)
	return Value{kind: KindNumber, num: json.Number(b)}
}

// NumberValue returns a JSON number from its literal text.
// It fails if n is not a valid JSON number literal.
func NumberValue(n json.Number) (Value, error) {
	if len(n) == 0 || !isNumberStart(n[0]) || !isDigit(n[len(n)-1]) || !json.Valid([]byte(n)) {
		return Value{}, fmt.Errorf("jwt: invalid number literal %q", string(n))
	}

	return Value{kind: KindNumber, num: n}, nil
}

func isNumberStart(c byte) bool {
	return c == '-' || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ArrayValue returns a JSON array of the given elements.
func ArrayValue(elems ...Value) Value {
	arr := make([]Value, len(elems))
	copy(arr, elems)
	return Value{kind: KindArray, arr: arr}
}

// StringsValue returns a JSON array of strings.
func StringsValue(elems ...string) Value {
	arr := make([]Value, len(elems))
	for i, s := range elems {
		arr[i] = StringValue(s)
	}
	return Value{kind: KindArray, arr: arr}
}

// ObjectValue returns a JSON object holding a copy of obj.
func ObjectValue(obj Object) Value {
	clone := obj.Clone()
	return Value{kind: KindObject, obj: &clone}
}

// ValueOf converts any JSON-marshalable Go value to a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case Object:
		return ObjectValue(x), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return Value{}, err
	}

	return ParseValue(b)
}

// Kind returns the JSON type of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the number literal held by v.
func (v Value) AsNumber() (json.Number, bool) {
	return v.num, v.kind == KindNumber
}

// AsFloat returns the number held by v as a float64.
// Literals beyond the float64 range report ±Inf.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	f, err := strconv.ParseFloat(string(v.num), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}

	return f, true
}

// AsInt returns the number held by v truncated to an int64.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	if i, err := strconv.ParseInt(string(v.num), 10, 64); err == nil {
		return i, true
	}

	f, ok := v.AsFloat()
	if !ok || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}

	return int64(f), true
}

// AsArray returns the elements of v. The slice must not be modified.
func (v Value) AsArray() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// AsObject returns the object held by v.
func (v Value) AsObject() (Object, bool) {
	if v.kind != KindObject || v.obj == nil {
		return Object{}, v.kind == KindObject
	}

	return *v.obj, true
}

// Interface converts v to the generic Go representation used by
// encoding/json with UseNumber: nil, bool, json.Number, string,
// []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		if v.obj == nil {
			return map[string]any{}
		}
		return v.obj.Map()
	default:
		return nil
	}
}

// Equal reports whether v and other hold the same JSON value.
// Numbers compare by literal, objects ignore member order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		a, _ := v.AsObject()
		b, _ := other.AsObject()
		return a.Equal(b)
	}

	return false
}

// MarshalJSON writes the canonical serialization of v.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON parses data into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseValue(data)
	if err != nil {
		return err
	}

	*v = parsed
	return nil
}

// String returns the canonical JSON text of v.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return string(b)
}

// maxDepth bounds nesting when parsing untrusted segments.
const maxDepth = 256

var (
	errTrailingData = errors.New("jwt: trailing data after JSON value")
	errTooDeep      = errors.New("jwt: JSON nesting too deep")
)

// ParseValue parses exactly one JSON value from data.
func ParseValue(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, err
	}

	if _, err = dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return Value{}, err
	}

	return v, nil
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return Value{kind: KindNumber, num: t}, nil
	case json.Delim:
		if depth >= maxDepth {
			return Value{}, errTooDeep
		}

		switch t {
		case '{':
			return parseObject(dec, depth+1)
		case '[':
			return parseArray(dec, depth+1)
		}
	}

	return Value{}, fmt.Errorf("jwt: unexpected JSON token %v", tok)
}

func parseObject(dec *json.Decoder, depth int) (Value, error) {
	var obj Object
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}

		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("jwt: object key is %T", tok)
		}

		elem, err := parseValue(dec, depth)
		if err != nil {
			return Value{}, err
		}

		// Duplicate keys: the last value wins, the first position stays.
		obj.Set(key, elem)
	}

	if _, err := dec.Token(); err != nil { // '}'
		return Value{}, err
	}

	return Value{kind: KindObject, obj: &obj}, nil
}

func parseArray(dec *json.Decoder, depth int) (Value, error) {
	arr := []Value{}
	for dec.More() {
		elem, err := parseValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		arr = append(arr, elem)
	}

	if _, err := dec.Token(); err != nil { // ']'
		return Value{}, err
	}

	return Value{kind: KindArray, arr: arr}, nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		buf.WriteString(string(v.num))
	case KindString:
		return writeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		if v.obj == nil {
			buf.WriteString("{}")
			return nil
		}
		return v.obj.write(buf)
	default:
		return fmt.Errorf("jwt: cannot serialize %s", v.kind)
	}

	return nil
}

// writeString writes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}

	buf.Truncate(buf.Len() - 1) // Encode appends a newline.
	return nil
}
