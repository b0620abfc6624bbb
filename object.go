package jwt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is an ordered JSON object. Header and payload are both Objects.
//
// Members keep the order they were first set in, which is also the order
// they are serialized in. The zero Object is empty and ready to use.
// Copies share storage: use Clone before mutating an Object you did not build.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewHeader returns a header with the given "alg" and "typ":"JWT".
func NewHeader(alg string) Object {
	var h Object
	h.Set("alg", StringValue(alg))
	h.Set("typ", StringValue("JWT"))
	return h
}

// ObjectOf builds an Object from a Go map or struct through its JSON form.
func ObjectOf(v any) (Object, error) {
	val, err := ValueOf(v)
	if err != nil {
		return Object{}, err
	}

	obj, ok := val.AsObject()
	if !ok {
		return Object{}, fmt.Errorf("jwt: expected a JSON object but got %s", val.Kind())
	}

	return obj, nil
}

// ParseObject parses a JSON object from data.
func ParseObject(data []byte) (Object, error) {
	val, err := ParseValue(data)
	if err != nil {
		return Object{}, err
	}

	obj, ok := val.AsObject()
	if !ok {
		return Object{}, fmt.Errorf("jwt: expected a JSON object but got %s", val.Kind())
	}

	return obj, nil
}

// Len returns the number of members.
func (o Object) Len() int { return len(o.keys) }

// Keys returns the member names in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Get returns the member named key.
func (o Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether the member named key exists.
func (o Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Set adds or replaces a member. A replaced member keeps its position.
func (o *Object) Set(key string, v Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}

	key = validUTF8(key)
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes the member named key.
func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}

	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a copy of o that can be mutated independently.
func (o Object) Clone() Object {
	if len(o.keys) == 0 {
		return Object{}
	}

	c := Object{
		keys:   make([]string, len(o.keys)),
		values: make(map[string]Value, len(o.values)),
	}
	copy(c.keys, o.keys)
	for k, v := range o.values {
		c.values[k] = v
	}

	return c
}

// Equal reports whether both objects hold the same members,
// regardless of order.
func (o Object) Equal(other Object) bool {
	if len(o.keys) != len(other.keys) {
		return false
	}

	for k, v := range o.values {
		ov, ok := other.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}

	return true
}

// Map converts o to a map[string]any (see Value.Interface).
func (o Object) Map() map[string]any {
	m := make(map[string]any, len(o.keys))
	for k, v := range o.values {
		m[k] = v.Interface()
	}
	return m
}

// Decode unmarshals the object into dest, like json.Unmarshal.
func (o Object) Decode(dest any) error {
	b, err := o.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

// MarshalJSON writes the members in order without insignificant whitespace.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object into o.
func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := ParseObject(data)
	if err != nil {
		return err
	}

	*o = parsed
	return nil
}

// String returns the JSON text of o.
func (o Object) String() string {
	b, err := o.MarshalJSON()
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return string(b)
}

func (o Object) write(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, o.values[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
