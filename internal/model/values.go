package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errUnsupportedValue = errors.New("value must be a string or an array of strings")

// Value is a generated cell: a single string, or an ordered list of strings
// for multi-select and checkbox fields.
type Value struct {
	Text  string
	Items []string
	Multi bool
}

// Scalar returns a single-string Value.
func Scalar(s string) Value {
	return Value{Text: s}
}

// List returns a list Value. A nil slice yields an empty list, not a scalar.
func List(items []string) Value {
	if items == nil {
		items = []string{}
	}
	return Value{Items: items, Multi: true}
}

// MarshalJSON encodes the value as a JSON string or array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Multi {
		return json.Marshal(v.Items)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a JSON string or an array of strings.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*v = List(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errUnsupportedValue
	}
	*v = Scalar(s)
	return nil
}

// Row maps field names to generated values and remembers insertion order.
type Row struct {
	keys   []string
	values map[string]Value
}

// NewRow returns an empty row with room for n fields.
func NewRow(n int) Row {
	return Row{keys: make([]string, 0, n), values: make(map[string]Value, n)}
}

// Set stores v under name. Re-setting a name keeps its original position.
func (r *Row) Set(name string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name.
func (r Row) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Keys returns field names in insertion order.
func (r Row) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len reports the number of fields in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// MarshalJSON encodes the row as a JSON object in insertion order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (r *Row) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("row must be a JSON object")
	}
	row := NewRow(0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var v Value
		if err := dec.Decode(&v); err != nil {
			return err
		}
		row.Set(key, v)
	}
	*r = row
	return nil
}

// Table is a set of generated rows plus the specs used to produce them.
type Table struct {
	Fields []FieldSpec `json:"fields"`
	Rows   []Row       `json:"rows"`
}

// CheckboxRecord is one row of the standalone checkbox path and of the
// key=value table view.
type CheckboxRecord struct {
	FieldName string   `json:"fieldName"`
	Options   []string `json:"options"`
	Selected  []string `json:"selected"`
}
