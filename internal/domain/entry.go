package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EntryAttribute is one normalized directory attribute. Value is either a
// string (single-valued) or a []string (multi-valued).
type EntryAttribute struct {
	Name  string
	Value any
}

// Entry is a normalized directory entry. Attribute order follows the order
// returned by the server.
type Entry struct {
	DN         string
	Attributes []EntryAttribute
}

// Set appends or replaces an attribute value.
func (e *Entry) Set(name string, value any) {
	for i := range e.Attributes {
		if strings.EqualFold(e.Attributes[i].Name, name) {
			e.Attributes[i].Value = value
			return
		}
	}
	e.Attributes = append(e.Attributes, EntryAttribute{Name: name, Value: value})
}

// Get returns the raw attribute value (string or []string).
func (e Entry) Get(name string) (any, bool) {
	for _, a := range e.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return nil, false
}

// String returns the first value of the attribute, or "".
func (e Entry) String(name string) string {
	v, ok := e.Get(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

// Strings returns the attribute as a slice regardless of cardinality.
func (e Entry) Strings(name string) []string {
	v, ok := e.Get(name)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	}
	return nil
}

// MarshalJSON encodes the entry as an object with "dn" first and the
// attributes in server order.
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	dn, err := json.Marshal(e.DN)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"dn":`)
	buf.Write(dn)
	for _, a := range e.Attributes {
		if strings.EqualFold(a.Name, "dn") {
			continue
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
