package content

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Value is a field value: a scalar string or an ordered list of strings
// (tags, gallery urls).
type Value struct {
	str    string
	list   []string
	isList bool
}

// String returns a scalar value.
func String(s string) Value { return Value{str: s} }

// List returns a list value. A nil/empty list is still a list.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{list: cp, isList: true}
}

func (v Value) IsList() bool { return v.isList }

// Str returns the scalar string, or the list joined with ", ".
func (v Value) Str() string {
	if v.isList {
		return strings.Join(v.list, ", ")
	}
	return v.str
}

// Items returns a copy of the list, or a one-element list for a non-empty scalar.
func (v Value) Items() []string {
	if !v.isList {
		if v.str == "" {
			return nil
		}
		return []string{v.str}
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

func (v Value) Equal(o Value) bool {
	if v.isList != o.isList {
		return false
	}
	if !v.isList {
		return v.str == o.str
	}
	if len(v.list) != len(o.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

// Raw returns the value as string or []string, the shape stored in Mongo.
func (v Value) Raw() interface{} {
	if v.isList {
		return v.Items()
	}
	return v.str
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isList {
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = String(s)
		return nil
	}
	var l []string
	if err := json.Unmarshal(b, &l); err != nil {
		return fmt.Errorf("%w: expected string or list of strings", ErrInvalidValue)
	}
	*v = List(l...)
	return nil
}

// ValueOf converts a decoded store value (string, []string, []interface{})
// into a Value. ok is false for shapes a content field cannot hold.
func ValueOf(raw interface{}) (Value, bool) {
	switch t := raw.(type) {
	case string:
		return String(t), true
	case []string:
		return List(t...), true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, it := range t {
			s, ok := it.(string)
			if !ok {
				return Value{}, false
			}
			out = append(out, s)
		}
		return List(out...), true
	}
	return Value{}, false
}

// Fields is a flat mapping from field name to value.
type Fields map[string]Value

func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Get returns the scalar form of a field ("" when missing).
func (f Fields) Get(name string) string {
	return f[name].Str()
}

// Merge returns a copy of f with every field of patch applied.
func (f Fields) Merge(patch Fields) Fields {
	out := f.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Names returns field names sorted, for stable output.
func (f Fields) Names() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Raw converts the fields into plain Go values for storage.
func (f Fields) Raw() map[string]interface{} {
	out := make(map[string]interface{}, len(f))
	for k, v := range f {
		out[k] = v.Raw()
	}
	return out
}

// ContentDocument is the single named record backing one page area
// ("hero", "contact", ...).
type ContentDocument struct {
	Area   string `json:"area"`
	Fields Fields `json:"fields"`
}

// CollectionItem is one element of a repeating list. ID is assigned by the
// store and never changes; CreatedAt (unix ms) only drives initial ordering.
type CollectionItem struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	Fields    Fields `json:"fields"`
}

// Update is a single-field change validated against a section schema.
type Update struct {
	Field string `json:"field" binding:"required"`
	Value Value  `json:"value"`
}
