package guests

import (
	"fmt"
	"sort"
	"strconv"
)

// ── Record ─────────────────────────────────────────────────
// One guest row. Every source emits Records and the merge engine
// consumes them.

// Field describes a single column of a guest list.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"` // "text" | "number" | "boolean"
}

// Schema describes the columns a source produces.
type Schema struct {
	Fields []Field `json:"fields"`
}

// FieldNames returns the column names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Record is a single guest.
type Record struct {
	Data map[string]any `json:"data"`
}

// Value renders field as text. Missing and nil fields are "".
// Whole numbers print without a decimal point.
func (r Record) Value(field string) string {
	v, ok := r.Data[field]
	if !ok || v == nil {
		return ""
	}
	switch n := v.(type) {
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// inferSchema builds a schema from the union of record fields, sorted by name.
func inferSchema(records []Record) *Schema {
	types := make(map[string]string)
	for _, rec := range records {
		for k, v := range rec.Data {
			if _, ok := types[k]; !ok || types[k] == "text" && v != nil {
				types[k] = inferType(v)
			}
		}
	}
	schema := &Schema{}
	for name, typ := range types {
		schema.Fields = append(schema.Fields, Field{Name: name, Type: typ})
	}
	sort.Slice(schema.Fields, func(i, j int) bool { return schema.Fields[i].Name < schema.Fields[j].Name })
	return schema
}

func inferType(v any) string {
	switch v.(type) {
	case float64, float32, int, int32, int64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "text"
	}
}
