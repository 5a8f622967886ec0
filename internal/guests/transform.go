package guests

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ── Transformer ────────────────────────────────────────────
// Transformers reshape guest records before the merge. Each returns the
// (possibly modified) record and whether to keep it.

type Transformer interface {
	Transform(Record) (Record, bool)
}

// TransformerFunc adapts a plain function to Transformer.
type TransformerFunc func(Record) (Record, bool)

func (f TransformerFunc) Transform(r Record) (Record, bool) { return f(r) }

// FilterTransform keeps records whose field matches Value under Op.
type FilterTransform struct {
	Field string
	Op    string // "eq" | "neq" | "gt" | "lt" | "contains" | "present"
	Value any
}

func (t *FilterTransform) Transform(r Record) (Record, bool) {
	if t.Op == "present" {
		return r, r.Value(t.Field) != ""
	}
	v, ok := r.Data[t.Field]
	if !ok {
		return r, false
	}
	switch t.Op {
	case "eq":
		return r, strings.EqualFold(fmt.Sprint(v), fmt.Sprint(t.Value))
	case "neq":
		return r, !strings.EqualFold(fmt.Sprint(v), fmt.Sprint(t.Value))
	case "contains":
		return r, strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(t.Value)))
	case "gt":
		return r, toFloat(v) > toFloat(t.Value)
	case "lt":
		return r, toFloat(v) < toFloat(t.Value)
	default:
		return r, true
	}
}

// RenameTransform renames fields, old name to new name. All renames read
// the record as it was, so {a: b, b: a} swaps the two fields.
type RenameTransform struct {
	Mapping map[string]string
}

func (t *RenameTransform) Transform(r Record) (Record, bool) {
	moved := make(map[string]any, len(t.Mapping))
	for from, to := range t.Mapping {
		if v, ok := r.Data[from]; ok {
			moved[to] = v
			delete(r.Data, from)
		}
	}
	for to, v := range moved {
		r.Data[to] = v
	}
	return r, true
}

// ComputeTransform sets fields from {field} templates, e.g.
// "fullName" = "{first} {last}".
type ComputeTransform struct {
	Columns []ComputeColumn
}

type ComputeColumn struct {
	Name       string
	Expression string
}

func (t *ComputeTransform) Transform(r Record) (Record, bool) {
	for _, col := range t.Columns {
		if col.Name == "" || col.Expression == "" {
			continue
		}
		resolved := col.Expression
		for k := range r.Data {
			resolved = strings.ReplaceAll(resolved, "{"+k+"}", r.Value(k))
		}
		r.Data[col.Name] = strings.TrimSpace(resolved)
	}
	return r, true
}

// DedupeTransform drops records whose Key value was already seen.
type DedupeTransform struct {
	Key  string
	seen map[string]bool
}

func NewDedupeTransform(key string) *DedupeTransform {
	return &DedupeTransform{Key: key, seen: make(map[string]bool)}
}

func (t *DedupeTransform) Transform(r Record) (Record, bool) {
	v := strings.ToLower(r.Value(t.Key))
	if t.seen[v] {
		return r, false
	}
	t.seen[v] = true
	return r, true
}

// LimitTransform keeps the first Count records.
type LimitTransform struct {
	Count int
	seen  int
}

func NewLimitTransform(count int) *LimitTransform {
	return &LimitTransform{Count: count}
}

func (t *LimitTransform) Transform(r Record) (Record, bool) {
	t.seen++
	return r, t.seen <= t.Count
}

// SortTransform orders the whole batch. It passes records through while
// streaming; ApplyBatchSort does the sorting.
type SortTransform struct {
	Field     string
	Direction string // "asc" | "desc"
}

func (t *SortTransform) Transform(r Record) (Record, bool) { return r, true }

// ApplyTransformers runs r through ts in order.
func ApplyTransformers(r Record, ts []Transformer) (Record, bool) {
	for _, t := range ts {
		var keep bool
		r, keep = t.Transform(r)
		if !keep {
			return r, false
		}
	}
	return r, true
}

// ApplyBatchSort sorts records by the last SortTransform in ts.
func ApplyBatchSort(records []Record, ts []Transformer) []Record {
	var st *SortTransform
	for _, t := range ts {
		if s, ok := t.(*SortTransform); ok && s.Field != "" {
			st = s
		}
	}
	if st == nil {
		return records
	}
	sorted := make([]Record, len(records))
	copy(sorted, records)
	dir := 1
	if st.Direction == "desc" {
		dir = -1
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareValues(sorted[i].Data[st.Field], sorted[j].Data[st.Field])*dir < 0
	})
	return sorted
}

// TransformConfig is the declarative form of a transformer.
type TransformConfig struct {
	Type   string         `json:"type"` // "filter" | "rename" | "compute" | "sort" | "limit"
	Config map[string]any `json:"config"`
}

// BuildTransformers converts configs into transformers. A non-empty
// dedupeKey appends a DedupeTransform.
func BuildTransformers(configs []TransformConfig, dedupeKey string) ([]Transformer, error) {
	var ts []Transformer
	for _, tc := range configs {
		switch tc.Type {
		case "filter":
			field, _ := tc.Config["field"].(string)
			op, _ := tc.Config["op"].(string)
			if field == "" || op == "" {
				return nil, fmt.Errorf("filter needs field and op")
			}
			ts = append(ts, &FilterTransform{Field: field, Op: op, Value: tc.Config["value"]})

		case "rename":
			mapping, ok := tc.Config["mapping"].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("rename needs a mapping object")
			}
			m := make(map[string]string, len(mapping))
			for k, v := range mapping {
				m[k] = fmt.Sprint(v)
			}
			ts = append(ts, &RenameTransform{Mapping: m})

		case "compute":
			var cols []ComputeColumn
			switch raw := tc.Config["columns"].(type) {
			case []any:
				for _, c := range raw {
					if cm, ok := c.(map[string]any); ok {
						name, _ := cm["name"].(string)
						expr, _ := cm["expression"].(string)
						cols = append(cols, ComputeColumn{Name: name, Expression: expr})
					}
				}
			case map[string]any:
				for name, expr := range raw {
					cols = append(cols, ComputeColumn{Name: name, Expression: fmt.Sprint(expr)})
				}
				sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
			}
			if len(cols) == 0 {
				return nil, fmt.Errorf("compute needs columns")
			}
			ts = append(ts, &ComputeTransform{Columns: cols})

		case "sort":
			field, _ := tc.Config["field"].(string)
			direction, _ := tc.Config["direction"].(string)
			if field == "" {
				return nil, fmt.Errorf("sort needs a field")
			}
			ts = append(ts, &SortTransform{Field: field, Direction: direction})

		case "limit":
			count := int(toFloat(tc.Config["count"]))
			if count <= 0 {
				return nil, fmt.Errorf("limit needs a positive count")
			}
			ts = append(ts, NewLimitTransform(count))

		default:
			return nil, fmt.Errorf("unknown transform type: %q", tc.Type)
		}
	}
	if dedupeKey != "" {
		ts = append(ts, NewDedupeTransform(dedupeKey))
	}
	return ts, nil
}

func compareValues(a, b any) int {
	fa, aOk := toFloatSafe(a)
	fb, bOk := toFloatSafe(b)
	if aOk && bOk {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func toFloatSafe(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toFloat(v any) float64 {
	f, _ := toFloatSafe(v)
	return f
}
