package guests

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ── JSON File Source ────────────────────────────────────────

type jsonFileSource struct{}

func init() { RegisterSource(&jsonFileSource{}) }

func (s *jsonFileSource) Spec() SourceSpec {
	return SourceSpec{
		Type:  "json_file",
		Label: "JSON File",
		ConfigFields: []ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Path to the JSON guest list"},
			{Key: "dataPath", Label: "Data Path", Help: "Dot-separated path to the array, e.g. 'event.guests'. Empty when the root is an array."},
		},
	}
}

func (s *jsonFileSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	records, err := readJSONFile(cfg)
	if err != nil {
		return nil, err
	}
	return inferSchema(records), nil
}

func (s *jsonFileSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	return emitAll(ctx, func() ([]Record, error) { return readJSONFile(cfg) })
}

func readJSONFile(cfg SourceConfig) ([]Record, error) {
	filePath := cfg.str("filePath")
	if filePath == "" {
		return nil, fmt.Errorf("filePath is required")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return decodeJSONRecords(data, cfg.str("dataPath"))
}

func decodeJSONRecords(data []byte, dataPath string) ([]Record, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if dataPath != "" {
		var err error
		if raw, err = navigatePath(raw, dataPath); err != nil {
			return nil, err
		}
	}
	return toRecords(raw), nil
}

// navigatePath walks a dot-separated path into nested objects.
func navigatePath(obj any, path string) (any, error) {
	current := obj
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid data path: %q not found", part)
		}
		if current, ok = m[part]; !ok {
			return nil, fmt.Errorf("invalid data path: %q not found", part)
		}
	}
	return current, nil
}

// toRecords turns an array of objects, or a single object, into records.
func toRecords(raw any) []Record {
	switch v := raw.(type) {
	case []any:
		records := make([]Record, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				records = append(records, Record{Data: flattenMap(m)})
			}
		}
		return records
	case map[string]any:
		return []Record{{Data: flattenMap(v)}}
	default:
		return nil
	}
}

// flattenMap keeps scalars and serializes nested values as JSON strings.
func flattenMap(m map[string]any) map[string]any {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		switch v.(type) {
		case string, float64, bool, nil:
			flat[k] = v
		default:
			b, _ := json.Marshal(v)
			flat[k] = string(b)
		}
	}
	return flat
}
