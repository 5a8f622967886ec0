package guests

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ── CSV File Source ─────────────────────────────────────────

type csvFileSource struct{}

func init() { RegisterSource(&csvFileSource{}) }

func (s *csvFileSource) Spec() SourceSpec {
	return SourceSpec{
		Type:  "csv_file",
		Label: "CSV File",
		ConfigFields: []ConfigField{
			{Key: "filePath", Label: "File Path", Required: true, Help: "Path to the CSV guest list"},
			{Key: "delimiter", Label: "Delimiter", Default: ",", Help: "Column delimiter"},
			{Key: "hasHeader", Label: "Has Header", Options: []string{"true", "false"}, Default: "true", Help: "Whether the first row holds column names"},
		},
	}
}

func (s *csvFileSource) Discover(ctx context.Context, cfg SourceConfig) (*Schema, error) {
	headers, _, err := readCSVFile(cfg)
	if err != nil {
		return nil, err
	}
	schema := &Schema{Fields: make([]Field, len(headers))}
	for i, h := range headers {
		schema.Fields[i] = Field{Name: h, Type: "text"}
	}
	return schema, nil
}

func (s *csvFileSource) Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error) {
	return emitAll(ctx, func() ([]Record, error) {
		headers, rows, err := readCSVFile(cfg)
		if err != nil {
			return nil, err
		}
		records := make([]Record, 0, len(rows))
		for _, row := range rows {
			data := make(map[string]any, len(headers))
			for j, h := range headers {
				if j < len(row) {
					data[h] = inferCSVValue(row[j])
				}
			}
			records = append(records, Record{Data: data})
		}
		return records, nil
	})
}

func readCSVFile(cfg SourceConfig) ([]string, [][]string, error) {
	filePath := cfg.str("filePath")
	if filePath == "" {
		return nil, nil, fmt.Errorf("filePath is required")
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if delim := cfg.str("delimiter"); delim != "" {
		reader.Comma = []rune(delim)[0]
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty csv file")
	}

	if strings.EqualFold(cfg.str("hasHeader"), "false") {
		headers := make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i+1)
		}
		return headers, records, nil
	}

	headers := records[0]
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return headers, records[1:], nil
}

// inferCSVValue keeps names and other text intact and only converts
// plain numbers and true/false.
func inferCSVValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
