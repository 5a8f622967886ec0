package guests

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"invitopia/internal/domain"
	"invitopia/internal/service"
)

// ── Merge ──────────────────────────────────────────────────
// source.Read → transform chain → one personalized template per guest.

// placeholderRe matches {{ field }} inside text content and image sources.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Built-in placeholders available in every merge.
const (
	FieldTemplate = "template" // name of the source template
	FieldIndex    = "n"        // 1-based guest number
)

// DefaultNamePattern names merged templates when the job sets none.
const DefaultNamePattern = "{{template}} #{{n}}"

// MergeJob describes one guest list merge.
type MergeJob struct {
	TemplateID  string            `json:"templateId"`
	SourceType  string            `json:"sourceType"`
	SourceCfg   SourceConfig      `json:"sourceConfig"`
	Transforms  []TransformConfig `json:"transforms,omitempty"`
	DedupeKey   string            `json:"dedupeKey,omitempty"`
	NamePattern string            `json:"namePattern,omitempty"`
	DryRun      bool              `json:"dryRun,omitempty"`
}

// MergeResult is the outcome of a merge.
type MergeResult struct {
	TemplateID    string                   `json:"templateId"`
	Status        string                   `json:"status"` // "success" | "error"
	RowsRead      int                      `json:"rowsRead"`
	RowsMerged    int                      `json:"rowsMerged"`
	Created       []domain.TemplateSummary `json:"created,omitempty"`
	Names         []string                 `json:"names,omitempty"`
	MissingFields []string                 `json:"missingFields,omitempty"`
	Duration      time.Duration            `json:"duration"`
	Error         string                   `json:"error,omitempty"`
}

// Templates is the template access the merge needs.
type Templates interface {
	Get(ctx context.Context, id string) (*domain.Template, error)
	Create(ctx context.Context, in service.CreateTemplateInput) (*domain.Template, error)
}

// Engine runs merges against a template service.
type Engine struct {
	Templates Templates
	log       *slog.Logger
}

func NewEngine(templates Templates) *Engine {
	return &Engine{Templates: templates, log: slog.Default().With("component", "guests")}
}

// Run reads the guest list, applies the transforms and creates one
// template per remaining guest. DryRun computes names without creating.
func (e *Engine) Run(ctx context.Context, job MergeJob) (*MergeResult, error) {
	start := time.Now()
	result := &MergeResult{TemplateID: job.TemplateID}
	fail := func(stage string, err error) (*MergeResult, error) {
		result.Status = "error"
		result.Error = fmt.Sprintf("%s: %s", stage, err)
		result.Duration = time.Since(start)
		e.log.Warn("guest merge failed", "template", job.TemplateID, "stage", stage, "err", err)
		return result, fmt.Errorf("%s: %w", stage, err)
	}

	tpl, err := e.Templates.Get(ctx, job.TemplateID)
	if err != nil {
		return fail("load template", err)
	}
	source, err := GetSource(job.SourceType)
	if err != nil {
		return fail("source", fmt.Errorf("%w: %w", err, domain.ErrInvalidArgument))
	}
	transformers, err := BuildTransformers(job.Transforms, job.DedupeKey)
	if err != nil {
		return fail("transforms", fmt.Errorf("%w: %w", err, domain.ErrInvalidArgument))
	}

	recCh, errCh := source.Read(ctx, job.SourceCfg)
	var records []Record
	for rec := range recCh {
		result.RowsRead++
		if out, keep := ApplyTransformers(rec, transformers); keep {
			records = append(records, out)
		}
	}
	if err := <-errCh; err != nil {
		return fail("read", err)
	}
	records = ApplyBatchSort(records, transformers)

	pattern := job.NamePattern
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultNamePattern
	}

	missing := make(map[string]bool)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return fail("merge", err)
		}
		fields := withBuiltins(rec, tpl.Name, i+1)
		name := strings.TrimSpace(Fill(pattern, fields, missing))
		if name == "" {
			name = fmt.Sprintf("%s #%d", tpl.Name, i+1)
		}
		elements := Render(tpl.Elements, fields, missing)
		result.Names = append(result.Names, name)
		result.RowsMerged++

		if job.DryRun {
			continue
		}
		created, err := e.Templates.Create(ctx, service.CreateTemplateInput{
			Name:     name,
			Metadata: tpl.Metadata,
			Elements: elements,
		})
		if err != nil {
			return fail(fmt.Sprintf("create guest %d", i+1), err)
		}
		result.Created = append(result.Created, domain.TemplateSummary{
			ID: created.ID, Name: created.Name, ElementCount: len(created.Elements), UpdatedAt: created.UpdatedAt,
		})
	}

	for f := range missing {
		result.MissingFields = append(result.MissingFields, f)
	}
	sort.Strings(result.MissingFields)

	result.Status = "success"
	result.Duration = time.Since(start)
	e.log.Info("guest merge finished", "template", job.TemplateID, "read", result.RowsRead,
		"merged", result.RowsMerged, "dryRun", job.DryRun, "missing", result.MissingFields)
	return result, nil
}

// Preview reads up to maxRows records without transforming them.
func (e *Engine) Preview(ctx context.Context, sourceType string, cfg SourceConfig, maxRows int) ([]Record, *Schema, error) {
	source, err := GetSource(sourceType)
	if err != nil {
		return nil, nil, err
	}
	schema, err := source.Discover(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("discover: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	recCh, errCh := source.Read(ctx, cfg)

	var records []Record
	for rec := range recCh {
		records = append(records, rec)
		if len(records) >= maxRows {
			cancel()
			break
		}
	}
	go func() {
		for range recCh {
		}
	}()
	if err := <-errCh; err != nil && ctx.Err() == nil {
		return records, schema, err
	}
	return records, schema, nil
}

func withBuiltins(rec Record, templateName string, n int) Record {
	data := make(map[string]any, len(rec.Data)+2)
	for k, v := range rec.Data {
		data[k] = v
	}
	if _, ok := data[FieldTemplate]; !ok {
		data[FieldTemplate] = templateName
	}
	data[FieldIndex] = strconv.Itoa(n)
	return Record{Data: data}
}

// Fill replaces the placeholders in s with record values. Fields absent
// from the record become "" and are added to missing when it is non-nil.
func Fill(s string, rec Record, missing map[string]bool) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		field := placeholderRe.FindStringSubmatch(m)[1]
		if _, ok := rec.Data[field]; !ok && missing != nil {
			missing[field] = true
		}
		return rec.Value(field)
	})
}

// Render returns a copy of elements with placeholders filled in text
// content and image sources.
func Render(elements []domain.Element, rec Record, missing map[string]bool) []domain.Element {
	out := domain.CloneElements(elements)
	for i := range out {
		if t := out[i].Text; t != nil {
			t.Content = Fill(t.Content, rec, missing)
		}
		if img := out[i].Image; img != nil {
			img.Src = Fill(img.Src, rec, missing)
		}
	}
	return out
}

// Placeholders lists the distinct fields a template references, sorted.
func Placeholders(elements []domain.Element) []string {
	seen := make(map[string]bool)
	collect := func(s string) {
		for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
			seen[m[1]] = true
		}
	}
	for _, e := range elements {
		if e.Text != nil {
			collect(e.Text.Content)
		}
		if e.Image != nil {
			collect(e.Image.Src)
		}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
