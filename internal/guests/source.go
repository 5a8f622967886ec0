// Package guests reads guest lists from files, HTTP endpoints and
// databases, and merges each guest into a copy of a template.
package guests

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ── Source ──────────────────────────────────────────────────
// A Source reads guest records from an external system. Each
// implementation registers itself from init().

// SourceConfig is the per-source option map.
type SourceConfig map[string]any

func (c SourceConfig) str(key string) string {
	s, _ := c[key].(string)
	return s
}

// ConfigField describes one option of a source.
type ConfigField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	Default  string   `json:"default,omitempty"`
	Help     string   `json:"help,omitempty"`
}

// SourceSpec describes a source type and its options.
type SourceSpec struct {
	Type         string        `json:"type"`
	Label        string        `json:"label"`
	ConfigFields []ConfigField `json:"configFields"`
}

// Source is implemented by every guest list reader.
type Source interface {
	Spec() SourceSpec

	// Discover returns the columns the source would produce.
	Discover(ctx context.Context, cfg SourceConfig) (*Schema, error)

	// Read streams records. Both channels are closed when reading ends;
	// at most one error is sent.
	Read(ctx context.Context, cfg SourceConfig) (<-chan Record, <-chan error)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Source{}
)

// RegisterSource makes s available under its spec type.
func RegisterSource(s Source) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Spec().Type] = s
}

// GetSource returns the source registered for typ.
func GetSource(typ string) (Source, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("unknown guest source type: %q", typ)
	}
	return s, nil
}

// ListSources returns the specs of all registered sources, sorted by type.
func ListSources() []SourceSpec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	specs := make([]SourceSpec, 0, len(registry))
	for _, s := range registry {
		specs = append(specs, s.Spec())
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Type < specs[j].Type })
	return specs
}

// emitAll sends records to a new channel pair after load succeeds.
func emitAll(ctx context.Context, load func() ([]Record, error)) (<-chan Record, <-chan error) {
	out := make(chan Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		records, err := load()
		if err != nil {
			errCh <- err
			return
		}
		for _, rec := range records {
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

// Collect drains a source read into a slice.
func Collect(ctx context.Context, src Source, cfg SourceConfig) ([]Record, error) {
	recs, errs := src.Read(ctx, cfg)
	var out []Record
	for r := range recs {
		out = append(out, r)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
