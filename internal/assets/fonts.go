package assets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"invitopia/internal/domain"
)

// DefaultFonts are the families offered when no catalog is configured.
var DefaultFonts = []string{
	"Inter", "Playfair Display", "Pacifico", "Great Vibes",
	"Lobster", "Montserrat", "Dancing Script", "Roboto",
}

// FontCatalog is a fixed set of font families.
type FontCatalog struct {
	families map[string]string // lower-case -> canonical
}

func NewFontCatalog(families ...string) *FontCatalog {
	if len(families) == 0 {
		families = DefaultFonts
	}
	c := &FontCatalog{families: make(map[string]string, len(families))}
	for _, f := range families {
		f = strings.TrimSpace(f)
		if f != "" {
			c.families[strings.ToLower(f)] = f
		}
	}
	return c
}

// List returns the families sorted by name.
func (c *FontCatalog) List() []string {
	out := make([]string, 0, len(c.families))
	for _, f := range c.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// SelectFont returns the canonical family name for query, matched
// case-insensitively.
func (c *FontCatalog) SelectFont(_ context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return "", fmt.Errorf("empty font query: %w", domain.ErrInvalidArgument)
	}
	if f, ok := c.families[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("font %q: %w", query, domain.ErrNotFound)
}
