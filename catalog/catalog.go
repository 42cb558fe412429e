// Package catalog holds the static registry of UI components the generator is
// allowed to use. The registry maps a component title to a human-readable
// description and is loaded once at process start; request handling only ever
// reads from it.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Ref is a component chosen by the selection stage: the catalog title plus the
// model's rationale for including it.
type Ref struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Catalog is a read-only title -> description registry.
type Catalog struct {
	descriptions map[string]string
	titles       []string
}

// catalogFile mirrors the on-disk layout: {"descriptions": {"Button": "..."}}.
type catalogFile struct {
	Descriptions map[string]string `json:"descriptions"`
}

// Load reads the catalog JSON from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from raw JSON bytes.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Descriptions) == 0 {
		return nil, fmt.Errorf("catalog has no components")
	}
	titles := make([]string, 0, len(file.Descriptions))
	for title := range file.Descriptions {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return &Catalog{descriptions: file.Descriptions, titles: titles}, nil
}

// Len reports the number of registered components.
func (c *Catalog) Len() int { return len(c.titles) }

// Titles returns the component names in sorted order.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.titles))
	copy(out, c.titles)
	return out
}

// Has reports whether a component with the exact title exists.
func (c *Catalog) Has(title string) bool {
	_, ok := c.descriptions[title]
	return ok
}

// Description returns the description for a title, empty when unknown.
func (c *Catalog) Description(title string) string {
	return c.descriptions[title]
}

// Describe renders the whole registry as "Title: description" lines, the form
// the selection prompt embeds.
func (c *Catalog) Describe() string {
	var b strings.Builder
	for _, title := range c.titles {
		b.WriteString(title)
		b.WriteString(": ")
		b.WriteString(c.descriptions[title])
		b.WriteString("\n")
	}
	return b.String()
}

// Filter drops refs whose title has no catalog entry. Unknown titles are not
// an error: the model occasionally invents components and those proposals are
// silently discarded.
func (c *Catalog) Filter(refs []Ref) []Ref {
	kept := make([]Ref, 0, len(refs))
	for _, ref := range refs {
		if c.Has(ref.Title) {
			kept = append(kept, ref)
		}
	}
	return kept
}
