package report

import (
	"sort"
	"sync"

	"github.com/Sriram-PR/guidegen/pkg/models"
)

// Collector accumulates diagnostics from concurrent document renders.
// It is append-only; callers receive copies.
type Collector struct {
	mu          sync.Mutex
	diagnostics []models.Diagnostic
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a diagnostic.
func (c *Collector) Add(d models.Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything recorded so far, in insertion order.
func (c *Collector) Diagnostics() []models.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// Filter returns the diagnostics of one kind, optionally restricted to one variant
// (an empty variant matches all).
func (c *Collector) Filter(kind models.DiagnosticKind, variant models.Variant) []models.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.Diagnostic
	for _, d := range c.diagnostics {
		if d.Kind != kind {
			continue
		}
		if variant != "" && d.Variant != variant {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Count returns the number of diagnostics of a kind for a variant (empty = any).
func (c *Collector) Count(kind models.DiagnosticKind, variant models.Variant) int {
	return len(c.Filter(kind, variant))
}

// Len returns the total number of diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diagnostics)
}

// Merge appends all diagnostics of other into c.
func (c *Collector) Merge(other *Collector) {
	if other == nil || other == c {
		return
	}
	ds := other.Diagnostics()
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, ds...)
	c.mu.Unlock()
}

// BySource groups diagnostics by source file, with sources sorted.
func (c *Collector) BySource() ([]string, map[string][]models.Diagnostic) {
	groups := make(map[string][]models.Diagnostic)
	for _, d := range c.Diagnostics() {
		groups[d.Source] = append(groups[d.Source], d)
	}
	sources := make([]string, 0, len(groups))
	for s := range groups {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources, groups
}
