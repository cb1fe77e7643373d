package report

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/guidegen/pkg/models"
)

func TestCollector_ConcurrentAdd(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add(models.Diagnostic{Source: fmt.Sprintf("g%d.md", i), Kind: models.DiagnosticBrokenLink})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
	assert.Equal(t, 50, c.Count(models.DiagnosticBrokenLink, ""))
}

func TestCollector_FilterByVariant(t *testing.T) {
	c := NewCollector()
	c.Add(models.Diagnostic{Source: "a.md", Variant: models.VariantGuide, Kind: models.DiagnosticBrokenLink})
	c.Add(models.Diagnostic{Source: "a.md", Variant: models.VariantSlide, Kind: models.DiagnosticBrokenLink})
	c.Add(models.Diagnostic{Source: "a.md", Kind: models.DiagnosticMissingHeader})

	assert.Equal(t, 1, c.Count(models.DiagnosticBrokenLink, models.VariantGuide))
	assert.Equal(t, 2, c.Count(models.DiagnosticBrokenLink, ""))
	assert.Equal(t, 0, c.Count(models.DiagnosticEmptySlug, ""))
}

func TestCollector_DiagnosticsIsCopy(t *testing.T) {
	c := NewCollector()
	c.Add(models.Diagnostic{Source: "a.md", Message: "first"})
	ds := c.Diagnostics()
	ds[0].Message = "changed"
	assert.Equal(t, "first", c.Diagnostics()[0].Message)
}

func TestCollector_MergeAndBySource(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	a.Add(models.Diagnostic{Source: "z.md"})
	b.Add(models.Diagnostic{Source: "b.md"})
	b.Add(models.Diagnostic{Source: "z.md"})
	a.Merge(b)
	a.Merge(a)

	sources, groups := a.BySource()
	require.Equal(t, []string{"b.md", "z.md"}, sources)
	assert.Len(t, groups["z.md"], 2)
}
