package guide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/guidegen/pkg/markup"
	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
)

func structure(t *testing.T, body string) (*Session, string, *report.Collector) {
	t.Helper()
	rendered, err := markup.NewRenderer().Render(body)
	require.NoError(t, err)
	collector := report.NewCollector()
	session := NewSession("test.md", collector)
	out, err := session.Structure(rendered)
	require.NoError(t, err)
	return session, out, collector
}

func ids(hs []*Heading) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out
}

func numbers(hs []*Heading) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.NumberString()
	}
	return out
}

func TestStructure_Numbering(t *testing.T) {
	session, out, _ := structure(t, "### A\n\n#### B\n\n#### C\n\n### D\n\n#### E\n")

	assert.Equal(t, []string{"1", "1.1", "1.2", "2", "2.1"}, numbers(session.Headings()))
	assert.Contains(t, out, `<h3 id="a"><a class="anchorlink" href="#a"></a>1 A</h3>`)
	assert.Contains(t, out, `<h4 id="e"><a class="anchorlink" href="#e"></a>2.1 E</h4>`)
}

func TestStructure_DeepNumberingResets(t *testing.T) {
	session, _, _ := structure(t, "### A\n\n#### B\n\n##### C\n\n###### D\n\n##### E\n\n#### F\n\n##### G\n")
	assert.Equal(t, []string{"1", "1.1", "1.1.1", "1.1.1.1", "1.1.2", "1.2", "1.2.1"}, numbers(session.Headings()))
}

func TestStructure_SkippedLevelNumbersByDepth(t *testing.T) {
	session, _, _ := structure(t, "### A\n\n##### B\n")
	assert.Equal(t, []string{"1", "1.1"}, numbers(session.Headings()))
}

func TestStructure_LowLevelsUntouched(t *testing.T) {
	_, out, _ := structure(t, "# Book\n\n## Chapter\n\n### A\n")
	assert.Contains(t, out, "<h1>Book</h1>")
	assert.Contains(t, out, "<h2>Chapter</h2>")
}

func TestStructure_CollisionPrefixesBothWithParent(t *testing.T) {
	session, out, _ := structure(t, "### Models\n\n#### Setup\n\n### Views\n\n#### Setup\n")

	assert.Equal(t, []string{"models", "models-setup", "views", "views-setup"}, ids(session.Headings()))
	assert.Contains(t, out, `<h4 id="models-setup"><a class="anchorlink" href="#models-setup"></a>1.1 Setup</h4>`)
	assert.NotContains(t, out, `id="setup"`)
}

func TestStructure_RepeatedCollisionStaysQualified(t *testing.T) {
	session, _, _ := structure(t, "### A\n\n#### Setup\n\n### B\n\n#### Setup\n\n### C\n\n#### Setup\n")
	assert.Equal(t, []string{"a", "a-setup", "b", "b-setup", "c", "c-setup"}, ids(session.Headings()))
}

func TestStructure_DeepCollisionUsesImmediateParent(t *testing.T) {
	session, _, _ := structure(t, "### A\n\n#### B\n\n##### Notes\n\n#### C\n\n##### Notes\n")
	assert.Equal(t, []string{"a", "b", "b-notes", "c", "c-notes"}, ids(session.Headings()))
}

func TestStructure_TopLevelCollisionGetsSuffix(t *testing.T) {
	session, _, _ := structure(t, "### Intro\n\n### Intro\n\n### Intro\n")
	assert.Equal(t, []string{"intro", "intro-2", "intro-3"}, ids(session.Headings()))
}

func TestStructure_CollisionWithParentlessClaimant(t *testing.T) {
	session, _, _ := structure(t, "### Setup\n\n#### Setup\n")
	assert.Equal(t, []string{"setup", "setup-setup"}, ids(session.Headings()))
}

func TestStructure_ExplicitIDKept(t *testing.T) {
	session, out, _ := structure(t, "### Custom {#my-id}\n\n#### Child\n")

	hs := session.Headings()
	require.Len(t, hs, 2)
	assert.True(t, hs[0].Explicit)
	assert.Equal(t, "my-id", hs[0].ID)
	assert.Equal(t, "1", hs[0].NumberString())
	assert.Contains(t, out, `<h3 id="my-id"><a class="anchorlink" href="#my-id"></a>1 Custom</h3>`)
}

func TestStructure_EmptySlugFallback(t *testing.T) {
	session, out, collector := structure(t, "### A\n\n#### (...)\n")

	assert.Equal(t, []string{"a", "section-1-1"}, ids(session.Headings()))
	assert.Contains(t, out, `id="section-1-1"`)
	assert.Equal(t, 1, collector.Count(models.DiagnosticEmptySlug, ""))
}

func TestStructure_NestedHeadingsNotStructured(t *testing.T) {
	session, out, _ := structure(t, "> ### Quoted\n\n### Real\n")
	assert.Equal(t, []string{"real"}, ids(session.Headings()))
	assert.Contains(t, out, "<h3>Quoted</h3>")
}

func TestStructure_AnchorLinksNeedAnID(t *testing.T) {
	_, out, _ := structure(t, "> ### Quoted\n\n> #### Named {#named}\n\n### Real\n")
	assert.Contains(t, out, "<h3>Quoted</h3>")
	assert.Contains(t, out, `<h4 id="named"><a class="anchorlink" href="#named"></a>Named</h4>`)
	assert.Contains(t, out, `<h3 id="real"><a class="anchorlink" href="#real"></a>1 Real</h3>`)
	assert.NotContains(t, out, `href="#"`)
}

func TestStructure_IndexEntries(t *testing.T) {
	session, _, _ := structure(t, "### A\n\n#### B *em*\n\n##### C\n\n###### D\n\n### E\n")

	entries := session.IndexEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, 1, entries[0].Level)
	assert.Equal(t, "A", entries[0].Label)
	assert.Equal(t, 2, entries[1].Level)
	assert.Equal(t, "B <em>em</em>", entries[1].Label)
	assert.Equal(t, "e", entries[2].Heading.ID)
}

func TestStructure_FreshSessionPerDocument(t *testing.T) {
	first, _, _ := structure(t, "### Intro\n")
	second, _, _ := structure(t, "### Intro\n")
	assert.Equal(t, ids(first.Headings()), ids(second.Headings()))
	assert.Equal(t, "1", second.Headings()[0].NumberString())
}

func TestStructure_EmptyBody(t *testing.T) {
	session, out, _ := structure(t, "")
	assert.Empty(t, out)
	assert.Empty(t, session.Headings())
}
