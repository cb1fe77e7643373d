package linkcheck

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
)

func newTestValidator() *Validator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewValidator(logrus.NewEntry(logger))
}

func TestCheck_SuggestsClosestAnchor(t *testing.T) {
	page := `<html><body>
<a href="#mainCol">Skip</a>
<div id="mainCol">
<h3 id="intro">1 Intro</h3>
<h4 id="intro-setup">1.1 Setup</h4>
<p>See <a href="#intor">intro</a> and <a href="#intro-setup">setup</a>.</p>
</div>
</body></html>`

	res, err := Check(page)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "intro-setup"}, res.Anchors)
	require.Len(t, res.Broken, 1)
	assert.Equal(t, "intor", res.Broken[0].Fragment)
	assert.Equal(t, "intro", res.Broken[0].Suggestion)
	assert.Equal(t, []string{"#intor"}, res.Fragments())
}

func TestCheck_NoSuggestionWhenNothingClose(t *testing.T) {
	res, err := Check(`<h3 id="intro">Intro</h3><a href="#completely-unrelated-anchor">x</a>`)
	require.NoError(t, err)
	require.Len(t, res.Broken, 1)
	assert.Empty(t, res.Broken[0].Suggestion)
}

func TestCheck_NoHeadingsNoReferences(t *testing.T) {
	res, err := Check(`<p>Nothing to see.</p>`)
	require.NoError(t, err)
	assert.Empty(t, res.Anchors)
	assert.Empty(t, res.Broken)
	assert.Empty(t, res.Fragments())
}

func TestCheck_Duplicates(t *testing.T) {
	res, err := Check(`<h3 id="setup">A</h3><h4 id="setup">B</h4><a href="#setup">s</a>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"setup"}, res.Anchors)
	assert.Equal(t, []string{"setup"}, res.Duplicates)
	assert.Empty(t, res.Broken)
}

func TestCheck_OnlyLevelsThreeToSixAreHeadingAnchors(t *testing.T) {
	res, err := Check(`<h2 id="top">T</h2><h6 id="deep">D</h6><a href="#top">t</a><a href="#deep">d</a>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"deep"}, res.Anchors)
	assert.Equal(t, []string{"#top"}, res.Fragments())
}

func TestCheck_Footnotes(t *testing.T) {
	page := `<p>Claim<sup id="fnref:1"><a href="#fn:1" class="footnote-ref">1</a></sup></p>
<p class="footnote" id="legacy-note">old style</p>
<sup class="footnote" id="legacy-ref">1</sup>
<div class="footnotes"><ol><li id="fn:1"><p>Source <a href="#fnref:1">back</a></p></li></ol></div>
<p><a href="#legacy-note">n</a><a href="#legacy-ref">r</a></p>`

	res, err := Check(page)
	require.NoError(t, err)
	assert.Empty(t, res.Broken)
	assert.ElementsMatch(t, []string{"fnref:1", "fn:1", "legacy-note", "legacy-ref"}, res.Anchors)
	assert.Empty(t, res.Duplicates)
}

func TestCheck_URLDecodedMembership(t *testing.T) {
	res, err := Check(`<h3 id="caf&eacute;">Caf&eacute;</h3><a href="#caf%C3%A9">x</a>`)
	require.NoError(t, err)
	assert.Empty(t, res.Broken)
}

func TestSuggest(t *testing.T) {
	anchors := []string{"intro", "intro-setup", "conventions"}
	assert.Equal(t, "intro", Suggest("intor", anchors))
	assert.Equal(t, "conventions", Suggest("convention", anchors))
	assert.Equal(t, "", Suggest("xyz", anchors))
	assert.Equal(t, "", Suggest("intro", nil))
}

func TestValidator_Validate(t *testing.T) {
	collector := report.NewCollector()
	page := `<h3 id="intro">I</h3><h3 id="intro">I</h3><a href="#intor">x</a><a href="#mainCol">m</a>`

	broken, err := newTestValidator().Validate("intro.md", models.VariantGuide, page, collector)
	require.NoError(t, err)
	assert.Equal(t, []string{"#intor"}, broken)

	links := collector.Filter(models.DiagnosticBrokenLink, models.VariantGuide)
	require.Len(t, links, 1)
	assert.Equal(t, "intro", links[0].Suggestion)
	assert.Equal(t, "*** BROKEN LINK: #intor, perhaps you meant #intro.", links[0].Message)
	assert.Equal(t, 1, collector.Count(models.DiagnosticDuplicateAnchor, ""))
}
