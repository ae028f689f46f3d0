package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
	"github.com/VarunWeb6/ALEX-AI/internal/timeline"
)

func TestPlainRecordNotInterpretedAsMarkup(t *testing.T) {
	r := New(80)
	body := "<script>alert(1)</script> plain body"
	rec := timeline.Record{Kind: timeline.KindPlain, Body: body, Text: body}

	// No markup interpretation on untrusted peer content.
	assert.Equal(t, body, r.Record(rec))
}

func TestPlainRecordStripsTerminalEscapes(t *testing.T) {
	r := New(80)
	body := "hi \x1b[31mred\x1b[0m\x07 there\nline\ttab\x7f"
	rec := timeline.Record{Kind: timeline.KindPlain, Body: body, Text: body}

	out := r.Record(rec)
	assert.Equal(t, "hi [31mred[0m there\nline\ttab", out)
	assert.NotContains(t, out, "\x1b", "escape bytes must never reach the terminal")
}

func TestAutomatedRecordRendersHeading(t *testing.T) {
	r := New(80)
	rec := timeline.NewRecord("1", timeline.AutomatedSender(), `{"text":"# Hi"}`, "u1")
	require.Equal(t, timeline.KindAI, rec.Kind)

	out := r.Record(rec)
	assert.Contains(t, out, "Hi")
	assert.NotContains(t, out, `{"text"`, "structured payload must not leak raw JSON")
}

func TestMalformedAutomatedPayloadRendersLiteral(t *testing.T) {
	r := New(80)
	rec := timeline.NewRecord("1", timeline.AutomatedSender(), `{text: oops`, "u1")
	require.Equal(t, timeline.KindPlain, rec.Kind)

	assert.Equal(t, `{text: oops`, r.Record(rec))
}

func TestMarkdownRecordRenders(t *testing.T) {
	r := New(80)
	rec := timeline.NewRecord("1", timeline.Human(api.UserRef{ID: "u2"}), "- item one", "u1")
	require.Equal(t, timeline.KindMarkdown, rec.Kind)

	out := r.Record(rec)
	assert.Contains(t, out, "item one")
}

func TestAutomatedCodeFenceHighlighted(t *testing.T) {
	r := New(80)
	text := "Here you go:\n```go\npackage main\n\nfunc main() {}\n```\nDone."
	out := r.automated(text)

	assert.Contains(t, out, "package")
	assert.Contains(t, out, "go", "language badge should appear")
	assert.Contains(t, out, "Done")
}

func TestHighlightUnknownLanguageFallsBack(t *testing.T) {
	out := highlight("just some words", "no-such-language")
	assert.Contains(t, out, "just some words")
}

func TestRendererSurvivesZeroWidth(t *testing.T) {
	r := New(0)
	rec := timeline.Record{Kind: timeline.KindMarkdown, Text: "**bold**"}
	out := r.Record(rec)
	assert.True(t, strings.Contains(out, "bold"))
}
