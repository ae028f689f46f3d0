// Package render turns timeline records into terminal output. Plain bodies
// pass through uninterpreted, with control characters stripped so peer
// content can neither act as markup nor inject terminal escapes;
// Markdown and automated replies go through glamour, with fenced code blocks
// in automated replies highlighted via chroma.
package render

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/VarunWeb6/ALEX-AI/internal/timeline"
)

// fenceRegex matches a fenced code block with an optional language hint.
var fenceRegex = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

type Renderer struct {
	md    *glamour.TermRenderer
	width int
}

// New builds a renderer wrapping at width columns. If glamour cannot be
// constructed the renderer degrades to verbatim output rather than failing.
func New(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		md = nil
	}
	return &Renderer{md: md, width: width}
}

// Record renders one timeline record according to its classified kind.
func (r *Renderer) Record(rec timeline.Record) string {
	switch rec.Kind {
	case timeline.KindAI:
		return r.automated(rec.Text)
	case timeline.KindMarkdown:
		return r.markdown(rec.Text)
	default:
		return sanitizePlain(rec.Text)
	}
}

// sanitizePlain strips control characters from passthrough text so a peer
// cannot smuggle ANSI escape sequences into the terminal. Newlines and tabs
// survive; everything else below 0x20 (and DEL) is dropped.
func sanitizePlain(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, text)
}

// markdown renders md text, returning it verbatim when rendering fails.
func (r *Renderer) markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// automated renders an AI reply: prose through glamour, fenced code blocks
// through the chroma code block override.
func (r *Renderer) automated(text string) string {
	matches := fenceRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return r.markdown(text)
	}

	var out strings.Builder
	last := 0
	for _, m := range matches {
		if prose := text[last:m[0]]; strings.TrimSpace(prose) != "" {
			out.WriteString(r.markdown(prose))
			out.WriteString("\n")
		}
		lang := text[m[2]:m[3]]
		code := text[m[4]:m[5]]
		block := NewCodeBlock(lang, code)
		block.MaxWidth = r.width
		out.WriteString(block.Render())
		out.WriteString("\n")
		last = m[1]
	}
	if tail := text[last:]; strings.TrimSpace(tail) != "" {
		out.WriteString(r.markdown(tail))
	}
	return strings.TrimRight(out.String(), "\n")
}
