package timeline

import (
	"encoding/json"
	"strings"
)

// Message kinds, decided once at ingestion.
type Kind string

const (
	KindPlain    Kind = "plain"
	KindMarkdown Kind = "markdown"
	KindAI       Kind = "ai"
)

// markdownTriggers is the cheap heuristic charset: heading, list markers,
// emphasis, link/image brackets. Deliberately isolated here so a real parser
// could replace it without touching rendering.
const markdownTriggers = "#*-+[]!"

// HasMarkdownTrigger reports whether body contains any Markdown trigger
// character.
func HasMarkdownTrigger(body string) bool {
	return strings.ContainsAny(body, markdownTriggers)
}

// aiPayload is the structured body of an automated-participant message.
type aiPayload struct {
	Text string `json:"text"`
}

// Classify decides how a message body renders. Automated senders carry a
// structured JSON payload whose text field is the displayable Markdown; a
// malformed or empty payload degrades to plain text of the raw body rather
// than failing the record. Human bodies are Markdown only when they contain a
// trigger character; otherwise they render verbatim so untrusted peer content
// is never interpreted as markup.
func Classify(sender Sender, body string) (Kind, string) {
	if sender.Automated() {
		var p aiPayload
		if err := json.Unmarshal([]byte(body), &p); err == nil && p.Text != "" {
			return KindAI, p.Text
		}
		return KindPlain, body
	}
	if HasMarkdownTrigger(body) {
		return KindMarkdown, body
	}
	return KindPlain, body
}
