package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// CodeBlock renders one fenced code block with syntax highlighting keyed by
// the fence language hint.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
}

func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{Language: language, Code: code, MaxWidth: 80}
}

var (
	langBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1).
			Bold(true)

	blockStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Render returns the highlighted block. Highlighting failures fall back to
// the unstyled code so a bad fence never loses content.
func (c CodeBlock) Render() string {
	code := strings.TrimRight(c.Code, "\n")
	body := highlight(code, c.Language)

	var out strings.Builder
	if c.Language != "" {
		out.WriteString(langBadgeStyle.Render(c.Language))
		out.WriteString("\n")
	}
	out.WriteString(blockStyle.MaxWidth(c.MaxWidth).Render(body))
	return out.String()
}

// highlight runs chroma over code. An unknown language uses the fallback
// (plaintext) lexer.
func highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
