package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/killallgit/partstream/pkg/logger"
)

// Highlighter applies syntax highlighting to file previews
type Highlighter struct {
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewHighlighter creates a highlighter using a chroma formatter by name
// ("terminal16m", "terminal256", "noop", ...). Unknown names fall back to
// chroma's default formatter.
func NewHighlighter(formatterName, styleName string) *Highlighter {
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{formatter: formatter, style: style}
}

// Highlight renders content, picking the lexer from the filename and then
// from the content itself. On any failure the content is returned as is.
func (h *Highlighter) Highlight(content, filename string) string {
	if content == "" {
		return ""
	}
	log := logger.WithComponent("highlight")

	var lexer chroma.Lexer
	if filename != "" {
		lexer = lexers.Match(filename)
	}
	if lexer == nil {
		lexer = lexers.Analyse(content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		log.Debug("Failed to tokenize code, using plain text", "error", err)
		return content
	}
	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		log.Debug("Failed to format code, using plain text", "error", err)
		return content
	}
	return buf.String()
}

// Language returns the lexer name chosen for a filename, or ""
func Language(filename string) string {
	if filename == "" {
		return ""
	}
	if lexer := lexers.Match(filename); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
