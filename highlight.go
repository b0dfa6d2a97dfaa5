package main

import (
	"os"
	"strings"

	"github.com/mhettinga/parley/layout"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// chromaHighlighter adapts chroma to the layout engine's Highlighter
// contract. Constructed once with the pre-detected background color; chroma
// styles are safe for reuse.
type chromaHighlighter struct {
	style *chroma.Style
	color bool
}

// newChromaHighlighter picks a chroma style for the background and disables
// highlighting entirely on terminals without color support.
func newChromaHighlighter(hasDarkBg bool) *chromaHighlighter {
	name := "github"
	if hasDarkBg {
		name = "dracula"
	}
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	profile := colorprofile.Detect(os.Stdout, os.Environ())
	return &chromaHighlighter{
		style: style,
		color: profile != colorprofile.NoTTY && profile != colorprofile.Ascii,
	}
}

// highlight tokenizes code for the fence language and returns styled lines.
// ok=false (unknown language, no color support, tokenize failure) makes the
// engine fall back to plain code styling.
func (h *chromaHighlighter) highlight(language, code string, theme *layout.Theme) ([]layout.Line, bool) {
	if !h.color || language == "" {
		return nil, false
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil, false
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil, false
	}

	var lines []layout.Line
	var cur layout.Line
	for token := iterator(); token != chroma.EOF; token = iterator() {
		st := h.spanStyle(token.Type)
		for i, part := range strings.Split(token.Value, "\n") {
			if i > 0 {
				lines = append(lines, cur)
				cur = layout.Line{}
			}
			if part == "" {
				continue
			}
			cur.Spans = append(cur.Spans, layout.Span{Text: part, Style: st})
		}
	}
	if len(cur.Spans) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines, true
}

// spanStyle maps a chroma style entry onto lipgloss.
func (h *chromaHighlighter) spanStyle(tt chroma.TokenType) lipgloss.Style {
	entry := h.style.Get(tt)
	st := lipgloss.NewStyle()
	if entry.Colour.IsSet() {
		st = st.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		st = st.Underline(true)
	}
	return st
}
