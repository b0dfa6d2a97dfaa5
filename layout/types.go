// Package layout turns chat transcript messages into exact, width-constrained
// terminal lines with per-span semantic metadata. It performs no I/O: callers
// hand it messages, a theme, and a LayoutConfig, and read back a Layout.
package layout

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// -- Messages -----------------------------------------------------------------

// Role identifies who (or what) produced a message.
type Role int

const (
	RoleUser Role = iota
	RoleAssistant
	RoleSystem
	RoleAppInfo
	RoleAppWarning
	RoleAppError
	RoleAppLog
	RoleToolCall
	RoleToolResult
)

// String returns the lowercase tag used for app-style line prefixes.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	case RoleSystem:
		return "system"
	case RoleAppInfo:
		return "info"
	case RoleAppWarning:
		return "warning"
	case RoleAppError:
		return "error"
	case RoleAppLog:
		return "log"
	case RoleToolCall:
		return "tool"
	case RoleToolResult:
		return "result"
	}
	return "unknown"
}

// Message is one transcript entry. The transcript owner appends messages,
// truncates the tail, or mutates the last message in place while streaming.
type Message struct {
	Role    Role
	Content string
}

// -- Spans and lines ------------------------------------------------------------

// Span is a styled run of text. A span never contains a newline.
type Span struct {
	Text  string
	Style lipgloss.Style
}

// Line is one terminal row, an ordered list of spans.
type Line struct {
	Spans []Span
}

// Text concatenates the line's span texts.
func (l Line) Text() string {
	s := ""
	for _, sp := range l.Spans {
		s += sp.Text
	}
	return s
}

// Width returns the line's display width in terminal columns.
func (l Line) Width() int {
	w := 0
	for _, sp := range l.Spans {
		w += runewidth.StringWidth(sp.Text)
	}
	return w
}

// blank reports whether the line has no spans or only whitespace.
func (l Line) blank() bool {
	for _, sp := range l.Spans {
		for _, r := range sp.Text {
			if r != ' ' && r != '\t' {
				return false
			}
		}
	}
	return true
}

// -- Span metadata --------------------------------------------------------------

// KindTag discriminates SpanKind values.
type KindTag int

const (
	KindText KindTag = iota
	KindUserPrefix
	KindAppPrefix
	KindLink
	KindCodeBlock
)

// SpanKind is the semantic tag carried alongside each rendered span. Links
// carry their target href; code block spans carry the fence language and a
// block index that is unique across the rendered transcript.
type SpanKind struct {
	Tag        KindTag
	Href       string // KindLink only
	Language   string // KindCodeBlock only
	BlockIndex int    // KindCodeBlock only
}

// TextKind is the zero SpanKind, tagging plain text.
var TextKind = SpanKind{Tag: KindText}

// LinkKind tags a span as hyperlink text pointing at href.
func LinkKind(href string) SpanKind {
	return SpanKind{Tag: KindLink, Href: href}
}

// CodeBlockKind tags a span as part of fenced code block index, with the
// fence's language hint.
func CodeBlockKind(language string, index int) SpanKind {
	return SpanKind{Tag: KindCodeBlock, Language: language, BlockIndex: index}
}

// -- Layout -----------------------------------------------------------------------

// Layout is the rendered form of a transcript: one Line per terminal row and
// a parallel metadata vector. len(Metadata) == len(Lines) always, and within
// a line len(Metadata[i]) == len(Lines[i].Spans).
type Layout struct {
	Lines    []Line
	Metadata [][]SpanKind
}

// LineCount returns the number of rendered rows.
func (l *Layout) LineCount() int {
	if l == nil {
		return 0
	}
	return len(l.Lines)
}

// -- Configuration ------------------------------------------------------------------

// TableOverflowPolicy controls how tables behave when their ideal column
// widths exceed the terminal. Truncation is never an option.
type TableOverflowPolicy int

const (
	// TableOverflowWrapCells balances column widths and wraps cell text so
	// the table fits when its per-column minimums allow it.
	TableOverflowWrapCells TableOverflowPolicy = iota
	// TableOverflowShowFull always uses ideal column widths; the table may
	// render wider than the terminal.
	TableOverflowShowFull
)

// LayoutConfig carries the per-render settings the engine depends on.
// Width is in terminal columns; zero means unconstrained.
type LayoutConfig struct {
	Width           int
	Markdown        bool
	Syntax          bool
	TableOverflow   TableOverflowPolicy
	UserDisplayName string
}

// userName returns the configured display name, defaulting to "You".
func (c LayoutConfig) userName() string {
	if c.UserDisplayName != "" {
		return c.UserDisplayName
	}
	return "You"
}

// Highlighter is the syntax highlighting collaborator. It receives the fence
// language hint and the raw code text and returns styled lines, or ok=false
// to make the engine fall back to plain code styling.
type Highlighter func(language, code string, theme *Theme) ([]Line, bool)

// fragment is the engine's working unit: a styled, tagged run of text that
// has not yet been committed to a line. A fragment text of "\n" is a hard
// line break sentinel inside flow content; fragments never otherwise contain
// newlines.
type fragment struct {
	text  string
	style lipgloss.Style
	kind  SpanKind
}

// lineOf converts fragments to a Line plus its metadata, dropping empties.
func lineOf(frags []fragment) (Line, []SpanKind) {
	spans := make([]Span, 0, len(frags))
	kinds := make([]SpanKind, 0, len(frags))
	for _, f := range frags {
		if f.text == "" {
			continue
		}
		spans = append(spans, Span{Text: f.text, Style: f.style})
		kinds = append(kinds, f.kind)
	}
	return Line{Spans: spans}, kinds
}
