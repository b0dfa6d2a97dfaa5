package layout

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// mdParser is a shared goldmark instance with the GFM extension set
// (tables, strikethrough, autolinks, task lists). The tokenizer never
// errors; ambiguous input comes back as literal text.
var mdParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// listState tracks one level of list nesting. indent is where this list's
// markers start (the cumulative width of ancestor markers); content is where
// the current item's text starts, set when the item's marker is known.
type listState struct {
	ordered bool
	next    int
	indent  int
	content int
}

// renderer walks one message's markdown event stream, maintaining explicit
// style, span-kind, and list stacks, and accumulates lines plus parallel
// span metadata.
type renderer struct {
	theme     *Theme
	cfg       LayoutConfig
	highlight Highlighter
	source    []byte

	lines []Line
	meta  [][]SpanKind

	styles []lipgloss.Style
	kinds  []SpanKind
	lists  []listState
	flow   []fragment // pending inline content; "\n" fragments are hard breaks

	prefix      []fragment // role prefix, first line only
	prefixWidth int
	emittedAny  bool
	lastBlank   bool

	pendingMarker []fragment // list marker awaiting the item's first line

	blockOffset int // added to this message's code block indices
	blocks      int // fenced blocks seen so far

	itemOrdinal int
	blankBefore map[int]bool

	supDepth, subDepth int
}

// -- Stacks ---------------------------------------------------------------------

func (r *renderer) style() lipgloss.Style { return r.styles[len(r.styles)-1] }
func (r *renderer) kind() SpanKind        { return r.kinds[len(r.kinds)-1] }

// pushStyle composes s over the current style and pushes the result.
func (r *renderer) pushStyle(s lipgloss.Style) {
	r.styles = append(r.styles, s.Inherit(r.style()))
}
func (r *renderer) popStyle() { r.styles = r.styles[:len(r.styles)-1] }

func (r *renderer) pushKind(k SpanKind) { r.kinds = append(r.kinds, k) }
func (r *renderer) popKind()            { r.kinds = r.kinds[:len(r.kinds)-1] }

// contentIndent is the column where flow content starts under the current
// list nesting.
func (r *renderer) contentIndent() int {
	if len(r.lists) == 0 {
		return 0
	}
	return r.lists[len(r.lists)-1].content
}

// -- Emission ---------------------------------------------------------------------

// emitLine commits one terminal row. The first row of the message carries
// the role prefix; every later row is indented by the prefix width.
func (r *renderer) emitLine(frags []fragment) {
	var out []fragment
	if !r.emittedAny {
		out = append(out, r.prefix...)
	} else if r.prefixWidth > 0 {
		out = append(out, fragment{text: strings.Repeat(" ", r.prefixWidth), kind: TextKind})
	}
	out = append(out, frags...)
	line, kinds := lineOf(out)
	r.lines = append(r.lines, line)
	r.meta = append(r.meta, kinds)
	r.emittedAny = true
	r.lastBlank = line.blank()
}

// emitBlank separates blocks with a single blank row. It is a no-op at the
// start of a message or right after another blank, so inner constructs that
// emitted their own trailing blank never cause a double.
func (r *renderer) emitBlank() {
	if !r.emittedAny || r.lastBlank {
		return
	}
	r.lines = append(r.lines, Line{})
	r.meta = append(r.meta, []SpanKind{})
	r.lastBlank = true
}

// dropTrailingBlank removes a just-emitted blank row; used when the raw
// source had no blank line before a list item.
func (r *renderer) dropTrailingBlank() {
	if n := len(r.lines); n > 0 && len(r.lines[n-1].Spans) == 0 {
		r.lines = r.lines[:n-1]
		r.meta = r.meta[:n-1]
		r.lastBlank = n-2 >= 0 && r.lines[n-2].blank()
	}
}

// leadFragments returns the leading fragments for a content row: the pending
// list marker on an item's first row, plain indent otherwise.
func (r *renderer) leadFragments(indent int) []fragment {
	if r.pendingMarker != nil {
		lead := r.pendingMarker
		r.pendingMarker = nil
		return lead
	}
	if indent > 0 {
		return []fragment{{text: strings.Repeat(" ", indent), kind: TextKind}}
	}
	return nil
}

// wrapWidth is the width budget left for content after the message prefix
// and list indentation. Zero means unconstrained.
func (r *renderer) wrapWidth(indent int) int {
	if r.cfg.Width <= 0 {
		return 0
	}
	w := r.cfg.Width - r.prefixWidth - indent
	if w < 1 {
		w = 1
	}
	return w
}

// flushFlow wraps and emits the pending inline content, honoring hard-break
// sentinels, then clears it.
func (r *renderer) flushFlow() {
	flow := r.flow
	r.flow = nil
	if len(flow) == 0 && r.pendingMarker == nil {
		return
	}
	var seg []fragment
	for _, f := range flow {
		if f.text == "\n" {
			r.emitFlowSegment(seg)
			seg = nil
			continue
		}
		seg = append(seg, f)
	}
	r.emitFlowSegment(seg)
}

func (r *renderer) emitFlowSegment(seg []fragment) {
	if len(seg) == 0 && r.pendingMarker == nil {
		// preserved blank row (e.g. consecutive newlines in plain text)
		if r.emittedAny {
			r.lines = append(r.lines, Line{})
			r.meta = append(r.meta, []SpanKind{})
			r.lastBlank = true
		}
		return
	}
	indent := r.contentIndent()
	for _, wrapped := range wrapFragments(seg, r.wrapWidth(indent)) {
		r.emitLine(append(r.leadFragments(indent), wrapped...))
	}
}

// -- Inline nodes -------------------------------------------------------------------

// appendText adds text to the flow under the current style and kind.
func (r *renderer) appendText(s string) {
	if s == "" {
		return
	}
	r.flow = append(r.flow, fragment{text: s, style: r.style(), kind: r.kind()})
}

// inlineNode handles inline-level nodes; handled=false means the node is
// block-level and walk dispatches it instead. Shared between the main walk
// and table cell collection.
func (r *renderer) inlineNode(n ast.Node, entering bool) (ast.WalkStatus, bool) {
	switch n := n.(type) {
	case *ast.Text:
		if entering {
			r.appendText(string(n.Segment.Value(r.source)))
			if n.HardLineBreak() {
				r.flow = append(r.flow, fragment{text: "\n"})
			} else if n.SoftLineBreak() {
				r.appendText(" ")
			}
		}
		return ast.WalkContinue, true
	case *ast.String:
		if entering {
			r.appendText(string(n.Value))
		}
		return ast.WalkContinue, true
	case *ast.CodeSpan:
		if entering {
			r.flow = append(r.flow, fragment{
				text:  nodeText(n, r.source),
				style: r.theme.InlineCode.Inherit(r.style()),
				kind:  r.kind(),
			})
		}
		return ast.WalkSkipChildren, true
	case *ast.Emphasis:
		if entering {
			if n.Level >= 2 {
				r.pushStyle(r.theme.Strong)
			} else {
				r.pushStyle(r.theme.Emphasis)
			}
		} else {
			r.popStyle()
		}
		return ast.WalkContinue, true
	case *east.Strikethrough:
		if entering {
			r.pushStyle(r.theme.Strikethrough)
		} else {
			r.popStyle()
		}
		return ast.WalkContinue, true
	case *ast.Link:
		if entering {
			r.pushStyle(r.theme.Link)
			r.pushKind(LinkKind(string(n.Destination)))
		} else {
			r.popStyle()
			r.popKind()
		}
		return ast.WalkContinue, true
	case *ast.Image:
		if entering {
			alt := nodeText(n, r.source)
			if alt == "" {
				alt = string(n.Destination)
			}
			r.flow = append(r.flow, fragment{
				text:  alt,
				style: r.theme.Link.Inherit(r.style()),
				kind:  LinkKind(string(n.Destination)),
			})
		}
		return ast.WalkSkipChildren, true
	case *ast.AutoLink:
		if entering {
			url := string(n.URL(r.source))
			if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
				url = "mailto:" + url
			}
			r.flow = append(r.flow, fragment{
				text:  string(n.Label(r.source)),
				style: r.theme.Link.Inherit(r.style()),
				kind:  LinkKind(url),
			})
		}
		return ast.WalkContinue, true
	case *ast.RawHTML:
		if entering {
			r.rawHTML(segmentsText(n.Segments, r.source))
		}
		return ast.WalkSkipChildren, true
	case *east.TaskCheckBox:
		if entering {
			box := "[ ] "
			if n.IsChecked {
				box = "[x] "
			}
			r.flow = append(r.flow, fragment{
				text:  box,
				style: r.theme.ListMarker.Inherit(r.style()),
				kind:  r.kind(),
			})
		}
		return ast.WalkContinue, true
	}
	return ast.WalkContinue, false
}

// rawHTML interprets inline HTML passthrough: <br> is a hard break,
// <sup>/<sub> toggle script styles, anything else is literal text.
func (r *renderer) rawHTML(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "<br>", "<br/>", "<br />":
		r.flow = append(r.flow, fragment{text: "\n"})
	case "<sup>":
		r.pushStyle(r.theme.Superscript)
		r.supDepth++
	case "</sup>":
		if r.supDepth > 0 {
			r.popStyle()
			r.supDepth--
		}
	case "<sub>":
		r.pushStyle(r.theme.Subscript)
		r.subDepth++
	case "</sub>":
		if r.subDepth > 0 {
			r.popStyle()
			r.subDepth--
		}
	default:
		r.appendText(s)
	}
}

// -- Block nodes ---------------------------------------------------------------------

// walk is the main ast.Walk callback.
func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if status, handled := r.inlineNode(n, entering); handled {
		return status, nil
	}
	switch n := n.(type) {
	case *ast.Heading:
		if entering {
			r.pushStyle(r.theme.heading(n.Level))
		} else {
			r.flushFlow()
			r.popStyle()
			r.emitBlank()
		}
	case *ast.Paragraph:
		if !entering {
			r.flushFlow()
			r.emitBlank()
		}
	case *ast.TextBlock:
		// tight list item content: no trailing blank
		if !entering {
			r.flushFlow()
		}
	case *ast.Blockquote:
		if entering {
			r.pushStyle(r.theme.BlockQuote)
		} else {
			r.popStyle()
			r.emitBlank()
		}
	case *ast.List:
		if entering {
			start := 1
			if n.IsOrdered() {
				start = n.Start
			}
			r.lists = append(r.lists, listState{
				ordered: n.IsOrdered(),
				next:    start,
				indent:  r.contentIndent(),
			})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if len(r.lists) == 0 {
				r.emitBlank()
			}
		}
	case *ast.ListItem:
		if entering {
			r.enterListItem()
		} else if r.pendingMarker != nil {
			r.flushFlow() // item with no content still shows its marker
		}
	case *ast.FencedCodeBlock:
		if entering {
			r.fencedCode(n)
		}
		return ast.WalkSkipChildren, nil
	case *ast.CodeBlock:
		if entering {
			r.indentedCode(n)
		}
		return ast.WalkSkipChildren, nil
	case *ast.ThematicBreak:
		if entering {
			r.rule()
		}
	case *ast.HTMLBlock:
		if entering {
			r.htmlBlock(n)
		}
		return ast.WalkSkipChildren, nil
	case *east.Table:
		if entering {
			r.table(n)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// enterListItem assigns the item's marker and applies the blank-line
// pre-pass decision for its ordinal.
func (r *renderer) enterListItem() {
	r.itemOrdinal++
	if r.blankBefore[r.itemOrdinal] {
		r.emitBlank()
	} else {
		r.dropTrailingBlank()
	}
	top := &r.lists[len(r.lists)-1]
	marker := "- "
	if top.ordered {
		marker = strconv.Itoa(top.next) + ". "
		top.next++
	}
	top.content = top.indent + runewidth.StringWidth(marker)
	var lead []fragment
	if top.indent > 0 {
		lead = append(lead, fragment{text: strings.Repeat(" ", top.indent), kind: TextKind})
	}
	lead = append(lead, fragment{text: marker, style: r.theme.ListMarker, kind: TextKind})
	r.pendingMarker = lead
}

// fencedCode renders one fenced block. Every block consumes an index even
// when empty; empty blocks emit no lines and therefore no metadata.
func (r *renderer) fencedCode(n *ast.FencedCodeBlock) {
	lang := string(n.Language(r.source))
	code := strings.TrimRight(linesText(n.Lines(), r.source), "\n")
	index := r.blockOffset + r.blocks
	r.blocks++
	if code == "" {
		return
	}
	kind := CodeBlockKind(lang, index)
	if r.cfg.Syntax && r.highlight != nil {
		if styled, ok := r.highlight(lang, code, r.theme); ok {
			for _, ln := range styled {
				frags := make([]fragment, 0, len(ln.Spans))
				for _, sp := range ln.Spans {
					frags = append(frags, fragment{text: sp.Text, style: sp.Style, kind: kind})
				}
				r.emitCodeLine(frags)
			}
			r.emitBlank()
			return
		}
	}
	for _, raw := range strings.Split(code, "\n") {
		r.emitCodeLine([]fragment{{text: raw, style: r.theme.CodeBlock, kind: kind}})
	}
	r.emitBlank()
}

// indentedCode renders indented (unfenced) code: plain code styling, no
// block index.
func (r *renderer) indentedCode(n *ast.CodeBlock) {
	code := strings.TrimRight(linesText(n.Lines(), r.source), "\n")
	if code == "" {
		return
	}
	for _, raw := range strings.Split(code, "\n") {
		r.emitCodeLine([]fragment{{text: raw, style: r.theme.CodeBlock, kind: TextKind}})
	}
	r.emitBlank()
}

// emitCodeLine wraps one code line to the remaining width and emits it with
// the list indent (indent spans stay plain Text).
func (r *renderer) emitCodeLine(frags []fragment) {
	indent := r.contentIndent()
	for _, wrapped := range wrapFragments(frags, r.wrapWidth(indent)) {
		r.emitLine(append(r.leadFragments(indent), wrapped...))
	}
}

// rule renders a horizontal rule centered at 80% of the width.
func (r *renderer) rule() {
	base := r.cfg.Width
	if base <= 0 {
		base = 80
	}
	w := base * 4 / 5
	pad := (base - r.prefixWidth - w) / 2
	var frags []fragment
	if pad > 0 {
		frags = append(frags, fragment{text: strings.Repeat(" ", pad), kind: TextKind})
	}
	frags = append(frags, fragment{text: strings.Repeat("─", w), style: r.theme.Rule, kind: TextKind})
	r.emitLine(frags)
	r.emitBlank()
}

// htmlBlock passes block HTML through as literal text.
func (r *renderer) htmlBlock(n *ast.HTMLBlock) {
	raw := linesText(n.Lines(), r.source)
	if n.HasClosure() {
		raw += string(n.ClosureLine.Value(r.source))
	}
	raw = strings.TrimRight(raw, "\n")
	if raw == "" {
		return
	}
	for i, line := range strings.Split(raw, "\n") {
		if i > 0 {
			r.flow = append(r.flow, fragment{text: "\n"})
		}
		r.appendText(line)
	}
	r.flushFlow()
	r.emitBlank()
}

// -- Tables ------------------------------------------------------------------------

// table collects the intermediate cell model, merges continuation rows,
// balances column widths within the remaining width, and emits the rendered
// border lines.
func (r *renderer) table(t *east.Table) {
	var rows []tableRow
	for child := t.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *east.TableHeader:
			rows = append(rows, r.tableRowOf(child, true))
		case *east.TableRow:
			rows = append(rows, r.tableRowOf(child, false))
		}
	}
	rows = mergeContinuationRows(rows)
	if len(rows) == 0 {
		return
	}
	indent := r.contentIndent()
	widths := tableColumnWidths(rows, r.wrapWidth(indent), r.cfg.TableOverflow)
	for _, frags := range renderTable(rows, widths, r.theme) {
		r.emitLine(append(r.leadFragments(indent), frags...))
	}
	r.emitBlank()
}

func (r *renderer) tableRowOf(row ast.Node, header bool) tableRow {
	tr := tableRow{header: header}
	base := r.style()
	if header {
		base = r.theme.TableHeader.Inherit(base)
	}
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		tr.cells = append(tr.cells, tableCell{lines: r.cellLines(cell, base)})
	}
	return tr
}

// cellLines renders a cell's inline content into pre-wrap lines, splitting
// at inline <br> breaks. The flow and stacks are saved and restored so cell
// collection never leaks into the surrounding walk.
func (r *renderer) cellLines(cell ast.Node, base lipgloss.Style) [][]fragment {
	savedFlow, savedStyles, savedKinds := r.flow, r.styles, r.kinds
	r.flow = nil
	r.styles = []lipgloss.Style{base}
	r.kinds = []SpanKind{TextKind}
	_ = ast.Walk(cell, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n == cell {
			return ast.WalkContinue, nil
		}
		status, _ := r.inlineNode(n, entering)
		return status, nil
	})
	frags := r.flow
	r.flow, r.styles, r.kinds = savedFlow, savedStyles, savedKinds

	var lines [][]fragment
	var cur []fragment
	for _, f := range frags {
		if f.text == "\n" {
			lines = append(lines, cur)
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	if len(cur) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

// -- Entry point --------------------------------------------------------------------

// messagePrefix builds the role's first-line prefix and its width.
func messagePrefix(role Role, cfg LayoutConfig, theme *Theme) ([]fragment, int) {
	var label string
	var style lipgloss.Style
	var kind SpanKind
	switch role {
	case RoleUser:
		label = cfg.userName() + ": "
		style = theme.UserPrefix
		kind = SpanKind{Tag: KindUserPrefix}
	case RoleSystem, RoleAppInfo, RoleAppWarning, RoleAppError, RoleAppLog:
		label = role.String() + ": "
		style = theme.AppPrefix.Inherit(theme.roleText(role))
		kind = SpanKind{Tag: KindAppPrefix}
	default:
		return nil, 0
	}
	return []fragment{{text: label, style: style, kind: kind}}, runewidth.StringWidth(label)
}

// renderMessage lays out a single message. blockOffset shifts its code block
// indices so they stay unique across the transcript; the third return is how
// many fenced blocks the message contains.
func renderMessage(msg Message, theme *Theme, cfg LayoutConfig, hl Highlighter, blockOffset int) ([]Line, [][]SpanKind, int) {
	r := &renderer{
		theme:       theme,
		cfg:         cfg,
		highlight:   hl,
		styles:      []lipgloss.Style{theme.roleText(msg.Role)},
		kinds:       []SpanKind{TextKind},
		blockOffset: blockOffset,
	}
	r.prefix, r.prefixWidth = messagePrefix(msg.Role, cfg, theme)

	if cfg.Markdown {
		r.source = []byte(msg.Content)
		r.blankBefore = blankPrecededItems(msg.Content)
		doc := mdParser.Parse(text.NewReader(r.source))
		_ = ast.Walk(doc, r.walk)
		r.flushFlow()
	} else {
		for i, raw := range strings.Split(msg.Content, "\n") {
			if i > 0 {
				r.flow = append(r.flow, fragment{text: "\n"})
			}
			r.appendText(raw)
		}
		r.flushFlow()
	}

	for len(r.lines) > 0 && len(r.lines[len(r.lines)-1].Spans) == 0 {
		r.lines = r.lines[:len(r.lines)-1]
		r.meta = r.meta[:len(r.meta)-1]
	}
	if len(r.lines) == 0 && r.prefixWidth > 0 {
		line, kinds := lineOf(r.prefix)
		r.lines = append(r.lines, line)
		r.meta = append(r.meta, kinds)
	}
	return r.lines, r.meta, r.blocks
}

// -- goldmark helpers -----------------------------------------------------------------

// nodeText concatenates the literal text of a node's descendants.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(nodeText(c, src))
		}
	}
	return b.String()
}

func linesText(segs *text.Segments, src []byte) string {
	var b strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func segmentsText(segs *text.Segments, src []byte) string {
	return linesText(segs, src)
}
