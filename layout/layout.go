package layout

import "strings"

// Render lays out a whole transcript under one config: messages rendered in
// order, separated by single blank rows, with code block indices unique
// across the transcript.
func Render(msgs []Message, theme *Theme, cfg LayoutConfig, hl Highlighter) *Layout {
	l, _, _, _ := renderTranscript(msgs, theme, cfg, hl)
	return l
}

// renderTranscript also reports the slice position of the last message and
// how many fenced blocks precede it, which is what the cache splice path
// needs.
func renderTranscript(msgs []Message, theme *Theme, cfg LayoutConfig, hl Highlighter) (l *Layout, lastStart, lastLen, prefixBlocks int) {
	l = &Layout{}
	blocks := 0
	for i, msg := range msgs {
		if i > 0 {
			l.Lines = append(l.Lines, Line{})
			l.Metadata = append(l.Metadata, []SpanKind{})
		}
		if i == len(msgs)-1 {
			lastStart = len(l.Lines)
			prefixBlocks = blocks
		}
		lines, meta, used := renderMessage(msg, theme, cfg, hl, blocks)
		l.Lines = append(l.Lines, lines...)
		l.Metadata = append(l.Metadata, meta...)
		blocks += used
		if i == len(msgs)-1 {
			lastLen = len(lines)
		}
	}
	return l, lastStart, lastLen, prefixBlocks
}

// -- Downstream consumer helpers ------------------------------------------------------
// Selection/copy locates code blocks through span metadata; the hyperlink
// backend reads Link kinds to know which cells to wrap in OSC8 escapes.

// CodeBlockIndices returns the distinct code block indices present, in
// document order.
func (l *Layout) CodeBlockIndices() []int {
	var out []int
	seen := make(map[int]bool)
	for _, kinds := range l.Metadata {
		for _, k := range kinds {
			if k.Tag == KindCodeBlock && !seen[k.BlockIndex] {
				seen[k.BlockIndex] = true
				out = append(out, k.BlockIndex)
			}
		}
	}
	return out
}

// CodeBlockRange returns the half-open line range [start, end) of the code
// block with the given index.
func (l *Layout) CodeBlockRange(index int) (start, end int, ok bool) {
	start = -1
	for i, kinds := range l.Metadata {
		for _, k := range kinds {
			if k.Tag == KindCodeBlock && k.BlockIndex == index {
				if start < 0 {
					start = i
				}
				end = i + 1
				break
			}
		}
	}
	return start, end, start >= 0
}

// CodeBlockText reconstructs a code block's text from its spans, excluding
// indentation spans (those are tagged Text). Blank code lines carry no
// tagged spans, so reconstruction walks the block's full line range.
//
// The result is the block as displayed: a source line wider than the layout
// width wraps into several rows and is rejoined here with newlines at the
// wrap points.
func (l *Layout) CodeBlockText(index int) (string, bool) {
	start, end, ok := l.CodeBlockRange(index)
	if !ok {
		return "", false
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		var b strings.Builder
		for s, k := range l.Metadata[i] {
			if k.Tag == KindCodeBlock && k.BlockIndex == index {
				b.WriteString(l.Lines[i].Spans[s].Text)
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n"), true
}

// Links returns the distinct link targets present, in document order.
func (l *Layout) Links() []string {
	var out []string
	seen := make(map[string]bool)
	for _, kinds := range l.Metadata {
		for _, k := range kinds {
			if k.Tag == KindLink && !seen[k.Href] {
				seen[k.Href] = true
				out = append(out, k.Href)
			}
		}
	}
	return out
}
