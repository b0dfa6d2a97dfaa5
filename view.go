package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mhettinga/parley/layout"
)

// renderLine turns one layout line into a styled terminal string.
func renderLine(line layout.Line) string {
	var b strings.Builder
	for _, sp := range line.Spans {
		b.WriteString(sp.Style.Render(sp.Text))
	}
	return b.String()
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	l := m.transcriptLayout()

	viewH := m.viewHeight()
	start := m.scroll
	end := start + viewH
	if end > l.LineCount() {
		end = l.LineCount()
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderLine(l.Lines[i]))
		b.WriteString("\n")
	}
	for i := end - start; i < viewH; i++ {
		b.WriteString("\n")
	}
	b.WriteString(m.statusBar(l))
	return b.String()
}

// statusBar renders the single-row footer: transcript name, counts, code
// block selection, scroll position, and any transient note.
func (m model) statusBar(l *layout.Layout) string {
	left := filepath.Base(m.path)
	if m.watching {
		left = "● " + left
	}
	left += fmt.Sprintf("  %d messages", len(m.msgs))

	if blocks := l.CodeBlockIndices(); len(blocks) > 0 {
		// Position within the selectable blocks: indices can be sparse when
		// empty fences consume an index without emitting lines.
		pos := 0
		for i, idx := range blocks {
			if idx == m.selected {
				pos = i + 1
				break
			}
		}
		if pos > 0 {
			left += fmt.Sprintf("  block %d/%d (y to copy)", pos, len(blocks))
		} else {
			left += fmt.Sprintf("  %d blocks (b to select)", len(blocks))
		}
	}
	if m.status != "" {
		left += "  " + m.status
	}

	right := "100%"
	if max := m.maxScroll(l.LineCount()); max > 0 {
		right = fmt.Sprintf("%d%%", m.scroll*100/max)
	}

	gap := m.width - len([]rune(left)) - len([]rune(right))
	if gap < 1 {
		gap = 1
	}
	return statusStyle.Render(left + strings.Repeat(" ", gap) + right)
}
