package main

// statusBarHeight is the number of rows the status bar occupies.
const statusBarHeight = 1

// viewHeight returns the rows available for transcript content.
func (m model) viewHeight() int {
	h := m.height - statusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// maxScroll is the largest valid scroll offset for the current layout.
func (m model) maxScroll(totalLines int) int {
	max := totalLines - m.viewHeight()
	if max < 0 {
		return 0
	}
	return max
}

// clampScroll caps the scroll offset so it can't run past the content.
// Returns whether the viewport sits at the bottom afterwards.
func (m *model) clampScroll(totalLines int) bool {
	max := m.maxScroll(totalLines)
	if m.scroll > max {
		m.scroll = max
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
	return m.scroll == max
}

// scrollToBottom pins the viewport to the end of the transcript.
func (m *model) scrollToBottom(totalLines int) {
	m.scroll = m.maxScroll(totalLines)
}

// scrollToLine brings the given line into view, preferring to show it at
// the top third of the viewport so surrounding context is visible.
func (m *model) scrollToLine(line, totalLines int) {
	target := line - m.viewHeight()/3
	m.scroll = target
	m.clampScroll(totalLines)
}
