package main

import (
	"fmt"

	"github.com/mhettinga/parley/layout"

	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.transcriptLayout()
		if m.followTail {
			m.scrollToBottom(l.LineCount())
		} else {
			m.clampScroll(l.LineCount())
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case tailUpdateMsg:
		m.msgs = msg.messages
		l := m.transcriptLayout()
		if m.followTail {
			m.scrollToBottom(l.LineCount())
		} else {
			m.clampScroll(l.LineCount())
		}
		return m, waitForTailUpdate(m.tailSub)

	case watcherErrMsg:
		m.status = fmt.Sprintf("watch: %v", msg.err)
		return m, waitForWatcherErr(m.tailErrc)
	}
	return m, nil
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.transcriptLayout()
	total := l.LineCount()
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.watcher != nil {
			m.watcher.stop()
		}
		return m, tea.Quit

	case "j", "down":
		m.scroll++
		m.followTail = m.clampScroll(total)
	case "k", "up":
		m.scroll--
		m.followTail = false
		m.clampScroll(total)
	case "ctrl+d", "pgdown":
		m.scroll += m.viewHeight() / 2
		m.followTail = m.clampScroll(total)
	case "ctrl+u", "pgup":
		m.scroll -= m.viewHeight() / 2
		m.followTail = false
		m.clampScroll(total)
	case "g", "home":
		m.scroll = 0
		m.followTail = false
	case "G", "end":
		m.scrollToBottom(total)
		m.followTail = true

	case "b", "tab":
		// Cycle forward through code blocks.
		m.selected = nextBlock(l.CodeBlockIndices(), m.selected, 1)
		m.jumpToSelected(l)
	case "B", "shift+tab":
		m.selected = nextBlock(l.CodeBlockIndices(), m.selected, -1)
		m.jumpToSelected(l)

	case "y":
		if m.selected < 0 {
			m.status = "no code block selected"
			break
		}
		if err := copyCodeBlock(l, m.selected); err != nil {
			m.status = fmt.Sprintf("copy: %v", err)
		} else {
			m.status = fmt.Sprintf("copied code block %d", m.selected+1)
		}
	}
	return m, nil
}

// jumpToSelected scrolls the selected code block into view.
func (m *model) jumpToSelected(l *layout.Layout) {
	if m.selected < 0 {
		return
	}
	if start, _, ok := l.CodeBlockRange(m.selected); ok {
		m.followTail = false
		m.scrollToLine(start, l.LineCount())
	}
}
