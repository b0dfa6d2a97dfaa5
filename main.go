// Command parley renders chat transcripts in the terminal: markdown-aware
// layout with word wrapping, balanced tables, syntax-highlighted code
// blocks, block selection/copy, and live tailing of streaming transcripts.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mhettinga/parley/layout"
	"github.com/mhettinga/parley/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// maxContentWidth caps the layout width on very wide terminals.
const maxContentWidth = 120

type model struct {
	path  string
	msgs  []layout.Message
	cache *layout.Cache
	theme *layout.Theme
	cfg   layout.LayoutConfig

	fixedWidth int // --width flag; 0 tracks the terminal

	width  int
	height int
	scroll int

	// followTail pins the viewport to the bottom while new content streams in.
	followTail bool

	// selected is the chosen code block index, -1 when nothing is selected.
	selected int

	watching bool
	watcher  *transcriptWatcher
	tailSub  chan tailUpdateMsg
	tailErrc chan error

	status string // transient status bar note
}

func initialModel(path string, msgs []layout.Message, hl layout.Highlighter) model {
	return model{
		path:       path,
		msgs:       msgs,
		cache:      layout.NewCache(hl),
		theme:      layout.DefaultTheme(),
		selected:   -1,
		followTail: true,
		cfg: layout.LayoutConfig{
			Markdown: true,
			Syntax:   true,
		},
	}
}

// layoutWidth is the width handed to the engine: the --width override, or
// the terminal width capped at maxContentWidth.
func (m model) layoutWidth() int {
	if m.fixedWidth > 0 {
		return m.fixedWidth
	}
	if m.width > maxContentWidth {
		return maxContentWidth
	}
	return m.width
}

// transcriptLayout runs the render cache for the current frame. During
// streaming only the last message changes, so this is the splice fast path
// on almost every redraw.
func (m model) transcriptLayout() *layout.Layout {
	cfg := m.cfg
	cfg.Width = m.layoutWidth()
	return m.cache.Layout(m.msgs, m.theme, cfg)
}

func (m model) Init() tea.Cmd {
	if m.watching {
		return tea.Batch(
			waitForTailUpdate(m.tailSub),
			waitForWatcherErr(m.tailErrc),
		)
	}
	return nil
}

func main() {
	follow := flag.Bool("follow", false, "tail the transcript file for appended messages")
	width := flag.Int("width", 0, "fixed layout width (default: terminal width)")
	noMarkdown := flag.Bool("no-markdown", false, "render message content as plain text")
	noSyntax := flag.Bool("no-syntax", false, "disable code block syntax highlighting")
	userName := flag.String("user", "", "display name for user message prefixes")
	dump := flag.Bool("dump", false, "print the rendered transcript and exit")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: parley [flags] transcript.jsonl\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	msgs, offset, err := session.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	hl := newChromaHighlighter(termenv.HasDarkBackground())

	m := initialModel(path, msgs, hl.highlight)
	m.fixedWidth = *width
	m.cfg.Markdown = !*noMarkdown
	m.cfg.Syntax = !*noSyntax
	m.cfg.UserDisplayName = *userName

	if *dump {
		m.width = *width
		if m.width == 0 {
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				m.width = w
			} else {
				m.width = 80
			}
		}
		l := m.transcriptLayout()
		for _, line := range l.Lines {
			fmt.Println(renderLine(line))
		}
		return
	}

	if *follow {
		watcher := newTranscriptWatcher(path, msgs, offset)
		go watcher.run()
		m.watching = true
		m.watcher = watcher
		m.tailSub = watcher.sub
		m.tailErrc = watcher.errc
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
