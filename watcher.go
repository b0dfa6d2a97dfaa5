package main

import (
	"sync"
	"time"

	"github.com/mhettinga/parley/layout"
	"github.com/mhettinga/parley/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// watcherDebounce is the delay after the last file-write event before
// re-reading the transcript. Token-by-token streaming writes coalesce into
// a single read per frame's worth of output.
const watcherDebounce = 100 * time.Millisecond

// tailUpdateMsg carries the full transcript after an incremental read. The
// whole list is sent (not a diff) because deltas mutate the last message in
// place and the layout cache handles that case cheaply.
type tailUpdateMsg struct {
	messages []layout.Message
}

// watcherErrMsg reports errors from the watcher goroutine.
type watcherErrMsg struct {
	err error
}

// transcriptWatcher monitors a JSONL transcript for appended lines and
// pushes updated message lists through a channel. All data processing
// (offset, message list) happens on the single run() goroutine; the
// debounce timer only sends a signal.
type transcriptWatcher struct {
	path    string
	offset  int64
	msgs    []layout.Message
	sub     chan tailUpdateMsg
	errc    chan error
	done    chan struct{}
	signals chan struct{} // debounced re-read trigger; capacity 1

	// Guards the debounce timer so stop() can cancel it safely.
	mu       sync.Mutex
	debounce *time.Timer
}

// newTranscriptWatcher copies the initial messages: Apply mutates the last
// element in place when folding deltas, and the caller keeps rendering from
// its own slice until the first update is consumed.
func newTranscriptWatcher(path string, initial []layout.Message, offset int64) *transcriptWatcher {
	return &transcriptWatcher{
		path:    path,
		offset:  offset,
		msgs:    append([]layout.Message(nil), initial...),
		sub:     make(chan tailUpdateMsg, 1),
		errc:    make(chan error, 1),
		done:    make(chan struct{}),
		signals: make(chan struct{}, 1),
	}
}

// stop signals the watcher goroutine to exit and cancels a pending debounce.
func (w *transcriptWatcher) stop() {
	close(w.done)
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.mu.Unlock()
}

// sendSignal does a non-blocking send; a pending signal already covers us.
func (w *transcriptWatcher) sendSignal() {
	select {
	case w.signals <- struct{}{}:
	default:
	}
}

// run is the watcher loop; intended to be called as a goroutine. Closes sub
// and errc on exit so blocked wait Cmds unblock instead of leaking.
func (w *transcriptWatcher) run() {
	defer close(w.sub)
	defer close(w.errc)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.errc <- err
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		w.errc <- err
		return
	}

	for {
		select {
		case <-w.done:
			return

		case <-w.signals:
			w.readAndSend()

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name == w.path && event.Has(fsnotify.Write) {
				w.mu.Lock()
				if w.debounce != nil {
					w.debounce.Stop()
				}
				w.debounce = time.AfterFunc(watcherDebounce, w.sendSignal)
				w.mu.Unlock()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Non-fatal: forward to the TUI, never stderr (alt screen).
			select {
			case w.errc <- err:
			default:
			}
		}
	}
}

// readAndSend reads appended entries, folds them into the transcript, and
// sends a snapshot. Only called from run(), so no locking on data fields.
func (w *transcriptWatcher) readAndSend() {
	entries, offset, err := session.ReadEntries(w.path, w.offset)
	if err != nil {
		select {
		case w.errc <- err:
		default:
		}
		return
	}
	if len(entries) == 0 && offset == w.offset {
		return
	}
	w.offset = offset
	w.msgs = session.Apply(w.msgs, entries)

	update := tailUpdateMsg{messages: append([]layout.Message(nil), w.msgs...)}

	// Non-blocking send: replace a stale update the UI hasn't consumed yet.
	select {
	case w.sub <- update:
	default:
		select {
		case <-w.sub:
		default:
		}
		w.sub <- update
	}
}

// waitForTailUpdate blocks on the subscription channel for the Bubble Tea
// runtime. Returns nil when the channel closes (watcher stopped).
func waitForTailUpdate(sub chan tailUpdateMsg) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-sub
		if !ok {
			return nil
		}
		return u
	}
}

// waitForWatcherErr blocks on the error channel for the Bubble Tea runtime.
func waitForWatcherErr(errc chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-errc
		if !ok {
			return nil
		}
		return watcherErrMsg{err: err}
	}
}
