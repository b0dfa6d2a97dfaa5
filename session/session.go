// Package session reads JSONL chat transcripts: one JSON object per line,
// either a full message {"role": ..., "content": ...} or a streaming delta
// {"delta": ...} appended to the previous message's content. The reader
// tracks byte offsets so a watcher can pick up appended lines without
// rescanning the file.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mhettinga/parley/layout"
)

// Entry is one decoded transcript line.
type Entry struct {
	Msg     layout.Message
	Delta   string
	IsDelta bool
}

type rawEntry struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Delta   *string `json:"delta"`
}

// roleOf maps transcript role strings onto layout roles. Unknown roles
// become app log lines rather than being dropped.
func roleOf(s string) layout.Role {
	switch s {
	case "user":
		return layout.RoleUser
	case "assistant":
		return layout.RoleAssistant
	case "system":
		return layout.RoleSystem
	case "info":
		return layout.RoleAppInfo
	case "warning":
		return layout.RoleAppWarning
	case "error":
		return layout.RoleAppError
	case "tool", "tool_call":
		return layout.RoleToolCall
	case "result", "tool_result":
		return layout.RoleToolResult
	}
	return layout.RoleAppLog
}

// ParseEntry decodes a single JSONL line. Returns false for malformed JSON
// or lines that are neither a message nor a delta; callers skip those.
func ParseEntry(line []byte) (Entry, bool) {
	var raw rawEntry
	if err := json.Unmarshal(line, &raw); err != nil {
		return Entry{}, false
	}
	if raw.Delta != nil {
		return Entry{Delta: *raw.Delta, IsDelta: true}, true
	}
	if raw.Role == "" {
		return Entry{}, false
	}
	return Entry{Msg: layout.Message{Role: roleOf(raw.Role), Content: raw.Content}}, true
}

// Apply folds entries into a transcript: messages append, deltas extend the
// last message's content. A leading delta with no message to extend becomes
// an assistant message.
func Apply(msgs []layout.Message, entries []Entry) []layout.Message {
	for _, e := range entries {
		if e.IsDelta {
			if len(msgs) == 0 {
				msgs = append(msgs, layout.Message{Role: layout.RoleAssistant})
			}
			msgs[len(msgs)-1].Content += e.Delta
			continue
		}
		msgs = append(msgs, e.Msg)
	}
	return msgs
}

// ReadEntries reads complete lines starting at offset and returns the
// decoded entries plus the new offset. A trailing line without a newline is
// left unconsumed so a partially written entry is picked up whole on the
// next call.
func ReadEntries(path string, offset int64) ([]Entry, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, offset, fmt.Errorf("seeking transcript: %w", err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, offset, fmt.Errorf("reading transcript: %w", err)
	}

	var entries []Entry
	start := 0
	for i, b := range data {
		if b != '\n' {
			continue
		}
		line := data[start:i]
		start = i + 1
		if len(line) == 0 {
			continue
		}
		if e, ok := ParseEntry(line); ok {
			entries = append(entries, e)
		}
	}
	return entries, offset + int64(start), nil
}

// Read loads a whole transcript from the start of the file.
func Read(path string) ([]layout.Message, int64, error) {
	entries, offset, err := ReadEntries(path, 0)
	if err != nil {
		return nil, 0, err
	}
	return Apply(nil, entries), offset, nil
}
