package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mhettinga/parley/layout"
	"github.com/mhettinga/parley/session"
)

func TestParseEntry_Message(t *testing.T) {
	e, ok := session.ParseEntry([]byte(`{"role": "user", "content": "hello"}`))
	if !ok {
		t.Fatal("ParseEntry = !ok")
	}
	if e.IsDelta {
		t.Error("IsDelta = true for a full message")
	}
	if e.Msg.Role != layout.RoleUser || e.Msg.Content != "hello" {
		t.Errorf("Msg = %+v", e.Msg)
	}
}

func TestParseEntry_Delta(t *testing.T) {
	e, ok := session.ParseEntry([]byte(`{"delta": " more"}`))
	if !ok {
		t.Fatal("ParseEntry = !ok")
	}
	if !e.IsDelta || e.Delta != " more" {
		t.Errorf("entry = %+v, want delta \" more\"", e)
	}
}

func TestParseEntry_RoleMapping(t *testing.T) {
	tests := []struct {
		role string
		want layout.Role
	}{
		{"user", layout.RoleUser},
		{"assistant", layout.RoleAssistant},
		{"system", layout.RoleSystem},
		{"error", layout.RoleAppError},
		{"tool_call", layout.RoleToolCall},
		{"tool_result", layout.RoleToolResult},
		{"something-new", layout.RoleAppLog},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			e, ok := session.ParseEntry([]byte(`{"role": "` + tt.role + `", "content": "x"}`))
			if !ok {
				t.Fatal("ParseEntry = !ok")
			}
			if e.Msg.Role != tt.want {
				t.Errorf("Role = %v, want %v", e.Msg.Role, tt.want)
			}
		})
	}
}

func TestParseEntry_Rejects(t *testing.T) {
	for _, line := range []string{
		`not json`,
		`{"content": "no role"}`,
		`{}`,
	} {
		if _, ok := session.ParseEntry([]byte(line)); ok {
			t.Errorf("ParseEntry(%q) = ok, want rejection", line)
		}
	}
}

func TestApply_DeltasExtendLastMessage(t *testing.T) {
	entries := []session.Entry{
		{Msg: layout.Message{Role: layout.RoleAssistant, Content: "Hel"}},
		{Delta: "lo", IsDelta: true},
		{Delta: " there", IsDelta: true},
	}
	msgs := session.Apply(nil, entries)
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	if msgs[0].Content != "Hello there" {
		t.Errorf("Content = %q, want \"Hello there\"", msgs[0].Content)
	}
}

func TestApply_LeadingDeltaCreatesAssistant(t *testing.T) {
	msgs := session.Apply(nil, []session.Entry{{Delta: "hi", IsDelta: true}})
	if len(msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(msgs))
	}
	if msgs[0].Role != layout.RoleAssistant || msgs[0].Content != "hi" {
		t.Errorf("msg = %+v", msgs[0])
	}
}

func TestReadEntries_OffsetAndPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	full := `{"role": "user", "content": "q"}` + "\n" +
		`{"role": "assistant", "content": "a"}` + "\n"
	partial := `{"delta": " mo`
	if err := os.WriteFile(path, []byte(full+partial), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, offset, err := session.ReadEntries(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (partial line not consumed)", len(entries))
	}
	if offset != int64(len(full)) {
		t.Errorf("offset = %d, want %d", offset, len(full))
	}

	// Complete the partial line and read from the stored offset.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("re\"}\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	entries, offset, err = session.ReadEntries(path, offset)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDelta || entries[0].Delta != " more" {
		t.Fatalf("entries = %+v, want one delta \" more\"", entries)
	}
	if offset != int64(len(full)+len(partial)+5) {
		t.Errorf("offset = %d, want end of file", offset)
	}
}

func TestReadEntries_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	data := `{"role": "user", "content": "ok"}` + "\n" +
		"garbage\n" +
		"\n" +
		`{"role": "assistant", "content": "fine"}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, _, err := session.ReadEntries(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestRead_FullTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.jsonl")
	data := `{"role": "user", "content": "hi"}` + "\n" +
		`{"role": "assistant", "content": "Hel"}` + "\n" +
		`{"delta": "lo"}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	msgs, offset, err := session.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[1].Content != "Hello" {
		t.Errorf("Content = %q, want Hello", msgs[1].Content)
	}
	if offset != int64(len(data)) {
		t.Errorf("offset = %d, want %d", offset, len(data))
	}
}
