package layout

import "testing"

func layoutTexts(l *Layout) []string {
	out := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		out[i] = line.Text()
	}
	return out
}

func TestRender_BlankLineBetweenMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "question"},
		{Role: RoleAssistant, Content: "answer"},
	}
	l := Render(msgs, DefaultTheme(), mdConfig(80), nil)
	got := layoutTexts(l)
	want := []string{"You: question", "", "answer"}
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if len(l.Metadata) != len(l.Lines) {
		t.Errorf("len(Metadata) = %d, want %d", len(l.Metadata), len(l.Lines))
	}
}

func TestRender_BlockIndicesUniqueAcrossMessages(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "```go\na\n```"},
		{Role: RoleAssistant, Content: "```py\nb\n```\n\n```\nc\n```"},
	}
	l := Render(msgs, DefaultTheme(), mdConfig(80), nil)
	got := l.CodeBlockIndices()
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("indices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("indices[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestCodeBlockRangeAndText(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "intro\n\n```\nfirst\n\nlast\n```"},
	}
	l := Render(msgs, DefaultTheme(), mdConfig(80), nil)

	start, end, ok := l.CodeBlockRange(0)
	if !ok {
		t.Fatal("CodeBlockRange(0) not found")
	}
	if end-start != 3 {
		t.Errorf("block spans %d lines, want 3 (blank interior line included)", end-start)
	}

	text, ok := l.CodeBlockText(0)
	if !ok {
		t.Fatal("CodeBlockText(0) not found")
	}
	if text != "first\n\nlast" {
		t.Errorf("text = %q, want %q", text, "first\n\nlast")
	}
}

func TestCodeBlockText_Missing(t *testing.T) {
	l := Render([]Message{{Role: RoleAssistant, Content: "no code"}}, DefaultTheme(), mdConfig(80), nil)
	if _, ok := l.CodeBlockText(0); ok {
		t.Error("CodeBlockText(0) = ok for a transcript without code blocks")
	}
}

func TestLinks_DedupInOrder(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "[a](https://a.dev) then [b](https://b.dev) then [a again](https://a.dev)"},
	}
	l := Render(msgs, DefaultTheme(), mdConfig(80), nil)
	got := l.Links()
	want := []string{"https://a.dev", "https://b.dev"}
	if len(got) != len(want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("links[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLayout_LineCountNil(t *testing.T) {
	var l *Layout
	if l.LineCount() != 0 {
		t.Error("nil layout LineCount != 0")
	}
}
