package layout

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func mdConfig(width int) LayoutConfig {
	return LayoutConfig{Width: width, Markdown: true, Syntax: true}
}

func renderTexts(t *testing.T, msg Message, cfg LayoutConfig) []string {
	t.Helper()
	lines, meta, _ := renderMessage(msg, DefaultTheme(), cfg, nil, 0)
	if len(meta) != len(lines) {
		t.Fatalf("len(meta) = %d, want %d", len(meta), len(lines))
	}
	for i := range lines {
		if len(meta[i]) != len(lines[i].Spans) {
			t.Fatalf("line %d: %d kinds for %d spans", i, len(meta[i]), len(lines[i].Spans))
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d lines %q, want %d lines %q", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

// -- Prefixes ---------------------------------------------------------------------

func TestRenderMessage_UserPrefix(t *testing.T) {
	msg := Message{Role: RoleUser, Content: "hello"}
	lines, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if len(lines) != 1 || lines[0].Text() != "You: hello" {
		t.Fatalf("lines = %q, want [\"You: hello\"]", lines[0].Text())
	}
	if meta[0][0].Tag != KindUserPrefix {
		t.Errorf("first span tag = %v, want KindUserPrefix", meta[0][0].Tag)
	}
}

func TestRenderMessage_CustomUserName(t *testing.T) {
	cfg := mdConfig(80)
	cfg.UserDisplayName = "Mara"
	got := renderTexts(t, Message{Role: RoleUser, Content: "hi"}, cfg)
	assertLines(t, got, []string{"Mara: hi"})
}

func TestRenderMessage_AppPrefix(t *testing.T) {
	msg := Message{Role: RoleAppError, Content: "disk full"}
	lines, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if lines[0].Text() != "error: disk full" {
		t.Fatalf("line = %q, want \"error: disk full\"", lines[0].Text())
	}
	if meta[0][0].Tag != KindAppPrefix {
		t.Errorf("first span tag = %v, want KindAppPrefix", meta[0][0].Tag)
	}
}

func TestRenderMessage_AssistantHasNoPrefix(t *testing.T) {
	got := renderTexts(t, Message{Role: RoleAssistant, Content: "plain answer"}, mdConfig(80))
	assertLines(t, got, []string{"plain answer"})
}

func TestRenderMessage_ContinuationLinesIndentByPrefixWidth(t *testing.T) {
	msg := Message{Role: RoleUser, Content: "alpha beta gamma delta epsilon"}
	got := renderTexts(t, msg, mdConfig(20))
	if len(got) < 2 {
		t.Fatalf("expected wrapping, got %q", got)
	}
	if !strings.HasPrefix(got[0], "You: ") {
		t.Errorf("first line = %q, want You: prefix", got[0])
	}
	for i, line := range got[1:] {
		if !strings.HasPrefix(line, "     ") {
			t.Errorf("continuation line %d = %q, want 5-space indent", i+1, line)
		}
	}
}

func TestRenderMessage_EmptyContentShowsPrefix(t *testing.T) {
	got := renderTexts(t, Message{Role: RoleUser, Content: ""}, mdConfig(80))
	assertLines(t, got, []string{"You: "})
}

// -- Block structure -----------------------------------------------------------------

func TestRenderMessage_HeadingThenParagraph(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "# Title\n\nBody text."}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"Title", "", "Body text."})
}

func TestRenderMessage_NoTrailingBlankLines(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "one\n\ntwo\n\n\n"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"one", "", "two"})
}

func TestRenderMessage_BlockquoteSingleBlankAfter(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "> quoted words\n\nafter"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"quoted words", "", "after"})
}

func TestRenderMessage_Rule(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "---"}
	got := renderTexts(t, msg, mdConfig(40))
	if len(got) != 1 {
		t.Fatalf("lines = %q, want single rule line", got)
	}
	if n := strings.Count(got[0], "─"); n != 32 {
		t.Errorf("rule length = %d, want 32 (80%% of 40)", n)
	}
	if !strings.HasPrefix(got[0], "    ─") {
		t.Errorf("rule = %q, want centered with 4-space pad", got[0])
	}
}

// -- Lists ------------------------------------------------------------------------

func TestRenderMessage_TightList(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "- a\n- b"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"- a", "- b"})
}

func TestRenderMessage_LooseListKeepsBlankBetweenItems(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "- a\n\n- b"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"- a", "", "- b"})
}

func TestRenderMessage_NumericParagraphTextKeepsListBlanks(t *testing.T) {
	// "2. two" under a paragraph is paragraph text to the tokenizer, so it
	// must not consume a list-item ordinal and shift the blank-line policy
	// onto the wrong items.
	msg := Message{Role: RoleAssistant, Content: "para\n2. two\n\n- a\n\n- b"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"para 2. two", "", "- a", "", "- b"})
}

func TestRenderMessage_ListDirectlyAfterParagraph(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "intro\n- a\n- b"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"intro", "- a", "- b"})
}

func TestRenderMessage_NestedListIndent(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "- outer\n  - inner\n    - deepest"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"- outer", "  - inner", "    - deepest"})
}

func TestRenderMessage_OrderedList(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "1. first\n2. second\n3. third"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"1. first", "2. second", "3. third"})
}

func TestRenderMessage_OrderedListStart(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "4. fourth\n5. fifth"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"4. fourth", "5. fifth"})
}

func TestRenderMessage_ListItemWrapsToContentColumn(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "- alpha beta gamma delta"}
	got := renderTexts(t, msg, mdConfig(14))
	if len(got) < 2 {
		t.Fatalf("expected wrapping, got %q", got)
	}
	if got[0] != "- alpha beta" {
		t.Errorf("first line = %q, want \"- alpha beta\"", got[0])
	}
	for _, line := range got[1:] {
		if !strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "   ") {
			t.Errorf("continuation = %q, want exactly 2-space indent", line)
		}
	}
}

func TestRenderMessage_TaskList(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "- [x] done\n- [ ] todo"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"- [x] done", "- [ ] todo"})
}

// -- Inline ------------------------------------------------------------------------

func TestRenderMessage_SoftBreakJoins(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "alpha\nbeta"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"alpha beta"})
}

func TestRenderMessage_HardBreakSplits(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "alpha  \nbeta"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"alpha", "beta"})
}

func TestRenderMessage_RawHTMLBreak(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "alpha<br>beta"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"alpha", "beta"})
}

func TestRenderMessage_SupSubLiteralText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "x<sup>2</sup> and H<sub>2</sub>O"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"x2 and H2O"})
}

func TestRenderMessage_InlineCodeIsLiteral(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "run `a *b* c` now"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"run a *b* c now"})
}

func TestRenderMessage_EmphasisAndStrong(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "*em* and **strong** and ~~gone~~"}
	got := renderTexts(t, msg, mdConfig(80))
	assertLines(t, got, []string{"em and strong and gone"})
}

func TestRenderMessage_LinkMetadata(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "see [the docs](https://example.com/docs) please"}
	lines, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if lines[0].Text() != "see the docs please" {
		t.Fatalf("text = %q", lines[0].Text())
	}
	found := false
	for s, k := range meta[0] {
		if k.Tag == KindLink {
			found = true
			if k.Href != "https://example.com/docs" {
				t.Errorf("href = %q", k.Href)
			}
			if lines[0].Spans[s].Text != "the docs" {
				t.Errorf("link span text = %q, want \"the docs\"", lines[0].Spans[s].Text)
			}
		}
	}
	if !found {
		t.Error("no link span found")
	}
}

func TestRenderMessage_ImageUsesAltText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "![a chart](https://example.com/c.png)"}
	lines, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if lines[0].Text() != "a chart" {
		t.Fatalf("text = %q, want alt text", lines[0].Text())
	}
	if meta[0][0].Tag != KindLink || meta[0][0].Href != "https://example.com/c.png" {
		t.Errorf("kind = %+v, want link to image target", meta[0][0])
	}
}

func TestRenderMessage_AutoLinkEmail(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "<user@example.com>"}
	_, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if meta[0][0].Tag != KindLink || meta[0][0].Href != "mailto:user@example.com" {
		t.Errorf("kind = %+v, want mailto link", meta[0][0])
	}
}

// -- Code blocks ---------------------------------------------------------------------

func TestRenderMessage_FencedCodeBlock(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "```go\nfmt.Println(1)\n```"}
	lines, meta, used := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if used != 1 {
		t.Fatalf("blocks used = %d, want 1", used)
	}
	if lines[0].Text() != "fmt.Println(1)" {
		t.Fatalf("code line = %q", lines[0].Text())
	}
	k := meta[0][0]
	if k.Tag != KindCodeBlock || k.Language != "go" || k.BlockIndex != 0 {
		t.Errorf("kind = %+v, want go code block index 0", k)
	}
}

func TestRenderMessage_BlockOffsetShiftsIndices(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "```\nx\n```"}
	_, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 3)
	if meta[0][0].BlockIndex != 3 {
		t.Errorf("BlockIndex = %d, want 3", meta[0][0].BlockIndex)
	}
}

func TestRenderMessage_EmptyFenceConsumesIndex(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "```\n```\n\n```go\nx\n```"}
	lines, meta, used := renderMessage(msg, DefaultTheme(), mdConfig(80), nil, 0)
	if used != 2 {
		t.Fatalf("blocks used = %d, want 2 (empty fence still counts)", used)
	}
	found := false
	for i := range meta {
		for _, k := range meta[i] {
			if k.Tag == KindCodeBlock {
				found = true
				if k.BlockIndex != 1 {
					t.Errorf("BlockIndex = %d, want 1 (index 0 consumed by empty fence)", k.BlockIndex)
				}
			}
		}
	}
	if !found {
		t.Fatalf("no code block spans in %d lines", len(lines))
	}
}

func TestRenderMessage_HighlighterStyledOutput(t *testing.T) {
	hl := func(language, code string, theme *Theme) ([]Line, bool) {
		st := lipgloss.NewStyle().Bold(true)
		var out []Line
		for _, l := range strings.Split(code, "\n") {
			out = append(out, Line{Spans: []Span{{Text: l, Style: st}}})
		}
		return out, true
	}
	msg := Message{Role: RoleAssistant, Content: "```py\na = 1\nb = 2\n```"}
	lines, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), hl, 0)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	for i, want := range []string{"a = 1", "b = 2"} {
		if lines[i].Text() != want {
			t.Errorf("line %d = %q, want %q", i, lines[i].Text(), want)
		}
		if meta[i][0].Tag != KindCodeBlock || meta[i][0].Language != "py" {
			t.Errorf("line %d kind = %+v, want py code block", i, meta[i][0])
		}
	}
}

func TestRenderMessage_HighlighterFallback(t *testing.T) {
	hl := func(language, code string, theme *Theme) ([]Line, bool) {
		return nil, false
	}
	msg := Message{Role: RoleAssistant, Content: "```weird\nraw text\n```"}
	lines, meta, _ := renderMessage(msg, DefaultTheme(), mdConfig(80), hl, 0)
	if lines[0].Text() != "raw text" {
		t.Fatalf("line = %q", lines[0].Text())
	}
	if meta[0][0].Tag != KindCodeBlock {
		t.Errorf("fallback rendering must still tag code block spans, got %+v", meta[0][0])
	}
}

func TestRenderMessage_SyntaxDisabledSkipsHighlighter(t *testing.T) {
	called := false
	hl := func(language, code string, theme *Theme) ([]Line, bool) {
		called = true
		return nil, false
	}
	cfg := mdConfig(80)
	cfg.Syntax = false
	_, _, _ = renderMessage(Message{Role: RoleAssistant, Content: "```go\nx\n```"}, DefaultTheme(), cfg, hl, 0)
	if called {
		t.Error("highlighter called with syntax disabled")
	}
}

// -- Tables -----------------------------------------------------------------------

func TestRenderMessage_Table(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: "| a | b |\n|---|---|\n| 1 | 2 |"}
	got := renderTexts(t, msg, mdConfig(80))
	want := []string{
		"┌───┬───┐",
		"│ a │ b │",
		"├───┼───┤",
		"│ 1 │ 2 │",
		"└───┴───┘",
	}
	assertLines(t, got, want)
}

func TestRenderMessage_TableContinuationRow(t *testing.T) {
	msg := Message{
		Role:    RoleAssistant,
		Content: "| k | v |\n|---|---|\n| 1 | first |\n|  | second |",
	}
	got := renderTexts(t, msg, mdConfig(80))
	// top border, header, separator, merged row of height 2, bottom border
	if len(got) != 6 {
		t.Fatalf("lines = %d %q, want 6", len(got), got)
	}
	if !strings.Contains(got[3], "first") || !strings.Contains(got[4], "second") {
		t.Errorf("merged row = %q / %q", got[3], got[4])
	}
	if !strings.Contains(got[3], "1") || strings.Contains(got[4], "1") {
		t.Errorf("first column value must appear only on the row's first line: %q / %q", got[3], got[4])
	}
}

// -- Plain mode ------------------------------------------------------------------------

func TestRenderMessage_MarkdownDisabled(t *testing.T) {
	cfg := LayoutConfig{Width: 80, Markdown: false}
	msg := Message{Role: RoleAssistant, Content: "# not a heading\n- raw line"}
	got := renderTexts(t, msg, cfg)
	assertLines(t, got, []string{"# not a heading", "- raw line"})
}

func TestRenderMessage_PlainPreservesBlankLines(t *testing.T) {
	cfg := LayoutConfig{Width: 80, Markdown: false}
	msg := Message{Role: RoleAssistant, Content: "a\n\nb"}
	got := renderTexts(t, msg, cfg)
	assertLines(t, got, []string{"a", "", "b"})
}
