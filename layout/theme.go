package layout

import "github.com/charmbracelet/lipgloss"

// Theme is the style lookup the engine consults by semantic category.
// Styles are lipgloss values, so composing and copying them is cheap.
type Theme struct {
	// Name feeds the render cache fingerprint; two themes with different
	// styles must have different names.
	Name string

	// Role text styles.
	UserText      lipgloss.Style
	AssistantText lipgloss.Style
	SystemText    lipgloss.Style
	InfoText      lipgloss.Style
	WarningText   lipgloss.Style
	ErrorText     lipgloss.Style
	LogText       lipgloss.Style
	ToolText      lipgloss.Style

	// Line prefixes ("name: ").
	UserPrefix lipgloss.Style
	AppPrefix  lipgloss.Style

	// Markdown constructs.
	H1            lipgloss.Style
	H2            lipgloss.Style
	H3            lipgloss.Style // levels 4-6 reuse H3
	Emphasis      lipgloss.Style
	Strong        lipgloss.Style
	Strikethrough lipgloss.Style
	Superscript   lipgloss.Style
	Subscript     lipgloss.Style
	BlockQuote    lipgloss.Style
	InlineCode    lipgloss.Style
	CodeBlock     lipgloss.Style
	Link          lipgloss.Style
	ListMarker    lipgloss.Style
	TableBorder   lipgloss.Style
	TableHeader   lipgloss.Style
	Rule          lipgloss.Style
}

// Signature identifies the theme for cache fingerprinting.
func (t *Theme) Signature() string {
	if t == nil {
		return ""
	}
	return t.Name
}

// roleText returns the base text style for a message role.
func (t *Theme) roleText(role Role) lipgloss.Style {
	switch role {
	case RoleUser:
		return t.UserText
	case RoleAssistant:
		return t.AssistantText
	case RoleSystem:
		return t.SystemText
	case RoleAppInfo:
		return t.InfoText
	case RoleAppWarning:
		return t.WarningText
	case RoleAppError:
		return t.ErrorText
	case RoleAppLog:
		return t.LogText
	case RoleToolCall, RoleToolResult:
		return t.ToolText
	}
	return lipgloss.NewStyle()
}

// heading returns the style for a heading level (1-6).
func (t *Theme) heading(level int) lipgloss.Style {
	switch level {
	case 1:
		return t.H1
	case 2:
		return t.H2
	default:
		return t.H3
	}
}

// ac is a shorthand constructor for lipgloss.AdaptiveColor.
func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// DefaultTheme builds the built-in adaptive theme. Light values use ANSI
// 0-15 accents and 256-color grays; dark values are 256-color codes tuned
// for dark backgrounds.
func DefaultTheme() *Theme {
	plain := lipgloss.NewStyle()
	return &Theme{
		Name: "default",

		UserText:      plain.Foreground(ac("0", "252")),
		AssistantText: plain,
		SystemText:    plain.Foreground(ac("245", "240")).Italic(true),
		InfoText:      plain.Foreground(ac("4", "69")),
		WarningText:   plain.Foreground(ac("3", "208")),
		ErrorText:     plain.Foreground(ac("1", "196")),
		LogText:       plain.Foreground(ac("242", "243")),
		ToolText:      plain.Foreground(ac("8", "245")),

		UserPrefix: plain.Bold(true).Foreground(ac("4", "75")),
		AppPrefix:  plain.Bold(true).Foreground(ac("245", "240")),

		H1:            plain.Bold(true).Underline(true).Foreground(ac("4", "75")),
		H2:            plain.Bold(true).Foreground(ac("4", "75")),
		H3:            plain.Bold(true),
		Emphasis:      plain.Italic(true),
		Strong:        plain.Bold(true),
		Strikethrough: plain.Strikethrough(true),
		Superscript:   plain.Faint(true),
		Subscript:     plain.Faint(true),
		BlockQuote:    plain.Italic(true).Foreground(ac("242", "243")),
		InlineCode:    plain.Foreground(ac("5", "177")),
		CodeBlock:     plain.Foreground(ac("8", "250")),
		Link:          plain.Underline(true).Foreground(ac("4", "75")),
		ListMarker:    plain.Foreground(ac("4", "75")),
		TableBorder:   plain.Foreground(ac("250", "60")),
		TableHeader:   plain.Bold(true),
		Rule:          plain.Foreground(ac("250", "60")),
	}
}
