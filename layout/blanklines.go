package layout

import "strings"

// blankPrecededItems scans raw markdown and returns the set of list-item
// ordinals (1-based, counted across all nesting levels in source order)
// that are immediately preceded by a blank line. The markdown tokenizer
// does not expose source blank lines, so the main pass consults this set by
// ordinal to decide whether to keep a blank line before an item.
//
// Lines inside fenced code blocks are skipped, as are numeric-looking lines
// that the tokenizer would not treat as list items: an ordered marker
// directly after paragraph text only starts a list when its number is 1,
// so "2. two" under a paragraph is plain text to both passes.
func blankPrecededItems(src string) map[int]bool {
	preceded := make(map[int]bool)
	ordinal := 0
	prevBlank := false
	prevParagraph := false // previous non-blank line was plain paragraph text
	fence := ""            // opening fence characters while inside a fenced block

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimLeft(line, " \t")

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			prevBlank, prevParagraph = false, false
			continue
		}
		if f := fenceMarker(trimmed); f != "" {
			fence = f
			prevBlank, prevParagraph = false, false
			continue
		}

		if strings.TrimSpace(line) == "" {
			prevBlank = true
			continue
		}
		if isListItemLine(trimmed) && (prevBlank || !prevParagraph || canInterruptParagraph(trimmed)) {
			ordinal++
			if prevBlank {
				preceded[ordinal] = true
			}
			prevParagraph = false
		} else {
			prevParagraph = true
		}
		prevBlank = false
	}
	return preceded
}

// canInterruptParagraph reports whether a list-item line may start a list
// directly under paragraph text: bullets always can, ordered markers only
// when they start at 1.
func canInterruptParagraph(trimmed string) bool {
	switch trimmed[0] {
	case '-', '*', '+':
		return true
	}
	return strings.HasPrefix(trimmed, "1.") || strings.HasPrefix(trimmed, "1)")
}

// fenceMarker returns the fence prefix ("```" or "~~~") when the trimmed
// line opens a fenced code block, else "".
func fenceMarker(trimmed string) string {
	for _, f := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, f) {
			return f
		}
	}
	return ""
}

// isListItemLine reports whether a (left-trimmed) source line starts a list
// item: a bullet marker or an ordered marker followed by a space. Ordered
// markers over nine digits are treated as plain numeric text, matching the
// tokenizer.
func isListItemLine(trimmed string) bool {
	if len(trimmed) >= 2 {
		switch trimmed[0] {
		case '-', '*', '+':
			if trimmed[1] == ' ' {
				return true
			}
		}
	}
	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > 9 || digits+1 >= len(trimmed) {
		return false
	}
	if trimmed[digits] != '.' && trimmed[digits] != ')' {
		return false
	}
	return trimmed[digits+1] == ' '
}
