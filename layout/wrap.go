package layout

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// maxUnbreakable is the widest unbreakable token kept intact when it cannot
// fit the line. Tokens wider than this are force-split per rune.
const maxUnbreakable = 30

// isBreakRune reports whether a break is permitted immediately after r.
// The break character stays attached to the preceding text.
func isBreakRune(r rune) bool {
	switch r {
	case '-', '‐', '–', '—', '/':
		return true
	}
	return false
}

func isSpaceRune(r rune) bool {
	return r == ' ' || r == '\t'
}

// chunk is an atomic unit of wrapping: a whitespace run or a token slice of
// one source fragment. breakAfter marks chunks ending in a break character.
type chunk struct {
	text       string
	style      fragment // style/kind carrier; text field unused
	src        int      // source fragment index, for re-merging split spans
	width      int
	space      bool
	breakAfter bool
}

// splitChunks cuts fragments at whitespace boundaries and after break
// characters. Fragment boundaries are always chunk boundaries, so a split
// span keeps its full style on both sides.
func splitChunks(frags []fragment) []chunk {
	var chunks []chunk
	for src, f := range frags {
		start := 0
		inSpace := false
		flushAt := func(end int, breakAfter bool) {
			if end <= start {
				return
			}
			text := f.text[start:end]
			chunks = append(chunks, chunk{
				text:       text,
				style:      f,
				src:        src,
				width:      runewidth.StringWidth(text),
				space:      inSpace,
				breakAfter: breakAfter,
			})
			start = end
		}
		for i, r := range f.text {
			if isSpaceRune(r) != inSpace {
				flushAt(i, false)
				inSpace = isSpaceRune(r)
				continue
			}
			if !inSpace && isBreakRune(r) {
				flushAt(i+utf8.RuneLen(r), true)
			}
		}
		flushAt(len(f.text), false)
	}
	return chunks
}

// wrapFragments wraps styled fragments to the given display width. Text is
// preserved exactly except that whitespace runs at chosen break points are
// dropped; trailing whitespace is trimmed. Unbreakable tokens up to
// maxUnbreakable columns may overflow a line rather than be cut; wider ones
// are force-split at the widest fitting prefix. width <= 0 disables
// wrapping. Input fragments must not contain newlines.
func wrapFragments(frags []fragment, width int) [][]fragment {
	chunks := splitChunks(frags)
	if width <= 0 {
		return [][]fragment{mergeChunks(trimTrailingSpace(chunks))}
	}

	var lines [][]fragment
	var cur []chunk
	curW := 0
	var pending []chunk // whitespace run awaiting the next token
	pendW := 0

	flush := func() {
		lines = append(lines, mergeChunks(cur))
		cur = nil
		curW = 0
		pending = nil // whitespace at a break point is normalized away
		pendW = 0
	}
	commit := func(cs []chunk) {
		for _, c := range append(pending, cs...) {
			cur = append(cur, c)
			curW += c.width
		}
		pending = nil
		pendW = 0
	}

	i := 0
	for i < len(chunks) {
		c := chunks[i]
		if c.space {
			if len(cur) == 0 && len(lines) > 0 {
				i++ // leading whitespace after a wrap
				continue
			}
			pending = append(pending, c)
			pendW += c.width
			i++
			continue
		}

		// Gather one unbreakable token: consecutive non-space chunks glue
		// together (punctuation after a styled word moves with the word)
		// until a chunk that ends in a break character.
		j := i
		groupW := 0
		for j < len(chunks) && !chunks[j].space {
			groupW += chunks[j].width
			j++
			if chunks[j-1].breakAfter {
				break
			}
		}
		group := chunks[i:j]
		i = j

		switch {
		case curW+pendW+groupW <= width:
			commit(group)
		case groupW <= width:
			if len(cur) == 0 {
				pending, pendW = nil, 0 // leading whitespace wider than the line
			} else {
				flush()
			}
			commit(group)
		default:
			// token wider than the whole line
			if len(cur) > 0 {
				flush()
			}
			pending, pendW = nil, 0
			if groupW <= maxUnbreakable {
				commit(group) // kept intact, overflow allowed
			} else {
				cur, curW, lines = hardSplit(group, width, cur, curW, lines)
			}
		}
	}
	if len(cur) > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// hardSplit force-splits an over-cap token per rune, filling each line to
// the widest fitting prefix. The remainder stays on the open line so
// following tokens can share it.
func hardSplit(group []chunk, width int, cur []chunk, curW int, lines [][]fragment) ([]chunk, int, [][]fragment) {
	for _, c := range group {
		text := c.text
		for text != "" {
			take, tw := widestPrefix(text, width-curW)
			if take == "" {
				if curW > 0 {
					lines = append(lines, mergeChunks(cur))
					cur, curW = nil, 0
					continue
				}
				// single rune wider than the line: emit it anyway
				_, size := utf8.DecodeRuneInString(text)
				take = text[:size]
				tw = runewidth.StringWidth(take)
			}
			piece := c
			piece.text = take
			piece.width = tw
			cur = append(cur, piece)
			curW += tw
			text = text[len(take):]
		}
	}
	return cur, curW, lines
}

// widestPrefix returns the longest prefix of s whose display width fits in
// max, with its width. Returns "" when not even the first rune fits.
func widestPrefix(s string, max int) (string, int) {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > max {
			return s[:i], w
		}
		w += rw
	}
	return s, w
}

// mergeChunks rebuilds fragments from placed chunks, re-joining adjacent
// chunks cut from the same source fragment.
func mergeChunks(cs []chunk) []fragment {
	var out []fragment
	last := -1
	for _, c := range cs {
		if last >= 0 && c.src == last {
			out[len(out)-1].text += c.text
			continue
		}
		f := c.style
		f.text = c.text
		out = append(out, f)
		last = c.src
	}
	return out
}

// trimTrailingSpace drops whitespace chunks at the end of a chunk list.
func trimTrailingSpace(cs []chunk) []chunk {
	for len(cs) > 0 && cs[len(cs)-1].space {
		cs = cs[:len(cs)-1]
	}
	return cs
}

// fragsWidth sums fragment display widths.
func fragsWidth(frags []fragment) int {
	w := 0
	for _, f := range frags {
		w += runewidth.StringWidth(f.text)
	}
	return w
}

// longestTokenWidth returns the display width of the widest unbreakable
// token in frags, measured with the same glue rules wrapping uses.
func longestTokenWidth(frags []fragment) int {
	chunks := splitChunks(frags)
	longest, run := 0, 0
	for _, c := range chunks {
		if c.space {
			run = 0
			continue
		}
		run += c.width
		if run > longest {
			longest = run
		}
		if c.breakAfter {
			run = 0
		}
	}
	return longest
}
