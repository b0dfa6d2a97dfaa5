package layout

import (
	"hash"
	"hash/fnv"
)

// fingerprint is the cache validity key. prefixHash covers every message
// except the last so an in-place edit to an earlier message (same count)
// forces a full rebuild instead of reusing stale slices.
type fingerprint struct {
	width         int
	markdown      bool
	syntax        bool
	tableOverflow TableOverflowPolicy
	userName      string
	theme         string
	msgCount      int
	prefixHash    uint64
}

func configFingerprint(msgs []Message, theme *Theme, cfg LayoutConfig) fingerprint {
	return fingerprint{
		width:         cfg.Width,
		markdown:      cfg.Markdown,
		syntax:        cfg.Syntax,
		tableOverflow: cfg.TableOverflow,
		userName:      cfg.userName(),
		theme:         theme.Signature(),
		msgCount:      len(msgs),
		prefixHash:    hashMessages(msgs[:maxInt(len(msgs)-1, 0)]),
	}
}

func hashMessage(h hash.Hash64, m Message) {
	h.Write([]byte{byte(m.Role)})
	h.Write([]byte(m.Content))
	h.Write([]byte{0})
}

func hashMessages(msgs []Message) uint64 {
	h := fnv.New64a()
	for _, m := range msgs {
		hashMessage(h, m)
	}
	return h.Sum64()
}

func hashLast(msgs []Message) uint64 {
	if len(msgs) == 0 {
		return 0
	}
	h := fnv.New64a()
	hashMessage(h, msgs[len(msgs)-1])
	return h.Sum64()
}

// Cache memoizes the transcript layout. Streaming appends to the last
// message every frame, so a full recompute would be O(transcript); the
// splice path recomputes only the last message. The cache must be owned by
// a single goroutine and the last message mutated strictly sequentially
// between lookups — anything else invalidates the offset bookkeeping and is
// caught by the fingerprint, forcing a rebuild.
type Cache struct {
	highlight Highlighter

	valid        bool
	fp           fingerprint
	lastHash     uint64
	layout       *Layout
	lastStart    int
	lastLen      int
	prefixBlocks int // fenced blocks before the last message
}

// NewCache returns an empty cache using hl for code block styling.
func NewCache(hl Highlighter) *Cache {
	return &Cache{highlight: hl}
}

// Invalidate drops the memoized layout.
func (c *Cache) Invalidate() {
	c.valid = false
	c.layout = nil
}

// Layout returns the transcript layout, reusing cached work where the
// fingerprint allows:
//
//   - nothing changed: the cached *Layout, pointer-stable;
//   - only the last message changed (same count): recompute just that
//     message and splice it in at the stored offset, renumbering its block
//     indices past the untouched prefix;
//   - anything else changed: full rebuild.
func (c *Cache) Layout(msgs []Message, theme *Theme, cfg LayoutConfig) *Layout {
	fp := configFingerprint(msgs, theme, cfg)
	last := hashLast(msgs)

	if c.valid && fp == c.fp {
		if last == c.lastHash {
			return c.layout
		}
		c.splice(msgs, theme, cfg)
		c.lastHash = last
		return c.layout
	}

	c.layout, c.lastStart, c.lastLen, c.prefixBlocks = renderTranscript(msgs, theme, cfg, c.highlight)
	c.fp = fp
	c.lastHash = last
	c.valid = true
	return c.layout
}

// splice replaces the last message's slice of the cached layout with a
// fresh render. Block indices restart past the prefix maximum so they stay
// globally unique in document order.
func (c *Cache) splice(msgs []Message, theme *Theme, cfg LayoutConfig) {
	lines, meta, _ := renderMessage(msgs[len(msgs)-1], theme, cfg, c.highlight, c.prefixBlocks)

	newLines := make([]Line, 0, c.lastStart+len(lines))
	newLines = append(newLines, c.layout.Lines[:c.lastStart]...)
	newLines = append(newLines, lines...)
	newLines = append(newLines, c.layout.Lines[c.lastStart+c.lastLen:]...)

	newMeta := make([][]SpanKind, 0, len(newLines))
	newMeta = append(newMeta, c.layout.Metadata[:c.lastStart]...)
	newMeta = append(newMeta, meta...)
	newMeta = append(newMeta, c.layout.Metadata[c.lastStart+c.lastLen:]...)

	c.layout.Lines = newLines
	c.layout.Metadata = newMeta
	c.lastLen = len(lines)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
