package main

import (
	"fmt"

	"github.com/mhettinga/parley/layout"

	"github.com/atotto/clipboard"
)

// nextBlock cycles the code block selection through the layout's block
// indices: dir +1 moves forward, -1 backward, wrapping at either end.
// Returns -1 when there are no blocks.
func nextBlock(indices []int, current, dir int) int {
	if len(indices) == 0 {
		return -1
	}
	pos := -1
	for i, idx := range indices {
		if idx == current {
			pos = i
			break
		}
	}
	if pos == -1 {
		if dir > 0 {
			return indices[0]
		}
		return indices[len(indices)-1]
	}
	pos = (pos + dir + len(indices)) % len(indices)
	return indices[pos]
}

// copyCodeBlock reconstructs the selected block's text from span metadata
// and puts it on the system clipboard.
func copyCodeBlock(l *layout.Layout, index int) error {
	text, ok := l.CodeBlockText(index)
	if !ok {
		return fmt.Errorf("no code block %d", index)
	}
	return clipboard.WriteAll(text)
}
