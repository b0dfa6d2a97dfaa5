package layout

import "strings"

// tableMinColumn is the floor for balanced column widths.
const tableMinColumn = 8

// tableCell holds a cell's pre-wrap lines. Inline breaks (<br>) inside a
// cell produce multiple lines before any width constraint applies.
type tableCell struct {
	lines [][]fragment
}

// tableRow is one logical table row.
type tableRow struct {
	cells  []tableCell
	header bool
}

// tableOverhead returns the border and padding columns a table consumes
// beyond its content: n+1 separators plus one space of padding per side.
func tableOverhead(ncols int) int {
	return 3*ncols + 1
}

// mergeContinuationRows folds rows whose first cell is empty into the
// previous row, appending their cell lines column-wise. This is how a
// logical row spans multiple literal rows.
func mergeContinuationRows(rows []tableRow) []tableRow {
	var out []tableRow
	for _, row := range rows {
		if len(out) > 0 && !row.header && len(row.cells) > 0 && cellEmpty(row.cells[0]) {
			prev := &out[len(out)-1]
			for c := 1; c < len(row.cells); c++ {
				if cellEmpty(row.cells[c]) {
					continue
				}
				for len(prev.cells) <= c {
					prev.cells = append(prev.cells, tableCell{})
				}
				prev.cells[c].lines = append(prev.cells[c].lines, row.cells[c].lines...)
			}
			continue
		}
		out = append(out, row)
	}
	return out
}

func cellEmpty(c tableCell) bool {
	for _, line := range c.lines {
		for _, f := range line {
			if strings.TrimSpace(f.text) != "" {
				return false
			}
		}
	}
	return true
}

func columnCount(rows []tableRow) int {
	n := 0
	for _, r := range rows {
		if len(r.cells) > n {
			n = len(r.cells)
		}
	}
	return n
}

// idealWidths returns, per column, the widest rendered line of any cell.
func idealWidths(rows []tableRow, ncols int) []int {
	ideals := make([]int, ncols)
	for _, r := range rows {
		for c, cell := range r.cells {
			for _, line := range cell.lines {
				if w := fragsWidth(line); w > ideals[c] {
					ideals[c] = w
				}
			}
		}
	}
	return ideals
}

// minimumWidths returns, per column, max(tableMinColumn, longest unbreakable
// token capped at maxUnbreakable). Below this width wrapping would have to
// split tokens the wrap engine keeps intact, breaking border alignment.
func minimumWidths(rows []tableRow, ncols int) []int {
	mins := make([]int, ncols)
	for i := range mins {
		mins[i] = tableMinColumn
	}
	for _, r := range rows {
		for c, cell := range r.cells {
			for _, line := range cell.lines {
				w := longestTokenWidth(line)
				if w > maxUnbreakable {
					w = maxUnbreakable
				}
				if w > mins[c] {
					mins[c] = w
				}
			}
		}
	}
	return mins
}

// balanceWidths distributes available content columns. Preconditions:
// sum(mins) < available < sum(ideals). Each column gets its minimum plus a
// share of the surplus proportional to its ideal-minus-minimum gap, capped
// at its ideal; leftover units go one at a time to columns still under
// their ideal.
func balanceWidths(ideals, mins []int, available int) []int {
	widths := make([]int, len(mins))
	gapTotal := 0
	for i := range mins {
		if ideals[i] < mins[i] {
			ideals[i] = mins[i] // the floor can exceed a narrow column's ideal
		}
		widths[i] = mins[i]
		gapTotal += ideals[i] - mins[i]
	}
	surplus := available
	for _, m := range mins {
		surplus -= m
	}
	if gapTotal <= 0 || surplus <= 0 {
		return widths
	}
	assigned := 0
	for i := range widths {
		share := surplus * (ideals[i] - mins[i]) / gapTotal
		if widths[i]+share > ideals[i] {
			share = ideals[i] - widths[i]
		}
		widths[i] += share
		assigned += share
	}
	for left := surplus - assigned; left > 0; {
		grew := false
		for i := range widths {
			if left == 0 {
				break
			}
			if widths[i] < ideals[i] {
				widths[i]++
				left--
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	return widths
}

// tableColumnWidths runs the full width algorithm of the renderer:
// ideals when unconstrained or fitting, minima when even those overflow
// (the table then renders wider than the terminal, never truncated),
// balanced widths otherwise.
func tableColumnWidths(rows []tableRow, totalWidth int, policy TableOverflowPolicy) []int {
	ncols := columnCount(rows)
	ideals := idealWidths(rows, ncols)
	if totalWidth <= 0 || policy == TableOverflowShowFull {
		return ideals
	}
	available := totalWidth - tableOverhead(ncols)
	idealSum := 0
	for _, w := range ideals {
		idealSum += w
	}
	if idealSum <= available {
		return ideals
	}
	mins := minimumWidths(rows, ncols)
	minSum := 0
	for _, w := range mins {
		minSum += w
	}
	if minSum >= available {
		return mins
	}
	return balanceWidths(ideals, mins, available)
}

// renderTable renders merged rows at the given column widths into fragment
// lines: themed box-drawing borders, one space padding per side, one line
// per wrapped line of the tallest cell in each row, and a separator rule
// under the header.
func renderTable(rows []tableRow, widths []int, theme *Theme) [][]fragment {
	ncols := len(widths)
	borderFrag := func(left, mid, right string) []fragment {
		var b strings.Builder
		b.WriteString(left)
		for i, w := range widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < ncols-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(right)
		return []fragment{{text: b.String(), style: theme.TableBorder, kind: TextKind}}
	}
	sep := fragment{text: "│", style: theme.TableBorder, kind: TextKind}
	pad := func(n int) fragment {
		return fragment{text: strings.Repeat(" ", n), kind: TextKind}
	}

	var out [][]fragment
	out = append(out, borderFrag("┌", "┬", "┐"))
	for ri, row := range rows {
		// Wrap every cell to its column width; row height is the tallest.
		wrapped := make([][][]fragment, ncols)
		height := 1
		for c := 0; c < ncols; c++ {
			var cellLines [][]fragment
			if c < len(row.cells) {
				for _, line := range row.cells[c].lines {
					cellLines = append(cellLines, wrapFragments(line, widths[c])...)
				}
			}
			wrapped[c] = cellLines
			if len(cellLines) > height {
				height = len(cellLines)
			}
		}
		for ln := 0; ln < height; ln++ {
			frags := []fragment{sep}
			for c := 0; c < ncols; c++ {
				var content []fragment
				if ln < len(wrapped[c]) {
					content = wrapped[c][ln]
				}
				fill := widths[c] - fragsWidth(content)
				if fill < 0 {
					fill = 0
				}
				frags = append(frags, pad(1))
				frags = append(frags, content...)
				frags = append(frags, pad(fill+1), sep)
			}
			out = append(out, frags)
		}
		if row.header && ri < len(rows)-1 {
			out = append(out, borderFrag("├", "┼", "┤"))
		}
	}
	out = append(out, borderFrag("└", "┴", "┘"))
	return out
}
