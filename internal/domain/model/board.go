package model

import "time"

// Catalog is the reference data a board is generated from. It is loaded once
// and treated as read-only.
type Catalog struct {
	Rules      []string           `json:"rules"`
	Goals      []Goal             `json:"goals"`
	Tags       map[string]TagMeta `json:"tags"`
	Thresholds Thresholds         `json:"difficulty"`
}

// Tag returns the metadata for tag, or DefaultTagMeta when none is declared.
func (c *Catalog) Tag(tag string) TagMeta {
	if c == nil {
		return DefaultTagMeta
	}
	if m, ok := c.Tags[tag]; ok {
		return m
	}
	return DefaultTagMeta
}

// Goal looks up a goal by name.
func (c *Catalog) Goal(name string) (Goal, bool) {
	if c == nil {
		return Goal{}, false
	}
	for _, g := range c.Goals {
		if g.Name == name {
			return g, true
		}
	}
	return Goal{}, false
}

// Cell is one square of a board.
type Cell struct {
	Index  int    `json:"index"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Goal   Goal   `json:"goal"`
	Bucket Bucket `json:"bucket"`
}

// Board is a generated grid. Cells are stored row-major.
type Board struct {
	ID        string    `json:"id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Seed      int64     `json:"seed"`
	Columns   int       `json:"columns"`
	Cells     []Cell    `json:"cells"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	// SingleUseTags lists single-use tags drawn on this board.
	SingleUseTags []string `json:"single_use_tags,omitempty"`
	// Exhausted lists goals this board exhausted for later boards.
	Exhausted []string `json:"exhausted,omitempty"`
}

// Size is the number of cells.
func (b *Board) Size() int {
	return len(b.Cells)
}

// Goals returns the goals in row-major order.
func (b *Board) Goals() []Goal {
	out := make([]Goal, len(b.Cells))
	for i, c := range b.Cells {
		out[i] = c.Goal
	}
	return out
}

// Rows splits the cells into rows of Columns cells.
func (b *Board) Rows() [][]Cell {
	if b.Columns <= 0 {
		return nil
	}
	rows := make([][]Cell, 0, (len(b.Cells)+b.Columns-1)/b.Columns)
	for start := 0; start < len(b.Cells); start += b.Columns {
		end := min(start+b.Columns, len(b.Cells))
		rows = append(rows, b.Cells[start:end])
	}
	return rows
}

// Lines returns the cell indexes of every winning line: each row, each
// column and, on square boards, both diagonals.
func (b *Board) Lines() [][]int {
	cols := b.Columns
	if cols <= 0 || len(b.Cells)%cols != 0 {
		return nil
	}
	rows := len(b.Cells) / cols
	var lines [][]int
	for r := range rows {
		line := make([]int, cols)
		for c := range cols {
			line[c] = r*cols + c
		}
		lines = append(lines, line)
	}
	for c := range cols {
		line := make([]int, rows)
		for r := range rows {
			line[r] = r*cols + c
		}
		lines = append(lines, line)
	}
	if rows == cols && rows > 1 {
		diag := make([]int, rows)
		anti := make([]int, rows)
		for i := range rows {
			diag[i] = i*cols + i
			anti[i] = i*cols + (cols - 1 - i)
		}
		lines = append(lines, diag, anti)
	}
	return lines
}
