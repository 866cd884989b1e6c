// Package level turns an ASCII map into a populated world.
package level

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp/v2"
)

// Map glyphs. Rows are listed top to bottom; the last row sits at y=0.
const (
	GlyphEmpty      = ' '
	GlyphDot        = '.'
	GlyphSolid      = '#'
	GlyphPlayer     = 'P'
	GlyphCrate      = 'B'
	GlyphHeavyCrate = 'C'
	GlyphSlopeUp    = '/'
	GlyphSlopeDown  = '\\'
	GlyphTrigger    = '^'
)

var (
	ErrNoPlayer     = errors.New("level has no player spawn")
	ErrManyPlayers  = errors.New("level has more than one player spawn")
	ErrUnknownGlyph = errors.New("unknown level glyph")
)

type Cell struct {
	X int
	Y int
}

// Center is the middle of the cell in world units.
func (c Cell) Center() cp.Vector {
	return cp.Vector{X: float64(c.X) + 0.5, Y: float64(c.Y) + 0.5}
}

type Slope struct {
	Cell
	Rising bool
}

// Endpoints returns the segment across the cell's diagonal.
func (s Slope) Endpoints() (cp.Vector, cp.Vector) {
	x, y := float64(s.X), float64(s.Y)
	if s.Rising {
		return cp.Vector{X: x, Y: y}, cp.Vector{X: x + 1, Y: y + 1}
	}
	return cp.Vector{X: x, Y: y + 1}, cp.Vector{X: x + 1, Y: y}
}

type Crate struct {
	Cell
	Pushable bool
}

// Run is a horizontal strip of solid cells on one row.
type Run struct {
	Y      int
	MinX   int
	Length int
}

type Layout struct {
	Width    int
	Height   int
	Player   Cell
	Solids   []Cell
	Slopes   []Slope
	Triggers []Cell
	Crates   []Crate
	rows     []string
}

// Parse reads rows top to bottom.
func Parse(rows []string) (*Layout, error) {
	l := &Layout{Height: len(rows), rows: rows}
	players := 0
	for r, row := range rows {
		y := len(rows) - 1 - r
		for x, ch := range []rune(row) {
			if x+1 > l.Width {
				l.Width = x + 1
			}
			cell := Cell{X: x, Y: y}
			switch ch {
			case GlyphEmpty, GlyphDot:
			case GlyphSolid:
				l.Solids = append(l.Solids, cell)
			case GlyphPlayer:
				l.Player = cell
				players++
			case GlyphCrate:
				l.Crates = append(l.Crates, Crate{Cell: cell, Pushable: true})
			case GlyphHeavyCrate:
				l.Crates = append(l.Crates, Crate{Cell: cell})
			case GlyphSlopeUp:
				l.Slopes = append(l.Slopes, Slope{Cell: cell, Rising: true})
			case GlyphSlopeDown:
				l.Slopes = append(l.Slopes, Slope{Cell: cell})
			case GlyphTrigger:
				l.Triggers = append(l.Triggers, cell)
			default:
				return nil, fmt.Errorf("row %d col %d %q: %w", r, x, ch, ErrUnknownGlyph)
			}
		}
	}
	switch {
	case players == 0:
		return nil, ErrNoPlayer
	case players > 1:
		return nil, fmt.Errorf("%w: %d", ErrManyPlayers, players)
	}
	return l, nil
}

// Static returns the glyph of static geometry at a cell, or GlyphEmpty.
// Spawn markers are reported as empty.
func (l *Layout) Static(x, y int) rune {
	r := l.Height - 1 - y
	if r < 0 || r >= len(l.rows) {
		return GlyphEmpty
	}
	row := []rune(l.rows[r])
	if x < 0 || x >= len(row) {
		return GlyphEmpty
	}
	switch ch := row[x]; ch {
	case GlyphSolid, GlyphSlopeUp, GlyphSlopeDown, GlyphTrigger:
		return ch
	}
	return GlyphEmpty
}

// Runs merges horizontally adjacent solid cells.
func (l *Layout) Runs() []Run {
	var runs []Run
	for _, c := range l.Solids {
		if n := len(runs); n > 0 {
			last := &runs[n-1]
			if last.Y == c.Y && last.MinX+last.Length == c.X {
				last.Length++
				continue
			}
		}
		runs = append(runs, Run{Y: c.Y, MinX: c.X, Length: 1})
	}
	return runs
}
