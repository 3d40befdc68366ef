package model

import (
	"errors"
	"fmt"
)

// Cell is the state of one board square.
type Cell uint8

const (
	CellWater Cell = iota
	CellShip
	CellHit
	CellMiss
)

// ShotResult classifies the outcome of one shot.
type ShotResult string

const (
	ShotHit        ShotResult = "HIT"
	ShotMiss       ShotResult = "MISS"
	ShotAlreadyHit ShotResult = "ALREADY_HIT"
)

var (
	// ErrFleetComposition — состав флота не совпадает с FleetSizes.
	ErrFleetComposition = errors.New("fleet must be exactly one 5, one 4, two 3 and one 2 cell ship")
	// ErrShipOutOfBounds — корабль не помещается на доске.
	ErrShipOutOfBounds = errors.New("ship does not fit on the board")
	// ErrShipOverlap — корабли пересекаются. Касание бортами разрешено.
	ErrShipOverlap = errors.New("ships overlap")
)

// ShotOutcome is what a single shot produced on the board.
type ShotOutcome struct {
	Result   ShotResult
	SunkShip string // имя потопленного этим выстрелом корабля, "" если нет
	AllSunk  bool   // выстрел добил последнюю клетку флота
}

// Board is one player's 10×10 battleship grid. Board не синхронизирован:
// все мутации идут под локом матча.
type Board struct {
	cells  [BoardSize][BoardSize]Cell
	shipAt [BoardSize][BoardSize]int8 // индекс в ships, -1 для воды
	ships  []Ship

	hitsReceived int
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	b := &Board{}
	for r := range b.shipAt {
		for c := range b.shipAt[r] {
			b.shipAt[r][c] = -1
		}
	}
	return b
}

// PlaceFleet validates and stores the full fleet. Вся расстановка
// атомарна: при любом нарушении доска остаётся пустой.
func (b *Board) PlaceFleet(ships []Ship) error {
	if len(ships) != len(FleetSizes) {
		return ErrFleetComposition
	}

	var want, got [BoardSize]int
	for _, size := range FleetSizes {
		want[size]++
	}
	for _, s := range ships {
		if s.Size < 2 || s.Size > 5 {
			return ErrFleetComposition
		}
		got[s.Size]++
	}
	if got != want {
		return ErrFleetComposition
	}

	var cells [BoardSize][BoardSize]Cell
	var shipAt [BoardSize][BoardSize]int8
	for r := range shipAt {
		for c := range shipAt[r] {
			shipAt[r][c] = -1
		}
	}

	placed := make([]Ship, 0, len(ships))
	for i, s := range ships {
		if s.Row < 0 || s.Col < 0 {
			return fmt.Errorf("%w: %q starts at (%d,%d)", ErrShipOutOfBounds, s.Name, s.Row, s.Col)
		}
		endRow, endCol := s.Row, s.Col
		if s.Horizontal {
			endCol += s.Size - 1
		} else {
			endRow += s.Size - 1
		}
		if endRow >= BoardSize || endCol >= BoardSize {
			return fmt.Errorf("%w: %q ends at (%d,%d)", ErrShipOutOfBounds, s.Name, endRow, endCol)
		}
		for k := range s.Size {
			r, c := s.Row, s.Col
			if s.Horizontal {
				c += k
			} else {
				r += k
			}
			if cells[r][c] == CellShip {
				return fmt.Errorf("%w: %q at %s", ErrShipOverlap, s.Name, FormatCoord(r, c))
			}
			cells[r][c] = CellShip
			shipAt[r][c] = int8(i)
		}
		s.Name = truncateName(s.Name)
		s.Hits = 0
		placed = append(placed, s)
	}

	b.cells = cells
	b.shipAt = shipAt
	b.ships = placed
	b.hitsReceived = 0
	return nil
}

// Shoot resolves a shot at (row, col). Координаты должны быть в границах
// доски — Shoot вызывается после ParseCoord. ALREADY_HIT не меняет доску
// и счётчики.
func (b *Board) Shoot(row, col int) ShotOutcome {
	switch b.cells[row][col] {
	case CellWater:
		b.cells[row][col] = CellMiss
		return ShotOutcome{Result: ShotMiss}
	case CellShip:
		b.cells[row][col] = CellHit
		b.hitsReceived++
		ship := &b.ships[b.shipAt[row][col]]
		ship.Hits++

		out := ShotOutcome{Result: ShotHit}
		if ship.Sunk() {
			// Клетка переходит SHIP→HIT ровно один раз, поэтому имя
			// потопленного корабля уходит ровно в одном ответе.
			out.SunkShip = ship.Name
		}
		out.AllSunk = b.hitsReceived == TotalShipCells
		return out
	default:
		return ShotOutcome{Result: ShotAlreadyHit}
	}
}

// Placed reports whether a fleet is stored on this board.
func (b *Board) Placed() bool { return len(b.ships) > 0 }

// HitsReceived returns the number of ship cells already hit.
func (b *Board) HitsReceived() int { return b.hitsReceived }

// At returns the state of one cell.
func (b *Board) At(row, col int) Cell { return b.cells[row][col] }

// Ships returns the placed fleet.
func (b *Board) Ships() []Ship { return b.ships }
