package model

import "fmt"

// BoardSize is the side length of the battleship grid.
const BoardSize = 10

// ParseCoord converts a wire coordinate ("A0".."J9") into row and column.
// Буква кодирует строку, цифра — столбец. Ровно два байта, только верхний
// регистр: "a5", "B10" и " B5" отклоняются.
func ParseCoord(coord string) (row, col int, err error) {
	if len(coord) != 2 {
		return 0, 0, fmt.Errorf("coordinate %q: want exactly 2 characters", coord)
	}
	row = int(coord[0]) - 'A'
	col = int(coord[1]) - '0'
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return 0, 0, fmt.Errorf("coordinate %q out of range", coord)
	}
	return row, col, nil
}

// FormatCoord converts row and column back into the wire form.
func FormatCoord(row, col int) string {
	return string([]byte{byte('A' + row), byte('0' + col)})
}
