package model

import "unicode/utf8"

// FleetSizes — обязательный состав флота: по одному кораблю на 5, 4 и 2
// клетки и два корабля по 3 клетки. Итого 17 клеток.
var FleetSizes = [...]int{5, 4, 3, 3, 2}

// TotalShipCells is the sum of FleetSizes.
const TotalShipCells = 17

// MaxShipNameLen bounds ship labels echoed back on the wire.
const MaxShipNameLen = 29

// Ship is one placed ship with per-ship hit tracking. Hits growing to Size
// is the single moment the ship counts as sunk.
type Ship struct {
	Name       string
	Size       int
	Row        int
	Col        int
	Horizontal bool
	Hits       int
}

// Sunk reports whether every cell of the ship has been hit.
func (s *Ship) Sunk() bool { return s.Hits >= s.Size }

// truncateName режет имя корабля до MaxShipNameLen байт не ломая UTF-8.
func truncateName(name string) string {
	if len(name) <= MaxShipNameLen {
		return name
	}
	cut := MaxShipNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
