package board

import "sort"

// DefaultPieces is each player's starting hand.
var DefaultPieces = map[string]int{
	"queen":       1,
	"spider":      2,
	"beetle":      2,
	"grasshopper": 3,
	"ant":         3,
	"mosquito":    1,
	"ladybug":     1,
}

// Inventory counts the unplaced tiles of one player by kind.
type Inventory map[string]int

func NewInventory() Inventory {
	inv := make(Inventory, len(DefaultPieces))
	for k, v := range DefaultPieces {
		inv[k] = v
	}
	return inv
}

func (inv Inventory) Count(kind string) int { return inv[kind] }

// Take removes one tile of kind, reporting false when none is left.
func (inv Inventory) Take(kind string) bool {
	if inv[kind] <= 0 {
		return false
	}
	inv[kind]--
	return true
}

// Return puts one tile of kind back.
func (inv Inventory) Return(kind string) {
	inv[kind]++
}

// Replace overwrites every count with counts.
func (inv Inventory) Replace(counts map[string]int) {
	for k := range inv {
		delete(inv, k)
	}
	for k, v := range counts {
		inv[k] = v
	}
}

// Kinds lists the known kinds alphabetically.
func (inv Inventory) Kinds() []string {
	kinds := make([]string, 0, len(inv))
	for k := range inv {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}
