package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

var (
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
	ErrSnapshotSchema  = errors.New("invalid snapshot")
)

// DecodeSnapshot parses a boardState payload, plain or string-wrapped.
// Tiles owned by local are flagged Local. Any schema problem rejects the
// whole snapshot.
func DecodeSnapshot(raw json.RawMessage, local string) (Snapshot, error) {
	inner, err := protocol.Unwrap(raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotSchema, err)
	}
	var wire protocol.Snapshot
	if err := json.Unmarshal(inner, &wire); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrSnapshotSchema, err)
	}
	if wire.Version != protocol.SnapshotVersion {
		return Snapshot{}, fmt.Errorf("%w: %d", ErrSnapshotVersion, wire.Version)
	}

	var snap Snapshot
	for rowKey, row := range wire.Rows {
		y, err := strconv.Atoi(rowKey)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: row key %q", ErrSnapshotSchema, rowKey)
		}
		for colKey, entries := range row {
			x, err := strconv.Atoi(colKey)
			if err != nil {
				return Snapshot{}, fmt.Errorf("%w: column key %q", ErrSnapshotSchema, colKey)
			}
			c := hex.Axial{X: x, Y: y}
			stack := make([]Tile, 0, len(entries))
			for i, e := range entries {
				if e.Name == "" {
					return Snapshot{}, fmt.Errorf("%w: empty kind at %v[%d]", ErrSnapshotSchema, c, i)
				}
				stack = append(stack, Tile{
					Kind:  e.Name,
					Owner: e.Owner,
					Local: local != "" && e.Owner == local,
				}.At(c))
			}
			snap.Cells = append(snap.Cells, Cell{Coord: c, Stack: stack})
		}
	}
	return snap, nil
}

// EncodeSnapshot renders s in the boardState wire schema.
func EncodeSnapshot(s Snapshot) protocol.Snapshot {
	wire := protocol.Snapshot{
		Version: protocol.SnapshotVersion,
		Rows:    make(map[string]map[string][]protocol.StackEntry),
	}
	for _, cell := range s.Cells {
		if len(cell.Stack) == 0 {
			continue
		}
		rowKey := strconv.Itoa(cell.Coord.Y)
		row, ok := wire.Rows[rowKey]
		if !ok {
			row = make(map[string][]protocol.StackEntry)
			wire.Rows[rowKey] = row
		}
		entries := make([]protocol.StackEntry, 0, len(cell.Stack))
		for _, t := range cell.Stack {
			entries = append(entries, protocol.StackEntry{Name: t.Kind, Owner: t.Owner})
		}
		row[strconv.Itoa(cell.Coord.X)] = entries
	}
	return wire
}
