package protocol

// SnapshotVersion is the only boardState schema this client accepts.
const SnapshotVersion = 1

// Snapshot is a boardState payload: row -> column -> stack, bottom first.
// Keys are decimal integers.
type Snapshot struct {
	Version int                                `json:"v"`
	Rows    map[string]map[string][]StackEntry `json:"rows"`
}

type StackEntry struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// Marked is a markedTiles payload: a list of [x, y] pairs.
type Marked [][2]int
