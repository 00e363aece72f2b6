package protocol

type Room struct {
	Room string `json:"room"`
}

type Leave struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// Cell is a board address on the wire.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// TileData is a tile in flight. X/Y are nil while the tile is in hand;
// Origin is set when the tile was lifted from the board.
type TileData struct {
	Name   string `json:"name"`
	Owner  string `json:"owner,omitempty"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
	Z      int    `json:"z"`
	Origin *Cell  `json:"origin,omitempty"`
}

// TileAction carries placeTile and pickupTile in both directions.
type TileAction struct {
	Room     string   `json:"room,omitempty"`
	Username string   `json:"username"`
	Data     TileData `json:"data"`
}

type HoverData struct {
	Pos  Point     `json:"pos"`
	Tile *TileData `json:"tile,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Hover is a mouseHover event. A nil Data means the sender stopped hovering.
type Hover struct {
	Room     string     `json:"room,omitempty"`
	Username string     `json:"username"`
	Data     *HoverData `json:"data"`
}

type TileAmount struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

type UserList struct {
	Players    []string `json:"players"`
	Spectators []string `json:"spectators"`
	Active     string   `json:"active,omitempty"`
}

type Finished struct {
	Winner string `json:"winner,omitempty"`
	Loser  string `json:"loser,omitempty"`
}
