// Package room runs one game room on the dev server. A room relays events
// between its clients, keeps the authoritative board and inventories and
// enforces whose turn it is. It does not judge whether a move is legal.
package room

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/DoyleJ11/hexhive/internal/board"
	"github.com/DoyleJ11/hexhive/internal/hex"
	"github.com/DoyleJ11/hexhive/internal/journal"
	"github.com/DoyleJ11/hexhive/pkg/protocol"
)

const maxPlayers = 2

type Msg interface{ isRoomMsg() }

// Join registers a connection under user. Outbox receives every event meant
// for that connection; the room closes it only when dropping a slow client or
// shutting down.
type Join struct {
	ClientID string
	User     string
	Outbox   chan protocol.Envelope
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

// FromClient carries one game event from a joined connection.
type FromClient struct {
	ClientID string
	Env      protocol.Envelope
}

func (FromClient) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// View is a copy of the room for tests and the HTTP API.
type View struct {
	Code        string
	Players     []string
	Spectators  []string
	Active      string
	NumClients  int
	Board       *board.Board
	Inventories map[string]board.Inventory
}

// Recorder persists relayed moves. A nil Recorder records nothing.
type Recorder interface {
	Record(ctx context.Context, m journal.Move) error
}

type client struct {
	user   string
	outbox chan protocol.Envelope
}

type Room struct {
	code    string
	inbox   chan Msg
	clients map[string]*client

	players     []string
	spectators  []string
	turn        int
	lifted      string // user whose relayed pickup has not been placed yet
	board       *board.Board
	inventories map[string]board.Inventory

	rec Recorder
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, code string, rec Recorder, log *zap.Logger) *Room {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		code:        code,
		inbox:       make(chan Msg, 64),
		clients:     make(map[string]*client),
		board:       board.New(),
		inventories: make(map[string]board.Inventory),
		rec:         rec,
		log:         log.Named("room").With(zap.String("room", code)),
		ctx:         ctx,
		cancel:      cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

// Done is closed once the room has shut down.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)

			case Leave:
				r.leave(msg.ClientID)

			case FromClient:
				c := r.clients[msg.ClientID]
				if c == nil {
					break
				}
				r.handle(msg.ClientID, c, msg.Env)

			case GetState:
				// test-only: reflect internal state without data races
				inv := make(map[string]board.Inventory, len(r.inventories))
				for u, i := range r.inventories {
					inv[u] = i.Clone()
				}
				msg.Reply <- View{
					Code:        r.code,
					Players:     slices.Clone(r.players),
					Spectators:  slices.Clone(r.spectators),
					Active:      r.active(),
					NumClients:  len(r.clients),
					Board:       r.board.Clone(),
					Inventories: inv,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) join(msg Join) {
	r.clients[msg.ClientID] = &client{user: msg.User, outbox: msg.Outbox}

	if !slices.Contains(r.players, msg.User) && !slices.Contains(r.spectators, msg.User) {
		if len(r.players) < maxPlayers {
			r.players = append(r.players, msg.User)
			r.inventories[msg.User] = board.NewInventory()
			r.log.Info("player joined", zap.String("user", msg.User))
		} else {
			r.spectators = append(r.spectators, msg.User)
			r.log.Info("spectator joined", zap.String("user", msg.User))
		}
	}

	r.sendTo(msg.ClientID, r.boardState())
	r.broadcast(r.userList(), "")
	if inv, ok := r.inventories[msg.User]; ok {
		r.sendTo(msg.ClientID, tileAmounts(inv))
	}
}

// leave drops a connection. A leaving player ends the game for everyone: the
// board and seats are reset and the remaining clients must join again.
func (r *Room) leave(id string) {
	c := r.clients[id]
	if c == nil {
		return
	}
	delete(r.clients, id)
	if r.connected(c.user) {
		return
	}

	if slices.Contains(r.players, c.user) {
		r.log.Info("player left, resetting", zap.String("user", c.user))
		r.reset()
		r.broadcast(r.boardState(), "")
	} else {
		r.spectators = slices.DeleteFunc(r.spectators, func(u string) bool { return u == c.user })
	}
	r.broadcast(r.userList(), "")
}

func (r *Room) connected(user string) bool {
	for _, c := range r.clients {
		if c.user == user {
			return true
		}
	}
	return false
}

func (r *Room) reset() {
	r.players = nil
	r.spectators = nil
	r.turn = 0
	r.lifted = ""
	r.board.Clear()
	clear(r.inventories)
}

func (r *Room) active() string {
	if len(r.players) == 0 {
		return ""
	}
	return r.players[r.turn%len(r.players)]
}

func (r *Room) handle(id string, c *client, env protocol.Envelope) {
	switch env.Event {
	case protocol.EvtGetBoard:
		// Everyone already dropped the lifted tile, so a cancelled lift is
		// restored for the whole room.
		if r.lifted != "" && r.lifted == c.user {
			r.lifted = ""
			r.broadcast(r.boardState(), "")
			return
		}
		r.sendTo(id, r.boardState())

	case protocol.EvtLeave:
		r.leave(id)

	case protocol.EvtMouseHover:
		if !slices.Contains(r.players, c.user) {
			return
		}
		var h protocol.Hover
		if err := env.Decode(&h); err != nil {
			r.log.Debug("bad hover", zap.Error(err))
			return
		}
		h.Room, h.Username = r.code, c.user
		r.broadcast(protocol.MustNew(protocol.EvtMouseHover, h), id)

	case protocol.EvtPickupTile:
		r.pickup(id, c, env)

	case protocol.EvtPlaceTile:
		r.place(id, c, env)

	default:
		r.log.Debug("ignored event", zap.String("event", env.Event))
	}
}

// pickup answers a lift of the actor's own top tile with the cells it could
// go to, and tells everyone it was lifted. The board is unchanged until the
// tile is placed.
func (r *Room) pickup(id string, c *client, env protocol.Envelope) {
	if c.user != r.active() {
		r.log.Debug("pickup out of turn", zap.String("user", c.user))
		return
	}
	var msg protocol.TileAction
	if err := env.Decode(&msg); err != nil || msg.Data.X == nil || msg.Data.Y == nil {
		r.log.Debug("bad pickup", zap.Error(err))
		return
	}
	at := hex.Axial{X: *msg.Data.X, Y: *msg.Data.Y}
	top, ok := r.board.Get(at)
	if !ok || top.Owner != c.user {
		r.log.Debug("pickup refused", zap.String("user", c.user))
		return
	}

	x, y := at.X, at.Y
	r.record(journal.Move{Room: r.code, User: c.user, Action: journal.ActionPickup, Kind: top.Kind, X: x, Y: y, Z: top.Depth})

	r.lifted = c.user
	r.sendTo(id, markedTiles(r.board, at))
	r.broadcast(protocol.MustNew(protocol.EvtPickupTile, protocol.TileAction{
		Room:     r.code,
		Username: c.user,
		Data:     protocol.TileData{Name: top.Kind, Owner: top.Owner, X: &x, Y: &y, Z: top.Depth},
	}), "")
}

// place accepts a placement from the active player. A fresh tile comes out of
// the player's inventory; a lifted tile must still be their top tile at its
// origin.
func (r *Room) place(id string, c *client, env protocol.Envelope) {
	if c.user != r.active() {
		r.log.Debug("placement out of turn", zap.String("user", c.user))
		return
	}
	var msg protocol.TileAction
	if err := env.Decode(&msg); err != nil || msg.Data.X == nil || msg.Data.Y == nil || msg.Data.Name == "" {
		r.log.Debug("bad placement", zap.Error(err))
		return
	}
	target := hex.Axial{X: *msg.Data.X, Y: *msg.Data.Y}

	if o := msg.Data.Origin; o != nil {
		origin := hex.Axial{X: o.X, Y: o.Y}
		top, ok := r.board.Get(origin)
		if !ok || top.Owner != c.user || top.Kind != msg.Data.Name {
			r.log.Debug("placement from stale origin", zap.String("user", c.user))
			return
		}
		r.board.Remove(origin)
	} else if !r.inventories[c.user].Take(msg.Data.Name) {
		r.log.Debug("placement without stock", zap.String("user", c.user), zap.String("kind", msg.Data.Name))
		return
	}

	placed := r.board.Put(board.Tile{Kind: msg.Data.Name, Owner: c.user}, target)
	r.turn++
	r.lifted = ""

	x, y := target.X, target.Y
	r.record(journal.Move{Room: r.code, User: c.user, Action: journal.ActionPlace, Kind: placed.Kind, X: x, Y: y, Z: placed.Depth})

	data := protocol.TileData{Name: placed.Kind, Owner: c.user, X: &x, Y: &y, Z: placed.Depth, Origin: msg.Data.Origin}
	r.broadcast(protocol.MustNew(protocol.EvtPlaceTile, protocol.TileAction{Room: r.code, Username: c.user, Data: data}), "")
	r.broadcast(r.userList(), "")
	r.broadcast(r.boardState(), "")
	r.sendTo(id, tileAmounts(r.inventories[c.user]))

	if loser, ok := r.surroundedQueen(); ok {
		r.finish(loser)
	}
}

// surroundedQueen reports the owner of a queen with all six neighbors
// occupied. When both are surrounded the mover loses.
func (r *Room) surroundedQueen() (string, bool) {
	var lost []string
	for _, cell := range r.board.Cells() {
		for _, t := range cell.Stack {
			if t.Kind != "queen" {
				continue
			}
			surrounded := true
			for _, n := range hex.Neighbors(cell.Coord) {
				if !r.board.Occupied(n) {
					surrounded = false
					break
				}
			}
			if surrounded && !slices.Contains(lost, t.Owner) {
				lost = append(lost, t.Owner)
			}
		}
	}
	switch len(lost) {
	case 0:
		return "", false
	case 1:
		return lost[0], true
	}
	// The previous mover is one turn behind the current active player.
	mover := r.players[(r.turn-1+len(r.players))%len(r.players)]
	return mover, true
}

func (r *Room) finish(loser string) {
	winner := ""
	for _, p := range r.players {
		if p != loser {
			winner = p
		}
	}
	r.log.Info("game finished", zap.String("winner", winner), zap.String("loser", loser))
	r.record(journal.Move{Room: r.code, User: winner, Action: journal.ActionFinish})
	r.broadcast(protocol.MustNew(protocol.EvtFinished, protocol.Finished{Winner: winner, Loser: loser}), "")

	players := r.players
	r.reset()
	// Both seats stay with the same players for the next game.
	for _, p := range players {
		r.players = append(r.players, p)
		r.inventories[p] = board.NewInventory()
	}
	for id, c := range r.clients {
		if !slices.Contains(r.players, c.user) && !slices.Contains(r.spectators, c.user) {
			r.spectators = append(r.spectators, c.user)
		}
		if inv, ok := r.inventories[c.user]; ok {
			r.sendTo(id, tileAmounts(inv))
		}
	}
	r.broadcast(r.boardState(), "")
	r.broadcast(r.userList(), "")
}

func (r *Room) record(m journal.Move) {
	if r.rec == nil {
		return
	}
	if err := r.rec.Record(r.ctx, m); err != nil {
		r.log.Warn("journal write failed", zap.Error(err))
	}
}

func (r *Room) boardState() protocol.Envelope {
	return protocol.MustNew(protocol.EvtBoardState, board.EncodeSnapshot(r.board.Snapshot()))
}

func (r *Room) userList() protocol.Envelope {
	return protocol.MustNew(protocol.EvtUserList, protocol.UserList{
		Players:    nonNil(r.players),
		Spectators: nonNil(r.spectators),
		Active:     r.active(),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func tileAmounts(inv board.Inventory) protocol.Envelope {
	kinds := inv.Kinds()
	out := make([]protocol.TileAmount, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, protocol.TileAmount{Name: k, Amount: inv.Count(k)})
	}
	return protocol.MustNew(protocol.EvtTileAmounts, out)
}

// markedTiles lists the empty cells next to the hive once the tile at from is
// lifted, excluding from itself.
func markedTiles(b *board.Board, from hex.Axial) protocol.Envelope {
	rest := b.Clone()
	rest.Remove(from)
	marked := protocol.Marked{}
	for _, c := range rest.Frontier() {
		if c == from {
			continue
		}
		marked = append(marked, [2]int{c.X, c.Y})
	}
	return protocol.MustNew(protocol.EvtMarkedTiles, marked)
}

func (r *Room) sendTo(id string, env protocol.Envelope) {
	c := r.clients[id]
	if c == nil {
		return
	}
	select {
	case c.outbox <- env:
	default:
		r.drop(id, c)
	}
}

// broadcast sends env to every client except skip. Slow clients are dropped.
func (r *Room) broadcast(env protocol.Envelope, skip string) {
	for id, c := range r.clients {
		if id == skip {
			continue
		}
		select {
		case c.outbox <- env:
			//ok
		default:
			r.drop(id, c)
		}
	}
}

func (r *Room) drop(id string, c *client) {
	r.log.Warn("dropping slow client", zap.String("user", c.user))
	close(c.outbox)
	delete(r.clients, id)
}

func (r *Room) shutdown() {
	for id, c := range r.clients {
		close(c.outbox) // no more events
		delete(r.clients, id)
	}
	r.cancel()
}
