// Package protocol defines the envelopes exchanged with the session server.
//
// Every frame is {"event": name, "data": payload}. Names follow the session
// server's event vocabulary.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed payload")

// Client -> Server
const (
	EvtJoin       = "join"
	EvtLeave      = "leave"
	EvtGetBoard   = "getBoard"
	EvtPlaceTile  = "placeTile"
	EvtPickupTile = "pickupTile"
	EvtMouseHover = "mouseHover"
)

// Server -> Client. placeTile, pickupTile and mouseHover travel both ways.
const (
	EvtUserList    = "userList"
	EvtBoardState  = "boardState"
	EvtTileAmounts = "tileAmounts"
	EvtFinished    = "finished"
	EvtMarkedTiles = "markedTiles"
)

type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// New marshals v into an envelope for event.
func New(event string, v any) (Envelope, error) {
	if v == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// MustNew is New for payloads that cannot fail to marshal.
func MustNew(event string, v any) Envelope {
	env, err := New(event, v)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode unmarshals the envelope payload into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: %w: empty", e.Event, ErrMalformed)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("%s: %w: %v", e.Event, ErrMalformed, err)
	}
	return nil
}

// Unwrap returns raw, or the JSON text inside raw when the server sent the
// payload as an encoded string.
func Unwrap(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 || raw[0] != '"' {
		return raw, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return json.RawMessage(inner), nil
}
