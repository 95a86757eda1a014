package football

import (
	"encoding/json"
	"fmt"

	"gobet-client/models"
)

// Odds holds the main-market quotes of a football match. A nil field means
// the quote is not currently offered.
type Odds struct {
	Win1  *float64 `json:"win1,omitempty"`
	Win2  *float64 `json:"win2,omitempty"`
	Draw1 *float64 `json:"draw1,omitempty"`
	Draw2 *float64 `json:"draw2,omitempty"`
	Lose1 *float64 `json:"lose1,omitempty"`
	Lose2 *float64 `json:"lose2,omitempty"`
}

// Live holds the part of a game that changes while the match is in play.
type Live struct {
	Odds
	Page   int    `json:"page"`
	Order  int    `json:"order"`
	Time   string `json:"time,omitempty"`
	Result string `json:"result,omitempty"`
}

// Game is a single in-play football match. EventID is the identity: the live
// list never carries two games with the same EventID.
type Game struct {
	Live
	EventID  int    `json:"event_id"`
	MarketID int    `json:"market_id"`
	Home     string `json:"home"`
	Away     string `json:"away"`

	// Changes is the change-set applied by the most recent batch, kept for
	// one cycle so consumers can highlight what moved.
	Changes *GameChanges `json:"changes,omitempty"`
}

// OddPatch is one tri-state odds field of a change-set: absent from the JSON
// leaves the quote unchanged, an explicit null withdraws it, a number
// replaces it.
type OddPatch struct {
	Present bool
	Value   *float64
}

func (p *OddPatch) UnmarshalJSON(data []byte) error {
	p.Present = true
	if string(data) == "null" {
		p.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Value = &v
	return nil
}

func (p OddPatch) MarshalJSON() ([]byte, error) {
	if p.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.Value)
}

// GameChanges is a partial patch for one game. Zero-valued scalar fields
// mean "leave unchanged"; the odds fields carry full tri-state semantics.
type GameChanges struct {
	EventID int      `json:"event_id"`
	Page    int      `json:"page,omitempty"`
	Order   int      `json:"order,omitempty"`
	Time    string   `json:"time,omitempty"`
	Result  string   `json:"result,omitempty"`
	Win1    OddPatch `json:"win1,omitzero"`
	Win2    OddPatch `json:"win2,omitzero"`
	Draw1   OddPatch `json:"draw1,omitzero"`
	Draw2   OddPatch `json:"draw2,omitzero"`
	Lose1   OddPatch `json:"lose1,omitzero"`
	Lose2   OddPatch `json:"lose2,omitzero"`
}

// ChangesBatch is the wire payload describing one round of live-list changes.
type ChangesBatch struct {
	// InPlay carries games that just went live or are replaced wholesale.
	InPlay []Game `json:"inplay,omitempty"`

	// OutPlay lists event ids to remove from the live list.
	OutPlay []int `json:"outplay,omitempty"`

	// GameChanges carries partial patches for games already in the list.
	GameChanges []GameChanges `json:"game_changes,omitempty"`

	// Events carries catalog metadata for events first seen via InPlay.
	Events []models.Event `json:"events,omitempty"`
}

func formatGame(g Game) string {
	return fmt.Sprintf("%d.%d %s %s", g.Page, g.Order, g.Home, g.Away)
}
