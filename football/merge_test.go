package football

import (
	"encoding/json"
	"testing"
)

func fl(v float64) *float64 {
	return &v
}

func newGame(eventID, page, order int) Game {
	return Game{
		EventID:  eventID,
		MarketID: eventID * 10,
		Home:     "Home",
		Away:     "Away",
		Live: Live{
			Page:  page,
			Order: order,
		},
	}
}

func TestMergeAppliesGameChanges(t *testing.T) {
	games := []Game{newGame(1, 1, 1)}

	batch := ChangesBatch{
		GameChanges: []GameChanges{
			{EventID: 1, Result: "2:1"},
		},
	}

	next := MergeChanges(games, batch)

	if len(next) != 1 {
		t.Fatalf("Expected 1 game, got %d", len(next))
	}
	if next[0].Result != "2:1" {
		t.Errorf("Expected result '2:1', got '%s'", next[0].Result)
	}
	if next[0].Page != 1 || next[0].Order != 1 {
		t.Errorf("Expected page/order unchanged, got %d/%d", next[0].Page, next[0].Order)
	}
	if next[0].Changes == nil || next[0].Changes.Result != "2:1" {
		t.Errorf("Expected changes to be stamped on the game, got %+v", next[0].Changes)
	}
}

func TestMergeOddsTriState(t *testing.T) {
	base := newGame(1, 1, 1)
	base.Win1 = fl(1.5)

	// Explicit null clears the quote.
	next := MergeChanges([]Game{base}, ChangesBatch{
		GameChanges: []GameChanges{
			{EventID: 1, Win1: OddPatch{Present: true}},
		},
	})
	if next[0].Win1 != nil {
		t.Errorf("Expected win1 cleared, got %v", *next[0].Win1)
	}

	// Absent field leaves the quote unchanged.
	next = MergeChanges([]Game{base}, ChangesBatch{
		GameChanges: []GameChanges{
			{EventID: 1, Result: "1:0"},
		},
	})
	if next[0].Win1 == nil || *next[0].Win1 != 1.5 {
		t.Errorf("Expected win1 to stay 1.5, got %v", next[0].Win1)
	}

	// A value replaces the quote.
	next = MergeChanges([]Game{base}, ChangesBatch{
		GameChanges: []GameChanges{
			{EventID: 1, Win1: OddPatch{Present: true, Value: fl(2.0)}},
		},
	})
	if next[0].Win1 == nil || *next[0].Win1 != 2.0 {
		t.Errorf("Expected win1 to become 2.0, got %v", next[0].Win1)
	}
}

func TestMergeInPlayThenOutPlay(t *testing.T) {
	var games []Game

	games = MergeChanges(games, ChangesBatch{
		InPlay: []Game{newGame(5, 2, 1)},
	})
	if len(games) != 1 || games[0].EventID != 5 {
		t.Fatalf("Expected game 5 in play, got %+v", games)
	}

	games = MergeChanges(games, ChangesBatch{
		OutPlay: []int{5},
	})
	if len(games) != 0 {
		t.Errorf("Expected game 5 removed, got %+v", games)
	}
}

func TestMergeOutPlayUnknownIDIsNoop(t *testing.T) {
	games := []Game{newGame(1, 1, 1)}

	next := MergeChanges(games, ChangesBatch{OutPlay: []int{99}})

	if len(next) != 1 || next[0].EventID != 1 {
		t.Errorf("Expected list unchanged, got %+v", next)
	}
}

func TestMergeInPlayReplacesExistingGame(t *testing.T) {
	old := newGame(3, 1, 1)
	old.Result = "0:0"

	replacement := newGame(3, 1, 2)
	replacement.Result = "1:0"

	next := MergeChanges([]Game{old}, ChangesBatch{
		InPlay: []Game{replacement},
	})

	if len(next) != 1 {
		t.Fatalf("Expected 1 game, got %d", len(next))
	}
	if next[0].Result != "1:0" || next[0].Order != 2 {
		t.Errorf("Expected wholesale replacement, got %+v", next[0])
	}
}

func TestMergeSortsByPageThenOrder(t *testing.T) {
	next := MergeChanges(nil, ChangesBatch{
		InPlay: []Game{
			newGame(1, 2, 1),
			newGame(2, 1, 2),
			newGame(3, 1, 1),
			newGame(4, 2, 0),
		},
	})

	want := []int{3, 2, 4, 1}
	for i, id := range want {
		if next[i].EventID != id {
			t.Fatalf("Expected order %v, got %+v", want, next)
		}
	}
	for i := 1; i < len(next); i++ {
		a, b := next[i-1], next[i]
		if a.Page > b.Page || (a.Page == b.Page && a.Order > b.Order) {
			t.Errorf("List not ordered by (page, order) at %d: %+v", i, next)
		}
	}
}

func TestMergeClearsStaleChanges(t *testing.T) {
	games := MergeChanges([]Game{newGame(1, 1, 1), newGame(2, 1, 2)}, ChangesBatch{
		GameChanges: []GameChanges{{EventID: 1, Result: "1:0"}},
	})
	if games[0].Changes == nil {
		t.Fatal("Expected changes stamped after first batch")
	}

	games = MergeChanges(games, ChangesBatch{
		GameChanges: []GameChanges{{EventID: 2, Result: "0:1"}},
	})
	if games[0].Changes != nil {
		t.Errorf("Expected changes cleared for game 1, got %+v", games[0].Changes)
	}
	if games[1].Changes == nil || games[1].Changes.Result != "0:1" {
		t.Errorf("Expected fresh changes on game 2, got %+v", games[1].Changes)
	}
}

func TestMergeUniqueEventIDs(t *testing.T) {
	var games []Game
	batches := []ChangesBatch{
		{InPlay: []Game{newGame(1, 1, 1), newGame(2, 1, 2)}},
		{InPlay: []Game{newGame(1, 1, 3)}, OutPlay: []int{2}},
		{InPlay: []Game{newGame(2, 2, 1)}, GameChanges: []GameChanges{{EventID: 1, Result: "1:1"}}},
	}
	for _, batch := range batches {
		games = MergeChanges(games, batch)
		seen := make(map[int]bool)
		for _, g := range games {
			if seen[g.EventID] {
				t.Fatalf("Duplicate event id %d after batch %+v", g.EventID, batch)
			}
			seen[g.EventID] = true
		}
	}
}

func TestMergeKeepsDuplicatesFromBadInput(t *testing.T) {
	// Duplicates already present in the input are an upstream bug; the
	// merge must keep both rows rather than dropping live data.
	games := []Game{newGame(7, 1, 1), newGame(7, 1, 2)}

	next := MergeChanges(games, ChangesBatch{})

	if len(next) != 2 {
		t.Errorf("Expected both duplicate rows kept, got %d", len(next))
	}
}

func TestGameChangesUnmarshalTriState(t *testing.T) {
	raw := `{"event_id":1,"win1":null,"win2":2.5,"result":"1:0"}`

	var c GameChanges
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !c.Win1.Present || c.Win1.Value != nil {
		t.Errorf("Expected win1 present and null, got %+v", c.Win1)
	}
	if !c.Win2.Present || c.Win2.Value == nil || *c.Win2.Value != 2.5 {
		t.Errorf("Expected win2 = 2.5, got %+v", c.Win2)
	}
	if c.Draw1.Present {
		t.Errorf("Expected draw1 absent, got %+v", c.Draw1)
	}
	if c.Result != "1:0" {
		t.Errorf("Expected result '1:0', got '%s'", c.Result)
	}
}

func TestGameChangesMarshalOmitsAbsentOdds(t *testing.T) {
	c := GameChanges{
		EventID: 1,
		Win1:    OddPatch{Present: true},
		Win2:    OddPatch{Present: true, Value: fl(3.0)},
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var round map[string]json.RawMessage
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if string(round["win1"]) != "null" {
		t.Errorf("Expected win1 marshalled as null, got %s", round["win1"])
	}
	if string(round["win2"]) != "3" {
		t.Errorf("Expected win2 marshalled as 3, got %s", round["win2"])
	}
	if _, ok := round["draw1"]; ok {
		t.Errorf("Expected absent draw1 omitted, got %s", round["draw1"])
	}
}
