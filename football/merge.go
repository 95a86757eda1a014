package football

import (
	"sort"

	"gobet-client/logger"
)

type batchIndex struct {
	outplays map[int]bool
	inplays  map[int]Game
	// inplayOrder preserves the batch order of newly live games.
	inplayOrder []int
	changes     map[int]*GameChanges
}

func indexBatch(batch ChangesBatch) batchIndex {
	idx := batchIndex{
		outplays: make(map[int]bool),
		inplays:  make(map[int]Game),
		changes:  make(map[int]*GameChanges),
	}
	for _, id := range batch.OutPlay {
		idx.outplays[id] = true
	}
	for _, game := range batch.InPlay {
		if _, seen := idx.inplays[game.EventID]; !seen {
			idx.inplayOrder = append(idx.inplayOrder, game.EventID)
		}
		idx.inplays[game.EventID] = game
	}
	for i := range batch.GameChanges {
		c := batch.GameChanges[i]
		idx.changes[c.EventID] = &c
	}
	return idx
}

func applyOddPatch(current *float64, patch OddPatch) *float64 {
	if !patch.Present {
		return current
	}
	return patch.Value
}

// applyChanges patches a single game with its change-set. Scalar fields are
// replaced only when the change-set carries a non-zero value; odds fields
// follow tri-state semantics.
func applyChanges(game Game, c *GameChanges) Game {
	if c == nil {
		return game
	}
	if c.Page != 0 {
		game.Page = c.Page
	}
	if c.Order != 0 {
		game.Order = c.Order
	}
	if c.Result != "" {
		game.Result = c.Result
	}
	if c.Time != "" {
		game.Time = c.Time
	}
	game.Win1 = applyOddPatch(game.Win1, c.Win1)
	game.Win2 = applyOddPatch(game.Win2, c.Win2)
	game.Draw1 = applyOddPatch(game.Draw1, c.Draw1)
	game.Draw2 = applyOddPatch(game.Draw2, c.Draw2)
	game.Lose1 = applyOddPatch(game.Lose1, c.Lose1)
	game.Lose2 = applyOddPatch(game.Lose2, c.Lose2)
	game.Changes = c
	return game
}

// MergeChanges reconciles a change batch against the current live list and
// returns the next list, sorted ascending by (page, order) and stamped with
// the change-sets of this batch only. The input slice is not modified.
//
// A duplicate event id in the result is treated as an upstream data bug: it
// is logged and both rows are kept rather than dropping live data.
func MergeChanges(games []Game, batch ChangesBatch) []Game {
	idx := indexBatch(batch)

	next := make([]Game, 0, len(games)+len(idx.inplayOrder))
	for _, game := range games {
		if idx.outplays[game.EventID] {
			continue
		}
		// A wholesale in-play replacement supersedes the current row.
		if _, replaced := idx.inplays[game.EventID]; replaced {
			continue
		}
		next = append(next, applyChanges(game, idx.changes[game.EventID]))
	}
	for _, id := range idx.inplayOrder {
		next = append(next, idx.inplays[id])
	}

	// Highlighting reflects only the most recent batch.
	for i := range next {
		next[i].Changes = idx.changes[next[i].EventID]
	}

	sort.SliceStable(next, func(i, j int) bool {
		if next[i].Page != next[j].Page {
			return next[i].Page < next[j].Page
		}
		return next[i].Order < next[j].Order
	})

	if !uniqueEventIDs(next) {
		logger.Errorf("[Football] bad changes batch: inplay=%d outplay=%d game_changes=%d",
			len(batch.InPlay), len(batch.OutPlay), len(batch.GameChanges))
	}

	return next
}

func uniqueEventIDs(games []Game) bool {
	seen := make(map[int]Game, len(games))
	ok := true
	for _, game := range games {
		if prev, dup := seen[game.EventID]; dup {
			logger.Errorf("[Football] duplicate event id %d: %s and %s",
				game.EventID, formatGame(game), formatGame(prev))
			ok = false
			continue
		}
		seen[game.EventID] = game
	}
	return ok
}
