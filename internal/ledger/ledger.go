// Package ledger folds round score deltas into running totals, standings and
// history-wide statistics.
//
// Every function here is pure: it reads the slices it is given, never mutates them,
// and returns fresh values. Empty input yields empty or zero output, never an error.
package ledger

import (
	"cmp"
	"slices"

	"github.com/trentd187/scorebook/internal/models"
)

// Entry is one player's line in a standings table.
type Entry struct {
	PlayerID string `json:"player_id"`
	Total    int    `json:"total"`
	Rank     int    `json:"rank"`
}

// Total returns the running total for one player: the sum of that player's delta
// in every round, in round order. A round without the player counts as 0.
func Total(playerID string, rounds []models.MatchRound) int {
	total := 0
	for _, r := range rounds {
		total += r.Scores[playerID]
	}
	return total
}

// Totals returns one entry per player id, in the order given, with Rank left at 0.
func Totals(playerIDs []string, rounds []models.MatchRound) []Entry {
	entries := make([]Entry, 0, len(playerIDs))
	for _, id := range playerIDs {
		entries = append(entries, Entry{PlayerID: id, Total: Total(id, rounds)})
	}
	return entries
}

// Rank returns a copy of entries sorted by Total descending with ranks assigned.
//
// Equal totals share a rank. The next lower total gets its 1-based position in the
// sorted list, so totals [100 100 80] rank [1 1 3] and [100 90 90 80] rank [1 2 2 4].
// The sort is stable: tied players keep their input order.
func Rank(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(b.Total, a.Total)
	})

	rank := 1
	for i := range sorted {
		if i > 0 && sorted[i].Total < sorted[i-1].Total {
			rank = i + 1
		}
		sorted[i].Rank = rank
	}
	return sorted
}

// Standings computes totals for the given players over the rounds and ranks them.
// The result is in standings order (best first).
func Standings(playerIDs []string, rounds []models.MatchRound) []Entry {
	return Rank(Totals(playerIDs, rounds))
}

// RankMap indexes ranked entries by player id.
func RankMap(ranked []Entry) map[string]int {
	m := make(map[string]int, len(ranked))
	for _, e := range ranked {
		m[e.PlayerID] = e.Rank
	}
	return m
}

// Winner returns the top entry of the standings. On a tie for first place the
// player listed earliest in playerIDs wins. ok is false when there are no players.
func Winner(playerIDs []string, rounds []models.MatchRound) (winner Entry, ok bool) {
	standings := Standings(playerIDs, rounds)
	if len(standings) == 0 {
		return Entry{}, false
	}
	return standings[0], true
}

// MatchWinner is Winner over a match's own participants and rounds.
func MatchWinner(m *models.Match) (Entry, bool) {
	return Winner(m.Players, m.Rounds)
}

// WinTally counts match wins per player over history. Each match awards one win to
// its single top entry (see Winner). Matches with no participants award nothing.
// The tally is rebuilt from scratch on every call.
func WinTally(history []models.Match) map[string]int {
	tally := make(map[string]int)
	for i := range history {
		if w, ok := MatchWinner(&history[i]); ok {
			tally[w.PlayerID]++
		}
	}
	return tally
}

// TopWinner returns the player with the most match wins across history.
// Ties go to the player who reached the tally first in history order.
// ok is false when history awards no wins at all.
func TopWinner(history []models.Match) (playerID string, wins int, ok bool) {
	tally := make(map[string]int)
	var order []string
	for i := range history {
		w, found := MatchWinner(&history[i])
		if !found {
			continue
		}
		if _, seen := tally[w.PlayerID]; !seen {
			order = append(order, w.PlayerID)
		}
		tally[w.PlayerID]++
	}

	for _, id := range order {
		if tally[id] > wins {
			playerID, wins, ok = id, tally[id], true
		}
	}
	return playerID, wins, ok
}

// TotalRounds counts rounds across history plus the active match, if any.
func TotalRounds(history []models.Match, current *models.Match) int {
	n := 0
	for i := range history {
		n += len(history[i].Rounds)
	}
	if current != nil {
		n += len(current.Rounds)
	}
	return n
}

// LifetimeTotals sums each player's deltas across every round of every match given.
// Stray ids in round scores are counted like any other id; callers filter by roster.
func LifetimeTotals(matches []*models.Match) map[string]int {
	totals := make(map[string]int)
	for _, m := range matches {
		for _, r := range m.Rounds {
			for id, delta := range r.Scores {
				totals[id] += delta
			}
		}
	}
	return totals
}
