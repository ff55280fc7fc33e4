// Package roster owns the global player collection shared by every match.
//
// Players are created in batches when a match is created and removed only by an
// explicit delete. The cached standings on each player (CurrentScore, Rank,
// TotalWins) are never adjusted incrementally; Refresh rebuilds them from match
// data through the ledger, so editing or deleting a round can never leave them stale.
package roster

import (
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/trentd187/scorebook/internal/ledger"
	"github.com/trentd187/scorebook/internal/models"
)

// avatarBase serves a stable placeholder image per seed string.
const avatarBase = "https://picsum.photos/seed/"

// Roster is the ordered player collection. It is not safe for concurrent use;
// the lifecycle manager serializes access.
type Roster struct {
	players []models.Player
}

// New wraps a previously loaded player list. The slice is copied.
func New(players []models.Player) *Roster {
	return &Roster{players: append([]models.Player(nil), players...)}
}

// Players returns a copy of the roster in registration order.
func (r *Roster) Players() []models.Player {
	return append([]models.Player(nil), r.players...)
}

// Len returns the number of players on the roster.
func (r *Roster) Len() int {
	return len(r.players)
}

// Lookup finds a player by id. Ids from historical rounds may belong to deleted
// players, so a miss is an ordinary outcome, not an error.
func (r *Roster) Lookup(id string) (models.Player, bool) {
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

// AvatarFor returns the image reference assigned to a new player with this name.
func AvatarFor(name string) string {
	seed := slug.Make(name)
	if seed == "" {
		seed = "player"
	}
	return avatarBase + seed + "/200"
}

// Register creates one fresh player per name, appends them to the roster and
// returns them in the same order. Names are stored as given.
func (r *Roster) Register(names []string) []models.Player {
	created := make([]models.Player, 0, len(names))
	for _, name := range names {
		created = append(created, models.Player{
			ID:     uuid.NewString(),
			Name:   name,
			Avatar: AvatarFor(name),
		})
	}
	r.players = append(r.players, created...)
	return created
}

// Remove drops a player from the roster. It reports false when the id is unknown.
func (r *Roster) Remove(id string) bool {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return true
		}
	}
	return false
}

// DeletePlayer removes the player from the roster and from the active match's
// participant list. Historical matches and every round's scores are left alone;
// they keep the id as a dangling reference.
// It reports whether anything changed.
func (r *Roster) DeletePlayer(id string, active *models.Match) bool {
	changed := r.Remove(id)
	if active != nil {
		for i, pid := range active.Players {
			if pid == id {
				active.Players = append(active.Players[:i:i], active.Players[i+1:]...)
				changed = true
				break
			}
		}
	}
	return changed
}

// Refresh rebuilds every player's cached standings:
//   - CurrentScore: sum of the player's deltas over history and the active match
//   - Rank: position across the whole roster by CurrentScore, using the ledger's tie rule
//   - TotalWins: matches in history the player won
func (r *Roster) Refresh(history []models.Match, current *models.Match) {
	matches := make([]*models.Match, 0, len(history)+1)
	for i := range history {
		matches = append(matches, &history[i])
	}
	if current != nil {
		matches = append(matches, current)
	}
	lifetime := ledger.LifetimeTotals(matches)
	wins := ledger.WinTally(history)

	entries := make([]ledger.Entry, 0, len(r.players))
	for i := range r.players {
		p := &r.players[i]
		p.CurrentScore = lifetime[p.ID]
		p.TotalWins = wins[p.ID]
		entries = append(entries, ledger.Entry{PlayerID: p.ID, Total: p.CurrentScore})
	}

	ranks := ledger.RankMap(ledger.Rank(entries))
	for i := range r.players {
		rank := ranks[r.players[i].ID]
		r.players[i].Rank = &rank
	}
}

// TopByWins returns the player with the most recorded wins, first on ties.
// ok is false when the roster is empty.
func (r *Roster) TopByWins() (top models.Player, ok bool) {
	for _, p := range r.players {
		if !ok || p.TotalWins > top.TotalWins {
			top, ok = p, true
		}
	}
	return top, ok
}
