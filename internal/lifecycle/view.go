package lifecycle

import (
	"time"

	"github.com/trentd187/scorebook/internal/ledger"
	"github.com/trentd187/scorebook/internal/models"
)

// UnknownPlayerName is shown for ids that are no longer on the roster.
const UnknownPlayerName = "Unknown player"

// PlayerLine is one participant's standing within a single match.
type PlayerLine struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Known    bool   `json:"known"` // false when the player was deleted from the roster
	Total    int    `json:"total"`
	Rank     int    `json:"rank"`
}

// RoundLine is one round as displayed, numbered by its current position.
type RoundLine struct {
	ID        string         `json:"id"`
	Number    int            `json:"number"`
	Timestamp time.Time      `json:"timestamp"`
	Scores    map[string]int `json:"scores"`
}

// Scoreboard is everything the presentation layer needs to draw one match.
type Scoreboard struct {
	MatchID     string             `json:"match_id"`
	Name        string             `json:"name"`
	Status      models.MatchStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Players     []PlayerLine       `json:"players"`   // Participant order
	Standings   []PlayerLine       `json:"standings"` // Best first
	Winner      *PlayerLine        `json:"winner,omitempty"`
	Rounds      []RoundLine        `json:"rounds"`
}

// Stats backs the dashboard.
type Stats struct {
	TotalRounds    int            `json:"total_rounds"`
	CompletedCount int            `json:"completed_matches"`
	TopWinner      *PlayerLine    `json:"top_winner,omitempty"` // Most match wins across history
	TopWinnerWins  int            `json:"top_winner_wins"`
	TopPlayer      *models.Player `json:"top_player,omitempty"` // Roster player with most recorded wins
	WinsByPlayer   map[string]int `json:"wins_by_player"`
	HasActiveMatch bool           `json:"has_active_match"`
	ActiveRounds   int            `json:"active_rounds"`
}

// Snapshot is the whole application state in one value, sent to the
// presentation layer after each change.
type Snapshot struct {
	Players      []models.Player `json:"players"`
	CurrentMatch *Scoreboard     `json:"current_match"`
	History      []Scoreboard    `json:"history"`
	Stats        Stats           `json:"stats"`
}

// BuildScoreboard computes totals, ranks and the winner of a match for display.
// Participants missing from the roster are kept with Known=false; ids found only
// in round scores are ignored.
func BuildScoreboard(m *models.Match, find func(id string) (models.Player, bool)) Scoreboard {
	line := func(e ledger.Entry) PlayerLine {
		pl := PlayerLine{PlayerID: e.PlayerID, Name: UnknownPlayerName, Total: e.Total, Rank: e.Rank}
		if p, ok := find(e.PlayerID); ok {
			pl.Name, pl.Avatar, pl.Known = p.Name, p.Avatar, true
		}
		return pl
	}

	standings := ledger.Standings(m.Players, m.Rounds)
	ranks := ledger.RankMap(standings)

	sb := Scoreboard{
		MatchID:     m.ID,
		Name:        m.Name,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
		Players:     make([]PlayerLine, 0, len(m.Players)),
		Standings:   make([]PlayerLine, 0, len(standings)),
		Rounds:      make([]RoundLine, 0, len(m.Rounds)),
	}
	for _, e := range ledger.Totals(m.Players, m.Rounds) {
		e.Rank = ranks[e.PlayerID]
		sb.Players = append(sb.Players, line(e))
	}
	for _, e := range standings {
		sb.Standings = append(sb.Standings, line(e))
	}
	if len(sb.Standings) > 0 {
		w := sb.Standings[0]
		sb.Winner = &w
	}
	for i, r := range m.Rounds {
		sb.Rounds = append(sb.Rounds, RoundLine{
			ID:        r.ID,
			Number:    i + 1,
			Timestamp: r.Timestamp,
			Scores:    cloneScores(r.Scores),
		})
	}
	return sb
}

// Scoreboard returns the active match's scoreboard. ok is false when none is active.
func (m *Manager) Scoreboard() (Scoreboard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Scoreboard{}, false
	}
	return BuildScoreboard(m.current, m.roster.Lookup), true
}

// HistoryScoreboard returns the scoreboard of one completed match.
func (m *Manager) HistoryScoreboard(id string) (Scoreboard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].ID == id {
			return BuildScoreboard(&m.history[i], m.roster.Lookup), true
		}
	}
	return Scoreboard{}, false
}

// Stats computes the dashboard statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats()
}

func (m *Manager) stats() Stats {
	st := Stats{
		TotalRounds:    ledger.TotalRounds(m.history, m.current),
		CompletedCount: len(m.history),
		WinsByPlayer:   ledger.WinTally(m.history),
		HasActiveMatch: m.current != nil,
	}
	if m.current != nil {
		st.ActiveRounds = len(m.current.Rounds)
	}
	if id, wins, ok := ledger.TopWinner(m.history); ok {
		pl := PlayerLine{PlayerID: id, Name: UnknownPlayerName}
		if p, found := m.roster.Lookup(id); found {
			pl.Name, pl.Avatar, pl.Known = p.Name, p.Avatar, true
		}
		st.TopWinner = &pl
		st.TopWinnerWins = wins
	}
	if p, ok := m.roster.TopByWins(); ok {
		st.TopPlayer = &p
	}
	return st
}

// Snapshot captures the whole state under one lock, so the pieces agree.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Players: m.roster.Players(),
		History: make([]Scoreboard, 0, len(m.history)),
		Stats:   m.stats(),
	}
	if m.current != nil {
		sb := BuildScoreboard(m.current, m.roster.Lookup)
		snap.CurrentMatch = &sb
	}
	// Newest first, as the history screen lists them.
	for i := len(m.history) - 1; i >= 0; i-- {
		snap.History = append(snap.History, BuildScoreboard(&m.history[i], m.roster.Lookup))
	}
	return snap
}
