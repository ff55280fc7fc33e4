// Package models defines the data structures shared by every layer of the scorebook.
// The ledger computes over them, the lifecycle and roster managers mutate them, and
// the store persists them as whole JSON documents.
//
// The data model represents a casual score-keeping table where:
//   - Players sit in a global roster, independent of any single match
//   - A Match holds a fixed list of player ids and an ordered list of Rounds
//   - A Round records a signed score delta per player id
//
// Matches reference players by id only. A match never owns a player, so ids inside
// historical rounds may point at players that have since been deleted.
package models

import "time"

// --- Enums ---

// MatchStatus tracks the lifecycle of a match.
// The only legal transition is ongoing -> completed, and it happens once.
type MatchStatus string

const (
	MatchStatusOngoing   MatchStatus = "ongoing"   // The match is in the active slot and accepts rounds
	MatchStatusCompleted MatchStatus = "completed" // The match has ended and lives in history
)

// --- Domain records ---
// JSON tags use the same camelCase keys as the persisted documents, so a document
// written by an older build of the app still loads.

// Player is one entry in the global roster.
// CurrentScore, Rank and TotalWins are cached views derived from match history;
// they are rewritten by the roster after every mutation and never edited directly.
type Player struct {
	ID           string `json:"id"`             // Immutable join key used by matches and rounds
	Name         string `json:"name"`           // Display name as typed when the match was created
	Avatar       string `json:"avatar"`         // Image reference shown next to the name
	TotalWins    int    `json:"totalWins"`      // Completed matches this player won
	CurrentScore int    `json:"currentScore"`   // Sum of every delta this player has received
	Rank         *int   `json:"rank,omitempty"` // Standing across the roster by CurrentScore; nil until first ranked
}

// MatchRound is one scoring event inside a match.
// A player missing from Scores scored 0 in this round.
type MatchRound struct {
	ID        string         `json:"id"`        // Unique id; never derived from position
	Timestamp time.Time      `json:"timestamp"` // When the round was recorded
	Scores    map[string]int `json:"scores"`    // playerId -> signed score delta
}

// Match is one session of a game among a fixed set of players.
type Match struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      MatchStatus  `json:"status"`
	Players     []string     `json:"players"` // Participant ids in seating order; may shrink when a player is deleted
	Rounds      []MatchRound `json:"rounds"`  // Insertion order; round number = index + 1
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"` // Set exactly once, at the ongoing -> completed transition
}

// HasPlayer reports whether id is in the match's participant list.
func (m *Match) HasPlayer(id string) bool {
	for _, pid := range m.Players {
		if pid == id {
			return true
		}
	}
	return false
}

// RoundIndex returns the position of the round with the given id, or -1.
func (m *Match) RoundIndex(roundID string) int {
	for i, r := range m.Rounds {
		if r.ID == roundID {
			return i
		}
	}
	return -1
}

// AppSettings is the process-wide presentation configuration.
// It carries no invariants of its own and is persisted wholesale.
type AppSettings struct {
	DarkMode         bool   `json:"darkMode"`
	AccentColor      string `json:"accentColor"` // CSS hex colour, e.g. "#205eee"
	SoundEnabled     bool   `json:"soundEnabled"`
	VibrationEnabled bool   `json:"vibrationEnabled"`
}

// DefaultSettings returns the settings used when none were saved or the saved
// document could not be parsed.
func DefaultSettings() AppSettings {
	return AppSettings{
		DarkMode:         true,
		AccentColor:      "#205eee",
		SoundEnabled:     true,
		VibrationEnabled: false,
	}
}

// --- Storage records ---

// Document is one named JSON value in the key-value store.
// GORM maps it to the "documents" table; Name is the logical document name
// (app_players, current_match, match_history, app_settings, onboarding_complete).
type Document struct {
	Name      string    `gorm:"primaryKey;size:64"` // Logical document name
	Value     string    `gorm:"type:text;not null"` // The whole JSON document, rewritten on every save
	UpdatedAt time.Time // GORM automatically updates this on every save
}
