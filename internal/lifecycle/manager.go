// Package lifecycle owns the single active match, the history of completed
// matches, and the roster, and applies every user-facing mutation to them.
//
// State machine:
//
//	NoActiveMatch --CreateMatch--> ActiveMatch
//	ActiveMatch   --EndMatch-----> NoActiveMatch   (match appended to history)
//	ActiveMatch   --DiscardMatch-> NoActiveMatch   (match dropped)
//
// Each mutation commits in memory first, then re-derives the roster's cached
// standings, then queues the affected documents on the Persister. Operations on a
// missing target (no active match, unknown round or player) change nothing and
// report false; only CreateMatch returns errors.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/scorebook/internal/models"
	"github.com/trentd187/scorebook/internal/roster"
	"github.com/trentd187/scorebook/internal/store"
)

// MinPlayers is the fewest non-blank player names a match can start with.
const MinPlayers = 2

// DefaultMatchName is used when a match is created with a blank name.
const DefaultMatchName = "New match"

// ErrMatchInProgress is returned by CreateMatch while another match is active.
// The caller must end or discard the active match first.
var ErrMatchInProgress = errors.New("a match is already in progress")

// ValidationError reports user input that fails a precondition.
// The boundary layer shows Message to the user and does nothing else.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Persister receives document snapshots after each committed mutation.
// store.Writer is the production implementation.
type Persister interface {
	Save(key string, v any)
	Remove(key string)
}

// Manager is the owned home of all match state. It is safe for concurrent use;
// every method holds the same lock, so mutations apply one at a time.
type Manager struct {
	mu      sync.Mutex
	roster  *roster.Roster
	current *models.Match
	history []models.Match

	persist  Persister
	now      func() time.Time
	onChange []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, for deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithChangeHook registers fn to run after every committed mutation, outside the
// manager's lock. The live hub uses it to push fresh state to the presentation layer.
func WithChangeHook(fn func()) Option {
	return func(m *Manager) { m.onChange = append(m.onChange, fn) }
}

// New builds a manager over already-loaded state. current may be nil.
func New(r *roster.Roster, current *models.Match, history []models.Match, p Persister, opts ...Option) *Manager {
	m := &Manager{
		roster:  r,
		current: current,
		history: history,
		persist: p,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.roster.Refresh(m.history, m.current)
	return m
}

// Load reads the players, current match and history documents from s and builds
// a manager over them. Missing or unparsable documents load as empty.
func Load(ctx context.Context, s store.Store, p Persister, opts ...Option) *Manager {
	players := store.LoadOr[[]models.Player](ctx, s, store.KeyPlayers, nil)
	current := store.LoadOr[*models.Match](ctx, s, store.KeyCurrentMatch, nil)
	history := store.LoadOr[[]models.Match](ctx, s, store.KeyMatchHistory, nil)

	if current != nil && current.Status != models.MatchStatusOngoing {
		log.Printf("[lifecycle] Ignoring stored current match %s with status %q", current.ID, current.Status)
		current = nil
	}
	log.Printf("[lifecycle] Loaded %d player(s), %d completed match(es), active match: %v",
		len(players), len(history), current != nil)

	return New(roster.New(players), current, history, p, opts...)
}

// --- Match lifecycle ---

// CreateMatch starts a new ongoing match. Player names are trimmed and blank ones
// dropped; fewer than MinPlayers remaining is a *ValidationError and nothing changes.
// One fresh player is registered on the roster per remaining name.
func (m *Manager) CreateMatch(name string, playerNames []string) (models.Match, error) {
	names := make([]string, 0, len(playerNames))
	for _, n := range playerNames {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) < MinPlayers {
		return models.Match{}, &ValidationError{
			Field:   "player_names",
			Message: fmt.Sprintf("at least %d players are required", MinPlayers),
		}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultMatchName
	}

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return models.Match{}, ErrMatchInProgress
	}

	created := m.roster.Register(names)
	ids := make([]string, 0, len(created))
	for _, p := range created {
		ids = append(ids, p.ID)
	}
	m.current = &models.Match{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    models.MatchStatusOngoing,
		Players:   ids,
		Rounds:    []models.MatchRound{},
		CreatedAt: m.now(),
	}
	out := cloneMatch(m.current)
	m.commit(store.KeyPlayers, store.KeyCurrentMatch)
	m.mu.Unlock()

	log.Printf("[lifecycle] Created match %q with %d players", out.Name, len(out.Players))
	m.changed()
	return out, nil
}

// AddRound appends a round with the given deltas to the active match.
// It reports false when no match is active.
func (m *Manager) AddRound(scores map[string]int) (models.MatchRound, bool) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		log.Printf("[lifecycle] AddRound ignored: no active match")
		return models.MatchRound{}, false
	}

	r := models.MatchRound{
		ID:        uuid.NewString(),
		Timestamp: m.now(),
		Scores:    cloneScores(scores),
	}
	m.current.Rounds = append(m.current.Rounds, r)
	m.commit(store.KeyPlayers, store.KeyCurrentMatch)
	m.mu.Unlock()

	m.changed()
	return cloneRound(r), true
}

// EditRound replaces the scores of one round of the active match, keeping its id
// and timestamp. It reports false when there is no active match or no such round.
func (m *Manager) EditRound(roundID string, scores map[string]int) bool {
	m.mu.Lock()
	i := m.roundIndex(roundID)
	if i < 0 {
		m.mu.Unlock()
		log.Printf("[lifecycle] EditRound ignored: round %s not found", roundID)
		return false
	}

	m.current.Rounds[i].Scores = cloneScores(scores)
	m.commit(store.KeyPlayers, store.KeyCurrentMatch)
	m.mu.Unlock()

	m.changed()
	return true
}

// DeleteRound removes one round from the active match. It reports false when
// there is no active match or no such round.
func (m *Manager) DeleteRound(roundID string) bool {
	m.mu.Lock()
	i := m.roundIndex(roundID)
	if i < 0 {
		m.mu.Unlock()
		log.Printf("[lifecycle] DeleteRound ignored: round %s not found", roundID)
		return false
	}

	m.current.Rounds = slices.Delete(slices.Clone(m.current.Rounds), i, i+1)
	m.commit(store.KeyPlayers, store.KeyCurrentMatch)
	m.mu.Unlock()

	m.changed()
	return true
}

// EndMatch completes the active match, stamps CompletedAt, appends it to history
// and clears the active slot. It reports false when no match is active.
func (m *Manager) EndMatch() (models.Match, bool) {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		log.Printf("[lifecycle] EndMatch ignored: no active match")
		return models.Match{}, false
	}

	done := m.current
	completedAt := m.now()
	done.Status = models.MatchStatusCompleted
	done.CompletedAt = &completedAt
	m.history = append(m.history, *done)
	m.current = nil

	out := cloneMatch(done)
	m.commit(store.KeyPlayers, store.KeyCurrentMatch, store.KeyMatchHistory)
	m.mu.Unlock()

	log.Printf("[lifecycle] Ended match %q after %d round(s)", out.Name, len(out.Rounds))
	m.changed()
	return out, true
}

// DiscardMatch drops the active match without archiving it. The players it
// registered stay on the roster. It reports false when no match is active.
func (m *Manager) DiscardMatch() bool {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return false
	}

	log.Printf("[lifecycle] Discarding match %q with %d round(s)", m.current.Name, len(m.current.Rounds))
	m.current = nil
	m.commit(store.KeyPlayers, store.KeyCurrentMatch)
	m.mu.Unlock()

	m.changed()
	return true
}

// DeleteHistoryMatch removes one completed match from history.
// It reports false when no completed match has that id.
func (m *Manager) DeleteHistoryMatch(id string) bool {
	m.mu.Lock()
	i := slices.IndexFunc(m.history, func(h models.Match) bool { return h.ID == id })
	if i < 0 {
		m.mu.Unlock()
		return false
	}

	m.history = slices.Delete(slices.Clone(m.history), i, i+1)
	m.commit(store.KeyPlayers, store.KeyMatchHistory)
	m.mu.Unlock()

	m.changed()
	return true
}

// --- Roster ---

// DeletePlayer removes a player from the roster and from the active match's
// participant list. Completed matches and round scores keep the id.
// It reports false when the id is neither on the roster nor in the active match.
func (m *Manager) DeletePlayer(id string) bool {
	m.mu.Lock()
	inMatch := m.current != nil && m.current.HasPlayer(id)
	if !m.roster.DeletePlayer(id, m.current) {
		m.mu.Unlock()
		return false
	}

	keys := []string{store.KeyPlayers}
	if inMatch {
		keys = append(keys, store.KeyCurrentMatch)
	}
	m.commit(keys...)
	m.mu.Unlock()

	m.changed()
	return true
}

// --- Reads ---

// CurrentMatch returns a copy of the active match. ok is false when none is active.
func (m *Manager) CurrentMatch() (match models.Match, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return models.Match{}, false
	}
	return cloneMatch(m.current), true
}

// History returns a copy of the completed matches, oldest first.
func (m *Manager) History() []models.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Match, 0, len(m.history))
	for i := range m.history {
		out = append(out, cloneMatch(&m.history[i]))
	}
	return out
}

// HistoryMatch returns a copy of one completed match.
func (m *Manager) HistoryMatch(id string) (models.Match, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.history {
		if m.history[i].ID == id {
			return cloneMatch(&m.history[i]), true
		}
	}
	return models.Match{}, false
}

// Players returns a copy of the roster.
func (m *Manager) Players() []models.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roster.Players()
}

// --- internals ---

// roundIndex finds a round of the active match. Callers hold mu.
func (m *Manager) roundIndex(roundID string) int {
	if m.current == nil {
		return -1
	}
	return m.current.RoundIndex(roundID)
}

// commit re-derives the roster's cached standings and queues the named documents.
// Callers hold mu.
func (m *Manager) commit(keys ...string) {
	m.roster.Refresh(m.history, m.current)
	for _, key := range keys {
		switch key {
		case store.KeyPlayers:
			m.persist.Save(key, m.roster.Players())
		case store.KeyCurrentMatch:
			if m.current == nil {
				m.persist.Remove(key)
			} else {
				m.persist.Save(key, m.current)
			}
		case store.KeyMatchHistory:
			m.persist.Save(key, m.history)
		}
	}
}

// changed runs the change hooks. Callers must not hold mu.
func (m *Manager) changed() {
	for _, fn := range m.onChange {
		fn()
	}
}

func cloneScores(scores map[string]int) map[string]int {
	if scores == nil {
		return map[string]int{}
	}
	return maps.Clone(scores)
}

func cloneRound(r models.MatchRound) models.MatchRound {
	r.Scores = cloneScores(r.Scores)
	return r
}

func cloneMatch(src *models.Match) models.Match {
	out := *src
	out.Players = slices.Clone(src.Players)
	out.Rounds = make([]models.MatchRound, 0, len(src.Rounds))
	for _, r := range src.Rounds {
		out.Rounds = append(out.Rounds, cloneRound(r))
	}
	if src.CompletedAt != nil {
		t := *src.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
