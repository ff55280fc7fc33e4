package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/trentd187/scorebook/internal/models"
	"github.com/trentd187/scorebook/internal/roster"
	"github.com/trentd187/scorebook/internal/store"
)

// recorder is a Persister that keeps the last JSON saved per key.
type recorder struct {
	docs    map[string]string
	removed map[string]bool
}

func newRecorder() *recorder {
	return &recorder{docs: map[string]string{}, removed: map[string]bool{}}
}

func (r *recorder) Save(key string, v any) {
	data, _ := json.Marshal(v)
	r.docs[key] = string(data)
	delete(r.removed, key)
}

func (r *recorder) Remove(key string) {
	delete(r.docs, key)
	r.removed[key] = true
}

// tickingClock returns a clock that advances one minute per call.
func tickingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newManager(t *testing.T) (*Manager, *recorder) {
	t.Helper()
	rec := newRecorder()
	return New(roster.New(nil), nil, nil, rec, WithClock(tickingClock())), rec
}

func mustCreate(t *testing.T, m *Manager, name string, players ...string) models.Match {
	t.Helper()
	match, err := m.CreateMatch(name, players)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	return match
}

func playerByID(m *Manager, id string) models.Player {
	for _, p := range m.Players() {
		if p.ID == id {
			return p
		}
	}
	return models.Player{}
}

func TestCreateMatchValidation(t *testing.T) {
	tests := []struct {
		name  string
		names []string
	}{
		{"only one non-blank", []string{"", "  ", "Alice"}},
		{"none", nil},
		{"all blank", []string{"\t", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := newManager(t)

			_, err := m.CreateMatch("Poker", tt.names)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if _, ok := m.CurrentMatch(); ok {
				t.Errorf("a match was created")
			}
			if n := len(m.Players()); n != 0 {
				t.Errorf("%d players registered", n)
			}
			if len(rec.docs) != 0 || len(rec.removed) != 0 {
				t.Errorf("documents written on failed create: %v", rec.docs)
			}
		})
	}
}

func TestCreateMatch(t *testing.T) {
	m, rec := newManager(t)

	match := mustCreate(t, m, "  ", " Alice ", "", "Bob")
	if match.Name != DefaultMatchName {
		t.Errorf("name = %q, want default", match.Name)
	}
	if match.Status != models.MatchStatusOngoing || len(match.Rounds) != 0 || match.CompletedAt != nil {
		t.Errorf("new match = %+v", match)
	}
	if len(match.Players) != 2 {
		t.Fatalf("players = %v", match.Players)
	}
	if p := playerByID(m, match.Players[0]); p.Name != "Alice" {
		t.Errorf("first player name = %q, want trimmed Alice", p.Name)
	}
	if _, ok := rec.docs[store.KeyCurrentMatch]; !ok {
		t.Errorf("current match not persisted")
	}
	if _, ok := rec.docs[store.KeyPlayers]; !ok {
		t.Errorf("players not persisted")
	}
}

func TestCreateMatchWhileActive(t *testing.T) {
	m, _ := newManager(t)
	first := mustCreate(t, m, "First", "A", "B")

	if _, err := m.CreateMatch("Second", []string{"C", "D"}); !errors.Is(err, ErrMatchInProgress) {
		t.Fatalf("err = %v, want ErrMatchInProgress", err)
	}
	cur, _ := m.CurrentMatch()
	if cur.ID != first.ID {
		t.Errorf("active match replaced")
	}
	if n := len(m.Players()); n != 2 {
		t.Errorf("roster has %d players, want 2", n)
	}

	if !m.DiscardMatch() {
		t.Fatalf("DiscardMatch reported no active match")
	}
	mustCreate(t, m, "Second", "C", "D")
	if len(m.History()) != 0 {
		t.Errorf("discarded match reached history")
	}
}

func TestPokerScenario(t *testing.T) {
	m, rec := newManager(t)
	match := mustCreate(t, m, "Poker", "Alice", "Bob")
	alice, bob := match.Players[0], match.Players[1]

	if _, ok := m.AddRound(map[string]int{alice: 50, bob: -50}); !ok {
		t.Fatalf("AddRound reported no active match")
	}
	done, ok := m.EndMatch()
	if !ok {
		t.Fatalf("EndMatch reported no active match")
	}

	history := m.History()
	if len(history) != 1 {
		t.Fatalf("history has %d matches, want 1", len(history))
	}
	h := history[0]
	if h.Name != "Poker" || h.Status != models.MatchStatusCompleted || len(h.Rounds) != 1 {
		t.Errorf("history[0] = %+v", h)
	}
	if h.CompletedAt == nil || h.CompletedAt.Before(h.CreatedAt) {
		t.Errorf("completedAt = %v, createdAt = %v", h.CompletedAt, h.CreatedAt)
	}
	if done.ID != h.ID {
		t.Errorf("EndMatch returned %s, history holds %s", done.ID, h.ID)
	}
	if _, active := m.CurrentMatch(); active {
		t.Errorf("active slot not cleared")
	}
	if !rec.removed[store.KeyCurrentMatch] {
		t.Errorf("current match document not removed")
	}

	a, b := playerByID(m, alice), playerByID(m, bob)
	if a.CurrentScore != 50 || b.CurrentScore != -50 {
		t.Errorf("scores = %d / %d, want 50 / -50", a.CurrentScore, b.CurrentScore)
	}
	if a.Rank == nil || *a.Rank != 1 || b.Rank == nil || *b.Rank != 2 {
		t.Errorf("ranks = %v / %v, want 1 / 2", a.Rank, b.Rank)
	}
	if a.TotalWins != 1 || b.TotalWins != 0 {
		t.Errorf("wins = %d / %d, want 1 / 0", a.TotalWins, b.TotalWins)
	}
}

func TestRoundIDsAreUnique(t *testing.T) {
	m, _ := newManager(t)
	mustCreate(t, m, "Cards", "A", "B")

	r1, _ := m.AddRound(nil)
	r2, _ := m.AddRound(nil)
	m.DeleteRound(r1.ID)
	r3, _ := m.AddRound(nil)

	if r3.ID == r2.ID || r3.ID == r1.ID {
		t.Errorf("round id reused after delete: %s", r3.ID)
	}
	sb, _ := m.Scoreboard()
	if sb.Rounds[0].ID != r2.ID || sb.Rounds[0].Number != 1 || sb.Rounds[1].Number != 2 {
		t.Errorf("round numbers not positional: %+v", sb.Rounds)
	}
}

func TestEditAndDeleteRoundRefreshStandings(t *testing.T) {
	m, _ := newManager(t)
	match := mustCreate(t, m, "Billiards", "A", "B")
	a, b := match.Players[0], match.Players[1]

	r1, _ := m.AddRound(map[string]int{a: 10, b: 20})
	r2, _ := m.AddRound(map[string]int{a: 5})

	if !m.EditRound(r1.ID, map[string]int{a: 30, b: 0}) {
		t.Fatalf("EditRound reported missing round")
	}
	cur, _ := m.CurrentMatch()
	if cur.Rounds[0].ID != r1.ID || !cur.Rounds[0].Timestamp.Equal(r1.Timestamp) {
		t.Errorf("edit changed id or timestamp: %+v", cur.Rounds[0])
	}
	if got := playerByID(m, a).CurrentScore; got != 35 {
		t.Errorf("A score after edit = %d, want 35", got)
	}
	if got := *playerByID(m, b).Rank; got != 2 {
		t.Errorf("B rank after edit = %d, want 2", got)
	}

	if !m.DeleteRound(r2.ID) {
		t.Fatalf("DeleteRound reported missing round")
	}
	if got := playerByID(m, a).CurrentScore; got != 30 {
		t.Errorf("A score after delete = %d, want 30", got)
	}
}

func TestMissingTargetsAreNoOps(t *testing.T) {
	m, rec := newManager(t)

	if _, ok := m.AddRound(map[string]int{"x": 1}); ok {
		t.Errorf("AddRound without a match reported success")
	}
	if m.EditRound("r1", nil) || m.DeleteRound("r1") || m.DiscardMatch() {
		t.Errorf("round operation without a match reported success")
	}
	if _, ok := m.EndMatch(); ok {
		t.Errorf("EndMatch without a match reported success")
	}
	if m.DeleteHistoryMatch("nope") || m.DeletePlayer("nope") {
		t.Errorf("delete of unknown id reported success")
	}
	if len(rec.docs) != 0 || len(rec.removed) != 0 {
		t.Errorf("no-ops wrote documents: %v %v", rec.docs, rec.removed)
	}

	match := mustCreate(t, m, "Cards", "A", "B")
	m.AddRound(map[string]int{match.Players[0]: 3})
	before, _ := m.CurrentMatch()

	if m.DeleteRound("does-not-exist") {
		t.Errorf("DeleteRound of unknown id reported success")
	}
	if m.EditRound("does-not-exist", map[string]int{match.Players[0]: 99}) {
		t.Errorf("EditRound of unknown id reported success")
	}
	after, _ := m.CurrentMatch()
	if !reflect.DeepEqual(before.Rounds, after.Rounds) {
		t.Errorf("rounds changed: %+v -> %+v", before.Rounds, after.Rounds)
	}
}

func TestDeletePlayerKeepsHistory(t *testing.T) {
	m, _ := newManager(t)
	first := mustCreate(t, m, "First", "A", "B")
	a, b := first.Players[0], first.Players[1]
	m.AddRound(map[string]int{a: 10, b: 5})
	m.EndMatch()

	second := mustCreate(t, m, "Second", "C", "D", "E")
	c := second.Players[0]
	m.AddRound(map[string]int{c: 7})

	if !m.DeletePlayer(a) {
		t.Fatalf("DeletePlayer(a) reported no change")
	}
	if !m.DeletePlayer(c) {
		t.Fatalf("DeletePlayer(c) reported no change")
	}

	if _, ok := playerLookup(m, a); ok {
		t.Errorf("a still on roster")
	}
	cur, _ := m.CurrentMatch()
	if cur.HasPlayer(c) || len(cur.Players) != 2 {
		t.Errorf("active participants = %v", cur.Players)
	}
	if cur.Rounds[0].Scores[c] != 7 {
		t.Errorf("active round score for deleted player altered")
	}

	h := m.History()[0]
	if !h.HasPlayer(a) || h.Rounds[0].Scores[a] != 10 {
		t.Errorf("history altered by player deletion: %+v", h)
	}

	sb, ok := m.HistoryScoreboard(h.ID)
	if !ok {
		t.Fatalf("history scoreboard missing")
	}
	if sb.Winner == nil || sb.Winner.PlayerID != a || sb.Winner.Known || sb.Winner.Name != UnknownPlayerName {
		t.Errorf("winner = %+v, want unknown player a", sb.Winner)
	}
	if st := m.Stats(); st.WinsByPlayer[a] != 1 {
		t.Errorf("win tally lost dangling id: %v", st.WinsByPlayer)
	}
}

func playerLookup(m *Manager, id string) (models.Player, bool) {
	for _, p := range m.Players() {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func TestWinTallyAcrossHistory(t *testing.T) {
	m, _ := newManager(t)

	m1 := mustCreate(t, m, "One", "A", "B", "C")
	m.AddRound(map[string]int{m1.Players[0]: 10, m1.Players[1]: 5})
	m.EndMatch()

	m2 := mustCreate(t, m, "Two", "D", "E")
	m.AddRound(map[string]int{m2.Players[0]: -1, m2.Players[1]: 4})
	m.EndMatch()

	st := m.Stats()
	want := map[string]int{m1.Players[0]: 1, m2.Players[1]: 1}
	if !reflect.DeepEqual(st.WinsByPlayer, want) {
		t.Errorf("WinsByPlayer = %v, want %v", st.WinsByPlayer, want)
	}
	if st.TotalRounds != 2 || st.CompletedCount != 2 {
		t.Errorf("stats = %+v", st)
	}
	if st.TopWinner == nil || st.TopWinner.PlayerID != m1.Players[0] || st.TopWinnerWins != 1 {
		t.Errorf("top winner = %+v (%d)", st.TopWinner, st.TopWinnerWins)
	}
}

func TestDeleteHistoryMatch(t *testing.T) {
	m, rec := newManager(t)
	match := mustCreate(t, m, "Cards", "A", "B")
	m.AddRound(map[string]int{match.Players[0]: 10})
	m.EndMatch()

	if !m.DeleteHistoryMatch(match.ID) {
		t.Fatalf("DeleteHistoryMatch reported missing match")
	}
	if len(m.History()) != 0 {
		t.Errorf("history not empty")
	}
	if rec.docs[store.KeyMatchHistory] != "[]" {
		t.Errorf("history document = %s", rec.docs[store.KeyMatchHistory])
	}
	if p := playerByID(m, match.Players[0]); p.TotalWins != 0 || p.CurrentScore != 0 {
		t.Errorf("standings not re-derived after history delete: %+v", p)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	m, _ := newManager(t)
	match := mustCreate(t, m, "Cards", "A", "B")
	scores := map[string]int{match.Players[0]: 1}
	r, _ := m.AddRound(scores)

	scores[match.Players[0]] = 100
	r.Scores[match.Players[0]] = 200
	cur, _ := m.CurrentMatch()
	cur.Rounds[0].Scores[match.Players[0]] = 300

	again, _ := m.CurrentMatch()
	if got := again.Rounds[0].Scores[match.Players[0]]; got != 1 {
		t.Errorf("internal round mutated through a returned value: %d", got)
	}
}

func TestChangeHook(t *testing.T) {
	calls := 0
	m := New(roster.New(nil), nil, nil, newRecorder(), WithChangeHook(func() { calls++ }))

	m.AddRound(nil) // no-op, no hook
	match := mustCreate(t, m, "Cards", "A", "B")
	m.AddRound(map[string]int{match.Players[0]: 1})
	m.EndMatch()

	if calls != 3 {
		t.Errorf("hook ran %d times, want 3", calls)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	rec := newRecorder()

	// Build state with one manager, persist it through a real writer, reload it.
	w := store.NewWriter(s)
	m := New(roster.New(nil), nil, nil, w, WithClock(tickingClock()))
	match := mustCreate(t, m, "Cards", "A", "B")
	m.AddRound(map[string]int{match.Players[0]: 4})
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded := Load(ctx, s, rec)
	cur, ok := reloaded.CurrentMatch()
	if !ok || cur.ID != match.ID || len(cur.Rounds) != 1 {
		t.Fatalf("reloaded current match = %+v ok %v", cur, ok)
	}
	if p := playerByID(reloaded, match.Players[0]); p.CurrentScore != 4 {
		t.Errorf("reloaded score = %d, want 4", p.CurrentScore)
	}
}

func TestLoadRecoversFromCorruptDocuments(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_ = s.Put(ctx, store.KeyPlayers, []byte(`{broken`))
	_ = s.Put(ctx, store.KeyCurrentMatch, []byte(`[1,2`))
	_ = s.Put(ctx, store.KeyMatchHistory, []byte(`"nope"`))

	m := Load(ctx, s, newRecorder())
	if len(m.Players()) != 0 || len(m.History()) != 0 {
		t.Errorf("corrupt documents did not load as empty")
	}
	if _, ok := m.CurrentMatch(); ok {
		t.Errorf("corrupt current match loaded")
	}
	mustCreate(t, m, "Fresh", "A", "B")
}

func TestLoadIgnoresCompletedCurrentMatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_ = s.Put(ctx, store.KeyCurrentMatch, []byte(`{"id":"m1","status":"completed","players":["a","b"],"rounds":[]}`))

	m := Load(ctx, s, newRecorder())
	if _, ok := m.CurrentMatch(); ok {
		t.Errorf("completed match loaded into the active slot")
	}
}
