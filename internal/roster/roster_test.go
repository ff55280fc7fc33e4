package roster

import (
	"strings"
	"testing"

	"github.com/trentd187/scorebook/internal/models"
)

func TestRegister(t *testing.T) {
	r := New(nil)
	created := r.Register([]string{"Anh Quân", "Bob"})

	if len(created) != 2 || r.Len() != 2 {
		t.Fatalf("created %d players, roster has %d", len(created), r.Len())
	}
	if created[0].ID == "" || created[0].ID == created[1].ID {
		t.Errorf("ids not unique: %q %q", created[0].ID, created[1].ID)
	}
	for _, p := range created {
		if p.TotalWins != 0 || p.CurrentScore != 0 {
			t.Errorf("new player %s has stats %+v", p.Name, p)
		}
	}
	if want := "https://picsum.photos/seed/anh-quan/200"; created[0].Avatar != want {
		t.Errorf("avatar = %q, want %q", created[0].Avatar, want)
	}
}

func TestAvatarForNameWithoutLetters(t *testing.T) {
	if got := AvatarFor("!!!"); !strings.Contains(got, "/seed/player/") {
		t.Errorf("AvatarFor(!!!) = %q", got)
	}
}

func TestLookup(t *testing.T) {
	r := New([]models.Player{{ID: "a", Name: "Alice"}})

	if p, ok := r.Lookup("a"); !ok || p.Name != "Alice" {
		t.Errorf("Lookup(a) = %+v, %v", p, ok)
	}
	if _, ok := r.Lookup("gone"); ok {
		t.Errorf("Lookup of unknown id should miss")
	}
}

func TestDeletePlayer(t *testing.T) {
	r := New([]models.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	active := &models.Match{
		Players: []string{"a", "b", "c"},
		Rounds:  []models.MatchRound{{ID: "r", Scores: map[string]int{"a": 1, "b": 2}}},
	}
	snapshot := active.Players

	if !r.DeletePlayer("b", active) {
		t.Fatalf("DeletePlayer(b) reported no change")
	}
	if _, ok := r.Lookup("b"); ok {
		t.Errorf("b still on roster")
	}
	if active.HasPlayer("b") || len(active.Players) != 2 {
		t.Errorf("active participants = %v", active.Players)
	}
	if active.Rounds[0].Scores["b"] != 2 {
		t.Errorf("round score for deleted player was altered")
	}
	if snapshot[1] != "b" {
		t.Errorf("participant slice shared with earlier snapshot was mutated: %v", snapshot)
	}

	if r.DeletePlayer("nobody", active) {
		t.Errorf("deleting an unknown id should report no change")
	}
	if !r.DeletePlayer("c", nil) {
		t.Errorf("deleting without an active match should still remove from roster")
	}
}

func TestRefresh(t *testing.T) {
	r := New([]models.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	history := []models.Match{
		{Players: []string{"a", "b"}, Rounds: []models.MatchRound{{Scores: map[string]int{"a": 50, "b": -50}}}},
	}
	current := &models.Match{
		Players: []string{"b", "c"},
		Rounds:  []models.MatchRound{{Scores: map[string]int{"b": 100, "c": 50, "gone": 7}}},
	}

	r.Refresh(history, current)

	want := map[string]struct{ score, rank, wins int }{
		"a": {50, 1, 1},
		"b": {50, 1, 0},
		"c": {50, 1, 0},
	}
	for _, p := range r.Players() {
		w := want[p.ID]
		if p.CurrentScore != w.score || p.Rank == nil || *p.Rank != w.rank || p.TotalWins != w.wins {
			t.Errorf("player %s = score %d rank %v wins %d, want %+v", p.ID, p.CurrentScore, p.Rank, p.TotalWins, w)
		}
	}

	// Dropping the active match must not leave its deltas behind.
	r.Refresh(history, nil)
	ranks := map[string]int{}
	for _, p := range r.Players() {
		ranks[p.ID] = *p.Rank
	}
	if ranks["a"] != 1 || ranks["b"] != 3 || ranks["c"] != 2 {
		t.Errorf("ranks after refresh without current = %v, want a:1 c:2 b:3", ranks)
	}
}

func TestTopByWins(t *testing.T) {
	if _, ok := New(nil).TopByWins(); ok {
		t.Errorf("empty roster should have no top player")
	}

	r := New([]models.Player{{ID: "a", TotalWins: 2}, {ID: "b", TotalWins: 5}, {ID: "c", TotalWins: 5}})
	if top, _ := r.TopByWins(); top.ID != "b" {
		t.Errorf("TopByWins = %s, want b", top.ID)
	}
}
