package brackets

import (
	"context"
	"errors"
	"testing"

	"github.com/courtsync/tournament-system/models"
)

func pairKey(a, b int) [2]int {
	if b < a {
		a, b = b, a
	}
	return [2]int{a, b}
}

func TestRoundRobinGeneratesEveryPairOnce(t *testing.T) {
	gen := NewRoundRobinGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{4, 1, 3, 2, 5},
		Rules:     models.MatchRules{MatchesPerOpponent: 1},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}

	want := 5 * 4 / 2
	if len(slots) != want {
		t.Fatalf("got %d slots, want %d", len(slots), want)
	}

	seen := make(map[[2]int]bool)
	for _, s := range slots {
		if s.Couple1ID == s.Couple2ID {
			t.Fatalf("couple %d paired with itself", s.Couple1ID)
		}
		key := pairKey(s.Couple1ID, s.Couple2ID)
		if seen[key] {
			t.Fatalf("pair %v generated twice", key)
		}
		seen[key] = true
	}
}

func TestRoundRobinDoubleLegSwapsSides(t *testing.T) {
	gen := NewRoundRobinGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{1, 2, 3},
		Rules:     models.MatchRules{MatchesPerOpponent: 2},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}
	if len(slots) != 6 {
		t.Fatalf("got %d slots, want 6", len(slots))
	}

	// Each ordered pairing must appear exactly once: home leg and return leg.
	ordered := make(map[[2]int]int)
	for _, s := range slots {
		ordered[[2]int{s.Couple1ID, s.Couple2ID}]++
	}
	for key, count := range ordered {
		if count != 1 {
			t.Errorf("ordered pairing %v appeared %d times, want 1", key, count)
		}
		reverse := [2]int{key[1], key[0]}
		if ordered[reverse] != 1 {
			t.Errorf("return leg %v missing", reverse)
		}
	}
}

func TestRoundRobinRejectsSingleCouple(t *testing.T) {
	gen := NewRoundRobinGenerator()
	_, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{7},
		Rules:     models.MatchRules{MatchesPerOpponent: 1},
	})
	if !errors.Is(err, ErrInsufficientCouples) {
		t.Fatalf("got %v, want ErrInsufficientCouples", err)
	}
}

func TestSwissNoRepeatedPairings(t *testing.T) {
	gen := NewSwissGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{10, 20, 30, 40, 50, 60},
		Rules:     models.MatchRules{SwissRounds: 4},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}

	// 6 couples, 4 rounds, 3 matches each round.
	if len(slots) != 12 {
		t.Fatalf("got %d slots, want 12", len(slots))
	}

	seen := make(map[[2]int]bool)
	perRound := make(map[int]int)
	for _, s := range slots {
		key := pairKey(s.Couple1ID, s.Couple2ID)
		if seen[key] {
			t.Fatalf("pair %v repeated across rounds", key)
		}
		seen[key] = true
		perRound[s.Round]++
	}
	for r := 1; r <= 4; r++ {
		if perRound[r] != 3 {
			t.Errorf("round %d has %d matches, want 3", r, perRound[r])
		}
	}
}

func TestSwissOddCountRotatesBye(t *testing.T) {
	gen := NewSwissGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{1, 2, 3, 4, 5},
		Rules:     models.MatchRules{SwissRounds: 3},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}

	// One couple sits out each round, so 2 matches per round.
	byRound := make(map[int][]GroupMatchSlot)
	for _, s := range slots {
		byRound[s.Round] = append(byRound[s.Round], s)
	}
	if len(byRound) != 3 {
		t.Fatalf("got %d rounds, want 3", len(byRound))
	}

	byes := make(map[int]bool)
	for r, matches := range byRound {
		if len(matches) != 2 {
			t.Fatalf("round %d has %d matches, want 2", r, len(matches))
		}
		playing := make(map[int]bool)
		for _, m := range matches {
			playing[m.Couple1ID] = true
			playing[m.Couple2ID] = true
		}
		for _, c := range []int{1, 2, 3, 4, 5} {
			if !playing[c] {
				if byes[c] {
					t.Errorf("couple %d sat out more than once", c)
				}
				byes[c] = true
			}
		}
	}
}

func TestSwissRoundsCappedByCoupleCount(t *testing.T) {
	gen := NewSwissGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{1, 2, 3, 4},
		Rules:     models.MatchRules{SwissRounds: 10},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}
	maxRound := 0
	for _, s := range slots {
		if s.Round > maxRound {
			maxRound = s.Round
		}
	}
	if maxRound != 3 {
		t.Fatalf("got %d rounds, want 3 for 4 couples", maxRound)
	}
}

func TestCustomHonoursGroupCap(t *testing.T) {
	gen := NewCustomGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{1, 2, 3, 4},
		Rules:     models.MatchRules{MaxMatchesPerGroup: 4},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(slots))
	}

	// Least loaded pairs go first, so after 4 matches every couple has 2.
	played := make(map[int]int)
	for _, s := range slots {
		played[s.Couple1ID]++
		played[s.Couple2ID]++
	}
	for c, count := range played {
		if count != 2 {
			t.Errorf("couple %d has %d matches, want 2", c, count)
		}
	}
}

func TestCustomHonoursMinimumPerCouple(t *testing.T) {
	gen := NewCustomGenerator()
	slots, err := gen.GenerateGroup(context.Background(), GenerateGroupParams{
		CoupleIDs: []int{1, 2, 3},
		Rules:     models.MatchRules{MinMatchesPerCouple: 2},
	})
	if err != nil {
		t.Fatalf("GenerateGroup: %v", err)
	}

	played := make(map[int]int)
	for _, s := range slots {
		played[s.Couple1ID]++
		played[s.Couple2ID]++
	}
	for _, c := range []int{1, 2, 3} {
		if played[c] < 2 {
			t.Errorf("couple %d has %d matches, want at least 2", c, played[c])
		}
	}
}

func TestForFormatSelection(t *testing.T) {
	cases := []struct {
		format models.MatchFormat
		want   string
	}{
		{models.FormatRoundRobin, "RoundRobin"},
		{models.FormatSwiss, "Swiss"},
		{models.FormatCustom, "Custom"},
		{models.MatchFormat("unknown"), "RoundRobin"},
	}
	for _, tc := range cases {
		if got := ForFormat(tc.format).Name(); got != tc.want {
			t.Errorf("ForFormat(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}
}
