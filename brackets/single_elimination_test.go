package brackets

import (
	"context"
	"errors"
	"testing"
)

func TestSingleEliminationPowerOfTwo(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	plan, err := gen.Generate(context.Background(), []int{101, 102, 103, 104, 105, 106, 107, 108})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if plan.Rounds != 3 {
		t.Fatalf("got %d rounds, want 3", plan.Rounds)
	}
	if len(plan.Matches) != 7 {
		t.Fatalf("got %d matches, want 7", len(plan.Matches))
	}
	for _, m := range plan.Matches {
		if m.IsBye {
			t.Errorf("unexpected bye in round %d position %d", m.Round, m.Position)
		}
	}

	// Seed 1 meets seed 8 in round 1 position 1.
	first := plan.Matches[0]
	if first.Round != 1 || first.Position != 1 {
		t.Fatalf("matches not sorted by round then position")
	}
	if first.Couple1ID == nil || first.Couple2ID == nil {
		t.Fatalf("round 1 slot missing couples")
	}
	if *first.Couple1ID != 101 || *first.Couple2ID != 108 {
		t.Errorf("round 1 position 1 pairs %d vs %d, want 101 vs 108", *first.Couple1ID, *first.Couple2ID)
	}
}

func TestSingleEliminationSuccessorLinks(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	plan, err := gen.Generate(context.Background(), []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var final *BracketMatch
	for _, m := range plan.Matches {
		if m.Round == plan.Rounds {
			final = m
		}
	}
	if final == nil {
		t.Fatal("no final match in plan")
	}
	if final.NextMatchUID != "" {
		t.Errorf("final has a successor %q", final.NextMatchUID)
	}

	for _, m := range plan.Matches {
		if m.Round == plan.Rounds {
			continue
		}
		next, ok := plan.Successor(m.SlotUID)
		if !ok {
			t.Fatalf("round %d position %d has no successor", m.Round, m.Position)
		}
		if next.Round != m.Round+1 {
			t.Errorf("successor of round %d slot is in round %d", m.Round, next.Round)
		}
		if next.Position != (m.Position+1)/2 {
			t.Errorf("round %d position %d feeds position %d, want %d",
				m.Round, m.Position, next.Position, (m.Position+1)/2)
		}
		if m.WinnerToSlot != 1 && m.WinnerToSlot != 2 {
			t.Errorf("invalid winner slot %d", m.WinnerToSlot)
		}
	}
}

func TestSingleEliminationByesGoToTopSeeds(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	// 6 couples in an 8 slot bracket: seeds 1 and 2 receive byes.
	plan, err := gen.Generate(context.Background(), []int{11, 12, 13, 14, 15, 16})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	byeCouples := make(map[int]bool)
	for _, m := range plan.Matches {
		if m.Round != 1 || !m.IsBye {
			continue
		}
		if m.ByeCoupleID == nil {
			t.Fatal("bye slot without a couple")
		}
		byeCouples[*m.ByeCoupleID] = true
	}
	if len(byeCouples) != 2 {
		t.Fatalf("got %d byes, want 2", len(byeCouples))
	}
	if !byeCouples[11] || !byeCouples[12] {
		t.Errorf("byes went to %v, want seeds 11 and 12", byeCouples)
	}

	// A bye couple is pre-placed into its round 2 slot.
	for _, m := range plan.Matches {
		if m.Round != 1 || !m.IsBye {
			continue
		}
		next, ok := plan.Successor(m.SlotUID)
		if !ok {
			t.Fatal("bye slot has no successor")
		}
		var placed *int
		if m.WinnerToSlot == 1 {
			placed = next.Couple1ID
		} else {
			placed = next.Couple2ID
		}
		if placed == nil || *placed != *m.ByeCoupleID {
			t.Errorf("bye couple %d not propagated to round 2", *m.ByeCoupleID)
		}
	}
}

func TestSingleEliminationSlotLookup(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	plan, err := gen.Generate(context.Background(), []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, m := range plan.Matches {
		got, ok := plan.Match(m.SlotUID)
		if !ok {
			t.Fatalf("slot %q not found in plan", m.SlotUID)
		}
		if got != m {
			t.Errorf("slot %q resolved to a different match", m.SlotUID)
		}
	}

	if _, ok := plan.Match("no-such-slot"); ok {
		t.Error("lookup of unknown slot succeeded")
	}
}

func TestSingleEliminationTooFewCouples(t *testing.T) {
	gen := NewSingleEliminationGenerator()
	if _, err := gen.Generate(context.Background(), []int{42}); !errors.Is(err, ErrInsufficientCouples) {
		t.Fatalf("got %v, want ErrInsufficientCouples", err)
	}
}
