package scheduling

import (
	"testing"

	"github.com/courtsync/tournament-system/models"
)

func court(id int) *models.Court {
	return &models.Court{ID: id, Name: "Court"}
}

// twoGroupsOfThree builds a round robin for couples 1..3 in group 1 and
// couples 4..6 in group 2, three matches each.
func twoGroupsOfThree() []*models.Match {
	return []*models.Match{
		groupMatch(1, 1, 1, 2),
		groupMatch(2, 1, 1, 3),
		groupMatch(3, 1, 2, 3),
		groupMatch(4, 2, 4, 5),
		groupMatch(5, 2, 4, 6),
		groupMatch(6, 2, 5, 6),
	}
}

func TestBalancedLoadDedicatedCourts(t *testing.T) {
	a := Allocator{Strategy: models.StrategyBalancedLoad}
	matches := twoGroupsOfThree()
	courts := []*models.Court{court(20), court(10)}

	ordered := a.OrderStage(models.StageKindGroup, matches, courts, 1)
	if len(ordered) != 6 {
		t.Fatalf("got %d matches, want 6", len(ordered))
	}

	// One court per group, so a group never leaves its court.
	courtByGroup := make(map[int]int)
	for _, m := range ordered {
		if m.CourtID == nil || m.GroupID == nil {
			t.Fatalf("match %d missing court or group", m.ID)
		}
		if prev, ok := courtByGroup[*m.GroupID]; ok && prev != *m.CourtID {
			t.Errorf("group %d spread over courts %d and %d", *m.GroupID, prev, *m.CourtID)
		}
		courtByGroup[*m.GroupID] = *m.CourtID
	}
	if courtByGroup[1] == courtByGroup[2] {
		t.Errorf("both groups share court %d", courtByGroup[1])
	}

	// Courts hand out in id order: group 1 on court 10, group 2 on 20.
	if courtByGroup[1] != 10 || courtByGroup[2] != 20 {
		t.Errorf("court assignment %v, want group1=10 group2=20", courtByGroup)
	}

	// Waves interleave the groups.
	if *ordered[0].GroupID == *ordered[1].GroupID {
		t.Errorf("first wave plays the same group twice")
	}
}

func TestBalancedLoadFewerCourtsThanGroups(t *testing.T) {
	a := Allocator{Strategy: models.StrategyBalancedLoad}
	matches := twoGroupsOfThree()
	courts := []*models.Court{court(7)}

	ordered := a.OrderStage(models.StageKindGroup, matches, courts, 1)
	for _, m := range ordered {
		if m.CourtID == nil || *m.CourtID != 7 {
			t.Errorf("match %d not on the only court", m.ID)
		}
		if m.PriorityScore == nil {
			t.Errorf("match %d has no priority score from the global ordering", m.ID)
		}
	}
}

func TestBalancedLoadNoCourts(t *testing.T) {
	a := Allocator{Strategy: models.StrategyBalancedLoad}
	ordered := a.OrderStage(models.StageKindGroup, twoGroupsOfThree(), nil, 1)
	for _, m := range ordered {
		if m.CourtID != nil {
			t.Errorf("match %d assigned court %d with no courts supplied", m.ID, *m.CourtID)
		}
		if m.DisplayOrder == nil {
			t.Errorf("match %d missing display order", m.ID)
		}
	}
}

func TestCourtEfficientChunksContiguously(t *testing.T) {
	a := Allocator{Strategy: models.StrategyCourtEfficient}
	matches := twoGroupsOfThree()
	courts := []*models.Court{court(1), court(2)}

	ordered := a.OrderStage(models.StageKindGroup, matches, courts, 1)

	// Six matches over two courts: ids 1..3 on court 1, ids 4..6 on court 2.
	for i, m := range ordered {
		if m.ID != i+1 {
			t.Fatalf("position %d has match %d, want id order preserved", i, m.ID)
		}
		wantCourt := 1
		if i >= 3 {
			wantCourt = 2
		}
		if m.CourtID == nil || *m.CourtID != wantCourt {
			t.Errorf("match %d on court %v, want %d", m.ID, m.CourtID, wantCourt)
		}
	}
}

func TestGroupClusteredKeepsGroupsTogether(t *testing.T) {
	a := Allocator{Strategy: models.StrategyGroupClustered}
	matches := twoGroupsOfThree()
	courts := []*models.Court{court(1), court(2)}

	ordered := a.OrderStage(models.StageKindGroup, matches, courts, 1)

	// Group 1 completes before group 2 starts.
	for i, m := range ordered {
		wantGroup := 1
		if i >= 3 {
			wantGroup = 2
		}
		if *m.GroupID != wantGroup {
			t.Fatalf("position %d plays group %d, want %d", i, *m.GroupID, wantGroup)
		}
	}
}

func TestEliminationOrderedByRoundThenPosition(t *testing.T) {
	a := Allocator{Strategy: models.StrategyBalancedLoad}
	bracketID := 5
	r1, r2 := 1, 2
	p1, p2 := 1, 2
	matches := []*models.Match{
		{ID: 3, BracketID: &bracketID, RoundNumber: &r2, BracketPosition: &p1},
		{ID: 1, BracketID: &bracketID, RoundNumber: &r1, BracketPosition: &p2},
		{ID: 2, BracketID: &bracketID, RoundNumber: &r1, BracketPosition: &p1},
	}
	courts := []*models.Court{court(1), court(2)}

	ordered := a.OrderStage(models.StageKindElimination, matches, courts, 1)

	wantIDs := []int{2, 1, 3}
	for i, m := range ordered {
		if m.ID != wantIDs[i] {
			t.Fatalf("position %d has match %d, want %d", i, m.ID, wantIDs[i])
		}
	}
	// Courts deal round robin in play order.
	if *ordered[0].CourtID != 1 || *ordered[1].CourtID != 2 || *ordered[2].CourtID != 1 {
		t.Errorf("court rotation broken: %d %d %d",
			*ordered[0].CourtID, *ordered[1].CourtID, *ordered[2].CourtID)
	}
}

func TestStampSequencesOrders(t *testing.T) {
	a := Allocator{Strategy: models.StrategyBalancedLoad}
	ordered := a.OrderStage(models.StageKindGroup, twoGroupsOfThree(), nil, 11)

	perGroup := make(map[int]int)
	for i, m := range ordered {
		if *m.DisplayOrder != 11+i {
			t.Errorf("match %d display order %d, want %d", m.ID, *m.DisplayOrder, 11+i)
		}
		if *m.OrderInStage != i+1 {
			t.Errorf("match %d stage order %d, want %d", m.ID, *m.OrderInStage, i+1)
		}
		perGroup[*m.GroupID]++
		if *m.OrderInGroup != perGroup[*m.GroupID] {
			t.Errorf("match %d group order %d, want %d", m.ID, *m.OrderInGroup, perGroup[*m.GroupID])
		}
	}
}

func TestBasicAssignKeepsIDOrder(t *testing.T) {
	matches := []*models.Match{
		groupMatch(5, 1, 1, 2),
		groupMatch(2, 1, 1, 3),
		groupMatch(9, 1, 2, 3),
	}
	courts := []*models.Court{court(4), court(3)}

	ordered := BasicAssign(matches, courts, 1)

	wantIDs := []int{2, 5, 9}
	wantCourts := []int{3, 4, 3}
	for i, m := range ordered {
		if m.ID != wantIDs[i] {
			t.Fatalf("position %d has match %d, want %d", i, m.ID, wantIDs[i])
		}
		if m.CourtID == nil || *m.CourtID != wantCourts[i] {
			t.Errorf("match %d on court %v, want %d", m.ID, m.CourtID, wantCourts[i])
		}
	}
}
