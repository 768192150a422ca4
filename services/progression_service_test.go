package services

import (
	"testing"

	"github.com/courtsync/tournament-system/models"
)

func playedStats(coupleID, played int) models.CoupleStats {
	return models.CoupleStats{CoupleID: coupleID, MatchesPlayed: played}
}

func TestGroupReady(t *testing.T) {
	tests := []struct {
		name  string
		stats []models.CoupleStats
		topN  int
		want  bool
	}{
		{
			name:  "enough couples with recorded matches",
			stats: []models.CoupleStats{playedStats(1, 2), playedStats(2, 1), playedStats(3, 0)},
			topN:  2,
			want:  true,
		},
		{
			name:  "mid stage with quota filled",
			stats: []models.CoupleStats{playedStats(1, 1), playedStats(2, 1), playedStats(3, 1), playedStats(4, 0)},
			topN:  3,
			want:  true,
		},
		{
			name:  "zero rows alone do not qualify",
			stats: []models.CoupleStats{playedStats(1, 0), playedStats(2, 0), playedStats(3, 0)},
			topN:  1,
			want:  false,
		},
		{
			name:  "fewer recorded couples than quota",
			stats: []models.CoupleStats{playedStats(1, 3), playedStats(2, 0)},
			topN:  2,
			want:  false,
		},
		{
			name:  "empty group",
			stats: nil,
			topN:  1,
			want:  false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := groupReady(tc.stats, tc.topN); got != tc.want {
				t.Errorf("groupReady(topN=%d) = %v, want %v", tc.topN, got, tc.want)
			}
		})
	}
}

func TestInterleaveSeedsOrdersByPosition(t *testing.T) {
	seeds := interleaveSeeds([][]int{{1, 4}, {2, 5}, {3}})
	want := []int{1, 2, 3, 4, 5}
	if len(seeds) != len(want) {
		t.Fatalf("got %d seeds, want %d", len(seeds), len(want))
	}
	for i := range want {
		if seeds[i] != want[i] {
			t.Errorf("seed %d is %d, want %d", i, seeds[i], want[i])
		}
	}
}
