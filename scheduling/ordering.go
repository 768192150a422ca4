package scheduling

import (
	"github.com/courtsync/tournament-system/models"
)

// last_played defaults far in the past so unseen couples look well rested.
const unseenLastPlayed = -10

// restScore rates how suitable a match is as the next one to place, given
// where each couple last appeared in the output sequence. Higher is better.
func restScore(m *models.Match, lastPlayed map[int]int, position int) float64 {
	var restA, restB int
	seenA, seenB := true, true

	if m.Couple1ID != nil {
		if last, ok := lastPlayed[*m.Couple1ID]; ok {
			restA = position - last
		} else {
			restA = position - unseenLastPlayed
			seenA = false
		}
	} else {
		restA = position - unseenLastPlayed
		seenA = false
	}
	if m.Couple2ID != nil {
		if last, ok := lastPlayed[*m.Couple2ID]; ok {
			restB = position - last
		} else {
			restB = position - unseenLastPlayed
			seenB = false
		}
	} else {
		restB = position - unseenLastPlayed
		seenB = false
	}

	score := float64(restA + restB)

	if !seenA || !seenB {
		// Encourage couples that have not played yet to get an early slot.
		score += 10
	}

	if restA == 0 || restB == 0 {
		// Literal back-to-back, only possible across groups or rounds.
		score -= 50
	} else if restA == 1 || restB == 1 {
		score -= 10
	}

	if restA >= 3 && restB >= 3 {
		score += 5
	}

	return score
}

// OrderByRest reorders the candidate matches so that couples get adequate
// rest between appearances. At every output position the remaining match
// with the highest rest score is placed next; ties go to the lowest match
// id. The winning score is stored as the match's priority score.
//
// Greedy, O(n*k) per position over the remaining pool k. Not globally
// optimal, but tournament pools are tens to low hundreds of matches.
func OrderByRest(matches []*models.Match) []*models.Match {
	if len(matches) <= 1 {
		return matches
	}

	remaining := make([]*models.Match, len(matches))
	copy(remaining, matches)

	ordered := make([]*models.Match, 0, len(matches))
	lastPlayed := make(map[int]int)

	for len(remaining) > 0 {
		position := len(ordered)

		bestIdx := -1
		var bestScore float64
		for i, m := range remaining {
			score := restScore(m, lastPlayed, position)
			if bestIdx == -1 || score > bestScore ||
				(score == bestScore && m.ID < remaining[bestIdx].ID) {
				bestIdx = i
				bestScore = score
			}
		}

		best := remaining[bestIdx]
		score := bestScore
		best.PriorityScore = &score
		ordered = append(ordered, best)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)

		for _, c := range best.Couples() {
			lastPlayed[c] = position
		}
	}

	return ordered
}
