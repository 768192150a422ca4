package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type StageKind string

const (
	StageKindGroup       StageKind = "group"
	StageKindElimination StageKind = "elimination"
)

type MatchFormat string

const (
	FormatRoundRobin MatchFormat = "round_robin"
	FormatSwiss      MatchFormat = "swiss"
	FormatCustom     MatchFormat = "custom"
)

type WinCriteria string

const (
	WinCriteriaBestOf    WinCriteria = "best_of"
	WinCriteriaAllGames  WinCriteria = "all_games"
	WinCriteriaTimeBased WinCriteria = "time_based"
)

type Tiebreaker string

const (
	TiebreakerPoints     Tiebreaker = "points"
	TiebreakerHeadToHead Tiebreaker = "head_to_head"
	TiebreakerGamesDiff  Tiebreaker = "games_diff"
	TiebreakerGamesWon   Tiebreaker = "games_won"
	TiebreakerMatchesWon Tiebreaker = "matches_won"
)

type AllocationStrategy string

const (
	StrategyBalancedLoad   AllocationStrategy = "balanced_load"
	StrategyCourtEfficient AllocationStrategy = "court_efficient"
	StrategyGroupClustered AllocationStrategy = "group_clustered"
)

// ScoringSystem holds the point weights used when a match result feeds the
// standings. GameWin/GameLoss award extra points per individual game.
type ScoringSystem struct {
	Win      int `json:"win"`
	Draw     int `json:"draw"`
	Loss     int `json:"loss"`
	GameWin  int `json:"game_win"`
	GameLoss int `json:"game_loss"`
}

type MatchRules struct {
	Format             MatchFormat `json:"match_format"`
	MatchesPerOpponent int         `json:"matches_per_opponent"`
	GamesPerMatch      int         `json:"games_per_match"`
	WinCriteria        WinCriteria `json:"win_criteria"`
	TimeLimited        bool        `json:"time_limited"`
	TimeLimitMinutes   int         `json:"time_limit_minutes,omitempty"`

	// Swiss only.
	SwissRounds int `json:"swiss_rounds,omitempty"`

	// Custom format only.
	MaxMatchesPerGroup  int `json:"max_matches_per_group,omitempty"`
	MinMatchesPerCouple int `json:"min_matches_per_couple,omitempty"`
	BreakBetweenMatches int `json:"break_between_matches,omitempty"`
}

type AdvancementRules struct {
	TopN        int          `json:"top_n"`
	ToBracket   BracketType  `json:"to_bracket"`
	Tiebreakers []Tiebreaker `json:"tiebreaker"`
}

type SchedulingPrefs struct {
	AutoSchedule   bool               `json:"auto_schedule"`
	OverlapAllowed bool               `json:"overlap_allowed"`
	Strategy       AllocationStrategy `json:"strategy"`
}

// StageConfig is the structured configuration blob stored on every stage.
// It is validated once at stage creation, never re-interpreted ad hoc.
type StageConfig struct {
	ScoringSystem    ScoringSystem    `json:"scoring_system"`
	MatchRules       MatchRules       `json:"match_rules"`
	AdvancementRules AdvancementRules `json:"advancement_rules"`
	Scheduling       SchedulingPrefs  `json:"scheduling"`
}

// DefaultStageConfig mirrors what the staging API applies when a stage is
// created without an explicit configuration.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		ScoringSystem: ScoringSystem{Win: 3, Draw: 1, Loss: 0, GameWin: 1, GameLoss: 0},
		MatchRules: MatchRules{
			Format:             FormatRoundRobin,
			MatchesPerOpponent: 1,
			GamesPerMatch:      3,
			WinCriteria:        WinCriteriaBestOf,
			TimeLimited:        false,
			TimeLimitMinutes:   90,
		},
		AdvancementRules: AdvancementRules{
			TopN:      2,
			ToBracket: BracketMain,
			Tiebreakers: []Tiebreaker{
				TiebreakerPoints,
				TiebreakerHeadToHead,
				TiebreakerGamesDiff,
				TiebreakerGamesWon,
			},
		},
		Scheduling: SchedulingPrefs{
			AutoSchedule:   true,
			OverlapAllowed: false,
			Strategy:       StrategyBalancedLoad,
		},
	}
}

// Validate checks the recognized option set. Called at stage creation so
// that consumers of the config never have to re-validate.
func (c *StageConfig) Validate() error {
	switch c.MatchRules.Format {
	case FormatRoundRobin, FormatSwiss, FormatCustom:
	default:
		return fmt.Errorf("unknown match format %q", c.MatchRules.Format)
	}
	switch c.MatchRules.WinCriteria {
	case WinCriteriaBestOf, WinCriteriaAllGames, WinCriteriaTimeBased:
	default:
		return fmt.Errorf("unknown win criteria %q", c.MatchRules.WinCriteria)
	}
	if c.MatchRules.GamesPerMatch < 1 {
		return fmt.Errorf("games_per_match must be at least 1, got %d", c.MatchRules.GamesPerMatch)
	}
	if c.MatchRules.MatchesPerOpponent < 1 {
		return fmt.Errorf("matches_per_opponent must be at least 1, got %d", c.MatchRules.MatchesPerOpponent)
	}
	if c.MatchRules.TimeLimited && c.MatchRules.TimeLimitMinutes <= 0 {
		return fmt.Errorf("time_limit_minutes must be positive for time limited matches")
	}
	if c.MatchRules.Format == FormatSwiss && c.MatchRules.SwissRounds < 1 {
		return fmt.Errorf("swiss_rounds must be at least 1 for the swiss format")
	}
	if c.MatchRules.Format == FormatCustom &&
		c.MatchRules.MaxMatchesPerGroup <= 0 && c.MatchRules.MinMatchesPerCouple <= 0 {
		return fmt.Errorf("custom format requires max_matches_per_group or min_matches_per_couple")
	}
	if c.AdvancementRules.TopN < 1 {
		return fmt.Errorf("advancement top_n must be at least 1, got %d", c.AdvancementRules.TopN)
	}
	switch c.AdvancementRules.ToBracket {
	case BracketMain, BracketSilver, BracketBronze:
	default:
		return fmt.Errorf("unknown target bracket %q", c.AdvancementRules.ToBracket)
	}
	for _, tb := range c.AdvancementRules.Tiebreakers {
		switch tb {
		case TiebreakerPoints, TiebreakerHeadToHead, TiebreakerGamesDiff, TiebreakerGamesWon, TiebreakerMatchesWon:
		default:
			return fmt.Errorf("unknown tiebreaker %q", tb)
		}
	}
	switch c.Scheduling.Strategy {
	case "", StrategyBalancedLoad, StrategyCourtEfficient, StrategyGroupClustered:
	default:
		return fmt.Errorf("unknown allocation strategy %q", c.Scheduling.Strategy)
	}
	return nil
}

// Value implements driver.Valuer so the config persists as JSONB.
func (c StageConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *StageConfig) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = StageConfig{}
		return nil
	default:
		return fmt.Errorf("unsupported type %T for StageConfig", src)
	}
}

type Stage struct {
	ID           int         `json:"id"`
	TournamentID int         `json:"tournament_id"`
	Name         string      `json:"name"`
	Kind         StageKind   `json:"stage_type"`
	Order        int         `json:"order"`
	Config       StageConfig `json:"config"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}
