package models

import "testing"

func TestDefaultStageConfigIsValid(t *testing.T) {
	cfg := DefaultStageConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestStageConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*StageConfig)
		ok     bool
	}{
		{"unknown format", func(c *StageConfig) { c.MatchRules.Format = "ladder" }, false},
		{"unknown win criteria", func(c *StageConfig) { c.MatchRules.WinCriteria = "sudden_death" }, false},
		{"zero games per match", func(c *StageConfig) { c.MatchRules.GamesPerMatch = 0 }, false},
		{"time limited without limit", func(c *StageConfig) {
			c.MatchRules.TimeLimited = true
			c.MatchRules.TimeLimitMinutes = 0
		}, false},
		{"swiss without rounds", func(c *StageConfig) { c.MatchRules.Format = FormatSwiss }, false},
		{"swiss with rounds", func(c *StageConfig) {
			c.MatchRules.Format = FormatSwiss
			c.MatchRules.SwissRounds = 3
		}, true},
		{"custom without bounds", func(c *StageConfig) { c.MatchRules.Format = FormatCustom }, false},
		{"custom with group cap", func(c *StageConfig) {
			c.MatchRules.Format = FormatCustom
			c.MatchRules.MaxMatchesPerGroup = 8
		}, true},
		{"zero top n", func(c *StageConfig) { c.AdvancementRules.TopN = 0 }, false},
		{"unknown bracket", func(c *StageConfig) { c.AdvancementRules.ToBracket = "wood" }, false},
		{"unknown tiebreaker", func(c *StageConfig) {
			c.AdvancementRules.Tiebreakers = []Tiebreaker{"coin_flip"}
		}, false},
		{"unknown strategy", func(c *StageConfig) { c.Scheduling.Strategy = "chaotic" }, false},
		{"empty strategy allowed", func(c *StageConfig) { c.Scheduling.Strategy = "" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultStageConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
