package valueobject

import (
	"errors"
	"testing"

	domainerror "github.com/ledger-recon/backend/internal/domain/error"
)

func TestMatchingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *MatchingConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *MatchingConfig) {}},
		{name: "custom weights summing to one", mutate: func(c *MatchingConfig) {
			c.Weights.Amount, c.Weights.Date, c.Weights.Description = 0.5, 0.25, 0.25
		}},
		{name: "weights not summing to one", mutate: func(c *MatchingConfig) { c.Weights.Amount = 0.5 }, wantErr: true},
		{name: "negative weight", mutate: func(c *MatchingConfig) {
			c.Weights.Amount, c.Weights.Date = 0.8, -0.1
		}, wantErr: true},
		{name: "negative bonus", mutate: func(c *MatchingConfig) { c.Weights.ReferenceBonus = -0.1 }, wantErr: true},
		{name: "auto-match equals review", mutate: func(c *MatchingConfig) { c.ReviewThreshold = 0.90 }, wantErr: true},
		{name: "auto-match below review", mutate: func(c *MatchingConfig) { c.AutoMatchThreshold = 0.60 }, wantErr: true},
		{name: "auto-match above one", mutate: func(c *MatchingConfig) { c.AutoMatchThreshold = 1.2 }, wantErr: true},
		{name: "zero candidate limit", mutate: func(c *MatchingConfig) { c.CandidateLimit = 0 }, wantErr: true},
		{name: "negative window", mutate: func(c *MatchingConfig) { c.WindowDays = -1 }, wantErr: true},
		{name: "floor of one", mutate: func(c *MatchingConfig) { c.CandidateFloor = 1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMatchingConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domainerror.ErrInvalidMatchingConfig) {
				t.Errorf("Validate() error should wrap ErrInvalidMatchingConfig, got %v", err)
			}
		})
	}
}
