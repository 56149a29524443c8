// Package matchingconfig loads matching weights and thresholds, with per-venue overrides.
package matchingconfig

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/ledger-recon/backend/internal/domain/valueobject"
)

// EnvPrefix prefixes environment overrides, e.g. RECON_MATCHING_AUTO_MATCH_THRESHOLD.
const EnvPrefix = "RECON"

// Provider resolves matching configuration per venue.
type Provider struct {
	defaults valueobject.MatchingConfig
	venues   map[uuid.UUID]valueobject.MatchingConfig
}

// NewStaticProvider returns a Provider that serves cfg for every venue.
func NewStaticProvider(cfg valueobject.MatchingConfig) *Provider {
	return &Provider{
		defaults: cfg,
		venues:   map[uuid.UUID]valueobject.MatchingConfig{},
	}
}

// ForVenue returns the venue's configuration, falling back to the defaults.
func (p *Provider) ForVenue(venueID uuid.UUID) valueobject.MatchingConfig {
	if cfg, ok := p.venues[venueID]; ok {
		return cfg
	}
	return p.defaults
}

// Defaults returns the process-wide configuration.
func (p *Provider) Defaults() valueobject.MatchingConfig {
	return p.defaults
}

type weightsOverride struct {
	Amount         *float64 `mapstructure:"amount"`
	Date           *float64 `mapstructure:"date"`
	Description    *float64 `mapstructure:"description"`
	ReferenceBonus *float64 `mapstructure:"reference_bonus"`
}

type override struct {
	Weights            weightsOverride `mapstructure:"weights"`
	AutoMatchThreshold *float64        `mapstructure:"auto_match_threshold"`
	ReviewThreshold    *float64        `mapstructure:"review_threshold"`
	CandidateFloor     *float64        `mapstructure:"candidate_floor"`
	WindowDays         *int            `mapstructure:"window_days"`
	CandidateLimit     *int            `mapstructure:"candidate_limit"`
}

type fileConfig struct {
	Matching override            `mapstructure:"matching"`
	Venues   map[string]override `mapstructure:"venues"`
}

// Load reads path (YAML, TOML or JSON by extension) on top of base. An empty path
// only applies environment overrides. Every resulting configuration is validated.
func Load(path string, base valueobject.MatchingConfig) (*Provider, error) {
	v := viper.New()
	setDefaults(v, base)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read matching config: %w", err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("unable to decode matching config: %w", err)
	}

	defaults := fc.Matching.apply(base)
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	provider := NewStaticProvider(defaults)
	for key, venueOverride := range fc.Venues {
		venueID, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("invalid venue id %q in matching config: %w", key, err)
		}

		cfg := venueOverride.apply(defaults)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("venue %s: %w", venueID, err)
		}
		provider.venues[venueID] = cfg
	}

	return provider, nil
}

func setDefaults(v *viper.Viper, base valueobject.MatchingConfig) {
	v.SetDefault("matching.weights.amount", base.Weights.Amount)
	v.SetDefault("matching.weights.date", base.Weights.Date)
	v.SetDefault("matching.weights.description", base.Weights.Description)
	v.SetDefault("matching.weights.reference_bonus", base.Weights.ReferenceBonus)
	v.SetDefault("matching.auto_match_threshold", base.AutoMatchThreshold)
	v.SetDefault("matching.review_threshold", base.ReviewThreshold)
	v.SetDefault("matching.candidate_floor", base.CandidateFloor)
	v.SetDefault("matching.window_days", base.WindowDays)
	v.SetDefault("matching.candidate_limit", base.CandidateLimit)
}

func (o override) apply(cfg valueobject.MatchingConfig) valueobject.MatchingConfig {
	setFloat(&cfg.Weights.Amount, o.Weights.Amount)
	setFloat(&cfg.Weights.Date, o.Weights.Date)
	setFloat(&cfg.Weights.Description, o.Weights.Description)
	setFloat(&cfg.Weights.ReferenceBonus, o.Weights.ReferenceBonus)
	setFloat(&cfg.AutoMatchThreshold, o.AutoMatchThreshold)
	setFloat(&cfg.ReviewThreshold, o.ReviewThreshold)
	setFloat(&cfg.CandidateFloor, o.CandidateFloor)
	if o.WindowDays != nil {
		cfg.WindowDays = *o.WindowDays
	}
	if o.CandidateLimit != nil {
		cfg.CandidateLimit = *o.CandidateLimit
	}
	return cfg
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
