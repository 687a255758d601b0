// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/rigrun-router/internal/route"
	"github.com/jeranaias/rigrun-router/internal/tier"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete router configuration snapshot.
type Config struct {
	Classifier ClassifierConfig `toml:"classifier" json:"classifier"`
	Tiers      TierConfig       `toml:"tiers" json:"tiers"`
	Chain      ChainConfig      `toml:"chain" json:"chain"`
	Telemetry  TelemetryConfig  `toml:"telemetry" json:"telemetry"`
}

// ClassifierConfig configures signal scoring and conflict resolution.
type ClassifierConfig struct {
	// CodeKeywords is the code-category keyword list.
	CodeKeywords []string `toml:"code_keywords" json:"code_keywords"`
	// RecordKeywords is the record-category keyword list.
	RecordKeywords []string `toml:"record_keywords" json:"record_keywords"`
	// ConflictMargin is the tie threshold between competing top signals.
	ConflictMargin float64 `toml:"conflict_margin" json:"conflict_margin"`
	// PreferCodeOnConflict selects code on kind-equal ties. Unset means true.
	PreferCodeOnConflict *bool `toml:"prefer_code_on_conflict" json:"prefer_code_on_conflict"`
}

// TierConfig configures the tier transition table.
type TierConfig struct {
	// EscalationTarget is where the single generic escalation for an
	// unknown tier lands.
	EscalationTarget string `toml:"escalation_target" json:"escalation_target"`
	// Known adds or overrides transition table rows: tier -> failure
	// category -> next tier. An empty next tier means terminal.
	Known map[string]map[string]string `toml:"known" json:"known"`
}

// ChainConfig configures the retry-chain driver.
type ChainConfig struct {
	// EntryTier is the tier every fresh request chain starts on.
	EntryTier string `toml:"entry_tier" json:"entry_tier"`
	// MaxAttempts bounds backend attempts per chain.
	MaxAttempts int `toml:"max_attempts" json:"max_attempts"`
	// RateLimitPerSec paces backend attempts. 0 disables pacing.
	RateLimitPerSec float64 `toml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
}

// TelemetryConfig configures the observability sink.
type TelemetryConfig struct {
	// Enabled turns event persistence on.
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath is the SQLite event database path (empty = default).
	DBPath string `toml:"db_path" json:"db_path"`
	// BufferSize is the async sink buffer (0 = default).
	BufferSize int `toml:"buffer_size" json:"buffer_size"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Classifier: ClassifierConfig{
			CodeKeywords:   route.DefaultCodeKeywords(),
			RecordKeywords: route.DefaultRecordKeywords(),
			ConflictMargin: route.DefaultConflictMargin,
		},
		Tiers: TierConfig{
			EscalationTarget: tier.TierPremium,
		},
		Chain: ChainConfig{
			EntryTier:   tier.TierStandard,
			MaxAttempts: 4,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from path (TOML or JSON by extension), applies
// defaults for unset fields, then environment overrides, then validates.
// An empty path tries the standard locations and falls back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// findConfigFile returns the first standard config path that exists.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"router.toml", "router.json"} {
		p := filepath.Join(home, ".rigrun", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variables over the file values.
// A malformed numeric value is ignored in favor of the configured one.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RIGRUN_ROUTER_CONFLICT_MARGIN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Classifier.ConflictMargin = f
		}
	}
	if v := os.Getenv("RIGRUN_ROUTER_PREFER_CODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Classifier.PreferCodeOnConflict = &b
		}
	}
	if v := os.Getenv("RIGRUN_ROUTER_ESCALATION_TARGET"); v != "" {
		cfg.Tiers.EscalationTarget = v
	}
	if v := os.Getenv("RIGRUN_ROUTER_ENTRY_TIER"); v != "" {
		cfg.Chain.EntryTier = v
	}
	if v := os.Getenv("RIGRUN_ROUTER_TELEMETRY_DB"); v != "" {
		cfg.Telemetry.DBPath = v
		cfg.Telemetry.Enabled = true
	}
}

// applyDefaults fills fields a partial config file left unset.
func applyDefaults(cfg *Config) {
	if len(cfg.Classifier.CodeKeywords) == 0 {
		cfg.Classifier.CodeKeywords = route.DefaultCodeKeywords()
	}
	if len(cfg.Classifier.RecordKeywords) == 0 {
		cfg.Classifier.RecordKeywords = route.DefaultRecordKeywords()
	}
	if cfg.Classifier.ConflictMargin == 0 {
		cfg.Classifier.ConflictMargin = route.DefaultConflictMargin
	}
	if cfg.Tiers.EscalationTarget == "" {
		cfg.Tiers.EscalationTarget = tier.TierPremium
	}
	if cfg.Chain.EntryTier == "" {
		cfg.Chain.EntryTier = tier.TierStandard
	}
	if cfg.Chain.MaxAttempts <= 0 {
		cfg.Chain.MaxAttempts = 4
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports configuration errors at load time. A valid snapshot never
// produces call-time errors.
func (c Config) Validate() error {
	if c.Classifier.ConflictMargin < 0 || c.Classifier.ConflictMargin > 1 {
		return fmt.Errorf("classifier.conflict_margin must be in [0,1], got %g", c.Classifier.ConflictMargin)
	}
	if len(c.Classifier.CodeKeywords) == 0 {
		return fmt.Errorf("classifier.code_keywords must not be empty")
	}
	if len(c.Classifier.RecordKeywords) == 0 {
		return fmt.Errorf("classifier.record_keywords must not be empty")
	}
	if strings.TrimSpace(c.Tiers.EscalationTarget) == "" {
		return fmt.Errorf("tiers.escalation_target must not be empty")
	}
	for tierName, row := range c.Tiers.Known {
		if strings.TrimSpace(tierName) == "" {
			return fmt.Errorf("tiers.known contains an empty tier name")
		}
		for category := range row {
			switch tier.FailureCategory(category) {
			case tier.CategoryContentDefect, tier.CategoryResourceExhaustion, tier.CategoryUnclassified:
			default:
				return fmt.Errorf("tiers.known.%s has unknown failure category %q", tierName, category)
			}
		}
	}
	if strings.TrimSpace(c.Chain.EntryTier) == "" {
		return fmt.Errorf("chain.entry_tier must not be empty")
	}
	if c.Chain.MaxAttempts < 1 {
		return fmt.Errorf("chain.max_attempts must be >= 1, got %d", c.Chain.MaxAttempts)
	}
	if c.Chain.RateLimitPerSec < 0 {
		return fmt.Errorf("chain.rate_limit_per_sec must be >= 0, got %g", c.Chain.RateLimitPerSec)
	}
	return nil
}

// =============================================================================
// COMPONENT OPTIONS
// =============================================================================

// RouteOptions maps the snapshot onto classifier options.
func (c Config) RouteOptions() route.Options {
	prefer := true
	if c.Classifier.PreferCodeOnConflict != nil {
		prefer = *c.Classifier.PreferCodeOnConflict
	}
	return route.Options{
		CodeKeywords:         c.Classifier.CodeKeywords,
		RecordKeywords:       c.Classifier.RecordKeywords,
		ConflictMargin:       c.Classifier.ConflictMargin,
		PreferCodeOnConflict: prefer,
	}
}

// TierOptions maps the snapshot onto tier router options. Configured rows
// overlay the canonical table; tier names are lower-cased for lookup.
func (c Config) TierOptions() tier.Options {
	table := tier.CanonicalTable()
	for name, row := range c.Tiers.Known {
		key := strings.ToLower(strings.TrimSpace(name))
		dst, ok := table[key]
		if !ok {
			dst = make(map[tier.FailureCategory]string, len(row))
			table[key] = dst
		}
		for category, next := range row {
			dst[tier.FailureCategory(category)] = strings.ToLower(strings.TrimSpace(next))
		}
	}
	return tier.Options{
		Table:            table,
		EscalationTarget: strings.ToLower(strings.TrimSpace(c.Tiers.EscalationTarget)),
	}
}
