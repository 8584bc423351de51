// Package config defines typed, clampable configuration structs for every
// tunable in the memory subsystem, plus an optional YAML override file
// loader. Every struct follows the same pattern: sane defaults from a
// Default* constructor, a Clamp method that bounds values loaded from
// disk into a safe range, and plain fields so callers never guess a key
// name.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HybridWeights holds the per-signal weights Hybrid Search's Reciprocal
// Rank Fusion blends, plus the RRF rank-offset constant k.
type HybridWeights struct {
	Lexical    float64 `yaml:"lexical"`
	Vector     float64 `yaml:"vector"`
	Graph      float64 `yaml:"graph"`
	Provenance float64 `yaml:"provenance"`
	K          int     `yaml:"k"`
}

// DefaultHybridWeights returns the spec's default weighting: lexical 0.30,
// vector 0.40, graph 0.20, provenance 0.10, k=60.
func DefaultHybridWeights() HybridWeights {
	return HybridWeights{Lexical: 0.30, Vector: 0.40, Graph: 0.20, Provenance: 0.10, K: 60}
}

// Clamp bounds every weight to [0,1] and k to a positive int, then
// renormalizes weights to sum to 1 if they don't already.
func (w HybridWeights) Clamp() HybridWeights {
	clampUnit := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	w.Lexical = clampUnit(w.Lexical)
	w.Vector = clampUnit(w.Vector)
	w.Graph = clampUnit(w.Graph)
	w.Provenance = clampUnit(w.Provenance)
	if w.K <= 0 {
		w.K = 60
	}
	sum := w.Lexical + w.Vector + w.Graph + w.Provenance
	if sum > 0 {
		w.Lexical /= sum
		w.Vector /= sum
		w.Graph /= sum
		w.Provenance /= sum
	}
	return w
}

// AnveshanaConfig tunes Multi-Round Retrieval's decomposition, fusion, and
// termination behaviour.
type AnveshanaConfig struct {
	MaxSubQueries         int     `yaml:"max_sub_queries"`
	MultiQueryBoost       float64 `yaml:"multi_query_boost"`
	MaxResults            int     `yaml:"max_results"`
	ImprovementThreshold  float64 `yaml:"improvement_threshold"`
	FollowUpWeight        float64 `yaml:"follow_up_weight"`
	ComplexityWordCount   int     `yaml:"complexity_word_count"`
	KeyTermMinLength      int     `yaml:"key_term_min_length"`
	MaxRounds             int     `yaml:"max_rounds"`
}

// DefaultAnveshanaConfig returns the spec's defaults: up to 4 sub-queries,
// a 1.3x multi-query boost, 15 max results, 0.05 improvement threshold,
// 0.6 follow-up weight, complexity gate at >8 words, key terms >=3 chars.
func DefaultAnveshanaConfig() AnveshanaConfig {
	return AnveshanaConfig{
		MaxSubQueries:        4,
		MultiQueryBoost:      1.3,
		MaxResults:           15,
		ImprovementThreshold: 0.05,
		FollowUpWeight:       0.6,
		ComplexityWordCount:  8,
		KeyTermMinLength:     3,
		MaxRounds:            4,
	}
}

// Clamp bounds every field to a sane, non-degenerate range.
func (c AnveshanaConfig) Clamp() AnveshanaConfig {
	if c.MaxSubQueries < 1 {
		c.MaxSubQueries = 1
	}
	if c.MultiQueryBoost < 1.0 {
		c.MultiQueryBoost = 1.0
	}
	if c.MaxResults < 1 {
		c.MaxResults = 15
	}
	if c.ImprovementThreshold < 0 {
		c.ImprovementThreshold = 0
	}
	if c.FollowUpWeight < 0 {
		c.FollowUpWeight = 0
	}
	if c.FollowUpWeight > 1 {
		c.FollowUpWeight = 1
	}
	if c.ComplexityWordCount < 1 {
		c.ComplexityWordCount = 8
	}
	if c.KeyTermMinLength < 1 {
		c.KeyTermMinLength = 3
	}
	if c.MaxRounds < 1 {
		c.MaxRounds = 4
	}
	return c
}

// VasanaConfig tunes the behavioural-tendency crystallisation and decay
// engine.
type VasanaConfig struct {
	PruneThreshold     float64 `yaml:"prune_threshold"`
	DefaultHalfLifeDays float64 `yaml:"default_half_life_days"`
	PromotionThreshold float64 `yaml:"promotion_threshold"`
	ChangePointAlpha   float64 `yaml:"change_point_alpha"`
}

// DefaultVasanaConfig returns the spec's default: 0.1 prune threshold.
func DefaultVasanaConfig() VasanaConfig {
	return VasanaConfig{
		PruneThreshold:      0.1,
		DefaultHalfLifeDays: 14,
		PromotionThreshold:  0.7,
		ChangePointAlpha:    0.1,
	}
}

// Clamp bounds the prune threshold and change-point alpha to (0,1), the
// promotion threshold to (0,1], and half-life to a positive value.
func (c VasanaConfig) Clamp() VasanaConfig {
	if c.PruneThreshold <= 0 || c.PruneThreshold >= 1 {
		c.PruneThreshold = 0.1
	}
	if c.DefaultHalfLifeDays <= 0 {
		c.DefaultHalfLifeDays = 14
	}
	if c.PromotionThreshold <= 0 || c.PromotionThreshold > 1 {
		c.PromotionThreshold = 0.7
	}
	if c.ChangePointAlpha <= 0 || c.ChangePointAlpha >= 1 {
		c.ChangePointAlpha = 0.1
	}
	return c
}

// NavaRasaConfig tunes the nine-dimensional affective simplex's EWMA update
// and softmax projection.
type NavaRasaConfig struct {
	Alpha       float64 `yaml:"alpha"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultNavaRasaConfig returns alpha=0.2, temperature=1.0.
func DefaultNavaRasaConfig() NavaRasaConfig {
	return NavaRasaConfig{Alpha: 0.2, Temperature: 1.0}
}

// Clamp bounds alpha to (0,1] and temperature to a positive value.
func (c NavaRasaConfig) Clamp() NavaRasaConfig {
	if c.Alpha <= 0 || c.Alpha > 1 {
		c.Alpha = 0.2
	}
	if c.Temperature <= 0 {
		c.Temperature = 1.0
	}
	return c
}

// NidraConfig tunes the sleep-cycle state machine's idle/dream/deep-sleep
// durations.
type NidraConfig struct {
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	DreamDuration    time.Duration `yaml:"dream_duration"`
	DeepSleepDuration time.Duration `yaml:"deep_sleep_duration"`
}

// DefaultNidraConfig returns a 15-minute idle timeout, 2-minute dream
// window, and 10-minute deep-sleep window.
func DefaultNidraConfig() NidraConfig {
	return NidraConfig{
		IdleTimeout:       15 * time.Minute,
		DreamDuration:      2 * time.Minute,
		DeepSleepDuration: 10 * time.Minute,
	}
}

// Clamp bounds every duration to a positive value.
func (c NidraConfig) Clamp() NidraConfig {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 15 * time.Minute
	}
	if c.DreamDuration <= 0 {
		c.DreamDuration = 2 * time.Minute
	}
	if c.DeepSleepDuration <= 0 {
		c.DeepSleepDuration = 10 * time.Minute
	}
	return c
}

// Config aggregates every component's tunables plus the maximum markdown
// memory-file size and checkpoint retention count.
type Config struct {
	Hybrid          HybridWeights   `yaml:"hybrid"`
	Anveshana       AnveshanaConfig `yaml:"anveshana"`
	Vasana          VasanaConfig    `yaml:"vasana"`
	NavaRasa        NavaRasaConfig  `yaml:"nava_rasa"`
	Nidra           NidraConfig     `yaml:"nidra"`
	MaxMemorySizeBytes int          `yaml:"max_memory_size_bytes"`
	MaxCheckpoints     int          `yaml:"max_checkpoints"`
}

// Default returns the aggregate default configuration.
func Default() Config {
	return Config{
		Hybrid:             DefaultHybridWeights(),
		Anveshana:          DefaultAnveshanaConfig(),
		Vasana:             DefaultVasanaConfig(),
		NavaRasa:           DefaultNavaRasaConfig(),
		Nidra:              DefaultNidraConfig(),
		MaxMemorySizeBytes: 500 * 1024,
		MaxCheckpoints:     10,
	}
}

// Clamp applies every sub-config's Clamp and bounds the remaining fields.
func (c Config) Clamp() Config {
	c.Hybrid = c.Hybrid.Clamp()
	c.Anveshana = c.Anveshana.Clamp()
	c.Vasana = c.Vasana.Clamp()
	c.NavaRasa = c.NavaRasa.Clamp()
	c.Nidra = c.Nidra.Clamp()
	if c.MaxMemorySizeBytes <= 0 {
		c.MaxMemorySizeBytes = 500 * 1024
	}
	if c.MaxCheckpoints <= 0 {
		c.MaxCheckpoints = 10
	}
	return c
}

// Load reads an optional YAML override file at path, merges it over
// Default(), and clamps the result. A missing file is not an error: Load
// simply returns the clamped default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg.Clamp(), nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg.Clamp(), nil
}
