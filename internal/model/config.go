package model

import (
	"errors"
	"fmt"
	"time"
)

// Config is the complete keywatch configuration
type Config struct {
	Matching     MatchingConfig     `mapstructure:"matching" yaml:"matching"`
	Scoring      ScoringConfig      `mapstructure:"scoring" yaml:"scoring"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Concurrency  ConcurrencyConfig  `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Sentiment    SentimentConfig    `mapstructure:"sentiment" yaml:"sentiment"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Output       OutputConfig       `mapstructure:"output" yaml:"output"`
}

// MatchingConfig controls rule compilation and the matching strategies
type MatchingConfig struct {
	UseRegex        bool                `mapstructure:"use_regex" yaml:"use_regex"`
	FuzzyMatching   bool                `mapstructure:"fuzzy_matching" yaml:"fuzzy_matching"`
	FuzzyThreshold  float64             `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	StemmingEnabled bool                `mapstructure:"stemming_enabled" yaml:"stemming_enabled"`
	Stemmer         string              `mapstructure:"stemmer" yaml:"stemmer"` // suffix, snowball
	RemoveStopWords bool                `mapstructure:"remove_stop_words" yaml:"remove_stop_words"`
	MinWordLength   int                 `mapstructure:"min_word_length" yaml:"min_word_length"`
	SynonymMatching bool                `mapstructure:"synonym_matching" yaml:"synonym_matching"`
	Synonyms        map[string][]string `mapstructure:"synonyms" yaml:"synonyms,omitempty"` // merged over the built-in table
	AudienceFilters bool                `mapstructure:"audience_filters" yaml:"audience_filters"`
}

// ScoringConfig holds the relevance score weights
type ScoringConfig struct {
	DensityWeight    float64 `mapstructure:"density_weight" yaml:"density_weight"`
	EngagementWeight float64 `mapstructure:"engagement_weight" yaml:"engagement_weight"`
	SentimentWeight  float64 `mapstructure:"sentiment_weight" yaml:"sentiment_weight"`
}

// CacheConfig controls the rule set cache and the page cache
type CacheConfig struct {
	RuleTTL time.Duration `mapstructure:"rule_ttl" yaml:"rule_ttl"`
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"` // page cache
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Dir     string        `mapstructure:"dir" yaml:"dir"`
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
	HTTPProxy     string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
}

// ConcurrencyConfig controls the worker pool
type ConcurrencyConfig struct {
	Workers   int `mapstructure:"workers" yaml:"workers"`
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// RateLimitingConfig controls per-domain fetch rate limits
type RateLimitingConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// SentimentConfig selects the sentiment analyzer used when metadata lacks a score
type SentimentConfig struct {
	Provider string        `mapstructure:"provider" yaml:"provider"` // lexicon, openai, ollama, none
	Model    string        `mapstructure:"model" yaml:"model,omitempty"`
	APIKey   string        `mapstructure:"api_key" yaml:"-"`
	BaseURL  string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level       string   `mapstructure:"level" yaml:"level"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// OutputConfig controls report output
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	Format      string `mapstructure:"format" yaml:"format"` // json, markdown, both
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
}

// Stemmer names
const (
	StemmerSuffix   = "suffix"
	StemmerSnowball = "snowball"
)

// Sentiment provider names
const (
	SentimentProviderNone    = "none"
	SentimentProviderLexicon = "lexicon"
	SentimentProviderOpenAI  = "openai"
	SentimentProviderOllama  = "ollama"
)

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Matching: MatchingConfig{
			UseRegex:        true,
			FuzzyMatching:   false,
			FuzzyThreshold:  0.8,
			StemmingEnabled: false,
			Stemmer:         StemmerSuffix,
			RemoveStopWords: false,
			MinWordLength:   2,
			SynonymMatching: true,
			AudienceFilters: false,
		},
		Scoring: ScoringConfig{
			DensityWeight:    0.3,
			EngagementWeight: 0.4,
			SentimentWeight:  0.3,
		},
		Cache: CacheConfig{
			RuleTTL: time.Hour,
			Enabled: true,
			TTL:     24 * time.Hour,
			Dir:     ".keywatch-cache",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "keywatch/0.1 (+https://github.com/ppiankov/keywatch)",
			MaxBodyBytes:  10 * 1024 * 1024,
			RespectRobots: true,
		},
		Concurrency: ConcurrencyConfig{
			Workers:   4,
			QueueSize: 100,
		},
		RateLimiting: RateLimitingConfig{
			Enabled:           true,
			RequestsPerSecond: 2.0,
			Burst:             5,
		},
		Sentiment: SentimentConfig{
			Provider: SentimentProviderLexicon,
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:       "info",
			OutputPaths: []string{"stderr"},
		},
		Output: OutputConfig{
			Dir:    "./keywatch-reports",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values the engine cannot work with
func (c Config) Validate() error {
	var errs []error

	m := c.Matching
	if m.FuzzyThreshold <= 0 || m.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("matching.fuzzy_threshold must be in (0,1], got %v", m.FuzzyThreshold))
	}
	if m.MinWordLength < 1 {
		errs = append(errs, fmt.Errorf("matching.min_word_length must be >= 1, got %d", m.MinWordLength))
	}
	switch m.Stemmer {
	case "", StemmerSuffix, StemmerSnowball:
	default:
		errs = append(errs, fmt.Errorf("matching.stemmer: unknown stemmer %q", m.Stemmer))
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"density_weight", c.Scoring.DensityWeight},
		{"engagement_weight", c.Scoring.EngagementWeight},
		{"sentiment_weight", c.Scoring.SentimentWeight},
	}
	for _, w := range weights {
		if w.value < 0 || w.value > 1 {
			errs = append(errs, fmt.Errorf("scoring.%s must be in [0,1], got %v", w.name, w.value))
		}
	}

	if c.Cache.RuleTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.rule_ttl must be positive, got %s", c.Cache.RuleTTL))
	}
	if c.Concurrency.Workers < 1 {
		errs = append(errs, fmt.Errorf("concurrency.workers must be >= 1, got %d", c.Concurrency.Workers))
	}

	switch c.Sentiment.Provider {
	case "", SentimentProviderNone, SentimentProviderLexicon, SentimentProviderOpenAI, SentimentProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("sentiment.provider: unknown provider %q", c.Sentiment.Provider))
	}

	switch c.Output.Format {
	case "", "json", "markdown", "both":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}

	return errors.Join(errs...)
}
