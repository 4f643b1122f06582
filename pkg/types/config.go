package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout (default 15s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RateLimitConfig bounds calls to the citation-graph API. Both budgets are
// enforced together: a call is admitted only when neither window is full.
type RateLimitConfig struct {
	// PerSecond is the maximum citation-graph calls per second (default 2).
	PerSecond int `json:"per_second" yaml:"per_second"`

	// PerWindow is the maximum calls within Window (default 200).
	PerWindow int `json:"per_window" yaml:"per_window"`

	// Window is the long sliding window duration (default 5m).
	Window time.Duration `json:"window" yaml:"window"`
}

// RetryConfig parameterizes exponential backoff for network operations.
// The same policy applies to existence probes, bundle downloads, and
// citation-graph calls.
type RetryConfig struct {
	// MaxAttempts is the total number of tries including the first
	// (default 4).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BaseDelay is the delay before the first retry (default 500ms).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// Multiplier scales the delay after each attempt (default 2.0).
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`

	// Jitter is the maximum random addition to each delay, as a fraction
	// of the computed delay (default 0.2).
	Jitter float64 `json:"jitter" yaml:"jitter"`
}

// HarvestConfig holds settings for the harvest pipeline.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Workers is the paper-level worker pool size (default 12).
	Workers int `json:"workers" yaml:"workers"`

	// DownloadWorkers bounds concurrent version downloads per paper
	// (default 4).
	DownloadWorkers int `json:"download_workers" yaml:"download_workers"`

	// ProbeConcurrency bounds concurrent version existence probes per
	// paper (default 6).
	ProbeConcurrency int `json:"probe_concurrency" yaml:"probe_concurrency"`

	// MaxVersion caps version discovery (default 8).
	MaxVersion int `json:"max_version" yaml:"max_version"`

	// RateLimit bounds citation-graph calls across all workers.
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// Retry applies to probes, downloads, and citation-graph calls alike.
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// OutputDir is the base directory for the per-paper dataset.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// SkipComplete skips papers the catalog already records as complete.
	SkipComplete bool `json:"skip_complete" yaml:"skip_complete"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// Defaults used when HarvestConfig fields are zero.
const (
	DefaultWorkers          = 12
	DefaultDownloadWorkers  = 4
	DefaultProbeConcurrency = 6
	DefaultMaxVersion       = 8
	DefaultTimeout          = 15 * time.Second
	DefaultPerSecond        = 2
	DefaultPerWindow        = 200
	DefaultWindow           = 5 * time.Minute
	DefaultMaxAttempts      = 4
	DefaultBaseDelay        = 500 * time.Millisecond
	DefaultMultiplier       = 2.0
	DefaultJitter           = 0.2
)

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c HarvestConfig) WithDefaults() HarvestConfig {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.DownloadWorkers <= 0 {
		c.DownloadWorkers = DefaultDownloadWorkers
	}
	if c.ProbeConcurrency <= 0 {
		c.ProbeConcurrency = DefaultProbeConcurrency
	}
	if c.MaxVersion <= 0 {
		c.MaxVersion = DefaultMaxVersion
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit.PerSecond <= 0 {
		c.RateLimit.PerSecond = DefaultPerSecond
	}
	if c.RateLimit.PerWindow <= 0 {
		c.RateLimit.PerWindow = DefaultPerWindow
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = DefaultWindow
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = DefaultBaseDelay
	}
	if c.Retry.Multiplier <= 0 {
		c.Retry.Multiplier = DefaultMultiplier
	}
	if c.Retry.Jitter < 0 {
		c.Retry.Jitter = 0
	}
	return c
}
