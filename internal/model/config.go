package model

import "time"

// Config is the full runtime configuration. Populated from defaults, then
// the config file, then MARQUEE_* environment variables, then flags.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Compliance ComplianceConfig `yaml:"compliance"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Browser    BrowserConfig    `yaml:"browser"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Output     OutputConfig     `yaml:"output"`
}

// HTTPConfig shapes every plain HTTP fetch the pipeline makes.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy"`
}

// CacheConfig controls the fetched-page cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	TTL     time.Duration `yaml:"ttl"`
}

// ComplianceConfig controls the crawl-policy gate.
type ComplianceConfig struct {
	PolicyTTL time.Duration `yaml:"policy_ttl"`
}

// RateLimitConfig controls per-host politeness pacing.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
	JitterFraction    float64 `yaml:"jitter_fraction"`
}

// BrowserConfig controls the scriptable browser sessions some sources need.
type BrowserConfig struct {
	Headless       bool          `yaml:"headless"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`
	ChallengeLLM   string        `yaml:"challenge_llm"` // openai model name, empty = heuristic only
	ChallengeKey   string        `yaml:"-"`             // from OPENAI_API_KEY, never persisted
	BlockResources bool          `yaml:"block_resources"`
}

// DedupConfig exposes the empirically-chosen merge constants as tunables.
type DedupConfig struct {
	TitleWeight    float64 `yaml:"title_weight"`
	VenueWeight    float64 `yaml:"venue_weight"`
	DateWeight     float64 `yaml:"date_weight"`
	MergeThreshold float64 `yaml:"merge_threshold"`
}

// OutputConfig controls CLI-facing output.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Marquee/0.1 (+https://github.com/ozevents/marquee)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "",
			TTL:     1 * time.Hour,
		},
		Compliance: ComplianceConfig{
			PolicyTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         2,
			JitterFraction:    0.4,
		},
		Browser: BrowserConfig{
			Headless:       true,
			NavTimeout:     45 * time.Second,
			BlockResources: true,
		},
		Dedup: DedupConfig{
			TitleWeight:    0.50,
			VenueWeight:    0.30,
			DateWeight:     0.20,
			MergeThreshold: 0.80,
		},
		Output: OutputConfig{
			Path: "catalog.json",
		},
	}
}
