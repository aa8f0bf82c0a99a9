package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rohmanhakim/robots-policy/pkg/robotstxt"
)

type Config struct {
	//===============
	// Identity
	//===============
	// The product token matched against robots.txt groups ("robots-policy").
	// Must satisfy the user-agent syntax crawlers are expected to obey.
	userAgent string
	// The full User-Agent header sent with robots.txt requests. Free-form.
	httpUserAgent string

	//===============
	// Politeness
	//===============
	// Minimum, fixed waiting time enforced between two requests to the same host.
	baseDelay time.Duration
	// Randomized variation added on top of the resolved delay.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Maximum attempts when retrying a failed robots.txt fetch
	maxAttempt int
	// Initial delay for backoff
	backoffInitialDuration time.Duration
	// Multiplier during exponential backoff
	backoffMultiplier float64
	// Capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single robots.txt request
	timeout time.Duration

	//===============
	// Cache
	//===============
	// Maximum number of per-host policies held in memory
	cacheCapacity int
	// How long a cached policy stays fresh; zero disables expiry
	cacheTTL time.Duration

	//===============
	// Observability
	//===============
	// Where the JSONL metadata log is written; empty disables it
	metadataLogPath string
	// Rotation knobs for the metadata log
	logMaxSizeMB  int
	logMaxBackups int
	logMaxAgeDays int
}

// configDTO is the on-disk representation. Durations are nanoseconds, the
// way time.Duration serializes.
type configDTO struct {
	UserAgent              string        `json:"userAgent,omitempty" toml:"user_agent"`
	HTTPUserAgent          string        `json:"httpUserAgent,omitempty" toml:"http_user_agent"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty" toml:"base_delay"`
	Jitter                 time.Duration `json:"jitter,omitempty" toml:"jitter"`
	RandomSeed             int64         `json:"randomSeed,omitempty" toml:"random_seed"`
	MaxAttempt             int           `json:"maxAttempt,omitempty" toml:"max_attempt"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty" toml:"backoff_initial_duration"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty" toml:"backoff_multiplier"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty" toml:"backoff_max_duration"`
	Timeout                time.Duration `json:"timeout,omitempty" toml:"timeout"`
	CacheCapacity          int           `json:"cacheCapacity,omitempty" toml:"cache_capacity"`
	CacheTTL               time.Duration `json:"cacheTTL,omitempty" toml:"cache_ttl"`
	MetadataLogPath        string        `json:"metadataLogPath,omitempty" toml:"metadata_log_path"`
	LogMaxSizeMB           int           `json:"logMaxSizeMB,omitempty" toml:"log_max_size_mb"`
	LogMaxBackups          int           `json:"logMaxBackups,omitempty" toml:"log_max_backups"`
	LogMaxAgeDays          int           `json:"logMaxAgeDays,omitempty" toml:"log_max_age_days"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := *WithDefault()

	// Only override when a non-zero value is provided
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.HTTPUserAgent != "" {
		cfg.httpUserAgent = dto.HTTPUserAgent
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.CacheCapacity != 0 {
		cfg.cacheCapacity = dto.CacheCapacity
	}
	if dto.CacheTTL != 0 {
		cfg.cacheTTL = dto.CacheTTL
	}
	if dto.MetadataLogPath != "" {
		cfg.metadataLogPath = dto.MetadataLogPath
	}
	if dto.LogMaxSizeMB != 0 {
		cfg.logMaxSizeMB = dto.LogMaxSizeMB
	}
	if dto.LogMaxBackups != 0 {
		cfg.logMaxBackups = dto.LogMaxBackups
	}
	if dto.LogMaxAgeDays != 0 {
		cfg.logMaxAgeDays = dto.LogMaxAgeDays
	}

	return cfg.Build()
}

// WithConfigFile loads a config from a .json or .toml file, applying the
// file's values over the defaults.
func WithConfigFile(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	cfgDTO := configDTO{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(configContent, &cfgDTO)
	default:
		err = json.Unmarshal(configContent, &cfgDTO)
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with default values for all fields.
func WithDefault() *Config {
	defaultConfig := Config{
		userAgent:              "robots-policy",
		httpUserAgent:          "robots-policy/1.0",
		baseDelay:              time.Second,
		jitter:                 500 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		timeout:                10 * time.Second,
		cacheCapacity:          1024,
		cacheTTL:               time.Hour,
		metadataLogPath:        "",
		logMaxSizeMB:           10,
		logMaxBackups:          3,
		logMaxAgeDays:          7,
	}
	return &defaultConfig
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithHTTPUserAgent(agent string) *Config {
	c.httpUserAgent = agent
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithCacheCapacity(capacity int) *Config {
	c.cacheCapacity = capacity
	return c
}

func (c *Config) WithCacheTTL(ttl time.Duration) *Config {
	c.cacheTTL = ttl
	return c
}

func (c *Config) WithMetadataLogPath(path string) *Config {
	c.metadataLogPath = path
	return c
}

func (c *Config) Build() (Config, error) {
	if !robotstxt.IsValidUserAgentToObey(c.userAgent) {
		return Config{}, fmt.Errorf("%w: userAgent %q is not a valid agent token (only [A-Za-z_-] allowed)",
			ErrInvalidConfig, c.userAgent)
	}
	if c.httpUserAgent == "" {
		return Config{}, fmt.Errorf("%w: httpUserAgent cannot be empty", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1", ErrInvalidConfig)
	}
	if c.timeout <= 0 {
		return Config{}, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if c.cacheCapacity < 0 {
		return Config{}, fmt.Errorf("%w: cacheCapacity cannot be negative", ErrInvalidConfig)
	}
	return *c, nil
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) HTTPUserAgent() string {
	return c.httpUserAgent
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) CacheCapacity() int {
	return c.cacheCapacity
}

func (c Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

func (c Config) MetadataLogPath() string {
	return c.metadataLogPath
}

func (c Config) LogMaxSizeMB() int {
	return c.logMaxSizeMB
}

func (c Config) LogMaxBackups() int {
	return c.logMaxBackups
}

func (c Config) LogMaxAgeDays() int {
	return c.logMaxAgeDays
}
