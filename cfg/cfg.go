package cfg

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Secret struct {
	value []byte
}

func NewSecret(s string) Secret {
	return Secret{value: []byte(s)}
}
func (s Secret) Value() string {
	return string(s.value)
}
func (s Secret) Wipe() {
	for i := range s.value {
		s.value[i] = 0
	}
}
func (s Secret) String() string {
	return "***REDACTED***"
}

type Cfg struct {
	Port        string
	Environment string
	LogLevel    string
	BaseURL     string

	StoreBackend     string // "redis" or "memory"
	AnalyticsBackend string // "redis" or "memory"
	RedisURL         string
	RedisTLS         bool
	RedisUsername    string
	RedisPassword    Secret
	RedisTimeout     time.Duration

	MaxContentSize int64
	MaxTitleLength int
	IDLength       int
	IDMaxAttempts  int

	DefaultExpiryKey string
	MinExpiry        time.Duration
	MaxExpiry        time.Duration

	StrictValidation bool
	PatternDetection bool
	ClientHashKey    Secret

	RateLimit      RateLimitCfg
	TrustedProxies []string
	MetricsUser    string
	MetricsPass    Secret
	ContextTimeout time.Duration
	AllowedOrigins []string
	PreviewLength  int
}

type RateLimitCfg struct {
	RPM               int
	Burst             int
	ConservativeLimit int
	ClientCacheSize   int
}

func Load() (*Cfg, error) {
	c := &Cfg{}
	c.Port = getEnv("PORT", "8080")
	c.Environment = getEnv("ENVIRONMENT", "development")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.BaseURL = getEnv("BASE_URL", "http://localhost:8080")
	c.StoreBackend = getEnv("STORE_BACKEND", "redis")
	c.AnalyticsBackend = getEnv("ANALYTICS_BACKEND", "memory")
	c.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	c.RedisTLS = getEnv("REDIS_TLS", "false") == "true"
	c.RedisUsername = getEnv("REDIS_USERNAME", "")
	c.RedisPassword = NewSecret(getEnv("REDIS_PASSWORD", ""))
	var err error
	c.RedisTimeout, err = getDuration("REDIS_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.MaxContentSize, err = getInt64("MAX_CONTENT_SIZE", 1024*1024)
	if err != nil {
		return nil, err
	}
	c.MaxTitleLength, err = getInt("MAX_TITLE_LENGTH", 200)
	if err != nil {
		return nil, err
	}
	c.IDLength, err = getInt("ID_LENGTH", 12)
	if err != nil {
		return nil, err
	}
	c.IDMaxAttempts, err = getInt("ID_MAX_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}
	c.DefaultExpiryKey = getEnv("DEFAULT_EXPIRY", "1d")
	c.MinExpiry, err = getDuration("MIN_EXPIRY", 60*time.Second)
	if err != nil {
		return nil, err
	}
	c.MaxExpiry, err = getDuration("MAX_EXPIRY", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	c.StrictValidation = getEnv("STRICT_VALIDATION", "true") == "true"
	c.PatternDetection = getEnv("PATTERN_DETECTION", "true") == "true"
	c.ClientHashKey = NewSecret(getEnv("CLIENT_HASH_KEY", ""))
	c.RateLimit.RPM, err = getInt("RATE_LIMIT_RPM", 60)
	if err != nil {
		return nil, err
	}
	c.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}
	c.RateLimit.ConservativeLimit, err = getInt("RATE_LIMIT_CONSERVATIVE", 5)
	if err != nil {
		return nil, err
	}
	c.RateLimit.ClientCacheSize, err = getInt("RATE_LIMIT_CLIENT_CACHE", 10000)
	if err != nil {
		return nil, err
	}
	c.TrustedProxies = getSlice("TRUSTED_PROXIES", []string{})
	c.MetricsUser = getEnv("METRICS_USER", "")
	c.MetricsPass = NewSecret(getEnv("METRICS_PASS", ""))
	c.ContextTimeout, err = getDuration("CONTEXT_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.AllowedOrigins = getSlice("ALLOWED_ORIGINS", []string{})
	c.PreviewLength, err = getInt("PREVIEW_LENGTH", 500)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func Validate(c *Cfg) error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be a number")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("BASE_URL must start with http:// or https://")
	}
	switch c.StoreBackend {
	case "redis", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be redis or memory, got %q", c.StoreBackend)
	}
	switch c.AnalyticsBackend {
	case "redis", "memory":
	default:
		return fmt.Errorf("ANALYTICS_BACKEND must be redis or memory, got %q", c.AnalyticsBackend)
	}
	if c.StoreBackend == "redis" || c.AnalyticsBackend == "redis" {
		if !strings.HasPrefix(c.RedisURL, "redis://") && !strings.HasPrefix(c.RedisURL, "rediss://") {
			return errors.New("REDIS_URL must start with redis:// or rediss://")
		}
		if strings.HasPrefix(c.RedisURL, "rediss://") && !c.RedisTLS {
			return errors.New("REDIS_URL uses rediss:// but REDIS_TLS=false")
		}
	}
	if c.MaxContentSize <= 0 {
		return errors.New("MAX_CONTENT_SIZE must be positive")
	}
	if c.MaxContentSize > 10*1024*1024 {
		return errors.New("MAX_CONTENT_SIZE cannot exceed 10MB")
	}
	if c.MaxTitleLength <= 0 {
		return errors.New("MAX_TITLE_LENGTH must be positive")
	}
	if c.IDLength < 8 || c.IDLength > 20 {
		return errors.New("ID_LENGTH must be between 8 and 20")
	}
	if c.IDMaxAttempts < 1 {
		return errors.New("ID_MAX_ATTEMPTS must be at least 1")
	}
	if c.MinExpiry < time.Second {
		return errors.New("MIN_EXPIRY must be at least 1s")
	}
	if c.MaxExpiry < c.MinExpiry {
		return errors.New("MAX_EXPIRY must be >= MIN_EXPIRY")
	}
	if c.RateLimit.RPM <= 0 {
		return errors.New("RATE_LIMIT_RPM must be positive")
	}
	if c.RateLimit.ClientCacheSize <= 0 {
		return errors.New("RATE_LIMIT_CLIENT_CACHE must be positive")
	}
	if c.PreviewLength <= 0 {
		return errors.New("PREVIEW_LENGTH must be positive")
	}
	for _, proxy := range c.TrustedProxies {
		if strings.Contains(proxy, "/") {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("invalid CIDR in TRUSTED_PROXIES: %s", proxy)
			}
		} else {
			if net.ParseIP(proxy) == nil {
				return fmt.Errorf("invalid IP in TRUSTED_PROXIES: %s", proxy)
			}
		}
	}
	if c.Environment == "production" {
		if c.MetricsUser == "" || c.MetricsPass.Value() == "" {
			return errors.New("METRICS_USER and METRICS_PASS are required in production")
		}
		if c.ClientHashKey.Value() == "" {
			return errors.New("CLIENT_HASH_KEY is required in production")
		}
		if c.StoreBackend == "memory" {
			return errors.New("STORE_BACKEND=memory is not allowed in production")
		}
	}
	if k := c.ClientHashKey.Value(); k != "" && len(k) < 16 {
		return errors.New("CLIENT_HASH_KEY must be at least 16 bytes")
	}
	return nil
}

func (c *Cfg) Wipe() {
	c.RedisPassword.Wipe()
	c.MetricsPass.Wipe()
	c.ClientHashKey.Wipe()
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
func getInt(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getInt64(key string, fallback int64) (int64, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
func getSlice(key string, fallback []string) []string {
	s := getEnv(key, "")
	if s == "" {
		return fallback
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
