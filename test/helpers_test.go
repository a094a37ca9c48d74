package test

import (
	"testing"
	"time"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/id"
	"github.com/viralburst/pastebin/svc/store"
	"github.com/viralburst/pastebin/svc/svc"
	"github.com/viralburst/pastebin/svc/validate"
)

func createTestConfig() *cfg.Cfg {
	return &cfg.Cfg{
		Port:             "0",
		Environment:      "test",
		LogLevel:         "error",
		BaseURL:          "http://localhost:8080",
		StoreBackend:     "memory",
		AnalyticsBackend: "memory",
		MaxContentSize:   1024 * 1024,
		MaxTitleLength:   200,
		IDLength:         12,
		IDMaxAttempts:    10,
		DefaultExpiryKey: "1d",
		MinExpiry:        time.Minute,
		MaxExpiry:        30 * 24 * time.Hour,
		StrictValidation: true,
		PatternDetection: true,
		ContextTimeout:   30 * time.Second,
		PreviewLength:    500,
		RateLimit: cfg.RateLimitCfg{
			RPM:               100000,
			Burst:             10000,
			ConservativeLimit: 50000,
			ClientCacheSize:   1000,
		},
	}
}

type stack struct {
	cfg       *cfg.Cfg
	store     *store.Memory
	tracker   *analytics.Memory
	creator   *svc.Creator
	retriever *svc.Retriever
}

func createTestStack(t *testing.T) *stack {
	t.Helper()
	c := createTestConfig()
	st := store.NewMemory(id.NewGenerator(c.IDLength, c.IDMaxAttempts))
	tracker := analytics.NewMemory()
	v := validate.New(c.MaxContentSize, c.MaxTitleLength, c.MinExpiry, c.MaxExpiry, c.StrictValidation, c.PatternDetection)
	return &stack{
		cfg:       c,
		store:     st,
		tracker:   tracker,
		creator:   svc.NewCreator(st, v, tracker, c),
		retriever: svc.NewRetriever(st, tracker, c.PreviewLength),
	}
}
