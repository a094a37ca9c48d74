package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/api"
	"github.com/viralburst/pastebin/svc/id"
	"github.com/viralburst/pastebin/svc/lim"
	"github.com/viralburst/pastebin/svc/store"
	"github.com/viralburst/pastebin/svc/svc"
	"github.com/viralburst/pastebin/svc/util"
	"github.com/viralburst/pastebin/svc/validate"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		util.InitLog("error", false)
		util.Fatal().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	if err := cfg.Validate(c); err != nil {
		util.InitLog("error", false)
		util.Fatal().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	defer c.Wipe()
	util.InitLog(c.LogLevel, c.Environment == "development")
	util.Info().Str("environment", c.Environment).Msg("starting pastebin API")

	gen := id.NewGenerator(c.IDLength, c.IDMaxAttempts)

	var st store.Store
	var redisStore *store.Redis
	switch c.StoreBackend {
	case "redis":
		redisStore, err = store.NewRedis(c, gen)
		if err != nil {
			util.Fatal().Err(err).Msg("failed to connect to redis")
			os.Exit(1)
		}
		st = redisStore
		util.Info().Msg("redis store initialized")
	case "memory":
		st = store.NewMemory(gen)
		util.Warn().Msg("using in-memory store; pastes will not survive restarts")
	}
	defer st.Close()

	var tracker analytics.Tracker
	switch c.AnalyticsBackend {
	case "redis":
		if redisStore == nil {
			util.Fatal().Msg("ANALYTICS_BACKEND=redis requires STORE_BACKEND=redis")
			os.Exit(1)
		}
		tracker = analytics.NewRedis(redisStore.Client(), c.RedisTimeout)
		util.Info().Msg("redis analytics initialized")
	case "memory":
		tracker = analytics.NewMemory()
	}

	validator := validate.New(
		c.MaxContentSize, c.MaxTitleLength,
		c.MinExpiry, c.MaxExpiry,
		c.StrictValidation, c.PatternDetection,
	)
	creator := svc.NewCreator(st, validator, tracker, c)
	retriever := svc.NewRetriever(st, tracker, c.PreviewLength)

	limiter := lim.New(
		c.RateLimit.RPM, c.RateLimit.Burst,
		c.RateLimit.ConservativeLimit, c.RateLimit.ClientCacheSize,
		c.TrustedProxies,
	)
	defer limiter.Stop()
	util.Info().
		Int("rpm", c.RateLimit.RPM).
		Int("burst", c.RateLimit.Burst).
		Strs("trusted_proxies", c.TrustedProxies).
		Msg("rate limiter initialized")

	server := api.NewServer(c, creator, retriever, tracker, limiter, st)

	go func() {
		if err := server.Start(); err != nil {
			util.Fatal().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	util.Info().Msg("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		util.Error().Err(err).Msg("server shutdown error")
	}
	util.Info().Msg("shutdown complete")
}
