package analytics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/viralburst/pastebin/svc/util"
)

// Counter keys live under stats:, a separate namespace from paste records.
const statsPrefix = "stats:"

// Redis persists counters on the same backend as the pastes. Increments are
// swallowed on failure (tracking is best-effort by contract); only GetStats
// surfaces errors, since its caller is an explicit stats endpoint.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedis(client *redis.Client, timeout time.Duration) *Redis {
	return &Redis{client: client, timeout: timeout}
}

func (r *Redis) TrackCreated(ctx context.Context, language string, size int64, _ string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	pipe := r.client.Pipeline()
	pipe.Incr(ctx, statsPrefix+"created")
	pipe.IncrBy(ctx, statsPrefix+"bytes", size)
	pipe.HIncrBy(ctx, statsPrefix+"language", language, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		util.Warn().Err(err).Msg("failed to track paste creation")
	}
}

func (r *Redis) TrackViewed(ctx context.Context, pasteID, _ string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Incr(ctx, statsPrefix+"viewed").Err(); err != nil {
		util.Warn().Err(err).Str("id", pasteID).Msg("failed to track paste view")
	}
}

func (r *Redis) TrackError(ctx context.Context, kind, _ string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	pipe := r.client.Pipeline()
	pipe.Incr(ctx, statsPrefix+"errors")
	pipe.HIncrBy(ctx, statsPrefix+"error_kind", strings.ToLower(kind), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		util.Warn().Err(err).Str("kind", kind).Msg("failed to track error")
	}
}

func (r *Redis) GetStats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	pipe := r.client.Pipeline()
	created := pipe.Get(ctx, statsPrefix+"created")
	viewed := pipe.Get(ctx, statsPrefix+"viewed")
	errCount := pipe.Get(ctx, statsPrefix+"errors")
	bytes := pipe.Get(ctx, statsPrefix+"bytes")
	byLang := pipe.HGetAll(ctx, statsPrefix+"language")
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, errors.Wrap(err, "fetch stats")
	}
	stats := &Stats{ByLanguage: make(map[string]int64)}
	stats.Created, _ = created.Int64()
	stats.Viewed, _ = viewed.Int64()
	stats.Errors, _ = errCount.Int64()
	stats.TotalBytes, _ = bytes.Int64()
	for lang, count := range byLang.Val() {
		if v, err := strconv.ParseInt(count, 10, 64); err == nil {
			stats.ByLanguage[lang] = v
		}
	}
	return stats, nil
}
