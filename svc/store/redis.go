package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/metrics"
	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/id"
	"github.com/viralburst/pastebin/svc/util"
)

const keyPrefix = "paste:"

// Redis is the persistent Store variant. Values are the serialized Paste
// stored verbatim under paste:<id>; TTL is attached at write time and the
// lazy expiry check covers the gap until the backend sweep.
type Redis struct {
	client  *redis.Client
	gen     *id.Generator
	timeout time.Duration
	now     func() time.Time
}

func NewRedis(c *cfg.Cfg, gen *id.Generator) (*Redis, error) {
	opt, err := redis.ParseURL(c.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.PoolSize = 50
	opt.MinIdleConns = 10
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 8 * time.Millisecond
	opt.MaxRetryBackoff = 512 * time.Millisecond
	if c.RedisTLS {
		tlsConfig, err := buildRedisTLSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "build redis TLS config")
		}
		opt.TLSConfig = tlsConfig
	}
	if c.RedisUsername != "" {
		opt.Username = c.RedisUsername
	}
	if c.RedisPassword.Value() != "" {
		opt.Password = c.RedisPassword.Value()
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &Redis{
		client:  client,
		gen:     gen,
		timeout: c.RedisTimeout,
		now:     time.Now,
	}, nil
}

func buildRedisTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS13,
	}
	hostname := os.Getenv("REDIS_HOSTNAME")
	if hostname == "" {
		return nil, fmt.Errorf("REDIS_HOSTNAME must be set when REDIS_TLS=true")
	}
	tlsConfig.ServerName = hostname
	certPath := os.Getenv("REDIS_TLS_CA_CERT")
	if certPath != "" {
		caCert, err := os.ReadFile(certPath)
		if err != nil {
			return nil, fmt.Errorf("read redis CA cert: %w", err)
		}
		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("append redis CA cert to pool")
		}
		tlsConfig.RootCAs = certPool
	} else {
		systemPool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("load system cert pool: %w", err)
		}
		tlsConfig.RootCAs = systemPool
	}
	return tlsConfig, nil
}

func (r *Redis) Create(ctx context.Context, params domain.CreateParams) (*domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	paste, ttl, err := stamp(ctx, r.gen, r.Exists, params, r.now())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(paste)
	if err != nil {
		return nil, domain.NewStorageErr(domain.CodeCreateFailed, errors.Wrap(err, "marshal paste"))
	}
	if err := r.client.Set(ctx, keyPrefix+paste.ID, data, ttl).Err(); err != nil {
		return nil, domain.NewStorageErr(domain.CodeCreateFailed, errors.Wrap(err, "set paste"))
	}
	return paste, nil
}

func (r *Redis) Get(ctx context.Context, pasteID string) (*domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.fetch(ctx, pasteID)
}

func (r *Redis) fetch(ctx context.Context, pasteID string) (*domain.Paste, error) {
	data, err := r.client.Get(ctx, keyPrefix+pasteID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get paste")
	}
	var p domain.Paste
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal paste")
	}
	if p.Expired(r.now()) {
		// backend TTL hasn't swept yet; delete and report expired
		metrics.LazyExpiryDeletes.Inc()
		if err := r.client.Del(ctx, keyPrefix+pasteID).Err(); err != nil {
			util.Warn().Err(err).Str("id", pasteID).Msg("failed to delete lazily expired paste")
		}
		return nil, domain.ErrPasteExpired
	}
	return &p, nil
}

func (r *Redis) Consume(ctx context.Context, pasteID string) (*domain.Paste, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	p, err := r.fetch(ctx, pasteID)
	if err != nil || p == nil {
		return nil, err
	}
	if p.Consumed {
		return nil, nil
	}
	// read-then-delete: concurrent consumers can race here, both winning
	if err := r.client.Del(ctx, keyPrefix+pasteID).Err(); err != nil {
		return nil, domain.NewStorageErr(domain.CodeDeleteFailed, errors.Wrap(err, "delete consumed paste"))
	}
	p.Consumed = true
	return p, nil
}

func (r *Redis) Delete(ctx context.Context, pasteID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Del(ctx, keyPrefix+pasteID).Err(); err != nil {
		return domain.NewStorageErr(domain.CodeDeleteFailed, errors.Wrap(err, "delete paste"))
	}
	return nil
}

func (r *Redis) List(ctx context.Context, limit int, cursor string) ([]*domain.Paste, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if limit <= 0 {
		limit = 100
	}
	var scanCursor uint64
	if cursor != "" {
		v, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, "", domain.NewStorageErr(domain.CodeListFailed, errors.Wrap(err, "parse cursor"))
		}
		scanCursor = v
	}
	keys, next, err := r.client.Scan(ctx, scanCursor, keyPrefix+"*", int64(limit)).Result()
	if err != nil {
		return nil, "", domain.NewStorageErr(domain.CodeListFailed, errors.Wrap(err, "scan"))
	}
	pastes := make([]*domain.Paste, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			p, err := r.fetch(gctx, key[len(keyPrefix):])
			if err != nil && !errors.Is(err, domain.ErrPasteExpired) {
				return err
			}
			pastes[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", domain.NewStorageErr(domain.CodeListFailed, err)
	}
	out := pastes[:0]
	for _, p := range pastes {
		if p != nil {
			out = append(out, p)
		}
	}
	nextCursor := ""
	if next != 0 {
		nextCursor = strconv.FormatUint(next, 10)
	}
	return out, nextCursor, nil
}

func (r *Redis) Exists(ctx context.Context, pasteID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+pasteID).Result()
	if err != nil {
		return false, errors.Wrap(err, "exists")
	}
	return n > 0, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Client exposes the underlying connection for collaborators that share the
// backend under their own namespace (analytics counters).
func (r *Redis) Client() *redis.Client {
	return r.client
}
