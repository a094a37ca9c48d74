package lim

import (
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/viralburst/pastebin/svc/util"
)

// Limiter applies per-client token buckets. Entries live in a bounded LRU so
// a scan over many source addresses can't grow memory without limit; an
// evicted client simply starts from a full bucket again.
type Limiter struct {
	clients           *lru.Cache[string, *rate.Limiter]
	trustedProxies    []string
	detector          *AnomalyDetector
	adaptiveModeUntil int64
	conservativeLimit int
	burstLimit        int
	globalRPM         int
}

type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

func New(globalRPM, perIPBurst, conservativeLimit, clientCacheSize int, trustedProxies []string) *Limiter {
	clients, err := lru.New[string, *rate.Limiter](clientCacheSize)
	if err != nil {
		panic("invalid rate limiter cache size: " + err.Error())
	}
	l := &Limiter{
		clients:           clients,
		trustedProxies:    trustedProxies,
		conservativeLimit: conservativeLimit,
		burstLimit:        perIPBurst,
		globalRPM:         globalRPM,
	}
	l.detector = NewAnomalyDetector(l.TriggerAdaptiveMode)
	l.detector.Start()
	return l
}

func (l *Limiter) Stop() {
	l.detector.Stop()
}

// TriggerAdaptiveMode drops every client to the conservative limit for a
// minute after the anomaly detector fires.
func (l *Limiter) TriggerAdaptiveMode() {
	atomic.StoreInt64(&l.adaptiveModeUntil, time.Now().Add(60*time.Second).Unix())
	util.Warn().Msg("rate limiter entering conservative mode")
}

func (l *Limiter) isAdaptiveMode() bool {
	until := atomic.LoadInt64(&l.adaptiveModeUntil)
	return time.Now().Unix() < until
}

func (l *Limiter) RecordRequest() { l.detector.RecordRequest() }
func (l *Limiter) RecordError()   { l.detector.RecordError() }

// CheckLimit enforces the per-client budget for an endpoint class.
func (l *Limiter) CheckLimit(r *http.Request, endpoint string) RateLimitResult {
	clientIP := GetRealIP(r, l.trustedProxies)
	rpm := l.globalRPM
	if l.isAdaptiveMode() {
		rpm = l.conservativeLimit
	}
	key := endpoint + ":" + clientIP
	want := rate.Limit(float64(rpm) / 60.0)
	limiter, ok := l.clients.Get(key)
	if !ok {
		limiter = rate.NewLimiter(want, l.burstLimit)
		l.clients.Add(key, limiter)
	} else if limiter.Limit() != want {
		// cached buckets must follow mode flips, not their creation-time rate
		limiter.SetLimit(want)
	}
	allowed := limiter.Allow()
	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   allowed,
		Limit:     rpm,
		Remaining: remaining,
		Reset:     time.Now().Add(time.Minute),
	}
}

// GetRealIP trusts X-Forwarded-For only when the peer is a trusted proxy.
func GetRealIP(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}
	if !isTrustedProxy(remoteIP, trustedProxies) {
		return remoteIP
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		candidate := strings.TrimSpace(parts[0])
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		if net.ParseIP(xrip) != nil {
			return xrip
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trusted []string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, t := range trusted {
		if strings.Contains(t, "/") {
			_, cidr, err := net.ParseCIDR(t)
			if err == nil && cidr.Contains(parsed) {
				return true
			}
		} else if t == ip {
			return true
		}
	}
	return false
}
