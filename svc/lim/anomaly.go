package lim

import (
	"sync"
	"time"

	"github.com/viralburst/pastebin/metrics"
	"github.com/viralburst/pastebin/svc/util"
)

const (
	anomalyWindowBuckets = 5
	anomalyMinRequests   = 50
	anomalyErrorPercent  = 20.0
)

// AnomalyDetector keeps a rolling per-minute window of request/error counts
// and fires the callback when the error rate spikes, which the limiter uses
// to switch to conservative limits.
type AnomalyDetector struct {
	mu           sync.Mutex
	window       []bucket
	currentIndex int
	onAnomaly    func()
	done         chan struct{}
}

type bucket struct {
	requests int64
	errors   int64
}

func NewAnomalyDetector(onAnomaly func()) *AnomalyDetector {
	return &AnomalyDetector{
		window:    make([]bucket, anomalyWindowBuckets),
		onAnomaly: onAnomaly,
		done:      make(chan struct{}),
	}
}

func (d *AnomalyDetector) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				d.AdvanceWindow()
			case <-d.done:
				ticker.Stop()
				return
			}
		}
	}()
}

func (d *AnomalyDetector) Stop() {
	close(d.done)
}

func (d *AnomalyDetector) RecordRequest() {
	d.mu.Lock()
	d.window[d.currentIndex].requests++
	d.mu.Unlock()
}

func (d *AnomalyDetector) RecordError() {
	d.mu.Lock()
	d.window[d.currentIndex].errors++
	d.mu.Unlock()
}

func (d *AnomalyDetector) AdvanceWindow() {
	d.mu.Lock()
	var requests, errs int64
	for _, b := range d.window {
		requests += b.requests
		errs += b.errors
	}
	d.currentIndex = (d.currentIndex + 1) % len(d.window)
	d.window[d.currentIndex] = bucket{}
	d.mu.Unlock()

	if requests == 0 {
		metrics.RecentErrorRatePercent.Set(0)
		return
	}
	pct := float64(errs) / float64(requests) * 100
	metrics.RecentErrorRatePercent.Set(pct)
	if requests >= anomalyMinRequests && pct > anomalyErrorPercent {
		util.Warn().
			Int64("requests", requests).
			Int64("errors", errs).
			Float64("error_rate_pct", pct).
			Msg("error rate anomaly detected")
		if d.onAnomaly != nil {
			d.onAnomaly()
		}
	}
}
