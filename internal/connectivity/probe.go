// Package connectivity observes remote reachability by polling a health
// endpoint and reporting online/offline transitions.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the default probe period.
const DefaultInterval = 15 * time.Second

// Probe polls a health endpoint and emits reachability transitions.
// Only edges are emitted, never repeats of the current state; a slow
// consumer coalesces intermediate flaps but always observes the latest
// state.
type Probe struct {
	url        string
	apiKey     string
	interval   time.Duration
	httpClient *http.Client
	log        *slog.Logger

	online  atomic.Bool
	changes chan bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	started   atomic.Bool
}

// NewProbe creates a probe against the given health URL. interval <= 0
// selects DefaultInterval.
func NewProbe(healthURL, apiKey string, interval time.Duration) *Probe {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Probe{
		url:      healthURL,
		apiKey:   apiKey,
		interval: interval,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		log:     slog.New(slog.NewTextHandler(os.Stderr, nil)),
		changes: make(chan bool, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (p *Probe) WithHTTPClient(client *http.Client) *Probe {
	p.httpClient = client
	return p
}

// WithLogger sets the structured logger used by the probe.
func (p *Probe) WithLogger(log *slog.Logger) *Probe {
	if log != nil {
		p.log = log
	}
	return p
}

// Start begins polling. The first check runs synchronously so Online is
// meaningful as soon as Start returns.
func (p *Probe) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.check()
	go p.loop()
}

func (p *Probe) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.check()
		}
	}
}

func (p *Probe) check() {
	online := p.reachable()
	if p.online.Swap(online) == online {
		return
	}

	p.log.Info("connectivity transition", "online", online)

	// Replace a stale pending transition so the consumer only ever sees
	// the latest state.
	select {
	case p.changes <- online:
	default:
		select {
		case <-p.changes:
		default:
		}
		select {
		case p.changes <- online:
		default:
		}
	}
}

func (p *Probe) reachable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Changes emits online/offline transitions.
func (p *Probe) Changes() <-chan bool {
	return p.changes
}

// Online reports the last observed reachability.
func (p *Probe) Online() bool {
	return p.online.Load()
}

// Close stops polling.
func (p *Probe) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		if p.started.Load() {
			<-p.done
		}
	})
	return nil
}
