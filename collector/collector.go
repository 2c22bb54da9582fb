// Package collector implements the sampling daemon that runs alongside a
// workflow job: a fixed-interval loop measuring CPU, memory, network and
// disk activity via gopsutil, an in-memory sample store, and a loopback
// HTTP interface the reporting pipeline queries when the job ends.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"runmeter.sh/stats"
)

// Collector owns the samplers and the store and runs the sampling loop.
type Collector struct {
	cfg       *Config
	store     *Store
	sessionID string

	// samplers carry cumulative-counter baselines, so concurrent rounds
	// (ticker vs. forced collect) must not interleave.
	samplerMu sync.Mutex
	cpu       cpuSampler
	memory    memorySampler
	network   networkSampler
	disk      diskSampler

	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a collector for cfg with a fresh session ID.
func New(cfg *Config) *Collector {
	return &Collector{
		cfg:       cfg,
		store:     NewStore(cfg.MaxSamples),
		sessionID: uuid.New().String(),
	}
}

// SessionID identifies this daemon run in logs and the state file.
func (c *Collector) SessionID() string {
	return c.sessionID
}

// Store exposes the sample buffers to the query interface.
func (c *Collector) Store() *Store {
	return c.store
}

// Start runs one immediate sample round, then launches the ticker loop.
// The immediate round primes the cumulative counter baselines, so
// rate-based domains produce their first real sample one interval later.
func (c *Collector) Start() {
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	c.CollectNow()

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cfg.Frequency)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CollectNow()
			}
		}
	}()

	slog.Info("Collector started",
		"session_id", c.sessionID,
		"frequency", c.cfg.Frequency,
		"max_samples", c.cfg.MaxSamples)
}

// Stop halts the sampling loop and waits for it to exit.
func (c *Collector) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
	slog.Info("Collector stopped", "session_id", c.sessionID)
}

// CollectNow takes one sample round immediately. The query interface
// calls it when the reporter forces a final flush before aggregation.
// Domains are sampled independently; one failing domain never blocks the
// others.
func (c *Collector) CollectNow() {
	c.samplerMu.Lock()
	defer c.samplerMu.Unlock()

	now := stats.Millis(time.Now())

	if s, ok, err := c.cpu.sample(now); err != nil {
		c.sampleFailed(stats.DomainCPU, err)
	} else if ok {
		c.sampleStored(stats.DomainCPU, c.store.AppendCPU(s))
	}

	if s, ok, err := c.memory.sample(now); err != nil {
		c.sampleFailed(stats.DomainMemory, err)
	} else if ok {
		c.sampleStored(stats.DomainMemory, c.store.AppendMemory(s))
	}

	if s, ok, err := c.network.sample(now); err != nil {
		c.sampleFailed(stats.DomainNetwork, err)
	} else if ok {
		c.sampleStored(stats.DomainNetwork, c.store.AppendNetwork(s))
	}

	if s, ok, err := c.disk.sample(now); err != nil {
		c.sampleFailed(stats.DomainDisk, err)
	} else if ok {
		c.sampleStored(stats.DomainDisk, c.store.AppendDisk(s))
	}
}

func (c *Collector) sampleStored(domain stats.Domain, stored int) {
	samplesTotal.WithLabelValues(string(domain)).Inc()
	storedSamples.WithLabelValues(string(domain)).Set(float64(stored))
}

func (c *Collector) sampleFailed(domain stats.Domain, err error) {
	sampleErrorsTotal.WithLabelValues(string(domain)).Inc()
	slog.Warn("Sampling failed", "domain", domain, "error", err)
}
