package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type datasetRefresher interface {
	Refresh(ctx context.Context, src Source) (*Dataset, error)
}

type broadcaster interface {
	broadcast(ctx context.Context)
}

// poller refetches the source on an adaptive interval and notifies
// subscribers when the positions change.
type poller struct {
	loader       datasetRefresher
	source       Source
	hub          broadcaster
	minInterval  time.Duration
	fetchTimeout time.Duration
	log          *zap.Logger

	mu              sync.Mutex
	seen            bool
	lastFingerprint uint64
	lastCount       int
}

func newPoller(loader datasetRefresher, source Source, hub broadcaster, minInterval, fetchTimeout time.Duration, log *zap.Logger) *poller {
	return &poller{
		loader:       loader,
		source:       source,
		hub:          hub,
		minInterval:  minInterval,
		fetchTimeout: fetchTimeout,
		log:          log,
	}
}

func (p *poller) run(ctx context.Context) error {
	t := time.NewTimer(0)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			start := time.Now()
			p.tick(ctx)
			// slow feeds are polled less often than the configured minimum
			t.Reset(max(time.Since(start)/2, p.minInterval))
		}
	}
}

func (p *poller) tick(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()
	ds, err := p.loader.Refresh(cctx, p.source)
	if err != nil {
		p.log.Warn("refresh failed", zap.String("source", p.source.Locator), zap.Error(err))
		return
	}
	if p.detectChanges(ds) {
		p.log.Info("positions updated", zap.Int("records", ds.Len()))
		p.hub.broadcast(ctx)
	}
}

func (p *poller) detectChanges(ds *Dataset) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	fp := ds.Fingerprint()
	changed := !p.seen || fp != p.lastFingerprint || ds.Len() != p.lastCount
	p.seen = true
	p.lastFingerprint = fp
	p.lastCount = ds.Len()
	return changed
}
