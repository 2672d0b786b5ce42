// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/models"
)

// DefaultPollInterval is used when the configured interval is not positive.
const DefaultPollInterval = 30 * time.Second

// Publisher sends a source change notification. *events.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, ev models.SourceChanged) error
}

// Poller watches the raw dataset blob and publishes a SourceChanged event
// whenever its ETag differs from the last one observed. The first
// successful observation always publishes, so a restart rebuilds the
// derived artifacts once.
type Poller struct {
	clients  *clients.Registry
	pub      Publisher
	key      string
	interval time.Duration
	ready    <-chan struct{}

	mu       sync.Mutex
	lastETag string
	seen     bool
}

// NewPoller returns a poller for the configured raw blob.
func NewPoller(reg *clients.Registry, pub Publisher) *Poller {
	cfg := reg.Config()
	interval := cfg.Refresh.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		clients:  reg,
		pub:      pub,
		key:      cfg.Storage.RawBlob,
		interval: interval,
	}
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration { return p.interval }

// WaitFor delays the first poll until ready is closed. The in-process bus
// drops events published before the consumer subscribes.
func (p *Poller) WaitFor(ready <-chan struct{}) { p.ready = ready }

// Serve implements suture.Service.
func (p *Poller) Serve(ctx context.Context) error {
	log := logging.WithComponent("source-poller")
	if p.ready != nil {
		select {
		case <-p.ready:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	log.Info().Str("blob", p.key).Dur("interval", p.interval).Msg("Starting source poller")

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Source poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) String() string { return "source-poller" }

func (p *Poller) tick(ctx context.Context) {
	if _, err := p.Poll(ctx); err != nil && ctx.Err() == nil {
		logging.Warn().Err(err).Str("blob", p.key).Msg("Source poll failed")
	}
}

// Poll checks the blob once and reports whether an event was published.
// A missing blob is not an error; when it reappears it counts as a change.
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	store, err := p.clients.Blob(ctx)
	if err != nil {
		return false, err
	}
	info, err := store.Head(ctx, p.key)
	if err != nil {
		if blob.IsNotFound(err) {
			p.mu.Lock()
			p.seen, p.lastETag = false, ""
			p.mu.Unlock()
			logging.Debug().Str("blob", p.key).Msg("Source blob not present yet")
			return false, nil
		}
		return false, err
	}

	p.mu.Lock()
	changed := !p.seen || info.ETag != p.lastETag
	p.mu.Unlock()
	if !changed {
		return false, nil
	}

	ev := models.NewSourceChanged(p.key, models.TriggerPoll)
	ev.ETag = info.ETag
	ev.Size = info.Size
	if err := p.pub.Publish(ctx, ev); err != nil {
		return false, err
	}

	// Only remember the revision once the notification went out, so a
	// failed publish is attempted again on the next tick.
	p.mu.Lock()
	p.seen, p.lastETag = true, info.ETag
	p.mu.Unlock()

	logging.Info().Str("blob", p.key).Str("etag", info.ETag).Int64("size", info.Size).
		Msg("Source change detected")
	return true, nil
}
