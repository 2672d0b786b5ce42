// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package events carries source-changed notifications from the triggers
// (blob events, the HTTP endpoint, the poller) to the refresh consumer.
//
// Transport is Watermill: an in-process Go channel by default, or NATS
// JetStream (optionally an embedded server) when enabled.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/dietscope/internal/config"
	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/models"
	"github.com/tomtom215/dietscope/internal/validation"
)

// Transport names.
const (
	TransportChannel = "gochannel"
	TransportNATS    = "nats"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus is closed")

// Bus pairs a publisher and subscriber on one topic.
type Bus struct {
	topic     string
	transport string
	pub       message.Publisher
	sub       message.Subscriber
	logger    watermill.LoggerAdapter
	server    *EmbeddedServer

	mu     sync.RWMutex
	closed bool
}

// NewChannelBus returns an in-process bus. Messages published while no
// consumer is subscribed are dropped.
func NewChannelBus(topic string, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
	return &Bus{topic: topic, transport: TransportChannel, pub: ch, sub: ch, logger: logger}
}

// Open builds the bus described by cfg, starting an embedded NATS server
// first when configured.
func Open(ctx context.Context, cfg *config.Config) (*Bus, error) {
	logger := logging.NewWatermillLogger()
	if !cfg.NATS.Enabled {
		logging.Info().Str("topic", cfg.Refresh.Topic).Msg("Refresh events use the in-process channel")
		return NewChannelBus(cfg.Refresh.Topic, logger), nil
	}

	url := cfg.NATS.URL
	var srv *EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		var err error
		srv, err = NewEmbeddedServer(ServerOptionsFromConfig(cfg.NATS))
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		url = srv.ClientURL()
	}

	bus, err := NewNATSBus(ctx, NATSOptions{
		URL:         url,
		Topic:       cfg.Refresh.Topic,
		DurableName: cfg.NATS.DurableName,
		QueueGroup:  cfg.NATS.QueueGroup,
	}, logger)
	if err != nil {
		if srv != nil {
			srv.Shutdown()
		}
		return nil, err
	}
	bus.server = srv
	logging.Info().Str("topic", cfg.Refresh.Topic).Str("url", url).Bool("embedded", srv != nil).
		Msg("Refresh events use NATS JetStream")
	return bus, nil
}

// Topic is the subject events are published on.
func (b *Bus) Topic() string { return b.topic }

// Transport names the underlying pub/sub.
func (b *Bus) Transport() string { return b.transport }

// Subscriber is the consuming side.
func (b *Bus) Subscriber() message.Subscriber { return b.sub }

// Server is the embedded NATS server, or nil.
func (b *Bus) Server() *EmbeddedServer { return b.server }

// Logger is the watermill logger shared by the bus components.
func (b *Bus) Logger() watermill.LoggerAdapter { return b.logger }

// Publish validates and sends ev. The event ID becomes the message UUID,
// which JetStream also uses as its deduplication ID.
func (b *Bus) Publish(ctx context.Context, ev models.SourceChanged) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	if verr := validation.ValidateStruct(ev); verr != nil {
		return fmt.Errorf("invalid source-changed event: %w", verr)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode source-changed event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, data)
	msg.Metadata.Set("trigger", ev.Trigger)
	msg.Metadata.Set("source_blob", ev.SourceBlob)
	msg.SetContext(ctx)

	if err := b.pub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", b.topic, err)
	}
	metrics.EventsPublished.WithLabelValues(ev.Trigger).Inc()
	logging.Ctx(ctx).Debug().Str("event_id", ev.EventID).Str("trigger", ev.Trigger).
		Str("source_blob", ev.SourceBlob).Msg("Source change published")
	return nil
}

// Decode parses and validates a source-changed payload.
func Decode(payload []byte) (models.SourceChanged, error) {
	var ev models.SourceChanged
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("decode source-changed event: %w", err)
	}
	if verr := validation.ValidateStruct(ev); verr != nil {
		return ev, fmt.Errorf("invalid source-changed event: %w", verr)
	}
	return ev, nil
}

// Close shuts down the publisher, the subscriber and any embedded server.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.pub.Close(); err != nil {
		errs = append(errs, err)
	}
	// gochannel uses one value for both sides.
	if closer, ok := b.sub.(message.Publisher); !ok || closer != b.pub {
		if err := b.sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.server != nil {
		b.server.Shutdown()
	}
	return errors.Join(errs...)
}
