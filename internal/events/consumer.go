// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/dietscope/internal/logging"
	"github.com/tomtom215/dietscope/internal/metrics"
	"github.com/tomtom215/dietscope/internal/models"
)

// Handler processes one source-changed event.
type Handler func(ctx context.Context, ev models.SourceChanged) error

// Consumer routes events from the bus to a Handler. Every message is
// acked exactly once: failures are logged, never redelivered. A failed
// revision is dropped from the deduplicator so a later notification for
// it runs again.
type Consumer struct {
	bus     *Bus
	handler Handler
	dedup   *Deduplicator

	readyOnce sync.Once
	ready     chan struct{}
}

// NewConsumer wires handler to bus. A nil dedup disables suppression.
func NewConsumer(bus *Bus, handler Handler, dedup *Deduplicator) *Consumer {
	return &Consumer{bus: bus, handler: handler, dedup: dedup, ready: make(chan struct{})}
}

// Ready closes once the first router is subscribed.
func (c *Consumer) Ready() <-chan struct{} { return c.ready }

// Serve runs a fresh watermill router until ctx is done. A router cannot
// be restarted, so each call builds a new one.
func (c *Consumer) Serve(ctx context.Context) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, c.bus.Logger())
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(ackOnPanic)
	if c.dedup != nil {
		dedup := middleware.Deduplicator{
			KeyFactory: dedupKey,
			Repository: c.dedup,
		}
		router.AddMiddleware(dedup.Middleware)
	}
	router.AddConsumerHandler("refresh-on-source-change", c.bus.Topic(), c.bus.Subscriber(), c.handle)

	go func() {
		select {
		case <-router.Running():
			c.readyOnce.Do(func() { close(c.ready) })
		case <-ctx.Done():
		}
	}()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("refresh router: %w", err)
	}
	return ctx.Err()
}

func (c *Consumer) String() string { return "refresh-consumer" }

func (c *Consumer) handle(msg *message.Message) error {
	ev, err := Decode(msg.Payload)
	if err != nil {
		metrics.EventsParseFailed.Inc()
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping unreadable source-changed event")
		return nil
	}
	metrics.EventsConsumed.Inc()

	ctx := logging.ContextWithRefreshID(msg.Context(), ev.EventID)
	if err := c.handler(ctx, ev); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("source_blob", ev.SourceBlob).Str("trigger", ev.Trigger).
			Msg("Refresh failed")
		if c.dedup != nil {
			c.dedup.Forget(ev.DedupKey())
		}
	}
	return nil
}

// ackOnPanic turns a handler panic into a logged, acked message so a
// poison payload cannot loop through redelivery.
func ackOnPanic(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) (out []*message.Message, err error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error().Str("message_uuid", msg.UUID).Interface("panic", r).
					Str("stack", string(debug.Stack())).Msg("Refresh handler panicked")
				out, err = nil, nil
			}
		}()
		return h(msg)
	}
}
