// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSOptions configures the JetStream transport.
type NATSOptions struct {
	URL         string
	Topic       string
	DurableName string
	QueueGroup  string

	// DuplicateWindow is JetStream's Nats-Msg-Id window. Zero means two minutes.
	DuplicateWindow time.Duration
}

// StreamName derives a valid stream name from a subject; stream names may
// not contain dots or wildcards.
func StreamName(topic string) string {
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return strings.ToUpper(r.Replace(topic))
}

// NewNATSBus ensures the stream exists, then connects a publisher and a
// durable queue subscriber bound to it.
func NewNATSBus(ctx context.Context, opts NATSOptions, logger watermill.LoggerAdapter) (*Bus, error) {
	if opts.URL == "" || opts.Topic == "" {
		return nil, errors.New("nats: url and topic are required")
	}
	stream := StreamName(opts.Topic)
	if err := ensureStream(ctx, opts, stream); err != nil {
		return nil, err
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("dietscope"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         opts.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              opts.URL,
		QueueGroupPrefix: opts.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   5 * time.Minute,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: opts.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(stream),
				natsgo.DeliverNew(),
				natsgo.MaxDeliver(1),
			},
		},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}

	return &Bus{topic: opts.Topic, transport: TransportNATS, pub: pub, sub: sub, logger: logger}, nil
}

// ensureStream creates the stream for opts.Topic, or updates it in place.
func ensureStream(ctx context.Context, opts NATSOptions, name string) error {
	nc, err := natsgo.Connect(opts.URL, natsgo.Name("dietscope-stream-init"), natsgo.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", opts.URL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	window := opts.DuplicateWindow
	if window <= 0 {
		window = 2 * time.Minute
	}
	cfg := jetstream.StreamConfig{
		Name:       name,
		Subjects:   []string{opts.Topic},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Duplicates: window,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err = js.Stream(ctx, name)
	switch {
	case err == nil:
		if _, err := js.UpdateStream(ctx, cfg); err != nil {
			return fmt.Errorf("update stream %s: %w", name, err)
		}
	case errors.Is(err, jetstream.ErrStreamNotFound):
		if _, err := js.CreateStream(ctx, cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", name, err)
		}
	default:
		return fmt.Errorf("check stream %s: %w", name, err)
	}
	return nil
}
