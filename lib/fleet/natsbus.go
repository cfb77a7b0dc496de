// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tinyland-inc/tcfs/lib/tcfserr"
)

// StreamName is the single durable JetStream stream carrying every
// fleet event, under the "STATE.>" subject wildcard. tcfs generalizes
// original_source/crates/tcfs-sync/src/nats.rs's multiple
// purpose-specific streams (SYNC_TASKS, HYDRATION_EVENTS,
// STATE_UPDATES) into one stream per fleet namespace, since spec.md
// §4.6.1 describes a single event taxonomy rather than separate work
// queues.
const StreamName = "STATE"

// RetentionDays is the default stream retention window, matching
// spec.md §4.6.1's "bounded by time (e.g., 7 days)".
const RetentionDays = 7

// NatsBus implements [Bus] over a NATS JetStream stream with one
// durable named consumer per device, so each device's cursor survives
// restart independently of the others.
type NatsBus struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	log    *slog.Logger
}

// NatsBusConfig configures a new fleet event bus connection.
type NatsBusConfig struct {
	URL           string
	RetentionDays int
	Logger        *slog.Logger
}

// NewNatsBus connects to NATS, enables JetStream, and ensures the
// fleet stream exists with work-queue-like time-bounded retention.
func NewNatsBus(ctx context.Context, cfg NatsBusConfig) (*NatsBus, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	retentionDays := cfg.RetentionDays
	if retentionDays <= 0 {
		retentionDays = RetentionDays
	}

	conn, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("fleet bus disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("fleet bus reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to NATS at %s: %v", tcfserr.ErrTransport, cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: enabling jetstream: %v", tcfserr.ErrTransport, err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"STATE.>"},
		MaxAge:    time.Duration(retentionDays) * 24 * time.Hour,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: ensuring STATE stream: %v", tcfserr.ErrTransport, err)
	}

	return &NatsBus{conn: conn, js: js, stream: stream, log: log}, nil
}

// Publish sends event on the subject derived from deviceID and the
// event's own type.
func (b *NatsBus) Publish(ctx context.Context, deviceID string, event Event) error {
	data, err := event.Marshal()
	if err != nil {
		return err
	}

	_, err = b.js.Publish(ctx, Subject(deviceID, event.Type), data)
	if err != nil {
		return fmt.Errorf("%w: publishing %s: %v", tcfserr.ErrTransport, event.Type, err)
	}
	return nil
}

// Subscribe creates (or resumes) a durable pull consumer named
// consumerName over the whole STATE.> subject space and delivers
// every message to handler until ctx is cancelled. Per spec.md
// §4.6.1, events are only acked on successful apply, so a crash
// between receive and ack causes JetStream to redeliver.
func (b *NatsBus) Subscribe(ctx context.Context, consumerName string, handler Handler) error {
	consumer, err := b.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: "STATE.>",
	})
	if err != nil {
		return fmt.Errorf("%w: creating consumer %s: %v", tcfserr.ErrTransport, consumerName, err)
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := UnmarshalEvent(msg.Data())
		if err != nil {
			b.log.Warn("dropping malformed fleet event", "error", err)
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			b.log.Warn("fleet event handler failed, will redeliver", "event_type", event.Type, "error", err)
			_ = msg.Nak()
			return
		}

		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("%w: starting consume loop for %s: %v", tcfserr.ErrTransport, consumerName, err)
	}

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()

	return nil
}

// Close closes the underlying NATS connection without draining it.
func (b *NatsBus) Close() error {
	b.conn.Close()
	return nil
}

var _ Bus = (*NatsBus)(nil)
