// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// Bus is the in-process event bus. Publishing never blocks the caller;
// each subscriber gets its own buffered channel and slow subscribers
// drop messages rather than stall publishers.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the event bus.
func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 64,
			// Subscribers joining late only care about changes from now on.
			Persistent: false,
		},
		newWatermillLogger(),
	)
	return &Bus{pubsub: pubsub}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// PublishAuthChange announces a sign-in state change.
func (b *Bus) PublishAuthChange(userID string, signedIn bool) {
	b.publish(TopicAuthChanged, AuthEvent{
		UserID:    userID,
		SignedIn:  signedIn,
		Timestamp: time.Now().UTC(),
	})
}

// SubscriptionsChanged announces the user's current subscription list.
// Satisfies the manager's EventPublisher interface.
func (b *Bus) SubscriptionsChanged(userID string, subs []models.Subscription) {
	b.publish(TopicSubscriptionsChanged, SubscriptionEvent{
		UserID:        userID,
		Subscriptions: subs,
		Timestamp:     time.Now().UTC(),
	})
}

// publish serializes and sends one event, best effort.
func (b *Bus) publish(topic string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		logging.Error().Str("topic", topic).Err(err).Msg("Failed to encode event")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		logging.Warn().Str("topic", topic).Err(err).Msg("Failed to publish event")
	}
}

// SubscribeAuth delivers auth events until the context is canceled.
func (b *Bus) SubscribeAuth(ctx context.Context) (<-chan AuthEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicAuthChanged)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicAuthChanged, err)
	}

	out := make(chan AuthEvent, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var event AuthEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logging.Warn().Err(err).Msg("Dropping malformed auth event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribeSubscriptions delivers subscription change events until the
// context is canceled.
func (b *Bus) SubscribeSubscriptions(ctx context.Context) (<-chan SubscriptionEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicSubscriptionsChanged)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicSubscriptionsChanged, err)
	}

	out := make(chan SubscriptionEvent, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var event SubscriptionEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logging.Warn().Err(err).Msg("Dropping malformed subscription event")
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// watermillLogger adapts watermill's logging onto zerolog.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}

func (l *watermillLogger) event(e *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}
