// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/propmap/internal/identity"
	"github.com/taibuivan/propmap/internal/platform/constants"
	"github.com/taibuivan/propmap/internal/platform/sec"
)

// # Redis Session Events

// RedisSessionEvents carries session transitions over Redis pub/sub, one
// channel per user. It implements both [EventPublisher] and [EventSubscriber].
type RedisSessionEvents struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisSessionEvents creates a Redis-backed session event bus.
func NewRedisSessionEvents(client *redis.Client, logger *slog.Logger) *RedisSessionEvents {
	return &RedisSessionEvents{client: client, logger: logger}
}

func sessionChannel(userID string) string {
	return constants.RedisPrefixSessionEvents + userID
}

/*
Publish announces a transition on the user's channel.

Parameters:
  - ctx: context.Context
  - userID: string
  - event: identity.Event

Returns:
  - error: Encoding or connectivity errors
*/
func (bus *RedisSessionEvents) Publish(ctx context.Context, userID string, event identity.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis_session_events_encode_failed: %w", err)
	}

	if err := bus.client.Publish(ctx, sessionChannel(userID), payload).Err(); err != nil {
		return fmt.Errorf("redis_session_events_publish_failed: %w", err)
	}

	return nil
}

/*
Subscribe delivers the user's transitions to onChange, in publish order, from
a single goroutine.

Description: The call returns only after Redis has confirmed the
subscription, so any event published after Subscribe returns is delivered.
Undecodable messages are logged and skipped.

Returns:
  - identity.Unsubscribe: Idempotent; stops delivery and closes the channel
  - error: Subscription failures
*/
func (bus *RedisSessionEvents) Subscribe(ctx context.Context, userID string, onChange func(identity.Event)) (identity.Unsubscribe, error) {
	channel := sessionChannel(userID)
	pubsub := bus.client.Subscribe(ctx, channel)

	// Wait for the subscription confirmation before reporting success.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis_session_events_subscribe_failed: %w", err)
	}

	var (
		closeOnce sync.Once
		done      = make(chan struct{})
	)
	unsubscribe := func() {
		closeOnce.Do(func() {
			_ = pubsub.Close()
			<-done
		})
	}

	messages := pubsub.Channel()
	go func() {
		defer close(done)
		for message := range messages {
			var event identity.Event
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				bus.logger.WarnContext(ctx, "session_event_decode_failed",
					slog.String("channel", channel),
					slog.Any("error", err),
				)
				continue
			}
			onChange(event)
		}
	}()

	return unsubscribe, nil
}

// # Bearer Sessions

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// TokenSessions exposes a bearer token as an [identity.SessionProvider].
type TokenSessions struct {
	verifier TokenVerifier
	events   EventSubscriber
}

// NewTokenSessions binds token verification to a session event source.
func NewTokenSessions(verifier TokenVerifier, events EventSubscriber) *TokenSessions {
	return &TokenSessions{verifier: verifier, events: events}
}

// ForToken returns the session provider for a single bearer token.
func (sessions *TokenSessions) ForToken(token string) identity.SessionProvider {
	return &tokenSession{token: token, sessions: sessions}
}

type tokenSession struct {
	token    string
	sessions *TokenSessions
}

// CurrentSession reports [identity.ErrNoSession] for any token that does not
// verify: malformed, forged, expired or issued elsewhere.
func (session *tokenSession) CurrentSession(context.Context) (*identity.SessionInfo, error) {
	claims, err := session.sessions.verifier.VerifyToken(session.token)
	if err != nil {
		return nil, identity.ErrNoSession
	}

	return &identity.SessionInfo{SubjectID: claims.UserID, Email: claims.Email}, nil
}

// Subscribe attaches to the token owner's event channel.
func (session *tokenSession) Subscribe(ctx context.Context, onChange func(identity.Event)) (identity.Unsubscribe, error) {
	claims, err := session.sessions.verifier.VerifyToken(session.token)
	if err != nil {
		return func() {}, identity.ErrNoSession
	}

	return session.sessions.events.Subscribe(ctx, claims.UserID, onChange)
}
