// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/taibuivan/propmap/internal/access"
)

// eventBuffer bounds the queue between the provider callback and the writer.
// A full queue applies backpressure to the provider; nothing is dropped.
const eventBuffer = 64

// ErrNotInitialized is returned by [Session.Resolve] before [Session.Init].
var ErrNotInitialized = errors.New("identity: session not initialized")

// Listener receives the principal after each applied transition.
// A nil principal means the viewer is now anonymous.
type Listener func(principal *access.Principal)

// # Session State

/*
Session is the owned, reactive session state of one client.

Lifecycle: [NewSession] -> [Session.Init] -> transitions -> [Session.Close].

# Ordering

Init subscribes to the provider before the initial resolution starts, so no
transition can be missed. A single writer goroutine performs the initial
resolution and only then drains queued transitions in arrival order. A
transition can therefore never be overwritten by a slower initial fetch:
[initial pending] -> [SIGNED_OUT] -> [initial resolves] ends anonymous.

Listeners fire only for transitions applied after the initial resolution.
The cached principal is replaced, never mutated, so values handed out by
Resolve and to listeners are safe to keep.
*/
type Session struct {
	provider SessionProvider
	profiles ProfileStore
	logger   *slog.Logger

	events  chan Event
	ready   chan struct{}
	stopped chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	started   atomic.Bool
	initOnce  sync.Once
	closeOnce sync.Once

	unsubscribe Unsubscribe

	stateMu sync.RWMutex
	current *access.Principal
	lastErr error

	listenerMu sync.Mutex
	listeners  []listenerEntry
	nextID     uint64
}

type listenerEntry struct {
	id       uint64
	listener Listener
}

// NewSession constructs an uninitialized session.
func NewSession(provider SessionProvider, profiles ProfileStore, logger *slog.Logger) *Session {
	return &Session{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		events:   make(chan Event, eventBuffer),
		ready:    make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

/*
Init subscribes to session transitions and starts the initial resolution.

Description: ctx bounds the lifetime of the session; cancelling it is
equivalent to [Session.Close]. A subscription failure is returned but the
initial resolution still runs, leaving a non-reactive session.

Calling Init more than once has no effect.
*/
func (session *Session) Init(ctx context.Context) error {
	var subscribeErr error

	session.initOnce.Do(func() {
		session.ctx, session.cancel = context.WithCancel(ctx)

		unsubscribe, err := session.provider.Subscribe(session.ctx, session.enqueue)
		if err != nil {
			subscribeErr = &ResolutionError{Stage: "subscribe", Cause: err}
			session.logger.WarnContext(ctx, "identity_subscribe_failed", slog.Any("error", err))
		}
		session.unsubscribe = unsubscribe

		session.started.Store(true)
		go session.run()
	})

	return subscribeErr
}

// Resolve waits for the initial resolution and returns the cached principal.
// It never triggers a fetch.
func (session *Session) Resolve(ctx context.Context) (*access.Principal, error) {
	if !session.started.Load() {
		return nil, ErrNotInitialized
	}

	select {
	case <-session.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	session.stateMu.RLock()
	defer session.stateMu.RUnlock()

	return session.current, session.lastErr
}

// Subscribe registers a listener. The returned handle detaches it.
func (session *Session) Subscribe(listener Listener) *Subscription {
	session.listenerMu.Lock()
	defer session.listenerMu.Unlock()

	session.nextID++
	id := session.nextID
	session.listeners = append(session.listeners, listenerEntry{id: id, listener: listener})

	return &Subscription{session: session, id: id}
}

// Close stops the writer, detaches from the provider and drops every
// listener. Safe to call more than once and before Init.
func (session *Session) Close() {
	session.closeOnce.Do(func() {
		if session.started.Load() {
			session.cancel()
			<-session.stopped
		}

		if session.unsubscribe != nil {
			session.unsubscribe()
		}

		session.listenerMu.Lock()
		session.listeners = nil
		session.listenerMu.Unlock()
	})
}

// # Writer

// enqueue is the provider callback. It blocks until the writer accepts the
// event or the session ends.
func (session *Session) enqueue(event Event) {
	select {
	case session.events <- event:
	case <-session.ctx.Done():
	}
}

// run is the single writer of the cached state.
func (session *Session) run() {
	defer close(session.stopped)

	principal, err := session.resolveInitial(session.ctx)
	session.store(principal, err)
	close(session.ready)

	for {
		select {
		case <-session.ctx.Done():
			return
		case event := <-session.events:
			session.apply(event)
		}
	}
}

func (session *Session) resolveInitial(ctx context.Context) (*access.Principal, error) {
	info, err := session.provider.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		resolutionErr := &ResolutionError{Stage: "read session", Cause: err}
		session.logger.WarnContext(ctx, "identity_resolution_failed", slog.Any("error", resolutionErr))
		return nil, resolutionErr
	}

	if info == nil || info.SubjectID == "" {
		return nil, nil
	}

	return session.load(ctx, info)
}

// apply processes one transition and notifies listeners.
func (session *Session) apply(event Event) {
	var (
		next *access.Principal
		err  error
	)

	switch event.Type {
	case EventSignedOut:
		// Reset without a round-trip.
		next = nil

	case EventSignedIn, EventTokenRefreshed:
		info := event.Session
		if info == nil || info.SubjectID == "" {
			var readErr error
			info, readErr = session.provider.CurrentSession(session.ctx)
			if readErr != nil && !errors.Is(readErr, ErrNoSession) {
				err = &ResolutionError{Stage: "read session", Cause: readErr}
				session.logger.WarnContext(session.ctx, "identity_resolution_failed", slog.Any("error", err))
			}
		}
		if info != nil && info.SubjectID != "" {
			next, err = session.load(session.ctx, info)
		}

	default:
		session.logger.WarnContext(session.ctx, "identity_unknown_event", slog.String("type", string(event.Type)))
		return
	}

	session.store(next, err)
	session.notify(next)
}

func (session *Session) load(ctx context.Context, info *SessionInfo) (*access.Principal, error) {
	principal, err := loadPrincipal(ctx, session.profiles, info)
	if err != nil {
		session.logger.WarnContext(ctx, "identity_resolution_failed",
			slog.String("user_id", info.SubjectID),
			slog.Any("error", err),
		)
	}
	return principal, err
}

func (session *Session) store(principal *access.Principal, err error) {
	session.stateMu.Lock()
	session.current = principal
	session.lastErr = err
	session.stateMu.Unlock()
}

func (session *Session) notify(principal *access.Principal) {
	session.listenerMu.Lock()
	snapshot := make([]listenerEntry, len(session.listeners))
	copy(snapshot, session.listeners)
	session.listenerMu.Unlock()

	for _, entry := range snapshot {
		entry.listener(principal)
	}
}

// # Subscription Handle

// Subscription detaches a [Listener] from its [Session].
type Subscription struct {
	session *Session
	id      uint64
	once    sync.Once
}

// Unsubscribe removes the listener. Idempotent.
func (subscription *Subscription) Unsubscribe() {
	subscription.once.Do(func() {
		session := subscription.session
		session.listenerMu.Lock()
		defer session.listenerMu.Unlock()

		for i, entry := range session.listeners {
			if entry.id == subscription.id {
				session.listeners = append(session.listeners[:i], session.listeners[i+1:]...)
				return
			}
		}
	})
}
