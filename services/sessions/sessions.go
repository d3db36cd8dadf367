// Package sessions tracks anonymous browser sessions. Every visitor gets a
// session id that scopes their login marker and display preferences.
package sessions

import (
	"container/list"
	"context"
	"sync"
	"time"

	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"
	"droidfolio/store"

	"github.com/google/uuid"
)

const keyPrefix = "session:"

type Session struct {
	ID           string `json:"id"`
	CreatedAt    int64  `json:"createdAt"`
	LastActivity int64  `json:"lastActivity"`

	// New is set when the session was issued by this request
	New bool `json:"-"`
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(time.Unix(s.LastActivity, 0)) > ttl
}

type Option func(*Manager)

// WithCapacity bounds the local LRU cache
func WithCapacity(n int) Option {
	return func(m *Manager) { m.capacity = n }
}

// WithExpireHook registers fn to run when an idle session is dropped, so the
// caller can clear whatever it scoped to the session id
func WithExpireHook(fn func(ctx context.Context, id string)) Option {
	return func(m *Manager) { m.onExpire = fn }
}

type Manager struct {
	store    store.Store
	ttl      time.Duration
	onExpire func(ctx context.Context, id string)
	now      func() time.Time

	// LRU Cache
	cache     map[string]*list.Element
	evictList *list.List
	capacity  int
	cacheMu   sync.Mutex

	pending sync.WaitGroup
}

// NewManager persists sessions to st under "session:<id>" and expires them
// after ttl without activity
func NewManager(st store.Store, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		ttl:       ttl,
		now:       time.Now,
		cache:     make(map[string]*list.Element),
		evictList: list.New(),
		capacity:  10000, // Max 10k local sessions
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve returns the live session for id, renewing it, or issues a new one
// when id is empty, unknown or expired
func (m *Manager) Resolve(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			id = ""
		}
	}

	if id != "" {
		sess, err := m.lookup(ctx, id)
		if err != nil {
			return nil, err
		}

		now := m.now()
		if sess != nil && !sess.expired(now, m.ttl) {
			renewed := *sess
			renewed.LastActivity = now.Unix()
			m.updateCache(&renewed)
			m.persistAsync(&renewed)
			return &renewed, nil
		}

		if sess != nil {
			logger.WithSession(id).Info("Session expired after %s idle", m.ttl)
			if err := m.Delete(ctx, id); err != nil {
				return nil, err
			}
			if m.onExpire != nil {
				m.onExpire(ctx, id)
			}
		}
	}

	return m.create(ctx)
}

func (m *Manager) create(ctx context.Context) (*Session, error) {
	now := m.now().Unix()
	sess := &Session{ID: uuid.NewString(), CreatedAt: now, LastActivity: now}

	if err := store.Save(ctx, m.store, keyPrefix+sess.ID, sess); err != nil {
		return nil, err
	}
	m.updateCache(sess)
	metrics.IncrementSessionsCreated()

	issued := *sess
	issued.New = true
	return &issued, nil
}

// lookup checks the local cache first, then the store (read-through)
func (m *Manager) lookup(ctx context.Context, id string) (*Session, error) {
	if sess := m.getFromLocalCache(id); sess != nil {
		return sess, nil
	}

	sess, found, err := store.Load[Session](ctx, m.store, keyPrefix+id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	m.updateCache(&sess)
	return &sess, nil
}

// persistAsync writes a renewed session behind the request. The local cache
// already holds the update, so a failure only loses the new activity time.
func (m *Manager) persistAsync(sess *Session) {
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()

		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Save(bgCtx, m.store, keyPrefix+sess.ID, sess); err != nil {
			logger.WithSession(sess.ID).WithError(err).
				Error("Async session persistence failed (session remains in local cache)")
		}
	}()
}

// Flush waits for outstanding write-behind persistence
func (m *Manager) Flush() {
	m.pending.Wait()
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.cacheMu.Lock()
	if elem, ok := m.cache[id]; ok {
		m.evictList.Remove(elem)
		delete(m.cache, id)
	}
	m.cacheMu.Unlock()

	return m.store.Delete(ctx, keyPrefix+id)
}

// Cached reports how many sessions the local cache holds
func (m *Manager) Cached() int {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	return m.evictList.Len()
}

func (m *Manager) updateCache(sess *Session) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	cached := *sess
	cached.New = false

	if elem, ok := m.cache[sess.ID]; ok {
		m.evictList.MoveToFront(elem)
		elem.Value = &cached
		return
	}

	// Evict if full
	if m.evictList.Len() >= m.capacity {
		if oldest := m.evictList.Back(); oldest != nil {
			m.evictList.Remove(oldest)
			delete(m.cache, oldest.Value.(*Session).ID)
		}
	}

	m.cache[sess.ID] = m.evictList.PushFront(&cached)
}

func (m *Manager) getFromLocalCache(id string) *Session {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if elem, ok := m.cache[id]; ok {
		m.evictList.MoveToFront(elem)
		sess := *elem.Value.(*Session)
		return &sess
	}
	return nil
}
