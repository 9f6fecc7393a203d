package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "bmp:console:" // bmp:console:{session_id}
	DefaultSessionTTL = 24 * time.Hour
)

// Store persists console state between requests.
// Load never fails for an unknown session: it returns a fresh state.
type Store interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Save(ctx context.Context, sessionID string, st State) error
}

// MemoryStore keeps sessions in process memory with the same sliding TTL
// as RedisStore. Expired sessions load as new and are swept on Save.
type MemoryStore struct {
	mu               sync.Mutex
	sessions         map[string]memoryEntry
	ttl              time.Duration
	defaultArtisanID int64
	now              func() time.Time
	nextSweep        time.Time
}

// memorySweepInterval bounds how often Save scans for expired sessions.
const memorySweepInterval = time.Minute

type memoryEntry struct {
	state   State
	expires time.Time
}

// NewMemoryStore creates an empty in-process store. A zero ttl uses
// DefaultSessionTTL.
func NewMemoryStore(ttl time.Duration, defaultArtisanID int64) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		sessions:         make(map[string]memoryEntry),
		ttl:              ttl,
		defaultArtisanID: defaultArtisanID,
		now:              time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok || !m.now().Before(e.expires) {
		delete(m.sessions, sessionID)
		return New(m.defaultArtisanID), nil
	}
	return e.state, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !now.Before(m.nextSweep) {
		for id, e := range m.sessions {
			if !now.Before(e.expires) {
				delete(m.sessions, id)
			}
		}
		m.nextSweep = now.Add(memorySweepInterval)
	}
	m.sessions[sessionID] = memoryEntry{state: st, expires: now.Add(m.ttl)}
	return nil
}

// Len reports how many sessions are held, expired ones included until the
// next Save.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RedisStore keeps each session as a JSON document with a sliding TTL.
type RedisStore struct {
	client           *redis.Client
	ttl              time.Duration
	defaultArtisanID int64
}

// NewRedisStore creates a store on client. A zero ttl uses DefaultSessionTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, defaultArtisanID int64) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{
		client:           client,
		ttl:              ttl,
		defaultArtisanID: defaultArtisanID,
	}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (State, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(r.defaultArtisanID), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to load console state: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal console state: %w", err)
	}
	if st.Projects == nil {
		st.Projects = []domain.Project{}
	}
	return st, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal console state: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save console state: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
