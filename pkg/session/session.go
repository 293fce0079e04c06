// Package session holds calculator sessions. A session owns exactly one
// current calc.State and serializes the inputs applied to it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ternarybob/abacus/internal/fileutil"
	"github.com/ternarybob/abacus/pkg/calc"
)

var (
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrStoreFull is returned when the store is at capacity.
	ErrStoreFull = errors.New("session store is full")
)

// Session is one calculator with its current state.
type Session interface {
	// ID returns the session identifier.
	ID() string

	// State returns the current calculator state.
	State() calc.State

	// Press applies inputs in order and returns the resulting state.
	// A non-nil error means the new state could not be persisted; the
	// returned state is still the one held in memory.
	Press(inputs ...calc.Input) (calc.State, error)

	// Reset returns the calculator to its initial state.
	Reset() (calc.State, error)

	// UpdatedAt returns when an input was last applied.
	UpdatedAt() time.Time

	// Save persists the session.
	Save() error

	// Load restores the session.
	Load() error
}

// MemorySession implements Session with in-memory storage.
type MemorySession struct {
	mu        sync.RWMutex
	id        string
	state     calc.State
	createdAt time.Time
	updatedAt time.Time
}

// NewMemorySession creates a new in-memory session.
func NewMemorySession(id string) *MemorySession {
	now := time.Now()
	return &MemorySession{
		id:        id,
		state:     calc.Initial(),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session identifier.
func (s *MemorySession) ID() string {
	return s.id
}

// State returns the current calculator state.
func (s *MemorySession) State() calc.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Press applies inputs in order and returns the resulting state.
func (s *MemorySession) Press(inputs ...calc.Input) (calc.State, error) {
	return s.apply(inputs...), nil
}

// Reset returns the calculator to its initial state.
func (s *MemorySession) Reset() (calc.State, error) {
	return s.Press(calc.AllClear)
}

func (s *MemorySession) apply(inputs ...calc.Input) calc.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = calc.Apply(s.state, inputs...)
	s.updatedAt = time.Now()
	return s.state
}

// UpdatedAt returns when an input was last applied.
func (s *MemorySession) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Save is a no-op for memory session.
func (s *MemorySession) Save() error {
	return nil
}

// Load is a no-op for memory session.
func (s *MemorySession) Load() error {
	return nil
}

// FileSession implements Session with file-based persistence of the
// current state. Earlier states are not kept.
type FileSession struct {
	MemorySession
	path string
}

// NewFileSession creates a file-backed session, restoring any state
// previously saved under the same id.
func NewFileSession(id, dir string) (*FileSession, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, err
	}

	now := time.Now()
	s := &FileSession{
		MemorySession: MemorySession{
			id:        id,
			state:     calc.Initial(),
			createdAt: now,
			updatedAt: now,
		},
		path: filepath.Join(dir, id+".json"),
	}

	if err := s.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	return s, nil
}

// sessionData is the persisted session format.
type sessionData struct {
	ID        string     `json:"id"`
	State     calc.State `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Save persists the session to disk.
func (s *FileSession) Save() error {
	s.mu.RLock()
	data := sessionData{
		ID:        s.id,
		State:     s.state,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	s.mu.RUnlock()

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	return fileutil.WriteFile(s.path, jsonData)
}

// Load restores the session from disk.
func (s *FileSession) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var sd sessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = sd.State
	s.createdAt = sd.CreatedAt
	s.updatedAt = sd.UpdatedAt

	return nil
}

// Press applies inputs and saves the resulting state.
func (s *FileSession) Press(inputs ...calc.Input) (calc.State, error) {
	state := s.apply(inputs...)
	if err := s.Save(); err != nil {
		return state, fmt.Errorf("save session %s: %w", s.id, err)
	}
	return state, nil
}

// Reset clears the calculator and saves the initial state.
func (s *FileSession) Reset() (calc.State, error) {
	return s.Press(calc.AllClear)
}

// Store manages multiple sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	dir      string
	max      int
	idleTTL  time.Duration
	now      func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTTL expires sessions that have not been touched for ttl.
// Zero keeps sessions until they are deleted.
func WithIdleTTL(ttl time.Duration) StoreOption {
	return func(st *Store) {
		st.idleTTL = ttl
	}
}

// NewStore creates a new session store. With a non-empty dir sessions
// are file-backed. max bounds the number of live sessions; 0 means no
// limit.
func NewStore(dir string, max int, opts ...StoreOption) (*Store, error) {
	if dir != "" {
		if err := fileutil.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	st := &Store{
		sessions: make(map[string]Session),
		dir:      dir,
		max:      max,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st, nil
}

func (st *Store) open(id string) (Session, error) {
	if st.dir != "" {
		return NewFileSession(id, st.dir)
	}
	return NewMemorySession(id), nil
}

// Create starts a new session with a random id. When the store is full,
// idle sessions are expired first.
func (st *Store) Create() (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.max > 0 && len(st.sessions) >= st.max {
		st.pruneLocked()
	}
	if st.max > 0 && len(st.sessions) >= st.max {
		return nil, ErrStoreFull
	}

	s, err := st.open(uuid.NewString())
	if err != nil {
		return nil, err
	}
	if err := s.Save(); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	st.sessions[s.ID()] = s
	return s, nil
}

// Get returns the session with the given id. Expired sessions are not
// returned.
func (st *Store) Get(id string) (Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	expired := ok && st.expired(s)
	st.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if expired {
		_ = st.Delete(id)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st.removeLocked(id)
}

func (st *Store) removeLocked(id string) error {
	delete(st.sessions, id)

	if st.dir != "" {
		path := filepath.Join(st.dir, id+".json")
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Prune removes sessions idle for longer than the store's TTL and
// returns how many were removed.
func (st *Store) Prune() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pruneLocked()
}

func (st *Store) pruneLocked() int {
	if st.idleTTL <= 0 {
		return 0
	}
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s) {
			_ = st.removeLocked(id)
			removed++
		}
	}
	return removed
}

func (st *Store) expired(s Session) bool {
	return st.idleTTL > 0 && st.now().Sub(s.UpdatedAt()) > st.idleTTL
}

// List returns all session IDs in sorted order.
func (st *Store) List() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// LoadAll restores sessions saved in the store directory and returns
// how many were loaded. Expired sessions are skipped. When more are
// saved than the store may hold, the most recently used are kept and
// the rest stay on disk.
func (st *Store) LoadAll() (int, error) {
	if st.dir == "" || !fileutil.Exists(st.dir) {
		return 0, nil
	}

	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return 0, fmt.Errorf("read sessions dir: %w", err)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var found []Session
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		if _, ok := st.sessions[id]; ok {
			continue
		}
		s, err := NewFileSession(id, st.dir)
		if err != nil {
			return 0, err
		}
		if st.expired(s) {
			_ = st.removeLocked(id)
			continue
		}
		found = append(found, s)
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].UpdatedAt().After(found[j].UpdatedAt())
	})
	if st.max > 0 {
		room := st.max - len(st.sessions)
		if room < 0 {
			room = 0
		}
		if len(found) > room {
			found = found[:room]
		}
	}

	for _, s := range found {
		st.sessions[s.ID()] = s
	}
	return len(found), nil
}

// SaveAll persists every session.
func (st *Store) SaveAll() error {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var errs []error
	for _, s := range st.sessions {
		if err := s.Save(); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", s.ID(), err))
		}
	}
	return errors.Join(errs...)
}
