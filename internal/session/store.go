package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	storeDirName  = "glowcart"
	storeFileName = "session.json"
)

// ErrCorrupt is returned by Load when the persisted session exists but
// cannot be decoded into a valid Session.
var ErrCorrupt = errors.New("corrupt session data")

// Reader is the read-only view of the store handed to route gates and
// commands that only need to know who is logged in.
type Reader interface {
	Current() Session
	Load() (Session, error)
}

// Writer is the mutating view. Only the auth flow controller receives it.
type Writer interface {
	Save(Session) error
	Clear() error
}

// Store persists a single session record as JSON in the user's config
// directory, mirroring how the CLI keeps its other local state.
type Store struct {
	mu   sync.Mutex
	path string

	cached bool
	cache  Session
}

// NewStore creates a store at the default location (~/.config/glowcart/session.json).
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	path := filepath.Join(homeDir, ".config", storeDirName, storeFileName)
	return NewStoreAt(path), nil
}

// NewStoreAt creates a store backed by an explicit file path. Used by tests.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted session. Absence yields the guest sentinel with
// no error; malformed or partially-filled data yields ErrCorrupt.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached {
		return s.cache, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.setCache(Guest())
			return Guest(), nil
		}
		return Guest(), fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Guest(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	// An identity without a role is a half-written record, not a session.
	if sess.UserID != "" && sess.Role == "" {
		return Guest(), fmt.Errorf("%w: session has user id but no role", ErrCorrupt)
	}

	s.setCache(sess)
	return sess, nil
}

// Current returns the current session and never fails: corruption and read
// errors degrade to the guest sentinel.
func (s *Store) Current() Session {
	sess, err := s.Load()
	if err != nil {
		return Guest()
	}
	return sess
}

// Save persists the session and makes it visible to all readers. Idempotent.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	s.setCache(sess)
	return nil
}

// Clear resets to the guest sentinel. Idempotent: clearing an already-clear
// store is a no-op that still succeeds.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	s.setCache(Guest())
	return nil
}

// Reload drops the in-memory cache so the next read re-parses the file.
// The role-level gate uses this to honor its no-cache contract.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = false
}

func (s *Store) setCache(sess Session) {
	s.cached = true
	s.cache = sess
}
