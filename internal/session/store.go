package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const storeFileName = "session.json"

// Store is the durable single-session record at one well-known path.
type Store struct {
	path string
}

// NewStore roots the store in dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ensure session dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, storeFileName)}, nil
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted Session. The second return is false when no
// session exists.
func (s *Store) Load() (Session, bool, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("read session store: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(content, &sess); err != nil {
		return Session{}, false, fmt.Errorf("decode session store: %w", err)
	}
	return sess, true, nil
}

// Commit atomically replaces the store with sess. Writing to a temp file and
// renaming guarantees a reader never observes a partially written Session.
func (s *Store) Commit(sess Session) error {
	content, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(content, '\n'), 0o600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit session store: %w", err)
	}
	return nil
}

// Clear removes the persisted Session. A missing store is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session store: %w", err)
	}
	return nil
}
