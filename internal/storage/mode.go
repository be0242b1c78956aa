package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// defaultMode is the value the mode row decays to. Kept as a plain string
// so the storage layer stays ignorant of the rules package.
const defaultMode = "standard"

// GetModeState reads the single security-mode row and performs the lazy
// restore: if the stored mode is elevated and its AutoRestoreAt has passed,
// the row is reset to standard inside the same transaction as the read.
// An absent row reads as standard.
func (s *DB) GetModeState() (*ModeState, error) {
	state := &ModeState{Mode: defaultMode}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SecurityModeBucket))
		raw := bucket.Get([]byte(ModeStateKey))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, state); err != nil {
			return fmt.Errorf("failed to unmarshal mode state: %w", err)
		}

		if state.Mode == defaultMode || state.AutoRestoreAt == nil || time.Now().Before(*state.AutoRestoreAt) {
			return nil
		}

		// Expired elevation: reset in place so the next reader sees standard
		// without any background process.
		state.Mode = defaultMode
		state.UpdatedAt = time.Now().UTC()
		state.AutoRestoreAt = nil

		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal mode state: %w", err)
		}
		return bucket.Put([]byte(ModeStateKey), data)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SetModeState replaces the security-mode row.
func (s *DB) SetModeState(state *ModeState) error {
	if state == nil || state.Mode == "" {
		return fmt.Errorf("mode state must have a mode")
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SecurityModeBucket))
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal mode state: %w", err)
		}
		return bucket.Put([]byte(ModeStateKey), data)
	})
}
