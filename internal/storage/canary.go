package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// SaveCanary persists a new canary row keyed by its token string.
func (s *DB) SaveCanary(record *CanaryRecord) error {
	if record == nil || record.Token == "" {
		return fmt.Errorf("canary record must have a token")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(CanariesBucket))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal canary record: %w", err)
		}
		return bucket.Put([]byte(record.Token), data)
	})
}

// ListCanaries returns every registered canary in token order.
func (s *DB) ListCanaries() ([]*CanaryRecord, error) {
	var records []*CanaryRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(CanariesBucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var record CanaryRecord
			if err := json.Unmarshal(v, &record); err != nil {
				s.logger.Warnw("Skipping unreadable canary record", "error", err)
				return nil
			}
			records = append(records, &record)
			return nil
		})
	})
	return records, err
}

// MarkCanaryTriggered sets TriggeredAt/TriggeredBy on the token's row if it
// has not been triggered before. The first caller wins; repeats are no-ops.
// Returns whether this call performed the marking.
func (s *DB) MarkCanaryTriggered(token, triggeredBy string, at time.Time) (bool, error) {
	var marked bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(CanariesBucket))
		raw := bucket.Get([]byte(token))
		if raw == nil {
			return fmt.Errorf("canary %s not found", token)
		}

		var record CanaryRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("failed to unmarshal canary record: %w", err)
		}
		if record.TriggeredAt != nil {
			return nil
		}

		at = at.UTC()
		record.TriggeredAt = &at
		record.TriggeredBy = triggeredBy
		marked = true

		data, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("failed to marshal canary record: %w", err)
		}
		return bucket.Put([]byte(token), data)
	})
	return marked, err
}
