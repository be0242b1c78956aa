package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.etcd.io/bbolt"
)

// auditKey builds a bbolt key with natural chronological ordering.
// Key format: {20-digit ns timestamp}_{ulid}.
func auditKey(timestamp time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", timestamp.UnixNano(), id))
}

// truncateDetail caps a detail string at budget bytes.
func truncateDetail(detail string, budget int) string {
	if budget <= 0 {
		budget = DefaultAuditDetailBudget
	}
	if len(detail) <= budget {
		return detail
	}
	return detail[:budget] + "...[truncated]"
}

// AppendAuditEvent stores one event in the append-only log. The event's ID
// and timestamp are filled in when absent, and the detail field is
// truncated to the configured byte budget.
func (s *DB) AppendAuditEvent(event *AuditEvent) error {
	if event == nil {
		return fmt.Errorf("audit event cannot be nil")
	}
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Detail = truncateDetail(event.Detail, s.auditDetailBudget)

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(AuditEventsBucket))
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}
		return bucket.Put(auditKey(event.Timestamp, event.ID), data)
	})
}

// ListAuditEvents returns up to limit events, newest first.
func (s *DB) ListAuditEvents(limit int) ([]*AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []*AuditEvent
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(AuditEventsBucket))
		if bucket == nil {
			return nil
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(events) < limit; k, v = cursor.Prev() {
			var event AuditEvent
			if err := json.Unmarshal(v, &event); err != nil {
				s.logger.Warnw("Skipping unreadable audit event", "key", string(k), "error", err)
				continue
			}
			events = append(events, &event)
		}
		return nil
	})
	return events, err
}

// CountAuditEvents returns the total number of stored events.
func (s *DB) CountAuditEvents() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(AuditEventsBucket))
		if bucket == nil {
			return nil
		}
		count = bucket.Stats().KeyN
		return nil
	})
	return count, err
}
