package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// openTimeout bounds how long Open waits on a locked database file. The
// hook host enforces its own wall-clock timeout on the whole process, so a
// contended store must degrade the caller quickly instead of hanging.
const openTimeout = 3 * time.Second

// DB wraps the bbolt database holding canaries, the security-mode row, and
// the audit log.
type DB struct {
	db     *bbolt.DB
	logger *zap.SugaredLogger

	auditDetailBudget int
}

// Open opens (creating if needed) the database at dataDir/hookguard.db.
func Open(dataDir string, logger *zap.SugaredLogger) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	dbPath := filepath.Join(dataDir, "hookguard.db")
	db, err := bbolt.Open(dbPath, 0o644, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	s := &DB{
		db:                db,
		logger:            logger,
		auditDetailBudget: DefaultAuditDetailBudget,
	}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

// SetAuditDetailBudget overrides the per-event detail cap.
func (s *DB) SetAuditDetailBudget(budget int) {
	if budget > 0 {
		s.auditDetailBudget = budget
	}
}

func (s *DB) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := []string{
			CanariesBucket,
			SecurityModeBucket,
			AuditEventsBucket,
			MetaBucket,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket([]byte(MetaBucket))
		versionBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(versionBytes, CurrentSchemaVersion)
		return meta.Put([]byte(SchemaVersionKey), versionBytes)
	})
}

// SchemaVersion returns the stored schema version.
func (s *DB) SchemaVersion() (uint64, error) {
	var version uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(MetaBucket))
		if bucket == nil {
			return fmt.Errorf("meta bucket not found")
		}
		if raw := bucket.Get([]byte(SchemaVersionKey)); raw != nil {
			version = binary.LittleEndian.Uint64(raw)
		}
		return nil
	})
	return version, err
}
