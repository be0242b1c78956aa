package gate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/rules"
	"github.com/hookguard/hookguard-go/internal/storage"
)

func testStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type brokenStore struct{}

func (brokenStore) GetModeState() (*storage.ModeState, error)  { return nil, errors.New("disk gone") }
func (brokenStore) SetModeState(*storage.ModeState) error      { return errors.New("disk gone") }
func (brokenStore) AppendAuditEvent(*storage.AuditEvent) error { return errors.New("disk gone") }

func TestCurrentMode_DefaultsToStandard(t *testing.T) {
	db := testStore(t)
	assert.Equal(t, rules.ModeStandard, CurrentMode(db, zap.NewNop().Sugar()))
}

func TestCurrentMode_StorageFailureFallsBack(t *testing.T) {
	assert.Equal(t, rules.ModeStandard, CurrentMode(brokenStore{}, zap.NewNop().Sugar()))
}

func TestElevateAndRestore(t *testing.T) {
	db := testStore(t)

	require.NoError(t, Elevate(db, rules.ModeParanoid, 0))
	assert.Equal(t, rules.ModeParanoid, CurrentMode(db, zap.NewNop().Sugar()))

	require.NoError(t, Restore(db))
	assert.Equal(t, rules.ModeStandard, CurrentMode(db, zap.NewNop().Sugar()))
}

func TestElevate_WithDurationExpiresOnRead(t *testing.T) {
	db := testStore(t)

	// A negative duration arms a deadline already in the past, so the next
	// read performs the restore.
	require.NoError(t, Elevate(db, rules.ModeParanoid, -time.Second))
	assert.Equal(t, rules.ModeStandard, CurrentMode(db, zap.NewNop().Sugar()))
}

func TestElevate_WithFutureDurationHolds(t *testing.T) {
	db := testStore(t)

	require.NoError(t, Elevate(db, rules.ModePermissive, time.Hour))
	assert.Equal(t, rules.ModePermissive, CurrentMode(db, zap.NewNop().Sugar()))

	state, err := db.GetModeState()
	require.NoError(t, err)
	require.NotNil(t, state.AutoRestoreAt)
}

func TestElevate_RecordsAuditEvent(t *testing.T) {
	db := testStore(t)

	require.NoError(t, Elevate(db, rules.ModeParanoid, 0))
	events, err := db.ListAuditEvents(5)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "mode_changed", events[0].EventType)
}

func TestAutoElevate(t *testing.T) {
	tests := []struct {
		name string
		ctx  ElevationContext
		want rules.Mode
	}{
		{"no signals", ElevationContext{}, rules.ModeStandard},
		{"external review", ElevationContext{ExternalReview: true}, rules.ModeParanoid},
		{"untrusted repo", ElevationContext{UntrustedRepo: true}, rules.ModeParanoid},
		{"web fetch", ElevationContext{WebFetch: true}, rules.ModeParanoid},
		{"third-party skill", ElevationContext{ThirdPartySkill: true}, rules.ModeParanoid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AutoElevate(tt.ctx, rules.ModeStandard))
		})
	}
}

func TestAutoElevate_KeepsCurrentWhenQuiet(t *testing.T) {
	assert.Equal(t, rules.ModePermissive, AutoElevate(ElevationContext{}, rules.ModePermissive))
}
