package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_SchemaVersion(t *testing.T) {
	db := testDB(t)
	version, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(CurrentSchemaVersion), version)
}

func TestCanary_SaveListMark(t *testing.T) {
	db := testDB(t)

	record := &CanaryRecord{Token: "CANARY-0123456789ab-P", TokenType: "prompt", Context: "test plant"}
	require.NoError(t, db.SaveCanary(record))

	records, err := db.ListCanaries()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "prompt", records[0].TokenType)
	assert.Nil(t, records[0].TriggeredAt)
	assert.False(t, records[0].CreatedAt.IsZero())

	marked, err := db.MarkCanaryTriggered(record.Token, "gate", time.Now())
	require.NoError(t, err)
	assert.True(t, marked)

	// Second mark is a no-op and must not move TriggeredAt.
	records, err = db.ListCanaries()
	require.NoError(t, err)
	firstTrigger := *records[0].TriggeredAt

	marked, err = db.MarkCanaryTriggered(record.Token, "scanner", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, marked)

	records, err = db.ListCanaries()
	require.NoError(t, err)
	assert.Equal(t, firstTrigger, *records[0].TriggeredAt)
	assert.Equal(t, "gate", records[0].TriggeredBy)
}

func TestCanary_MarkUnknownToken(t *testing.T) {
	db := testDB(t)
	_, err := db.MarkCanaryTriggered("CANARY-000000000000-P", "gate", time.Now())
	assert.Error(t, err)
}

func TestModeState_DefaultsToStandard(t *testing.T) {
	db := testDB(t)
	state, err := db.GetModeState()
	require.NoError(t, err)
	assert.Equal(t, "standard", state.Mode)
}

func TestModeState_RoundTrip(t *testing.T) {
	db := testDB(t)

	restore := time.Now().Add(time.Hour).UTC()
	require.NoError(t, db.SetModeState(&ModeState{Mode: "paranoid", AutoRestoreAt: &restore}))

	state, err := db.GetModeState()
	require.NoError(t, err)
	assert.Equal(t, "paranoid", state.Mode)
	require.NotNil(t, state.AutoRestoreAt)
}

func TestModeState_LazyExpiry(t *testing.T) {
	db := testDB(t)

	expired := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, db.SetModeState(&ModeState{Mode: "paranoid", AutoRestoreAt: &expired}))

	// The read itself performs the restore.
	state, err := db.GetModeState()
	require.NoError(t, err)
	assert.Equal(t, "standard", state.Mode)
	assert.Nil(t, state.AutoRestoreAt)

	// And the reset was persisted, not just returned.
	state, err = db.GetModeState()
	require.NoError(t, err)
	assert.Equal(t, "standard", state.Mode)
}

func TestModeState_NoExpiryWithoutDeadline(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.SetModeState(&ModeState{Mode: "permissive"}))

	state, err := db.GetModeState()
	require.NoError(t, err)
	assert.Equal(t, "permissive", state.Mode, "elevation without a deadline persists until explicit restore")
}

func TestAudit_AppendAndList(t *testing.T) {
	db := testDB(t)

	for _, name := range []string{"first", "second", "third"} {
		require.NoError(t, db.AppendAuditEvent(&AuditEvent{
			EventType: "test_event",
			Severity:  "high",
			Source:    name,
		}))
		time.Sleep(2 * time.Millisecond)
	}

	events, err := db.ListAuditEvents(10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "third", events[0].Source, "newest first")
	assert.Equal(t, "first", events[2].Source)

	count, err := db.CountAuditEvents()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAudit_DetailTruncation(t *testing.T) {
	db := testDB(t)
	db.SetAuditDetailBudget(16)

	event := &AuditEvent{EventType: "test_event", Severity: "low", Detail: strings.Repeat("x", 100)}
	require.NoError(t, db.AppendAuditEvent(event))

	events, err := db.ListAuditEvents(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, strings.Repeat("x", 16)+"...[truncated]", events[0].Detail)
}
