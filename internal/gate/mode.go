package gate

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/rules"
	"github.com/hookguard/hookguard-go/internal/storage"
)

// ModeStore is the persistence surface mode resolution needs.
type ModeStore interface {
	GetModeState() (*storage.ModeState, error)
	SetModeState(state *storage.ModeState) error
	AppendAuditEvent(event *storage.AuditEvent) error
}

// CurrentMode resolves the effective security mode. Expired elevations are
// reset inside the storage read itself, so every caller sees the restored
// state. A store that cannot be read yields standard: mode resolution must
// never take down the tool call it is guarding.
func CurrentMode(store ModeStore, logger *zap.SugaredLogger) rules.Mode {
	state, err := store.GetModeState()
	if err != nil {
		logger.Warnw("Mode state unavailable, falling back to standard", "error", err)
		return rules.ModeStandard
	}
	mode, err := rules.ParseMode(state.Mode)
	if err != nil {
		logger.Warnw("Stored mode is invalid, falling back to standard", "mode", state.Mode)
		return rules.ModeStandard
	}
	return mode
}

// Elevate switches the persisted mode. A zero duration means the new mode
// holds until an explicit Restore; a positive duration arms auto-restore.
func Elevate(store ModeStore, mode rules.Mode, duration time.Duration) error {
	state := &storage.ModeState{Mode: string(mode), UpdatedAt: time.Now().UTC()}
	if duration != 0 {
		restoreAt := time.Now().Add(duration).UTC()
		state.AutoRestoreAt = &restoreAt
	}
	if err := store.SetModeState(state); err != nil {
		return fmt.Errorf("failed to persist mode change: %w", err)
	}

	detail := fmt.Sprintf("security mode set to %s", mode)
	if state.AutoRestoreAt != nil {
		detail = fmt.Sprintf("%s until %s", detail, state.AutoRestoreAt.Format(time.RFC3339))
	}
	_ = store.AppendAuditEvent(&storage.AuditEvent{
		EventType: "mode_changed",
		Severity:  "medium",
		Source:    "gate",
		Detail:    detail,
	})
	return nil
}

// Restore resets the persisted mode to standard immediately.
func Restore(store ModeStore) error {
	return Elevate(store, rules.ModeStandard, 0)
}

// ElevationContext describes the situation a tool call runs in, for
// advisory auto-elevation.
type ElevationContext struct {
	// ExternalReview is set when reviewing content authored outside the
	// trusted workspace, such as an incoming pull request.
	ExternalReview bool
	// UntrustedRepo is set when operating inside a repository that has not
	// been vetted.
	UntrustedRepo bool
	// WebFetch is set when the call consumes live web content.
	WebFetch bool
	// ThirdPartySkill is set when executing an installed third-party skill.
	ThirdPartySkill bool
}

// AutoElevate recommends a mode for the given context. Any hostile-adjacent
// signal recommends paranoid; otherwise it returns the current mode
// unchanged. The recommendation is advisory and is never persisted here.
func AutoElevate(ctx ElevationContext, current rules.Mode) rules.Mode {
	if ctx.ExternalReview || ctx.UntrustedRepo || ctx.WebFetch || ctx.ThirdPartySkill {
		return rules.ModeParanoid
	}
	return current
}
