// Package canary issues unguessable tokens and detects their reappearance
// in observed content. A token showing up anywhere downstream proves a leak
// path exists; the match contract is exact full-token substring search, so
// partial or mangled tokens never trigger.
package canary

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hookguard/hookguard-go/internal/storage"
)

// tokenTypeCodes maps recognized token types to their format suffix letter.
var tokenTypeCodes = map[string]string{
	"prompt": "P",
	"file":   "F",
	"config": "C",
	"output": "O",
}

// tokenFormat pins the textual shape: CANARY-<12 lowercase hex>-<type code>.
var tokenFormat = regexp.MustCompile(`^CANARY-[0-9a-f]{12}-[PFCO]$`)

// ErrUnknownTokenType is returned by Create for unrecognized token types.
var ErrUnknownTokenType = fmt.Errorf("unknown canary token type")

// Store is the narrow persistence surface the subsystem needs.
type Store interface {
	SaveCanary(record *storage.CanaryRecord) error
	ListCanaries() ([]*storage.CanaryRecord, error)
	MarkCanaryTriggered(token, triggeredBy string, at time.Time) (bool, error)
	AppendAuditEvent(event *storage.AuditEvent) error
}

// Service creates and checks canary tokens against a storage collaborator.
type Service struct {
	store  Store
	logger *zap.SugaredLogger
}

// NewService wires the subsystem to its store.
func NewService(store Store, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, logger: logger}
}

// ValidToken reports whether s has the exact canary token shape.
func ValidToken(s string) bool {
	return tokenFormat.MatchString(s)
}

// Create mints, persists, and returns a fresh canary token of the given
// type. Unknown types fail validation; they are never silently coerced.
func (s *Service) Create(tokenType, context string) (*storage.CanaryRecord, error) {
	code, ok := tokenTypeCodes[tokenType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTokenType, tokenType)
	}

	body := make([]byte, 6)
	if _, err := rand.Read(body); err != nil {
		return nil, fmt.Errorf("failed to generate token body: %w", err)
	}

	record := &storage.CanaryRecord{
		Token:     fmt.Sprintf("CANARY-%s-%s", hex.EncodeToString(body), code),
		TokenType: tokenType,
		Context:   context,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveCanary(record); err != nil {
		return nil, fmt.Errorf("failed to persist canary: %w", err)
	}

	s.logger.Debugw("Created canary token", "token_type", tokenType)
	return record, nil
}

// Triggered describes one token found in checked content.
type Triggered struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	Context   string `json:"context,omitempty"`
}

// CheckResult is the outcome of one Check call.
type CheckResult struct {
	Clean             bool        `json:"clean"`
	TriggeredCanaries []Triggered `json:"triggered_canaries,omitempty"`
}

// Check scans content for every registered token using exact full-token
// substring match. Each hit is marked triggered in storage (first detection
// wins; repeats are no-ops) and the first detection emits one critical
// audit event. A store that cannot be read degrades to "no canaries found"
// rather than failing the caller's primary task.
func (s *Service) Check(content, detectedBy string) *CheckResult {
	result := &CheckResult{Clean: true}
	if content == "" {
		return result
	}

	records, err := s.store.ListCanaries()
	if err != nil {
		s.logger.Warnw("Canary store unavailable, treating content as clean", "error", err)
		return result
	}

	for _, record := range records {
		if !strings.Contains(content, record.Token) {
			continue
		}

		result.Clean = false
		result.TriggeredCanaries = append(result.TriggeredCanaries, Triggered{
			Token:     record.Token,
			TokenType: record.TokenType,
			Context:   record.Context,
		})

		marked, err := s.store.MarkCanaryTriggered(record.Token, detectedBy, time.Now())
		if err != nil {
			s.logger.Warnw("Failed to mark canary triggered", "error", err)
			continue
		}
		if !marked {
			// Already triggered earlier; detection is still reported but the
			// audit log must not grow on repeats.
			continue
		}

		if err := s.store.AppendAuditEvent(&storage.AuditEvent{
			EventType: "canary_triggered",
			Severity:  "critical",
			Source:    detectedBy,
			Detail:    fmt.Sprintf("canary token %s (%s) detected in observed content", record.Token, record.TokenType),
		}); err != nil {
			s.logger.Warnw("Failed to append canary audit event", "error", err)
		}
	}

	return result
}

// List returns all registered canaries.
func (s *Service) List() ([]*storage.CanaryRecord, error) {
	return s.store.ListCanaries()
}
