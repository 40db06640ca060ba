package audit

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"heimdall/internal/models"

	"github.com/google/uuid"
)

type Action string

const (
	ActionMemberAdmitted     Action = "member_admitted"
	ActionMemberRevoked      Action = "member_revoked"
	ActionWhitelistEnabled   Action = "whitelist_enabled"
	ActionWhitelistDisabled  Action = "whitelist_disabled"
	ActionLinkSet            Action = "link_set"
	ActionLinkCleared        Action = "link_cleared"
	ActionLinkVerified       Action = "link_verified"
	ActionExclusionIssued    Action = "exclusion_issued"
	ActionExclusionLifted    Action = "exclusion_lifted"
	ActionJoinAttemptDismiss Action = "join_attempt_dismissed"
	ActionVerificationReset  Action = "verification_reset"
)

// Sink receives one formatted record per call. Rotation and retention are the
// sink's problem, not the log's.
type Sink interface {
	Write(line string) error
}

type Logger interface {
	Warn(format string, v ...interface{})
}

// Log is an append-only recorder of security-relevant events. A sink failure
// is reported to the diagnostic logger and swallowed: a logging fault must
// never block the mutation that triggered it.
type Log struct {
	sink   Sink
	logger Logger
	now    func() time.Time
}

func NewLog(sink Sink, logger Logger) *Log {
	return &Log{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

func (l *Log) Append(action Action, target uuid.UUID, actor models.Actor, details string) {
	line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
		l.now().UTC().Format(time.RFC3339),
		action,
		target,
		actor,
		sanitize(details),
	)
	if err := l.sink.Write(line); err != nil {
		l.logger.Warn("audit write failed: %v", err)
	}
}

// sanitize keeps records line-oriented even when details carry user text.
func sanitize(details string) string {
	details = strings.ReplaceAll(details, "\n", " ")
	return strings.ReplaceAll(details, "\t", " ")
}

// FileSink appends newline-terminated records to a single file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileSink{file: f}, nil
}

func (s *FileSink) Write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.file.WriteString(line + "\n")
	return err
}

func (s *FileSink) Close() error {
	return s.file.Close()
}
