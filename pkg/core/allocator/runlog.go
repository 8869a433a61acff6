package allocator

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jakechorley/shift-planner/pkg/core/coverage"
	"github.com/jakechorley/shift-planner/pkg/core/model"
)

// Run log codes
const (
	CodePhase          = "PHASE"
	CodeRunFailed      = "RUN_FAILED"
	CodeUnderStaffed   = "UNDER_STAFFED"
	CodeOverStaffed    = "OVER_STAFFED"
	CodeViolation      = "CONSTRAINT_VIOLATION"
	CodePreAllocated   = "PRE_ALLOCATED"
	CodeClosed         = "CLOSED"
	CodeCommitted      = "COMMITTED"
	CodeDryRun         = "DRY_RUN"
	CodeNoSlots        = "NO_SLOTS"
	CodePlaceholders   = "PLACEHOLDERS"
	CodeBaseVersion    = "BASE_VERSION"
	CodeHistoryLoaded  = "HISTORY_LOADED"
	CodeAssignmentDone = "ASSIGNMENT_DONE"
)

// RunLogEntry is one timestamped, leveled event of a run
type RunLogEntry struct {
	Time    time.Time
	Level   zapcore.Level
	Code    string
	Message string
	SlotID  string
	Date    string
}

// RunLog collects a run's events and mirrors each one to zap
type RunLog struct {
	entries []RunLogEntry
	logger  *zap.Logger
	now     func() time.Time
}

func NewRunLog(logger *zap.Logger) *RunLog {
	return &RunLog{logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (l *RunLog) Info(code, message string, slot *coverage.Slot) {
	l.add(zapcore.InfoLevel, code, message, slot)
}

func (l *RunLog) Warn(code, message string, slot *coverage.Slot) {
	l.add(zapcore.WarnLevel, code, message, slot)
}

func (l *RunLog) Error(code, message string, slot *coverage.Slot) {
	l.add(zapcore.ErrorLevel, code, message, slot)
}

func (l *RunLog) add(level zapcore.Level, code, message string, slot *coverage.Slot) {
	entry := RunLogEntry{Time: l.now(), Level: level, Code: code, Message: message}
	fields := []zap.Field{zap.String("code", code)}
	if slot != nil {
		entry.SlotID = slot.ID
		entry.Date = model.FormatDate(slot.Date)
		fields = append(fields, zap.String("slot_id", entry.SlotID), zap.String("date", entry.Date))
	}
	l.entries = append(l.entries, entry)

	if ce := l.logger.Check(level, message); ce != nil {
		ce.Write(fields...)
	}
}

// Entries returns every entry in insertion order
func (l *RunLog) Entries() []RunLogEntry {
	return l.entries
}

// Warnings returns entries at warn level or above
func (l *RunLog) Warnings() []RunLogEntry {
	var out []RunLogEntry
	for _, e := range l.entries {
		if e.Level >= zapcore.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

// ForSlot returns the entries recorded against one slot
func (l *RunLog) ForSlot(slotID string) []RunLogEntry {
	var out []RunLogEntry
	for _, e := range l.entries {
		if e.SlotID == slotID {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many entries carry the code
func (l *RunLog) Count(code string) int {
	n := 0
	for _, e := range l.entries {
		if e.Code == code {
			n++
		}
	}
	return n
}
