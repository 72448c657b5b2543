package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names one kind of entry in the session audit trail.
type AuditEventType string

const (
	// Session lifecycle
	AuditSessionStart AuditEventType = "session_start"
	AuditSessionEnd   AuditEventType = "session_end"

	// Turn lifecycle
	AuditTurnStart AuditEventType = "turn_start"
	AuditTurnEnd   AuditEventType = "turn_end"
	AuditTurnError AuditEventType = "turn_error"

	// Remote model calls
	AuditLLMResponse AuditEventType = "llm_response"
	AuditLLMError    AuditEventType = "llm_error"

	// Transcript writes
	AuditHistoryWrite AuditEventType = "history_write"
)

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditMu   sync.Mutex
	auditLog  = zap.NewNop()
	auditFile *os.File
	auditPath string
)

// AuditLogger writes JSON-lines audit events, one object per line, to
// <dir>/logs/<date>_audit.jsonl. It is a no-op unless debug mode is on.
type AuditLogger struct {
	sessionID string
}

// openAudit is called by Initialize when debug mode is on.
func openAudit(logsDir, date string) error {
	auditMu.Lock()
	defer auditMu.Unlock()
	closeAuditLocked()

	path := filepath.Join(logsDir, fmt.Sprintf("%s_audit.jsonl", date))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.MessageKey = "msg"
	encCfg.LevelKey = ""
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel)
	auditLog = zap.New(core)
	auditFile = file
	auditPath = path
	return nil
}

// closeAudit flushes and closes the audit file.
func closeAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	closeAuditLocked()
}

func closeAuditLocked() {
	_ = auditLog.Sync()
	if auditFile != nil {
		_ = auditFile.Close()
		auditFile = nil
	}
	auditLog = zap.NewNop()
	auditPath = ""
}

// AuditPath returns the active audit file, or "" when auditing is off.
func AuditPath() string {
	auditMu.Lock()
	defer auditMu.Unlock()
	return auditPath
}

// Audit returns an audit logger with no session scope.
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditWithSession creates an audit logger scoped to a session.
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes one event.
func (a *AuditLogger) Log(event AuditEventType, success bool, msg string, fields ...zap.Field) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile == nil {
		return
	}

	all := make([]zap.Field, 0, len(fields)+3)
	all = append(all, zap.String("event", string(event)), zap.Bool("success", success))
	if a.sessionID != "" {
		all = append(all, zap.String("session", a.sessionID))
	}
	all = append(all, fields...)
	auditLog.Info(msg, all...)
}

// =============================================================================
// CONVENIENCE METHODS FOR COMMON EVENTS
// =============================================================================

// SessionStart logs the start of a REPL session.
func (a *AuditLogger) SessionStart(synth string, policy string) {
	a.Log(AuditSessionStart, true, "Session started",
		zap.String("synth", synth), zap.String("policy", policy))
}

// SessionEnd logs the end of a REPL session.
func (a *AuditLogger) SessionEnd(turnCount int, duration time.Duration) {
	a.Log(AuditSessionEnd, true, fmt.Sprintf("Session ended (%d turns)", turnCount),
		zap.Int("turn_count", turnCount), zap.Int64("dur_ms", duration.Milliseconds()))
}

// TurnStart logs a query entering research.
func (a *AuditLogger) TurnStart(turnNum int, query string) {
	a.Log(AuditTurnStart, true, fmt.Sprintf("Turn %d started", turnNum),
		zap.Int("turn", turnNum), zap.Int("input_len", len(query)))
}

// TurnEnd logs a completed turn.
func (a *AuditLogger) TurnEnd(turnNum int, duration time.Duration) {
	a.Log(AuditTurnEnd, true, fmt.Sprintf("Turn %d ended", turnNum),
		zap.Int("turn", turnNum), zap.Int64("dur_ms", duration.Milliseconds()))
}

// TurnError logs a turn that produced no result.
func (a *AuditLogger) TurnError(turnNum int, kind string, err error) {
	a.Log(AuditTurnError, false, fmt.Sprintf("Turn %d failed (%s)", turnNum, kind),
		zap.Int("turn", turnNum), zap.String("kind", kind), zap.String("error", errString(err)))
}

// LLMCall logs one remote model call.
func (a *AuditLogger) LLMCall(model string, duration time.Duration, err error) {
	event := AuditLLMResponse
	if err != nil {
		event = AuditLLMError
	}
	a.Log(event, err == nil, "LLM call: "+model,
		zap.String("model", model), zap.Int64("dur_ms", duration.Milliseconds()), zap.String("error", errString(err)))
}

// HistoryWrite logs a transcript write.
func (a *AuditLogger) HistoryWrite(turnNum int, err error) {
	a.Log(AuditHistoryWrite, err == nil, fmt.Sprintf("Turn %d recorded", turnNum),
		zap.Int("turn", turnNum), zap.String("error", errString(err)))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
