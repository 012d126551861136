package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventOptimize      AuditEventType = "optimize"
	AuditEventGraphStore    AuditEventType = "graph.store"
	AuditEventWorkflowStart AuditEventType = "workflow.start"
	AuditEventWorkflowEnd   AuditEventType = "workflow.end"
)

// AuditEvent is one line of the audit log. Source code is never logged,
// only its size.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	SessionID   string         `json:"session_id"`
	RequestID   string         `json:"request_id,omitempty"`
	WorkflowID  string         `json:"workflow_id,omitempty"`
	Language    string         `json:"language,omitempty"`
	Success     bool           `json:"success"`
	DurationMS  int64          `json:"duration_ms,omitempty"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	ErrorDetail string         `json:"error_detail,omitempty"`
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputPath string `mapstructure:"output_path"` // file path or "stdout"/"stderr"
	SessionID  string `mapstructure:"session_id"`
}

// AuditLogger writes audit events as JSON lines.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// NewAuditLogger creates an audit logger. A nil or disabled config yields
// a logger that drops every event.
func NewAuditLogger(cfg *AuditConfig) (*AuditLogger, error) {
	if cfg == nil || !cfg.Enabled {
		return &AuditLogger{}, nil
	}

	var writer io.Writer
	switch cfg.OutputPath {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &AuditLogger{writer: writer, sessionID: sessionID, enabled: true}, nil
}

// NewWriterAuditLogger logs to w.
func NewWriterAuditLogger(w io.Writer, sessionID string) *AuditLogger {
	return &AuditLogger{writer: w, sessionID: sessionID, enabled: true}
}

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if l == nil || !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

// LogOptimize records the outcome of one optimization request.
func (l *AuditLogger) LogOptimize(requestID, language string, codeBytes int, duration time.Duration, details map[string]any, err error) {
	event := &AuditEvent{
		EventType:  AuditEventOptimize,
		RequestID:  requestID,
		Language:   language,
		Success:    err == nil,
		DurationMS: duration.Milliseconds(),
		Message:    fmt.Sprintf("optimized %d bytes of %s", codeBytes, language),
		Details:    details,
	}
	if err != nil {
		event.Message = fmt.Sprintf("optimization of %s failed", language)
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogGraphStore records an IR snapshot written to the graph store.
func (l *AuditLogger) LogGraphStore(runID string, nodes int, err error) {
	event := &AuditEvent{
		EventType: AuditEventGraphStore,
		RequestID: runID,
		Success:   err == nil,
		Message:   fmt.Sprintf("stored %d IR nodes", nodes),
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// LogWorkflowStart logs a workflow start event.
func (l *AuditLogger) LogWorkflowStart(workflowID, language string) {
	l.Log(&AuditEvent{
		EventType:  AuditEventWorkflowStart,
		WorkflowID: workflowID,
		Language:   language,
		Success:    true,
		Message:    "workflow started",
	})
}

// LogWorkflowEnd logs a workflow completion event.
func (l *AuditLogger) LogWorkflowEnd(workflowID string, duration time.Duration, err error) {
	event := &AuditEvent{
		EventType:  AuditEventWorkflowEnd,
		WorkflowID: workflowID,
		Success:    err == nil,
		DurationMS: duration.Milliseconds(),
		Message:    "workflow completed",
	}
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	l.Log(event)
}

// Close closes the audit log file, if any.
func (l *AuditLogger) Close() error {
	if l == nil {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
