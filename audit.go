package courseauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Audit event types emitted by the Service.
const (
	AuditLoginSuccess        = "login_success"
	AuditLoginFailure        = "login_failure"
	AuditRegisterSuccess     = "register_success"
	AuditRegisterFailure     = "register_failure"
	AuditRefreshSuccess      = "refresh_success"
	AuditRefreshFailure      = "refresh_failure"
	AuditLogout              = "logout"
	AuditPasswordChange      = "password_change"
	AuditVerificationRequest = "verification_request"
	AuditVerificationConfirm = "verification_confirm"
	AuditAccountStatusChange = "account_status_change"
)

// AuditEvent is one security-relevant occurrence.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	AccountID int64             `json:"account_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher. Emit must be safe for
// concurrent use and should return quickly; slow sinks cause drops when
// DropIfFull is set.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards all events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a channel for external consumption.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON line per event.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// ZerologSink logs events through a zerolog logger: Info for successes,
// Warn for failures.
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

func (s *ZerologSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil {
		return
	}
	evt := s.logger.Info()
	if !event.Success {
		evt = s.logger.Warn()
	}
	evt = evt.
		Str("event_type", event.EventType).
		Time("timestamp", event.Timestamp).
		Bool("success", event.Success)
	if event.AccountID != 0 {
		evt = evt.Int64("account_id", event.AccountID)
	}
	if event.IP != "" {
		evt = evt.Str("ip", event.IP)
	}
	if event.Error != "" {
		evt = evt.Str("error", event.Error)
	}
	for k, v := range event.Metadata {
		evt = evt.Str("meta_"+k, v)
	}
	evt.Msg("audit")
}
