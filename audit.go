package authkit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/greenledger/authkit/transport"
)

const (
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventSecondFactorRequired = "second_factor_required"
	auditEventSecondFactorSuccess  = "second_factor_success"
	auditEventSecondFactorFailure  = "second_factor_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventLogout               = "logout"
	auditEventSessionResumed       = "session_resumed"
	auditEventForcedAnonymous      = "forced_anonymous"
	auditEventResultDiscarded      = "result_discarded"
	auditEventRegisterSuccess      = "register_success"
	auditEventRegisterFailure      = "register_failure"
	auditEventInviteSent           = "invite_sent"
	auditEventInviteFailure        = "invite_failure"
	auditEventPasswordChanged      = "password_change_success"
	auditEventPasswordChangeReuse  = "password_change_reuse_attempt"
	auditEventPasswordChangeFailed = "password_change_failure"
	auditEventProfileFetched       = "profile_fetched"
	auditEventProfileFailure       = "profile_failure"
)

// AuditErrorCode is the stable, non-leaking error vocabulary used in audit
// events instead of raw error text.
type AuditErrorCode string

const (
	auditErrRequestFailed       AuditErrorCode = "request_failed"
	auditErrUnauthorized        AuditErrorCode = "unauthorized"
	auditErrValidation          AuditErrorCode = "validation_failure"
	auditErrSuperseded          AuditErrorCode = "superseded"
	auditErrNoPendingChallenge  AuditErrorCode = "no_pending_challenge"
	auditErrPasswordReuse       AuditErrorCode = "password_reuse"
	auditErrPasswordRequired    AuditErrorCode = "password_required"
	auditErrRegistrationInvalid AuditErrorCode = "registration_invalid"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	var verr *transport.ValidationError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrRequestFailed):
		return auditErrRequestFailed
	case errors.Is(err, ErrSuperseded):
		return auditErrSuperseded
	case errors.Is(err, ErrNoPendingChallenge):
		return auditErrNoPendingChallenge
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrPasswordRequired):
		return auditErrPasswordRequired
	case errors.Is(err, ErrRegistrationInvalid):
		return auditErrRegistrationInvalid
	case errors.As(err, &verr):
		return auditErrValidation
	default:
		return auditErrInternal
	}
}

// AuditEvent is one observable controller action. Events never carry
// credentials, codes, or tokens.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Phase     string            `json:"phase,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Role      string            `json:"role,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives controller audit events.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink buffers events on a channel for consumers that drain them
// elsewhere.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
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

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
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

// ZapSink logs events through a zap logger: Info for successes, Warn for
// failures.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Emit(_ context.Context, event AuditEvent) {
	fields := []zap.Field{
		zap.String("event", event.EventType),
		zap.String("phase", event.Phase),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Role != "" {
		fields = append(fields, zap.String("role", event.Role))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String(k, v))
	}

	if event.Success {
		s.logger.Info("auth event", fields...)
		return
	}
	s.logger.Warn("auth event", fields...)
}
