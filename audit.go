package authcore

import (
	"context"
	"io"

	"github.com/nvellon/authcore/internal/audit"
)

// Audit surface re-exported from the internal dispatcher so callers can
// supply sinks without importing internal packages.

// AuditEvent is one security-relevant state transition.
type AuditEvent = audit.Event

// AuditSink consumes emitted events.
type AuditSink = audit.Sink

// Audit outcomes.
const (
	AuditSuccess = audit.OutcomeSuccess
	AuditFailure = audit.OutcomeFailure
	AuditDenied  = audit.OutcomeDenied
)

// NewAuditChannelSink returns a sink backed by a buffered channel plus the
// receive side for the consumer.
func NewAuditChannelSink(buffer int) (AuditSink, <-chan AuditEvent) {
	sink := audit.NewChannelSink(buffer)
	return sink, sink.Events()
}

// NewAuditJSONSink returns a sink that writes one JSON event per line.
func NewAuditJSONSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (m *Manager) AuditDropped() uint64 {
	return m.auditor.Dropped()
}

// event names emitted by the Manager.
const (
	actionLogin          = "login"
	actionRefresh        = "refresh"
	actionLogout         = "logout"
	actionLogoutAll      = "logout_all"
	actionVerify         = "verify"
	actionPasswordChange = "password_change"
	actionReplayCascade  = "replay_cascade"
	actionLockout        = "lockout"

	auditResource = "Auth"
)

func (m *Manager) emit(ctx context.Context, action, actorID string, outcome audit.Outcome, severity audit.Severity, detail map[string]string) {
	m.auditor.Emit(ctx, audit.Event{
		Action:   action,
		Resource: auditResource,
		ActorID:  actorID,
		Outcome:  outcome,
		Severity: severity,
		IP:       clientIPFromContext(ctx),
		Detail:   detail,
	})
}
