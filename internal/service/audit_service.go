package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/events"
)

// AuditService writes authentication events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleFailure)
	a.dispatcher.Subscribe(events.EventTokenRejected, a.handleFailure)
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("username", event.Username),
		zap.Time("at", event.Timestamp),
	}
	if event.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *event.UserID))
	}
	a.logger.Info(string(event.Type), fields...)
	return nil
}

func (a *AuditService) handleFailure(_ context.Context, event events.Event) error {
	reason := ""
	if p, ok := event.Payload.(events.FailurePayload); ok {
		reason = p.Reason
	}
	a.logger.Warn(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("username", event.Username),
		zap.String("path", event.Path),
		zap.String("reason", reason),
		zap.Time("at", event.Timestamp))
	return nil
}
