package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/conjunto-service/internal/config"
	"github.com/spec-kit/conjunto-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Delivery is a logging stub; the token events in particular log the token
// instead of emailing it.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPQRCreated, n.handlePQRCreated)
	n.dispatcher.Subscribe(events.EventPQRStatusChanged, n.handlePQRStatusChanged)
	n.dispatcher.Subscribe(events.EventPQRDeleted, n.handlePQRDeleted)
	n.dispatcher.Subscribe(events.EventAssemblyScheduled, n.handleAssemblyEvent)
	n.dispatcher.Subscribe(events.EventAssemblyTransition, n.handleAssemblyEvent)
	n.dispatcher.Subscribe(events.EventPasswordResetIssued, n.handleTokenIssued)
	n.dispatcher.Subscribe(events.EventEmailVerifyIssued, n.handleTokenIssued)
	n.dispatcher.Subscribe(events.EventTenantProvisioned, n.handleTenantProvisioned)
}

func (n *NotificationService) handlePQRCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("PQRCreated",
		zap.String("tenant_id", event.TenantID),
		zap.String("pqr_id", event.EntityID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePQRStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("PQRStatusChanged",
		zap.String("tenant_id", event.TenantID),
		zap.String("pqr_id", event.EntityID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePQRDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("PQRDeleted",
		zap.String("tenant_id", event.TenantID),
		zap.String("pqr_id", event.EntityID))
	return nil
}

func (n *NotificationService) handleAssemblyEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("tenant_id", event.TenantID),
		zap.String("assembly_id", event.EntityID),
		zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTokenIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TokenIssuedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TokenIssued",
		zap.String("event_type", string(event.Type)),
		zap.String("email", payload.Email),
		zap.String("token", payload.Token))
	return nil
}

func (n *NotificationService) handleTenantProvisioned(ctx context.Context, event events.Event) error {
	n.logger.Info("TenantProvisioned",
		zap.String("tenant_id", event.TenantID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("entity_id", event.EntityID),
		zap.String("event_type", string(event.Type)))
}
