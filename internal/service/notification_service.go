package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/voucher-service/internal/config"
	"github.com/spec-kit/voucher-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
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
	n.dispatcher.Subscribe(events.EventVoucherCreated, n.handleVoucherCreated)
	n.dispatcher.Subscribe(events.EventVoucherSubmitted, n.handleVoucherSubmitted)
	n.dispatcher.Subscribe(events.EventVoucherDeleted, n.handleVoucherDeleted)
	n.dispatcher.Subscribe(events.EventExpenseAdded, n.handleExpenseChanged)
	n.dispatcher.Subscribe(events.EventExpenseUpdated, n.handleExpenseChanged)
	n.dispatcher.Subscribe(events.EventExpenseRemoved, n.handleExpenseChanged)
}

func (n *NotificationService) handleVoucherCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("VoucherCreated", zap.String("voucher_id", event.VoucherID), zap.Any("payload", event.Payload))
	return nil
}

// handleVoucherSubmitted is where approval routing would hook in; a
// submitted voucher is the claim handed to finance.
func (n *NotificationService) handleVoucherSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("VoucherSubmitted", zap.String("voucher_id", event.VoucherID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleVoucherDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("VoucherDeleted", zap.String("voucher_id", event.VoucherID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleExpenseChanged(ctx context.Context, event events.Event) error {
	n.logger.Debug("ExpenseChanged",
		zap.String("type", string(event.Type)),
		zap.String("voucher_id", event.VoucherID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if n.cfg.WebhookURL == "" {
		return
	}
	n.logger.Info("webhook notification (stub)",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event", string(event.Type)),
		zap.String("voucher_id", event.VoucherID))
}
