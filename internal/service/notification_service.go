package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/spec-kit/routing-service/internal/config"
	"github.com/spec-kit/routing-service/internal/events"
	"github.com/spec-kit/routing-service/internal/routing"
)

// NotificationService is the fire-and-forget sink for escalation
// notifications and routing event fan-out. Webhook delivery retries with
// exponential backoff; failures are logged and dropped.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	client     *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterHandlers subscribes to routing events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventItemAssigned, n.handleRoutingEvent)
	n.dispatcher.Subscribe(events.EventItemReassigned, n.handleRoutingEvent)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleRoutingEvent)
	n.dispatcher.Subscribe(events.EventEscalationTriggered, n.handleRoutingEvent)
}

// Notify implements routing.Notifier.
func (n *NotificationService) Notify(ctx context.Context, kind routing.NotifyKind, itemID string, level int) {
	n.logger.Info("escalation notification",
		zap.String("kind", string(kind)),
		zap.String("item_id", itemID),
		zap.Int("level", level))
	n.postWebhook(ctx, map[string]any{
		"type":    "escalation_" + string(kind),
		"item_id": itemID,
		"level":   level,
	})
}

func (n *NotificationService) handleRoutingEvent(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("item_id", event.ItemID),
		zap.Any("payload", event.Payload))
	n.postWebhook(ctx, map[string]any{
		"type":      string(event.Type),
		"item_id":   event.ItemID,
		"timestamp": event.Timestamp,
		"payload":   event.Payload,
	})
	return nil
}

func (n *NotificationService) postWebhook(ctx context.Context, payload map[string]any) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("webhook payload marshal failed", zap.Error(err))
		return
	}

	b := &backoff.Backoff{Min: 200 * time.Millisecond, Max: 5 * time.Second, Jitter: true}
	attempts := n.cfg.WebhookMaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err := n.deliver(ctx, body); err == nil {
			return
		} else if i == attempts-1 {
			n.logger.Warn("webhook delivery failed; dropping", zap.Error(err))
			return
		}
		select {
		case <-time.After(b.Duration()):
		case <-ctx.Done():
			return
		}
	}
}

func (n *NotificationService) deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
