package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Houeta/homecare-api/internal/events"
	"github.com/Houeta/homecare-api/internal/lib/logger/sl"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier drains the lifecycle queue and fans each event out into one
// notification row per recipient.
type Notifier struct {
	log     *slog.Logger
	repo    repository.NotificationRepoIface
	metrics *metrics.Metrics
}

func NewNotifier(log *slog.Logger, repo repository.NotificationRepoIface, mtx *metrics.Metrics) *Notifier {
	return &Notifier{log: log, repo: repo, metrics: mtx}
}

// Run consumes deliveries until the context is cancelled or the channel
// closes. Undecodable messages are dropped; storage failures are requeued.
func (n *Notifier) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	n.log.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			n.log.Info("notification worker stopped", slog.String("reason", ctx.Err().Error()))
			return
		case delivery, ok := <-deliveries:
			if !ok {
				n.log.Warn("delivery channel closed, notification worker exiting")
				return
			}
			n.handle(ctx, delivery)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, delivery amqp.Delivery) {
	var event events.LifecycleEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		n.log.Error("failed to decode lifecycle event, dropping", sl.Err(err))
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			n.log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}

	for _, recipient := range event.Recipients {
		notification := models.Notification{
			UserID:  recipient,
			TaskID:  event.TaskID,
			Action:  event.Action,
			Message: event.Details,
		}
		if err := n.repo.CreateNotification(ctx, &notification); err != nil {
			n.log.Error("failed to store notification, requeueing",
				sl.Err(err), sl.Task(event.TaskID), sl.User(recipient))
			if nackErr := delivery.Nack(false, true); nackErr != nil {
				n.log.Error("failed to nack message", sl.Err(nackErr))
			}
			return
		}
		n.metrics.NotificationsStored.Inc()
	}

	if err := delivery.Ack(false); err != nil {
		n.log.Error("failed to ack message", sl.Err(err))
		return
	}

	n.log.Debug("lifecycle event processed",
		sl.Task(event.TaskID),
		slog.String("action", event.Action),
		slog.Int("recipients", len(event.Recipients)),
	)
}
