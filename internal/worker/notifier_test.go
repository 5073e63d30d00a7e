package worker_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Houeta/homecare-api/internal/events"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

type fakeNotificationRepo struct {
	stored []models.Notification
	err    error
}

func (f *fakeNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, *n)
	return nil
}

func (f *fakeNotificationRepo) ListNotificationsForUser(_ context.Context, _ string) ([]models.Notification, error) {
	return f.stored, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runOne(t *testing.T, repo *fakeNotificationRepo, delivery amqp.Delivery) {
	t.Helper()

	notifier := worker.NewNotifier(discardLogger(), repo, metrics.NewMetrics(prometheus.NewRegistry()))

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- delivery
	close(deliveries)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	notifier.Run(ctx, deliveries)
}

func TestNotifier_StoresNotificationPerRecipient(t *testing.T) {
	t.Parallel()

	event := events.LifecycleEvent{
		TaskID:     "task-1",
		Action:     "TASK_ASSIGNED",
		Status:     "AWAITING_CONTRACTOR_PROPOSAL",
		Recipients: []string{"client-1", "contractor-1"},
		Details:    "Assigned to contractor",
	}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	repo := &fakeNotificationRepo{}
	runOne(t, repo, amqp.Delivery{Acknowledger: ack, Body: body})

	require.Len(t, repo.stored, 2)
	assert.Equal(t, "client-1", repo.stored[0].UserID)
	assert.Equal(t, "contractor-1", repo.stored[1].UserID)
	assert.Equal(t, "TASK_ASSIGNED", repo.stored[0].Action)
	assert.Equal(t, "task-1", repo.stored[0].TaskID)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestNotifier_DropsUndecodableMessage(t *testing.T) {
	t.Parallel()

	ack := &fakeAcknowledger{}
	repo := &fakeNotificationRepo{}
	runOne(t, repo, amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})

	assert.Empty(t, repo.stored)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestNotifier_RequeuesOnStorageFailure(t *testing.T) {
	t.Parallel()

	event := events.LifecycleEvent{TaskID: "task-1", Action: "TASK_CREATED", Recipients: []string{"client-1"}}
	body, err := json.Marshal(event)
	require.NoError(t, err)

	ack := &fakeAcknowledger{}
	repo := &fakeNotificationRepo{err: assert.AnError}
	runOne(t, repo, amqp.Delivery{Acknowledger: ack, Body: body})

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
	assert.False(t, ack.acked)
}
