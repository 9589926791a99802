package services

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/engagement/internal/live"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

const defaultFanoutTimeout = 5 * time.Second

// Fanout turns interaction events into notification and activity rows and
// a best-effort live push. Failures are logged and never returned to the
// caller of the triggering mutation.
type Fanout struct {
	notifications repositories.NotificationRepository
	activities    repositories.ActivityRepository
	users         repositories.UserRepository
	registry      live.Registry
	timeout       time.Duration

	wg sync.WaitGroup
}

func NewFanout(
	notifications repositories.NotificationRepository,
	activities repositories.ActivityRepository,
	users repositories.UserRepository,
	registry live.Registry,
	timeout time.Duration,
) *Fanout {
	if registry == nil {
		registry = live.NopRegistry{}
	}
	if timeout <= 0 {
		timeout = defaultFanoutTimeout
	}
	return &Fanout{
		notifications: notifications,
		activities:    activities,
		users:         users,
		registry:      registry,
		timeout:       timeout,
	}
}

// Dispatch runs Notify in the background. The request context is detached
// so that the fan-out outlives the response.
func (f *Fanout) Dispatch(ctx context.Context, ev models.InteractionEvent) {
	if ev.SelfTargeted() {
		return
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		f.Notify(ctx, ev)
	}()
}

// Notify records ev and pushes it to the recipient if connected. Each
// projection is written at most once.
func (f *Fanout) Notify(ctx context.Context, ev models.InteractionEvent) {
	if ev.SelfTargeted() {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	metrics.FanoutEvents.WithLabelValues(string(ev.Type)).Inc()

	l := logger.Ctx(ctx).With().
		Str(logger.FieldEventType, string(ev.Type)).
		Uint(logger.FieldActorID, ev.ActorID).
		Uint(logger.FieldRecipientID, ev.RecipientID).
		Logger()

	notification := ev.Notification()
	notificationErr := f.notifications.CreateNotification(ctx, notification)
	if notificationErr != nil {
		metrics.FanoutWriteErrors.WithLabelValues(metrics.ProjectionNotification).Inc()
		l.Error().Err(notificationErr).Msg("failed to write notification")
	}

	if err := f.activities.CreateActivity(ctx, ev.Activity()); err != nil {
		metrics.FanoutWriteErrors.WithLabelValues(metrics.ProjectionActivity).Inc()
		l.Error().Err(err).Msg("failed to write activity")
	}

	if notificationErr != nil {
		return
	}

	ch, ok := f.registry.Lookup(ctx, ev.RecipientID)
	if !ok {
		metrics.LivePushTotal.WithLabelValues(metrics.PushOffline).Inc()
		return
	}

	enriched := models.EnrichedNotification{Notification: *notification}
	if actor, err := f.users.GetUserByID(ctx, ev.ActorID); err == nil {
		enriched.Actor = actor.ToCompact()
	}
	f.send(ctx, ch, live.NotificationEvent(enriched))

	if count, err := f.notifications.GetUnreadCount(ctx, ev.RecipientID); err == nil {
		f.send(ctx, ch, live.UnreadCountEvent(count))
	}
}

// pushUnreadCount sends the recipient's unread count if they are connected.
func (f *Fanout) pushUnreadCount(ctx context.Context, recipientID uint, count int64) {
	ch, ok := f.registry.Lookup(ctx, recipientID)
	if !ok {
		metrics.LivePushTotal.WithLabelValues(metrics.PushOffline).Inc()
		return
	}
	f.send(ctx, ch, live.UnreadCountEvent(count))
}

func (f *Fanout) send(ctx context.Context, ch live.Channel, ev live.Event) {
	if err := ch.Send(ctx, ev); err != nil {
		metrics.LivePushTotal.WithLabelValues(metrics.PushFailed).Inc()
		l := logger.Ctx(ctx)
		l.Debug().Err(err).Str("kind", string(ev.Kind)).Msg("live push failed")
		return
	}
	metrics.LivePushTotal.WithLabelValues(metrics.PushDelivered).Inc()
}

// Wait blocks until all dispatched fan-outs have finished.
func (f *Fanout) Wait() {
	f.wg.Wait()
}

// Drain waits for in-flight fan-outs or gives up when ctx is done.
func (f *Fanout) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
