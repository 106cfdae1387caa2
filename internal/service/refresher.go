package service

import (
	"context"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// Refresher периодически проверяет выполнение планов, повторяет
// отложенные уведомления и чистит старые записи очереди
type Refresher struct {
	monitor   *MotivationMonitor
	notifier  *OutboxNotifier
	outbox    *OutboxService
	retention time.Duration
	now       func() time.Time
	logger    *logrus.Logger

	trigger chan struct{}
}

func NewRefresher(monitor *MotivationMonitor, notifier *OutboxNotifier, outbox *OutboxService, retention time.Duration) *Refresher {
	return &Refresher{
		monitor:   monitor,
		notifier:  notifier,
		outbox:    outbox,
		retention: retention,
		now:       time.Now,
		logger:    newLogger(),
		trigger:   make(chan struct{}, 1),
	}
}

func (r *Refresher) SetClock(now func() time.Time) {
	r.now = now
}

// Trigger просит внеочередной проход; повторные вызовы до прохода склеиваются
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// RunOnce один проход: достижения за сегодня, повтор очереди, очистка
func (r *Refresher) RunOnce(ctx context.Context) {
	today := models.FormatDate(r.now())

	recorded, err := r.monitor.Check(ctx, today)
	if err != nil {
		r.logger.WithError(err).WithField("date", today).Error("Motivation check failed")
	} else if len(recorded) > 0 {
		r.logger.WithFields(logrus.Fields{
			"date":         today,
			"achievements": len(recorded),
		}).Info("Achievements recorded")
	}

	if _, err := r.notifier.Flush(ctx); err != nil {
		r.logger.WithError(err).Error("Outbox flush failed")
	}

	if r.retention > 0 {
		if _, err := r.outbox.Prune(r.retention); err != nil {
			r.logger.WithError(err).Error("Outbox prune failed")
		}
	}
}

// Run крутит проходы по таймеру и по Trigger до отмены ctx
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.trigger:
			r.RunOnce(ctx)
		}
	}
}
