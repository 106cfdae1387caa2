package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"retail-dashboard/internal/metrics"
	"retail-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Параметры повторной отправки
const (
	DefaultMaxAttempts = 5
	BaseRetryDelay     = 30 * time.Second
	MaxRetryDelay      = 30 * time.Minute
)

// Sender доставляет текст получателю
type Sender interface {
	Send(ctx context.Context, text string) error
}

// OutboxStore сохраняемая очередь
type OutboxStore interface {
	Snapshot() (*models.Outbox, error)
	Update(fn func(o *models.Outbox) error) error
}

// FlushResult итог одного прохода по очереди
type FlushResult struct {
	Sent    int `json:"sent"`
	Retried int `json:"retried"`
	Failed  int `json:"failed"`
}

// OutboxService очередь отложенных действий с ключами идемпотентности.
// Неудачная отправка не теряется: запись остается в очереди и
// повторяется с растущей задержкой.
type OutboxService struct {
	store       OutboxStore
	maxAttempts int
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      *logrus.Logger

	sendMu sync.Mutex // одна отправка за раз, чтобы не задвоить сообщение
}

func NewOutboxService(store OutboxStore, m *metrics.Metrics) *OutboxService {
	return &OutboxService{
		store:       store,
		maxAttempts: DefaultMaxAttempts,
		metrics:     m,
		now:         time.Now,
		logger:      newLogger(),
	}
}

func (s *OutboxService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *OutboxService) SetMaxAttempts(n int) {
	if n > 0 {
		s.maxAttempts = n
	}
}

// retryDelay задержка перед попыткой номер attempts+1
func retryDelay(attempts int) time.Duration {
	delay := BaseRetryDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return delay
}

func findEntry(o *models.Outbox, key string) int {
	for i := range o.Entries {
		if o.Entries[i].IdempotencyKey == key {
			return i
		}
	}
	return -1
}

// Enqueue ставит действие в очередь. Запись с тем же ключом не дублируется:
// возвращается уже существующая.
func (s *OutboxService) Enqueue(kind, key, payload string) (*models.OutboxEntry, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("пустой ключ идемпотентности")
	}

	now := s.now()
	var entry models.OutboxEntry

	err := s.store.Update(func(o *models.Outbox) error {
		if i := findEntry(o, key); i >= 0 {
			entry = o.Entries[i]
			return nil
		}

		entry = models.OutboxEntry{
			ID:             uuid.NewString(),
			IdempotencyKey: key,
			Kind:           kind,
			Payload:        payload,
			Status:         models.OutboxPending,
			NextAttemptAt:  now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		o.Entries = append(o.Entries, entry)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to enqueue action")
		return nil, fmt.Errorf("ошибка сохранения очереди: %w", err)
	}

	s.observe()
	return &entry, nil
}

// Dispatch отправляет сразу. При ошибке действие остается в очереди и
// возвращается ErrDeferred со статусом pending. Уже отправленное по этому
// ключу повторно не отправляется.
func (s *OutboxService) Dispatch(ctx context.Context, kind, key, payload string, sender Sender) (string, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	outbox, err := s.store.Snapshot()
	if err != nil {
		return "", fmt.Errorf("ошибка чтения очереди: %w", err)
	}

	if i := findEntry(outbox, key); i >= 0 {
		existing := outbox.Entries[i]
		if existing.Status == models.OutboxSent {
			return models.OutboxSent, nil
		}
		return existing.Status, models.ErrDeferred
	}

	now := s.now()
	entry := models.OutboxEntry{
		ID:             uuid.NewString(),
		IdempotencyKey: key,
		Kind:           kind,
		Payload:        payload,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	sendErr := sender.Send(ctx, payload)
	if sendErr == nil {
		entry.Status = models.OutboxSent
		entry.Attempts = 1
		entry.NextAttemptAt = now
	} else {
		entry.Status = models.OutboxPending
		entry.Attempts = 1
		entry.LastError = sendErr.Error()
		entry.NextAttemptAt = now.Add(retryDelay(1))
	}

	err = s.store.Update(func(o *models.Outbox) error {
		if findEntry(o, key) < 0 {
			o.Entries = append(o.Entries, entry)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to persist outbox entry")
		if sendErr == nil {
			return models.OutboxSent, nil
		}
		return "", fmt.Errorf("ошибка сохранения очереди: %w", err)
	}
	s.observe()

	if sendErr != nil {
		s.logger.WithError(sendErr).WithField("key", key).Warn("Send failed, action deferred")
		return models.OutboxPending, models.ErrDeferred
	}

	s.logger.WithField("key", key).Debug("Action dispatched")
	return models.OutboxSent, nil
}

type sendResult struct {
	id  string
	err error
}

// Flush повторяет отправку записей, у которых подошло время. Отправка идет
// вне записи документа, результаты применяются по идентификаторам записей.
func (s *OutboxService) Flush(ctx context.Context, sender Sender) (FlushResult, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	outbox, err := s.store.Snapshot()
	if err != nil {
		return FlushResult{}, fmt.Errorf("ошибка чтения очереди: %w", err)
	}

	now := s.now()
	var results []sendResult
	for _, e := range outbox.Entries {
		if !e.IsDue(now) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		results = append(results, sendResult{id: e.ID, err: sender.Send(ctx, e.Payload)})
	}

	if len(results) == 0 {
		return FlushResult{}, nil
	}

	var res FlushResult
	err = s.store.Update(func(o *models.Outbox) error {
		res = FlushResult{}
		byID := make(map[string]int, len(o.Entries))
		for i := range o.Entries {
			byID[o.Entries[i].ID] = i
		}

		for _, r := range results {
			i, ok := byID[r.id]
			if !ok {
				continue
			}
			e := &o.Entries[i]
			e.Attempts++
			e.UpdatedAt = now

			switch {
			case r.err == nil:
				e.Status = models.OutboxSent
				e.LastError = ""
				res.Sent++
			case e.Attempts >= s.maxAttempts:
				e.Status = models.OutboxFailed
				e.LastError = r.err.Error()
				res.Failed++
			default:
				e.LastError = r.err.Error()
				e.NextAttemptAt = now.Add(retryDelay(e.Attempts))
				res.Retried++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to persist flush results")
		return FlushResult{}, fmt.Errorf("ошибка сохранения очереди: %w", err)
	}

	s.observe()
	s.logger.WithFields(logrus.Fields{
		"sent":    res.Sent,
		"retried": res.Retried,
		"failed":  res.Failed,
	}).Info("Outbox flushed")

	return res, nil
}

// Prune удаляет отправленные записи старше olderThan
func (s *OutboxService) Prune(olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	removed := 0

	err := s.store.Update(func(o *models.Outbox) error {
		removed = 0
		kept := o.Entries[:0]
		for _, e := range o.Entries {
			if e.Status == models.OutboxSent && e.UpdatedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		o.Entries = kept
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки очереди: %w", err)
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Outbox pruned")
		s.observe()
	}
	return removed, nil
}

// Stats количество записей по статусам
func (s *OutboxService) Stats() (models.OutboxStats, error) {
	outbox, err := s.store.Snapshot()
	if err != nil {
		return models.OutboxStats{}, fmt.Errorf("ошибка чтения очереди: %w", err)
	}
	return countStatuses(outbox), nil
}

// Entries все записи очереди
func (s *OutboxService) Entries() ([]models.OutboxEntry, error) {
	outbox, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
	}
	return outbox.Entries, nil
}

func countStatuses(o *models.Outbox) models.OutboxStats {
	var stats models.OutboxStats
	for _, e := range o.Entries {
		switch e.Status {
		case models.OutboxPending:
			stats.Pending++
		case models.OutboxSent:
			stats.Sent++
		case models.OutboxFailed:
			stats.Failed++
		}
	}
	return stats
}

func (s *OutboxService) observe() {
	if s.metrics == nil {
		return
	}
	stats, err := s.Stats()
	if err != nil {
		return
	}
	s.metrics.SetOutbox(stats)
}

// OutboxNotifier отправляет уведомления через очередь
type OutboxNotifier struct {
	outbox *OutboxService
	sender Sender
}

func NewOutboxNotifier(outbox *OutboxService, sender Sender) *OutboxNotifier {
	return &OutboxNotifier{outbox: outbox, sender: sender}
}

// Notify отложенная доставка не считается ошибкой
func (n *OutboxNotifier) Notify(ctx context.Context, key, text string) error {
	_, err := n.outbox.Dispatch(ctx, models.OutboxKindNotification, key, text, n.sender)
	if errors.Is(err, models.ErrDeferred) {
		return nil
	}
	return err
}

// Flush повторяет отложенные уведомления
func (n *OutboxNotifier) Flush(ctx context.Context) (FlushResult, error) {
	return n.outbox.Flush(ctx, n.sender)
}
