package models

import "time"

// Статусы записей исходящей очереди
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Виды отложенных действий
const (
	OutboxKindNotification = "notification"
)

// Outbox сохраняемая очередь отложенных действий
type Outbox struct {
	Entries     []OutboxEntry `json:"entries"`
	LastUpdated string        `json:"lastUpdated"`
}

type OutboxEntry struct {
	ID             string    `json:"id"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Kind           string    `json:"kind"`
	Payload        string    `json:"payload"`
	Status         string    `json:"status"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"lastError,omitempty"`
	NextAttemptAt  time.Time `json:"nextAttemptAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// OutboxStats количество записей по статусам
type OutboxStats struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

func (o *Outbox) Touch(now time.Time) {
	o.LastUpdated = FormatTimestamp(now)
}

// IsDue готова ли запись к повторной отправке
func (e *OutboxEntry) IsDue(now time.Time) bool {
	return e.Status == OutboxPending && !now.Before(e.NextAttemptAt)
}
