package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-dashboard/internal/models"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{6, 16 * time.Minute},
		{7, 30 * time.Minute},
		{20, 30 * time.Minute},
	}
	for _, tt := range tests {
		if got := retryDelay(tt.attempts); got != tt.want {
			t.Errorf("retryDelay(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestOutboxService_DispatchIsIdempotent(t *testing.T) {
	outbox := newTestOutbox(newTestClock().Now)
	sender := &fakeSender{}
	ctx := context.Background()

	for range 3 {
		status, err := outbox.Dispatch(ctx, models.OutboxKindNotification, "daily:2024-10-01", "План выполнен", sender)
		if err != nil || status != models.OutboxSent {
			t.Fatalf("Dispatch() = %q, %v; want sent, nil", status, err)
		}
	}
	if sender.count() != 1 {
		t.Errorf("sent %d times, want 1", sender.count())
	}
}

func TestOutboxService_DispatchDefersOnFailure(t *testing.T) {
	clock := newTestClock()
	outbox := newTestOutbox(clock.Now)
	sender := &fakeSender{fail: true}
	ctx := context.Background()

	status, err := outbox.Dispatch(ctx, models.OutboxKindNotification, "k1", "текст", sender)
	if !errors.Is(err, models.ErrDeferred) || status != models.OutboxPending {
		t.Fatalf("Dispatch() = %q, %v; want pending, ErrDeferred", status, err)
	}

	stats, err := outbox.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats != (models.OutboxStats{Pending: 1}) {
		t.Errorf("Stats() = %+v, want 1 pending", stats)
	}

	sender.setFail(false)

	res, err := outbox.Flush(ctx, sender)
	if err != nil {
		t.Fatal(err)
	}
	if res != (FlushResult{}) || sender.count() != 0 {
		t.Errorf("Flush() before backoff = %+v, sent %d; want nothing", res, sender.count())
	}

	clock.Advance(31 * time.Second)
	res, err = outbox.Flush(ctx, sender)
	if err != nil {
		t.Fatal(err)
	}
	if res.Sent != 1 || sender.count() != 1 {
		t.Errorf("Flush() = %+v, sent %d; want 1 sent", res, sender.count())
	}

	status, err = outbox.Dispatch(ctx, models.OutboxKindNotification, "k1", "текст", sender)
	if err != nil || status != models.OutboxSent || sender.count() != 1 {
		t.Errorf("Dispatch() after flush = %q, %v, sent %d", status, err, sender.count())
	}
}

func TestOutboxService_FailsAfterMaxAttempts(t *testing.T) {
	clock := newTestClock()
	outbox := newTestOutbox(clock.Now)
	outbox.SetMaxAttempts(3)
	sender := &fakeSender{fail: true}
	ctx := context.Background()

	if _, err := outbox.Enqueue(models.OutboxKindNotification, "k", "текст"); err != nil {
		t.Fatal(err)
	}

	var last FlushResult
	for range 3 {
		res, err := outbox.Flush(ctx, sender)
		if err != nil {
			t.Fatal(err)
		}
		last = res
		clock.Advance(MaxRetryDelay)
	}
	if last.Failed != 1 {
		t.Errorf("last Flush() = %+v, want 1 failed", last)
	}

	entries, err := outbox.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != models.OutboxFailed || entries[0].Attempts != 3 {
		t.Errorf("entries = %+v, want one failed entry after 3 attempts", entries)
	}
	if entries[0].LastError == "" {
		t.Error("LastError is empty")
	}
}

func TestOutboxService_EnqueueDeduplicates(t *testing.T) {
	outbox := newTestOutbox(newTestClock().Now)

	first, err := outbox.Enqueue(models.OutboxKindNotification, "same", "один")
	if err != nil {
		t.Fatal(err)
	}
	second, err := outbox.Enqueue(models.OutboxKindNotification, "same", "два")
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID || second.Payload != "один" {
		t.Errorf("second Enqueue() = %+v, want existing entry %s", second, first.ID)
	}

	if _, err := outbox.Enqueue(models.OutboxKindNotification, " ", "x"); err == nil {
		t.Error("Enqueue() with empty key error = nil")
	}
}

func TestOutboxService_Prune(t *testing.T) {
	clock := newTestClock()
	outbox := newTestOutbox(clock.Now)
	sender := &fakeSender{}
	ctx := context.Background()

	if _, err := outbox.Dispatch(ctx, models.OutboxKindNotification, "old", "a", sender); err != nil {
		t.Fatal(err)
	}
	clock.Advance(48 * time.Hour)
	if _, err := outbox.Dispatch(ctx, models.OutboxKindNotification, "new", "b", sender); err != nil {
		t.Fatal(err)
	}
	sender.setFail(true)
	if _, err := outbox.Dispatch(ctx, models.OutboxKindNotification, "pending", "c", sender); !errors.Is(err, models.ErrDeferred) {
		t.Fatal(err)
	}

	removed, err := outbox.Prune(24 * time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("Prune() = %d, want 1", removed)
	}

	stats, err := outbox.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats != (models.OutboxStats{Pending: 1, Sent: 1}) {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestOutboxNotifier_DeferredIsNotError(t *testing.T) {
	outbox := newTestOutbox(newTestClock().Now)
	notifier := NewOutboxNotifier(outbox, &fakeSender{fail: true})

	if err := notifier.Notify(context.Background(), "k", "текст"); err != nil {
		t.Errorf("Notify() error = %v, want nil for deferred delivery", err)
	}
}
