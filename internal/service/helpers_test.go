package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/repository"
	"retail-dashboard/internal/store"
)

var testNow = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: testNow}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestDataStore(t *testing.T) *store.DataStore {
	t.Helper()

	ds := store.NewDataStore(repository.NewMemoryKVRepository(), store.DataStoreConfig{
		Key:          "test-analytics-data",
		DefaultStore: "Тестовый магазин",
	}, nil)
	ds.SetClock(func() time.Time { return testNow })

	if _, err := ds.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return ds
}

func newTestLedger() *store.Document[models.AchievementLedger] {
	s := store.New(repository.NewMemoryKVRepository(), "test-achievements", nil)
	return store.NewDocument(s, func() *models.AchievementLedger {
		return models.NewAchievementLedger(models.AchievementSettings{
			BasePoints:           models.DefaultBasePoints,
			OverachievementBonus: models.DefaultOverachievementBonus,
		})
	}, nil)
}

func newTestAchievements(clock func() time.Time) *AchievementService {
	s := NewAchievementService(newTestLedger(), models.AchievementSettings{}, nil)
	s.SetClock(clock)
	return s
}

func newTestOutbox(clock func() time.Time) *OutboxService {
	s := store.New(repository.NewMemoryKVRepository(), "test-pending-actions", nil)
	doc := store.NewDocument(s, func() *models.Outbox { return &models.Outbox{Entries: []models.OutboxEntry{}} }, nil)

	o := NewOutboxService(doc, nil)
	o.SetClock(clock)
	return o
}

// fakeSender запоминает отправленное; fail заставляет Send вернуть ошибку
type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return errors.New("network is down")
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
