package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// NotifyCooldown не чаще одного сообщения на категорию за этот интервал
const NotifyCooldown = 30 * time.Minute

// Notifier доставляет уведомление; key делает доставку идемпотентной
type Notifier interface {
	Notify(ctx context.Context, key, text string) error
}

var motivationCategories = []string{
	models.AchievementRevenue,
	models.AchievementFocus,
	models.AchievementSBP,
}

// MotivationMonitor сравнивает выручку сотрудников с личным планом и
// начисляет достижения тем, кто его выполнил
type MotivationMonitor struct {
	store        DocumentStore
	achievements *AchievementService
	notifier     Notifier
	cooldown     time.Duration
	now          func() time.Time
	logger       *logrus.Logger

	mu       sync.Mutex
	day      string
	notified map[string]time.Time // категория -> время последнего сообщения за day
}

func NewMotivationMonitor(store DocumentStore, achievements *AchievementService, notifier Notifier) *MotivationMonitor {
	return &MotivationMonitor{
		store:        store,
		achievements: achievements,
		notifier:     notifier,
		cooldown:     NotifyCooldown,
		now:          time.Now,
		logger:       newLogger(),
		notified:     make(map[string]time.Time),
	}
}

func (m *MotivationMonitor) SetClock(now func() time.Time) {
	m.now = now
}

func (m *MotivationMonitor) SetCooldown(d time.Duration) {
	m.cooldown = d
}

func categoryFact(e models.RevenueEntry, category string) int64 {
	var t RevenueTotals
	t.add(e)
	switch category {
	case models.AchievementFocus:
		return t.Focus
	case models.AchievementSBP:
		return t.SBP
	}
	return t.Total()
}

func categoryPlan(p PlanInput, category string) int64 {
	switch category {
	case models.AchievementFocus:
		return p.Focus
	case models.AchievementSBP:
		return p.SBP
	}
	return p.Revenue
}

// Check проверяет выручку за дату и возвращает новые достижения.
// Одно достижение на сотрудника, категорию и дату.
func (m *MotivationMonitor) Check(ctx context.Context, date string) ([]models.Achievement, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	doc, err := m.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	plan := personalPlan(doc, date)
	entries := doc.RevenueData[date]
	if len(entries) == 0 {
		return nil, nil
	}

	existing, err := m.achievements.GetAchievements()
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.EmployeeID+"|"+a.Type+"|"+a.Date] = true
	}

	var recorded []models.Achievement
	for _, e := range entries {
		for _, category := range motivationCategories {
			target := categoryPlan(plan, category)
			fact := categoryFact(e, category)
			if target <= 0 || fact < target || have[e.EmployeeID+"|"+category+"|"+date] {
				continue
			}

			a, err := m.achievements.RecordAchievement(e.EmployeeID, category, fact, target, date)
			if err != nil {
				m.logger.WithError(err).WithField("employee_id", e.EmployeeID).Error("Failed to record achievement")
				continue
			}
			recorded = append(recorded, *a)
		}
	}

	if len(recorded) > 0 {
		m.notify(ctx, date, recorded, employeeNames(doc))
	}

	return recorded, nil
}

func employeeNames(doc *models.Document) map[string]string {
	names := make(map[string]string, len(doc.Employees))
	for _, e := range doc.Employees {
		names[e.EmployeeID] = e.Name
	}
	for _, entries := range doc.RevenueData {
		for _, e := range entries {
			if names[e.EmployeeID] == "" && e.EmployeeName != "" {
				names[e.EmployeeID] = e.EmployeeName
			}
		}
	}
	return names
}

// allow отмечает отправку, если по категории не писали последние cooldown
func (m *MotivationMonitor) allow(date, category string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.day != date {
		m.day = date
		m.notified = make(map[string]time.Time)
	}

	if last, ok := m.notified[category]; ok && now.Sub(last) < m.cooldown {
		return false
	}
	m.notified[category] = now
	return true
}

func (m *MotivationMonitor) notify(ctx context.Context, date string, recorded []models.Achievement, names map[string]string) {
	if m.notifier == nil {
		return
	}

	now := m.now()
	byCategory := make(map[string][]models.Achievement)
	for _, a := range recorded {
		byCategory[a.Type] = append(byCategory[a.Type], a)
	}

	for _, category := range motivationCategories {
		list := byCategory[category]
		if len(list) == 0 || !m.allow(date, category, now) {
			continue
		}

		key := fmt.Sprintf("motivation:%s:%s:%s", date, category, list[0].ID)
		if err := m.notifier.Notify(ctx, key, formatAchievements(category, list, names)); err != nil {
			m.logger.WithError(err).WithField("category", category).Error("Failed to send achievement notification")
		}
	}
}

func formatAchievements(category string, list []models.Achievement, names map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 Личный план по категории «%s» выполнен!\n\n", achievementTitle(category))
	for _, a := range list {
		name := names[a.EmployeeID]
		if name == "" {
			name = a.EmployeeID
		}
		fmt.Fprintf(&b, "⭐ %s: %s из %s (%d%%) +%d\n", name, formatMoney(a.Fact), formatMoney(a.Plan), a.Percentage, a.Points)
	}
	return b.String()
}
