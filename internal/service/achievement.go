package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"retail-dashboard/internal/metrics"
	"retail-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// recentAchievements сколько последних достижений попадает в статистику
const recentAchievements = 10

// LedgerStore документ с историей достижений
type LedgerStore interface {
	Snapshot() (*models.AchievementLedger, error)
	Update(fn func(l *models.AchievementLedger) error) error
}

// AchievementService журнал достижений. Баллы сотрудников не хранятся,
// а считаются по журналу при каждом чтении.
type AchievementService struct {
	store    LedgerStore
	settings models.AchievementSettings
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   *logrus.Logger
}

func NewAchievementService(store LedgerStore, settings models.AchievementSettings, m *metrics.Metrics) *AchievementService {
	if settings.BasePoints <= 0 {
		settings.BasePoints = models.DefaultBasePoints
	}
	if settings.OverachievementBonus < 0 {
		settings.OverachievementBonus = models.DefaultOverachievementBonus
	}

	return &AchievementService{
		store:    store,
		settings: settings,
		metrics:  m,
		now:      time.Now,
		logger:   newLogger(),
	}
}

func (s *AchievementService) SetClock(now func() time.Time) {
	s.now = now
}

// Settings действующие правила начисления баллов
func (s *AchievementService) Settings() models.AchievementSettings {
	return s.settings
}

// RecordAchievement записывает выполнение плана сотрудником
func (s *AchievementService) RecordAchievement(employeeID, achievementType string, fact, plan int64, date string) (*models.Achievement, error) {
	if plan <= 0 {
		s.logger.WithField("employee_id", employeeID).Warn("Achievement rejected: plan is not positive")
		return nil, models.ErrInvalidPlan
	}
	if !models.IsValidAchievementType(achievementType) {
		return nil, fmt.Errorf("неизвестный тип достижения: %s", achievementType)
	}
	if strings.TrimSpace(employeeID) == "" {
		return nil, models.ErrInvalidEmployee
	}

	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	percentage := int(math.Round(float64(fact) / float64(plan) * 100))
	points := s.settings.BasePoints
	if percentage > 100 {
		points += s.settings.OverachievementBonus
	}

	achievement := models.Achievement{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Type:       achievementType,
		Fact:       fact,
		Plan:       plan,
		Percentage: percentage,
		Points:     points,
		Date:       date,
		Timestamp:  models.FormatTimestamp(s.now()),
	}

	err = s.store.Update(func(l *models.AchievementLedger) error {
		l.Settings = s.settings
		l.Achievements = append([]models.Achievement{achievement}, l.Achievements...)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("employee_id", employeeID).Error("Failed to record achievement")
		return nil, fmt.Errorf("ошибка сохранения достижения: %w", err)
	}

	s.metrics.ObserveAchievement(achievementType)
	s.logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"type":        achievementType,
		"percentage":  percentage,
		"points":      points,
	}).Info("Achievement recorded")

	return &achievement, nil
}

// HasAchievement есть ли у сотрудника достижение категории за дату
func (s *AchievementService) HasAchievement(employeeID, achievementType, date string) (bool, error) {
	ledger, err := s.store.Snapshot()
	if err != nil {
		return false, fmt.Errorf("ошибка чтения достижений: %w", err)
	}

	for _, a := range ledger.Achievements {
		if a.EmployeeID == employeeID && a.Type == achievementType && a.Date == date {
			return true, nil
		}
	}
	return false, nil
}

// GetAchievements история достижений, новые в начале
func (s *AchievementService) GetAchievements() ([]models.Achievement, error) {
	ledger, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения достижений: %w", err)
	}
	return ledger.Achievements, nil
}

// GetLeaderboard таблица лидеров; limit <= 0 возвращает всех
func (s *AchievementService) GetLeaderboard(limit int) ([]models.EmployeePoints, error) {
	ledger, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения достижений: %w", err)
	}

	board := s.aggregate(ledger)
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// GetEmployeeStats баллы, место в рейтинге и последние достижения сотрудника.
// Место 0 означает, что у сотрудника нет достижений.
func (s *AchievementService) GetEmployeeStats(employeeID string) (*models.EmployeeAchievementStats, error) {
	ledger, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения достижений: %w", err)
	}

	stats := &models.EmployeeAchievementStats{
		EmployeePoints: models.EmployeePoints{EmployeeID: employeeID},
		Recent:         []models.Achievement{},
	}

	for i, p := range s.aggregate(ledger) {
		if p.EmployeeID == employeeID {
			stats.EmployeePoints = p
			stats.Rank = i + 1
			break
		}
	}

	for _, a := range ledger.Achievements {
		if a.EmployeeID != employeeID {
			continue
		}
		stats.Recent = append(stats.Recent, a)
		if len(stats.Recent) == recentAchievements {
			break
		}
	}

	return stats, nil
}

// aggregate считает баллы по журналу; месячные баллы относятся к текущему
// календарному месяцу
func (s *AchievementService) aggregate(ledger *models.AchievementLedger) []models.EmployeePoints {
	now := s.now()
	byEmployee := make(map[string]*models.EmployeePoints)

	for _, a := range ledger.Achievements {
		p, ok := byEmployee[a.EmployeeID]
		if !ok {
			p = &models.EmployeePoints{EmployeeID: a.EmployeeID}
			byEmployee[a.EmployeeID] = p
		}
		p.TotalPoints += a.Points
		p.TotalAchievements++
		if inMonth(a.Date, now.Year(), int(now.Month())) {
			p.MonthlyPoints += a.Points
		}
	}

	board := make([]models.EmployeePoints, 0, len(byEmployee))
	for _, p := range byEmployee {
		board = append(board, *p)
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].MonthlyPoints != board[j].MonthlyPoints {
			return board[i].MonthlyPoints > board[j].MonthlyPoints
		}
		if board[i].TotalPoints != board[j].TotalPoints {
			return board[i].TotalPoints > board[j].TotalPoints
		}
		return board[i].EmployeeID < board[j].EmployeeID
	})

	return board
}

// FormatLeaderboard форматирует таблицу лидеров; names сопоставляет
// табельный номер с именем
func (s *AchievementService) FormatLeaderboard(board []models.EmployeePoints, names map[string]string) string {
	if len(board) == 0 {
		return "📭 Достижений пока нет."
	}

	var b strings.Builder
	b.WriteString("🏆 Лидеры месяца\n\n")
	for i, p := range board {
		name := names[p.EmployeeID]
		if name == "" {
			name = p.EmployeeID
		}
		fmt.Fprintf(&b, "%s %s: %d баллов за месяц, всего %d\n", rankMedal(i+1), name, p.MonthlyPoints, p.TotalPoints)
	}
	return b.String()
}

// FormatEmployeeStats форматирует личную статистику
func (s *AchievementService) FormatEmployeeStats(stats *models.EmployeeAchievementStats) string {
	var b strings.Builder
	b.WriteString("⭐ Ваши достижения\n\n")
	if stats.Rank > 0 {
		fmt.Fprintf(&b, "🏅 Место в рейтинге: %d\n", stats.Rank)
	}
	fmt.Fprintf(&b, "📅 Баллы за месяц: %d\n", stats.MonthlyPoints)
	fmt.Fprintf(&b, "💯 Всего баллов: %d\n", stats.TotalPoints)
	fmt.Fprintf(&b, "🎖️ Достижений: %d\n", stats.TotalAchievements)

	if len(stats.Recent) > 0 {
		b.WriteString("\nПоследние:\n")
		for _, a := range stats.Recent {
			fmt.Fprintf(&b, "• %s %s: %d%% (+%d)\n", a.Date, achievementTitle(a.Type), a.Percentage, a.Points)
		}
	}
	return b.String()
}

func achievementTitle(t string) string {
	switch t {
	case models.AchievementRevenue:
		return "выручка"
	case models.AchievementFocus:
		return "фокус"
	case models.AchievementSBP:
		return "СБП"
	}
	return t
}
