package models

import "time"

// Категории достижений
const (
	AchievementRevenue = "revenue"
	AchievementFocus   = "focus"
	AchievementSBP     = "sbp"
)

// Значения по умолчанию для начисления баллов
const (
	DefaultBasePoints           = 10
	DefaultOverachievementBonus = 5
)

// AchievementLedger отдельный документ с историей достижений
type AchievementLedger struct {
	Achievements []Achievement       `json:"achievements"` // новые в начале
	Settings     AchievementSettings `json:"settings"`
	LastUpdated  string              `json:"lastUpdated"`
}

type AchievementSettings struct {
	BasePoints           int `json:"basePoints"`
	OverachievementBonus int `json:"overachievementBonus"`
}

type Achievement struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Type       string `json:"type"`
	Fact       int64  `json:"fact"`
	Plan       int64  `json:"plan"`
	Percentage int    `json:"percentage"`
	Points     int    `json:"points"`
	Date       string `json:"date"`
	Timestamp  string `json:"timestamp"`
}

// EmployeePoints агрегаты по сотруднику, вычисляются из истории
type EmployeePoints struct {
	EmployeeID        string `json:"employeeId"`
	TotalPoints       int    `json:"totalPoints"`
	MonthlyPoints     int    `json:"monthlyPoints"`
	TotalAchievements int    `json:"totalAchievements"`
}

// EmployeeAchievementStats статистика сотрудника с местом в рейтинге
type EmployeeAchievementStats struct {
	EmployeePoints
	Rank   int           `json:"rank"`
	Recent []Achievement `json:"recent"`
}

func NewAchievementLedger(settings AchievementSettings) *AchievementLedger {
	return &AchievementLedger{
		Achievements: []Achievement{},
		Settings:     settings,
	}
}

func (l *AchievementLedger) Touch(now time.Time) {
	l.LastUpdated = FormatTimestamp(now)
}

// IsValidAchievementType проверяет категорию достижения
func IsValidAchievementType(t string) bool {
	switch t {
	case AchievementRevenue, AchievementFocus, AchievementSBP:
		return true
	}
	return false
}
