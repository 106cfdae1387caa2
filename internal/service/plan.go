package service

import (
	"fmt"
	"sort"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// PlanInput плановые значения; отрицательные приводятся к нулю
type PlanInput struct {
	Revenue int64
	Focus   int64
	SBP     int64
}

// DatedPlan план вместе с датой
type DatedPlan struct {
	Date string `json:"date"`
	models.Plan
}

type PlanService struct {
	store  DocumentStore
	now    func() time.Time
	logger *logrus.Logger
}

func NewPlanService(store DocumentStore) *PlanService {
	return &PlanService{
		store:  store,
		now:    time.Now,
		logger: newLogger(),
	}
}

func (s *PlanService) SetClock(now func() time.Time) {
	s.now = now
}

func clampPlan(in PlanInput) PlanInput {
	return PlanInput{
		Revenue: max(in.Revenue, 0),
		Focus:   max(in.Focus, 0),
		SBP:     max(in.SBP, 0),
	}
}

// SaveDailyPlan задает план на день, заменяя прежний
func (s *PlanService) SaveDailyPlan(date string, in PlanInput) (*models.Plan, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	in = clampPlan(in)
	plan := models.Plan{
		Revenue:   in.Revenue,
		Focus:     in.Focus,
		SBP:       in.SBP,
		UpdatedAt: models.FormatTimestamp(s.now()),
	}

	err = s.store.Update(func(doc *models.Document) error {
		doc.Plans[date] = plan
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Error("Failed to save daily plan")
		return nil, fmt.Errorf("ошибка сохранения плана: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"date":    date,
		"revenue": plan.Revenue,
		"focus":   plan.Focus,
		"sbp":     plan.SBP,
	}).Info("Daily plan saved")

	return &plan, nil
}

// GetDailyPlan возвращает nil, nil, если план на дату не задан
func (s *PlanService) GetDailyPlan(date string) (*models.Plan, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	plan, ok := doc.Plans[date]
	if !ok {
		return nil, nil
	}
	return &plan, nil
}

// GetPlansForMonth планы месяца по возрастанию даты
func (s *PlanService) GetPlansForMonth(year, month int) ([]DatedPlan, error) {
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	return plansForMonth(doc, year, month), nil
}

func plansForMonth(doc *models.Document, year, month int) []DatedPlan {
	plans := make([]DatedPlan, 0)
	for date, plan := range doc.Plans {
		if inMonth(date, year, month) {
			plans = append(plans, DatedPlan{Date: date, Plan: plan})
		}
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].Date < plans[j].Date
	})
	return plans
}

// SaveMonthlyPlan раскладывает месячный план по дням поровну;
// остаток от деления достается первым дням месяца
func (s *PlanService) SaveMonthlyPlan(year, month int, in PlanInput) ([]DatedPlan, error) {
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	in = clampPlan(in)
	days := daysIn(year, month)
	updatedAt := models.FormatTimestamp(s.now())

	split := func(total int64, day int) int64 {
		share := total / int64(days)
		if int64(day) < total%int64(days) {
			share++
		}
		return share
	}

	plans := make([]DatedPlan, 0, days)
	for day := range days {
		date := time.Date(year, time.Month(month), day+1, 0, 0, 0, 0, time.UTC)
		plans = append(plans, DatedPlan{
			Date: models.FormatDate(date),
			Plan: models.Plan{
				Revenue:   split(in.Revenue, day),
				Focus:     split(in.Focus, day),
				SBP:       split(in.SBP, day),
				UpdatedAt: updatedAt,
			},
		})
	}

	err := s.store.Update(func(doc *models.Document) error {
		for _, p := range plans {
			doc.Plans[p.Date] = p.Plan
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"year":  year,
			"month": month,
		}).Error("Failed to save monthly plan")
		return nil, fmt.Errorf("ошибка сохранения плана: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"year":    year,
		"month":   month,
		"revenue": in.Revenue,
	}).Info("Monthly plan saved")

	return plans, nil
}

// FormatPlan форматирует план на день
func (s *PlanService) FormatPlan(date string, plan *models.Plan) string {
	if plan == nil {
		return fmt.Sprintf("📭 План на %s не задан.", date)
	}
	return fmt.Sprintf("🎯 План на %s:\n\n💰 Выручка: %s\n🎯 Фокус: %s\n📱 СБП: %s",
		date, formatMoney(plan.Revenue), formatMoney(plan.Focus), formatMoney(plan.SBP))
}
