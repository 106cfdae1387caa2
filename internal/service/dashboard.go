package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// CategoryProgress выполнение плана по одной категории
type CategoryProgress struct {
	Fact      int64   `json:"fact"`
	Plan      int64   `json:"plan"`
	Percent   float64 `json:"percent"`
	Remaining int64   `json:"remaining"`
}

func newProgress(fact, plan int64) CategoryProgress {
	p := CategoryProgress{Fact: fact, Plan: plan}
	if plan > 0 {
		p.Percent = roundTo(float64(fact)/float64(plan)*100, 1)
		p.Remaining = max(plan-fact, 0)
	}
	return p
}

// DailySummary показатели за день
type DailySummary struct {
	Date    string           `json:"date"`
	Totals  RevenueTotals    `json:"totals"`
	Revenue CategoryProgress `json:"revenue"`
	Focus   CategoryProgress `json:"focus"`
	SBP     CategoryProgress `json:"sbp"`
	HasPlan bool             `json:"hasPlan"`
	Entries int              `json:"entries"`
}

// MonthSummary показатели за месяц с линейным прогнозом
type MonthSummary struct {
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	Totals       RevenueTotals    `json:"totals"`
	Revenue      CategoryProgress `json:"revenue"`
	Focus        CategoryProgress `json:"focus"`
	SBP          CategoryProgress `json:"sbp"`
	DaysInMonth  int              `json:"daysInMonth"`
	ElapsedDays  int              `json:"elapsedDays"`
	DailyAverage int64            `json:"dailyAverage"`
	Forecast     int64            `json:"forecast"`
}

// RankingEntry место сотрудника по выручке за период
type RankingEntry struct {
	Rank         int           `json:"rank"`
	EmployeeID   string        `json:"employeeId"`
	EmployeeName string        `json:"employeeName"`
	Totals       RevenueTotals `json:"totals"`
	Total        int64         `json:"total"`
	Share        float64       `json:"share"`
}

// DashboardService вычисляет производные показатели при каждом вызове
type DashboardService struct {
	store  DocumentStore
	logger *logrus.Logger
}

func NewDashboardService(store DocumentStore) *DashboardService {
	return &DashboardService{
		store:  store,
		logger: newLogger(),
	}
}

// DailySummary выручка за день против плана
func (s *DashboardService) DailySummary(date string) (*DailySummary, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	var totals RevenueTotals
	for _, e := range doc.RevenueData[date] {
		totals.add(e)
	}

	plan, hasPlan := doc.Plans[date]

	return &DailySummary{
		Date:    date,
		Totals:  totals,
		Revenue: newProgress(totals.Total(), plan.Revenue),
		Focus:   newProgress(totals.Focus, plan.Focus),
		SBP:     newProgress(totals.SBP, plan.SBP),
		HasPlan: hasPlan,
		Entries: len(doc.RevenueData[date]),
	}, nil
}

// MonthSummary итоги месяца; прошедшие дни считаются до today,
// если today внутри месяца, иначе берется весь месяц
func (s *DashboardService) MonthSummary(year, month int, today time.Time) (*MonthSummary, error) {
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	var totals RevenueTotals
	for date, entries := range doc.RevenueData {
		if !inMonth(date, year, month) {
			continue
		}
		for _, e := range entries {
			totals.add(e)
		}
	}

	var plan PlanInput
	for _, p := range plansForMonth(doc, year, month) {
		plan.Revenue += p.Revenue
		plan.Focus += p.Focus
		plan.SBP += p.SBP
	}

	days := daysIn(year, month)
	elapsed := days
	if today.Year() == year && int(today.Month()) == month {
		elapsed = today.Day()
	}

	summary := &MonthSummary{
		Year:        year,
		Month:       month,
		Totals:      totals,
		Revenue:     newProgress(totals.Total(), plan.Revenue),
		Focus:       newProgress(totals.Focus, plan.Focus),
		SBP:         newProgress(totals.SBP, plan.SBP),
		DaysInMonth: days,
		ElapsedDays: elapsed,
	}
	if elapsed > 0 {
		summary.DailyAverage = totals.Total() / int64(elapsed)
		summary.Forecast = int64(math.Round(float64(totals.Total()) / float64(elapsed) * float64(days)))
	}

	return summary, nil
}

// EmployeeRanking рейтинг сотрудников по выручке за период [from, to]
func (s *DashboardService) EmployeeRanking(from, to string) ([]RankingEntry, error) {
	from, err := normalizeDate(from)
	if err != nil {
		return nil, err
	}
	to, err = normalizeDate(to)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	byEmployee := make(map[string]*RankingEntry)
	var grand int64
	for _, e := range revenueInRange(doc, from, to) {
		r, ok := byEmployee[e.EmployeeID]
		if !ok {
			r = &RankingEntry{EmployeeID: e.EmployeeID, EmployeeName: e.EmployeeName}
			byEmployee[e.EmployeeID] = r
		}
		r.Totals.add(e.RevenueEntry)
	}

	ranking := make([]RankingEntry, 0, len(byEmployee))
	for _, r := range byEmployee {
		if i := doc.FindEmployee(r.EmployeeID); i >= 0 {
			r.EmployeeName = doc.Employees[i].Name
		}
		r.Total = r.Totals.Total()
		grand += r.Total
		ranking = append(ranking, *r)
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Total != ranking[j].Total {
			return ranking[i].Total > ranking[j].Total
		}
		return ranking[i].EmployeeID < ranking[j].EmployeeID
	})

	for i := range ranking {
		ranking[i].Rank = i + 1
		if grand > 0 {
			ranking[i].Share = roundTo(float64(ranking[i].Total)/float64(grand)*100, 1)
		}
	}

	return ranking, nil
}

// PersonalPlan план на одного сотрудника: дневной план делится поровну
// между теми, кто работает по графику, а если графика нет, то между
// внесшими выручку. Делитель не меньше 1.
func (s *DashboardService) PersonalPlan(date string) (PlanInput, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return PlanInput{}, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return PlanInput{}, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	return personalPlan(doc, date), nil
}

func personalPlan(doc *models.Document, date string) PlanInput {
	plan, ok := doc.Plans[date]
	if !ok {
		return PlanInput{}
	}

	n := 0
	for _, e := range doc.Schedules[date] {
		if e.IsWorking() {
			n++
		}
	}
	if n == 0 {
		n = len(doc.RevenueData[date])
	}
	n = max(n, 1)

	return PlanInput{
		Revenue: plan.Revenue / int64(n),
		Focus:   plan.Focus / int64(n),
		SBP:     plan.SBP / int64(n),
	}
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}

// FormatDailySummary форматирует сводку за день
func (s *DashboardService) FormatDailySummary(d *DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Выручка за %s\n\n", d.Date)
	b.WriteString(formatProgressLine("💰 Выручка", d.Revenue, d.HasPlan))
	b.WriteString(formatProgressLine("🎯 Фокус", d.Focus, d.HasPlan))
	b.WriteString(formatProgressLine("📱 СБП", d.SBP, d.HasPlan))
	fmt.Fprintf(&b, "💵 Наличные: %s\n", formatMoney(d.Totals.Cash))
	fmt.Fprintf(&b, "\n👥 Отчитались: %d", d.Entries)
	if !d.HasPlan {
		b.WriteString("\n\n⚠️ План на этот день не задан")
	}
	return b.String()
}

// FormatMonthSummary форматирует итоги месяца
func (s *DashboardService) FormatMonthSummary(m *MonthSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s %d\n\n", monthName(m.Month), m.Year)
	b.WriteString(formatProgressLine("💰 Выручка", m.Revenue, m.Revenue.Plan > 0))
	b.WriteString(formatProgressLine("🎯 Фокус", m.Focus, m.Focus.Plan > 0))
	b.WriteString(formatProgressLine("📱 СБП", m.SBP, m.SBP.Plan > 0))
	fmt.Fprintf(&b, "\n📅 Прошло дней: %d из %d\n", m.ElapsedDays, m.DaysInMonth)
	fmt.Fprintf(&b, "📊 В среднем за день: %s\n", formatMoney(m.DailyAverage))
	fmt.Fprintf(&b, "🔮 Прогноз: %s", formatMoney(m.Forecast))
	return b.String()
}

// FormatRanking форматирует рейтинг сотрудников
func (s *DashboardService) FormatRanking(ranking []RankingEntry, from, to string) string {
	if len(ranking) == 0 {
		return fmt.Sprintf("📭 За период %s - %s выручки нет.", from, to)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Рейтинг за %s - %s\n\n", from, to)
	for _, r := range ranking {
		fmt.Fprintf(&b, "%s %s: %s (%.1f%%)\n", rankMedal(r.Rank), r.EmployeeName, formatMoney(r.Total), r.Share)
	}
	return b.String()
}

func formatProgressLine(title string, p CategoryProgress, hasPlan bool) string {
	if !hasPlan || p.Plan == 0 {
		return fmt.Sprintf("%s: %s\n", title, formatMoney(p.Fact))
	}
	return fmt.Sprintf("%s: %s из %s (%.1f%%)\n", title, formatMoney(p.Fact), formatMoney(p.Plan), p.Percent)
}

func rankMedal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return fmt.Sprintf("%d.", rank)
}
