package service

import (
	"fmt"
	"io"
	"sort"
	"time"

	"retail-dashboard/internal/spreadsheet"

	"github.com/sirupsen/logrus"
)

// ExportService выгрузка месячного отчета в xlsx
type ExportService struct {
	store     DocumentStore
	dashboard *DashboardService
	now       func() time.Time
	logger    *logrus.Logger
}

func NewExportService(store DocumentStore, dashboard *DashboardService) *ExportService {
	return &ExportService{
		store:     store,
		dashboard: dashboard,
		now:       time.Now,
		logger:    newLogger(),
	}
}

func (s *ExportService) SetClock(now func() time.Time) {
	s.now = now
}

// ExportMonthReport пишет книгу с листами Сводка, Сотрудники и По дням
func (s *ExportService) ExportMonthReport(year, month int, w io.Writer) error {
	if err := validateMonth(month); err != nil {
		return err
	}

	summary, err := s.dashboard.MonthSummary(year, month, s.now())
	if err != nil {
		return err
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	ranking, err := s.dashboard.EmployeeRanking(first.Format("2006-01-02"), last.Format("2006-01-02"))
	if err != nil {
		return err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return fmt.Errorf("ошибка чтения данных: %w", err)
	}

	book := spreadsheet.NewWorkbook()
	defer func() { _ = book.Close() }()

	err = book.AddSheet("Сводка", []string{"Показатель", "Факт", "План", "Выполнение, %"}, [][]any{
		{"Выручка", summary.Revenue.Fact, summary.Revenue.Plan, summary.Revenue.Percent},
		{"Фокус", summary.Focus.Fact, summary.Focus.Plan, summary.Focus.Percent},
		{"СБП", summary.SBP.Fact, summary.SBP.Plan, summary.SBP.Percent},
		{"Наличные", summary.Totals.Cash, "", ""},
		{"Среднее за день", summary.DailyAverage, "", ""},
		{"Прогноз", summary.Forecast, "", ""},
	})
	if err != nil {
		return err
	}

	employeeRows := make([][]any, 0, len(ranking))
	for _, r := range ranking {
		employeeRows = append(employeeRows, []any{
			r.Rank, r.EmployeeID, r.EmployeeName, r.Totals.Focus, r.Totals.SBP, r.Totals.Cash, r.Total, r.Share,
		})
	}
	err = book.AddSheet("Сотрудники",
		[]string{"Место", "Табельный номер", "Сотрудник", "Фокус", "СБП", "Наличные", "Выручка", "Доля, %"},
		employeeRows)
	if err != nil {
		return err
	}

	var dates []string
	for date := range doc.RevenueData {
		if inMonth(date, year, month) {
			dates = append(dates, date)
		}
	}
	for date := range doc.Plans {
		if inMonth(date, year, month) {
			if _, ok := doc.RevenueData[date]; !ok {
				dates = append(dates, date)
			}
		}
	}
	sort.Strings(dates)

	dayRows := make([][]any, 0, len(dates))
	for _, date := range dates {
		var t RevenueTotals
		for _, e := range doc.RevenueData[date] {
			t.add(e)
		}
		plan := doc.Plans[date]
		p := newProgress(t.Total(), plan.Revenue)
		dayRows = append(dayRows, []any{date, t.Focus, t.SBP, t.Cash, t.Total(), plan.Revenue, p.Percent})
	}
	err = book.AddSheet("По дням",
		[]string{"Дата", "Фокус", "СБП", "Наличные", "Выручка", "План", "Выполнение, %"},
		dayRows)
	if err != nil {
		return err
	}

	if _, err := book.WriteTo(w); err != nil {
		s.logger.WithError(err).Error("Failed to write month report")
		return fmt.Errorf("ошибка записи отчета: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"year":      year,
		"month":     month,
		"employees": len(ranking),
		"days":      len(dates),
	}).Info("Month report exported")

	return nil
}
