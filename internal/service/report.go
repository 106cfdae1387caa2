package service

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReportStore документ с пользовательскими отчетами
type ReportStore interface {
	Snapshot() (*models.ReportBook, error)
	Update(fn func(b *models.ReportBook) error) error
}

// ReportInput параметры нового отчета
type ReportInput struct {
	Name        string
	Metrics     []string
	From        string
	To          string
	EmployeeIDs []string
}

type ReportService struct {
	reports ReportStore
	data    DocumentStore
	now     func() time.Time
	logger  *logrus.Logger
}

func NewReportService(reports ReportStore, data DocumentStore) *ReportService {
	return &ReportService{
		reports: reports,
		data:    data,
		now:     time.Now,
		logger:  newLogger(),
	}
}

func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// SaveReport сохраняет описание отчета
func (s *ReportService) SaveReport(in ReportInput) (*models.ReportDefinition, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(in.Metrics) == 0 {
		return nil, models.ErrInvalidReport
	}
	for _, m := range in.Metrics {
		if !models.IsValidMetric(m) {
			return nil, fmt.Errorf("%w: неизвестная метрика %s", models.ErrInvalidReport, m)
		}
	}

	from, err := normalizeDate(in.From)
	if err != nil {
		return nil, err
	}
	to, err := normalizeDate(in.To)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("%w: начало периода позже конца", models.ErrInvalidReport)
	}

	report := models.ReportDefinition{
		ID:          uuid.NewString(),
		Name:        name,
		Metrics:     append([]string{}, in.Metrics...),
		From:        from,
		To:          to,
		EmployeeIDs: append([]string{}, in.EmployeeIDs...),
		CreatedAt:   models.FormatTimestamp(s.now()),
	}

	err = s.reports.Update(func(b *models.ReportBook) error {
		b.Reports = append(b.Reports, report)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to save report")
		return nil, fmt.Errorf("ошибка сохранения отчета: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"id":   report.ID,
		"name": report.Name,
	}).Info("Report saved")

	return &report, nil
}

func (s *ReportService) GetReports() ([]models.ReportDefinition, error) {
	book, err := s.reports.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения отчетов: %w", err)
	}
	return book.Reports, nil
}

func (s *ReportService) GetReport(id string) (*models.ReportDefinition, error) {
	reports, err := s.GetReports()
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.ID == id {
			report := r
			return &report, nil
		}
	}
	return nil, models.ErrReportNotFound
}

func (s *ReportService) DeleteReport(id string) error {
	err := s.reports.Update(func(b *models.ReportBook) error {
		for i := range b.Reports {
			if b.Reports[i].ID == id {
				b.Reports = append(b.Reports[:i], b.Reports[i+1:]...)
				return nil
			}
		}
		return models.ErrReportNotFound
	})
	if err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("Failed to delete report")
		return err
	}

	s.logger.WithField("id", id).Info("Report deleted")
	return nil
}

// RunReport строит таблицу: строка на сотрудника и итоговая строка
func (s *ReportService) RunReport(id string) (*models.ReportTable, error) {
	report, err := s.GetReport(id)
	if err != nil {
		return nil, err
	}

	doc, err := s.data.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	totals := make(map[string]*RevenueTotals)
	for _, e := range revenueInRange(doc, report.From, report.To) {
		if len(report.EmployeeIDs) > 0 && !slices.Contains(report.EmployeeIDs, e.EmployeeID) {
			continue
		}
		t, ok := totals[e.EmployeeID]
		if !ok {
			t = &RevenueTotals{}
			totals[e.EmployeeID] = t
		}
		t.add(e.RevenueEntry)
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	names := employeeNames(doc)
	table := &models.ReportTable{
		Name:   report.Name,
		Header: append([]string{"Табельный номер", "Сотрудник"}, metricTitles(report.Metrics)...),
		Rows:   make([][]string, 0, len(ids)),
	}

	var grand RevenueTotals
	for _, id := range ids {
		t := *totals[id]
		grand.Focus += t.Focus
		grand.SBP += t.SBP
		grand.Cash += t.Cash

		row := []string{id, names[id]}
		table.Rows = append(table.Rows, append(row, metricValues(t, report.Metrics)...))
	}
	table.Totals = append([]string{"", "Итого"}, metricValues(grand, report.Metrics)...)

	s.logger.WithFields(logrus.Fields{
		"id":   report.ID,
		"rows": len(table.Rows),
	}).Debug("Report built")

	return table, nil
}

func metricValue(t RevenueTotals, metric string) int64 {
	switch metric {
	case models.MetricFocus:
		return t.Focus
	case models.MetricSBP:
		return t.SBP
	case models.MetricCash:
		return t.Cash
	}
	return t.Total()
}

func metricValues(t RevenueTotals, metrics []string) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		out[i] = strconv.FormatInt(metricValue(t, m), 10)
	}
	return out
}

func metricTitles(metrics []string) []string {
	out := make([]string, len(metrics))
	for i, m := range metrics {
		switch m {
		case models.MetricFocus:
			out[i] = "Фокус"
		case models.MetricSBP:
			out[i] = "СБП"
		case models.MetricCash:
			out[i] = "Наличные"
		default:
			out[i] = "Выручка"
		}
	}
	return out
}
