package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// RevenueInput суммы в том виде, в каком их ввел пользователь
type RevenueInput struct {
	Focus string
	SBP   string
	Cash  string
}

// RevenueTotals суммы по категориям за день или период
type RevenueTotals struct {
	Focus int64 `json:"focus"`
	SBP   int64 `json:"sbp"`
	Cash  int64 `json:"cash"`
}

// Total выручка целиком: фокус + СБП + наличные
func (t RevenueTotals) Total() int64 {
	return t.Focus + t.SBP + t.Cash
}

func (t *RevenueTotals) add(e models.RevenueEntry) {
	t.Focus += models.ParseAmount(e.Focus)
	t.SBP += models.ParseAmount(e.SBP)
	t.Cash += models.ParseAmount(e.Cash)
}

// DatedRevenueEntry запись выручки вместе с датой
type DatedRevenueEntry struct {
	Date string `json:"date"`
	models.RevenueEntry
}

type RevenueService struct {
	store  DocumentStore
	now    func() time.Time
	logger *logrus.Logger
}

func NewRevenueService(store DocumentStore) *RevenueService {
	return &RevenueService{
		store:  store,
		now:    time.Now,
		logger: newLogger(),
	}
}

func (s *RevenueService) SetClock(now func() time.Time) {
	s.now = now
}

// SaveRevenueEntry сохраняет выручку сотрудника за день.
// Повторная отправка за ту же дату заменяет прежнюю запись.
func (s *RevenueService) SaveRevenueEntry(date, employeeID, employeeName string, in RevenueInput) (*models.RevenueEntry, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, models.ErrInvalidEmployee
	}

	entry := models.RevenueEntry{
		EmployeeID:   employeeID,
		EmployeeName: strings.TrimSpace(employeeName),
		Focus:        models.SanitizeAmount(in.Focus),
		SBP:          models.SanitizeAmount(in.SBP),
		Cash:         models.SanitizeAmount(in.Cash),
		Timestamp:    models.FormatTimestamp(s.now()),
	}

	err = s.store.Update(func(doc *models.Document) error {
		entries := doc.RevenueData[date]
		for i := range entries {
			if entries[i].EmployeeID == employeeID {
				entries[i] = entry
				doc.RevenueData[date] = entries
				return nil
			}
		}
		doc.RevenueData[date] = append(entries, entry)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"date":        date,
			"employee_id": employeeID,
		}).Error("Failed to save revenue entry")
		return nil, fmt.Errorf("ошибка сохранения выручки: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"date":        date,
		"employee_id": employeeID,
		"focus":       entry.Focus,
		"sbp":         entry.SBP,
		"cash":        entry.Cash,
	}).Info("Revenue entry saved")

	return &entry, nil
}

// GetRevenueEntries возвращает копию записей за день; пустой срез, если их нет
func (s *RevenueService) GetRevenueEntries(date string) ([]models.RevenueEntry, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	return append([]models.RevenueEntry{}, doc.RevenueData[date]...), nil
}

// GetDailyRevenue суммирует записи за день
func (s *RevenueService) GetDailyRevenue(date string) (RevenueTotals, error) {
	entries, err := s.GetRevenueEntries(date)
	if err != nil {
		return RevenueTotals{}, err
	}

	var totals RevenueTotals
	for _, e := range entries {
		totals.add(e)
	}
	return totals, nil
}

// GetRevenueForRange возвращает записи за период [from, to] по возрастанию даты
func (s *RevenueService) GetRevenueForRange(from, to string) ([]DatedRevenueEntry, error) {
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

	return revenueInRange(doc, from, to), nil
}

// revenueInRange ключи-даты в формате ISO сравниваются как строки
func revenueInRange(doc *models.Document, from, to string) []DatedRevenueEntry {
	dates := make([]string, 0, len(doc.RevenueData))
	for date := range doc.RevenueData {
		if date >= from && date <= to {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	var out []DatedRevenueEntry
	for _, date := range dates {
		for _, e := range doc.RevenueData[date] {
			out = append(out, DatedRevenueEntry{Date: date, RevenueEntry: e})
		}
	}
	return out
}
