package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// ScheduleInput смена сотрудника; пустой тип означает рабочую смену
type ScheduleInput struct {
	StartTime string
	EndTime   string
	Type      string
}

// DatedScheduleEntry смена вместе с датой
type DatedScheduleEntry struct {
	Date string `json:"date"`
	models.ScheduleEntry
}

type ScheduleService struct {
	store  DocumentStore
	now    func() time.Time
	logger *logrus.Logger
}

func NewScheduleService(store DocumentStore) *ScheduleService {
	return &ScheduleService{
		store:  store,
		now:    time.Now,
		logger: newLogger(),
	}
}

func (s *ScheduleService) SetClock(now func() time.Time) {
	s.now = now
}

// normalizeClock проверяет время в формате ЧЧ:ММ; пустое значение допустимо
func normalizeClock(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}

	t, err := time.Parse("15:04", value)
	if err != nil {
		return "", models.ErrInvalidTime
	}
	return t.Format("15:04"), nil
}

// SaveScheduleEntry сохраняет смену; у сотрудника одна смена на дату
func (s *ScheduleService) SaveScheduleEntry(date, employeeID string, in ScheduleInput) (*models.ScheduleEntry, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, models.ErrInvalidEmployee
	}

	scheduleType := strings.TrimSpace(in.Type)
	if scheduleType == "" {
		scheduleType = models.ScheduleTypeWork
	}
	if !models.IsValidScheduleType(scheduleType) {
		s.logger.WithField("type", in.Type).Warn("Invalid schedule type")
		return nil, models.ErrInvalidScheduleType
	}

	start, err := normalizeClock(in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := normalizeClock(in.EndTime)
	if err != nil {
		return nil, err
	}

	entry := models.ScheduleEntry{
		EmployeeID: employeeID,
		StartTime:  start,
		EndTime:    end,
		Type:       scheduleType,
		CreatedAt:  models.FormatTimestamp(s.now()),
	}

	err = s.store.Update(func(doc *models.Document) error {
		entries := doc.Schedules[date]
		for i := range entries {
			if entries[i].EmployeeID == employeeID {
				entries[i] = entry
				doc.Schedules[date] = entries
				return nil
			}
		}
		doc.Schedules[date] = append(entries, entry)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"date":        date,
			"employee_id": employeeID,
		}).Error("Failed to save schedule entry")
		return nil, fmt.Errorf("ошибка сохранения графика: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"date":        date,
		"employee_id": employeeID,
		"type":        scheduleType,
	}).Info("Schedule entry saved")

	return &entry, nil
}

// GetScheduleForDate смены за день
func (s *ScheduleService) GetScheduleForDate(date string) ([]models.ScheduleEntry, error) {
	date, err := normalizeDate(date)
	if err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	return append([]models.ScheduleEntry{}, doc.Schedules[date]...), nil
}

// GetEmployeeSchedule смены сотрудника за месяц по возрастанию даты
func (s *ScheduleService) GetEmployeeSchedule(employeeID string, month, year int) ([]DatedScheduleEntry, error) {
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	out := make([]DatedScheduleEntry, 0)
	for date, entries := range doc.Schedules {
		if !inMonth(date, year, month) {
			continue
		}
		for _, e := range entries {
			if e.EmployeeID == employeeID {
				out = append(out, DatedScheduleEntry{Date: date, ScheduleEntry: e})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out, nil
}

// DeleteScheduleEntry удаляет смену сотрудника за дату
func (s *ScheduleService) DeleteScheduleEntry(date, employeeID string) error {
	date, err := normalizeDate(date)
	if err != nil {
		return err
	}

	err = s.store.Update(func(doc *models.Document) error {
		entries := doc.Schedules[date]
		for i := range entries {
			if entries[i].EmployeeID == employeeID {
				entries = append(entries[:i], entries[i+1:]...)
				if len(entries) == 0 {
					delete(doc.Schedules, date)
				} else {
					doc.Schedules[date] = entries
				}
				return nil
			}
		}
		return models.ErrScheduleNotFound
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"date":        date,
			"employee_id": employeeID,
		}).Warn("Failed to delete schedule entry")
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"date":        date,
		"employee_id": employeeID,
	}).Info("Schedule entry deleted")
	return nil
}

// FormatSchedule форматирует смены сотрудника за месяц
func (s *ScheduleService) FormatSchedule(entries []DatedScheduleEntry, month, year int) string {
	if len(entries) == 0 {
		return fmt.Sprintf("📭 На %s %d смен нет.", strings.ToLower(monthName(month)), year)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 График на %s %d:\n\n", strings.ToLower(monthName(month)), year)
	for _, e := range entries {
		switch {
		case e.IsWorking() && e.StartTime != "":
			fmt.Fprintf(&b, "%s %s: %s-%s\n", scheduleEmoji(e.Type), e.Date, e.StartTime, e.EndTime)
		default:
			fmt.Fprintf(&b, "%s %s: %s\n", scheduleEmoji(e.Type), e.Date, scheduleTypeName(e.Type))
		}
	}
	return b.String()
}

func scheduleEmoji(t string) string {
	switch t {
	case models.ScheduleTypeWork:
		return "🟢"
	case models.ScheduleTypeOvertime:
		return "🟠"
	case models.ScheduleTypeSick:
		return "🤒"
	case models.ScheduleTypeVacation:
		return "🏖️"
	default:
		return "⚪"
	}
}

func scheduleTypeName(t string) string {
	switch t {
	case models.ScheduleTypeWork:
		return "рабочая смена"
	case models.ScheduleTypeOvertime:
		return "подработка"
	case models.ScheduleTypeHoliday:
		return "выходной"
	case models.ScheduleTypeSick:
		return "больничный"
	case models.ScheduleTypeVacation:
		return "отпуск"
	}
	return t
}
