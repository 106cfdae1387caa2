package service

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/metrics"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/spreadsheet"

	"github.com/sirupsen/logrus"
)

// Виды импортируемых таблиц
const (
	ImportKindEmployees = "employees"
	ImportKindPlans     = "plans"
	ImportKindSchedules = "schedules"
)

// ErrMissingColumns в заголовке нет обязательных колонок
var ErrMissingColumns = errors.New("в таблице нет обязательных колонок")

// ImportResult итог импорта: плохие строки пропускаются с пояснением
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func (r *ImportResult) skip(row int, format string, args ...any) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("строка %d: %s", row, fmt.Sprintf(format, args...)))
}

var employeeColumns = map[string][]string{
	"employeeId": {"Табельный номер", "Таб. номер", "Табельный", "employeeId", "ID"},
	"name":       {"ФИО", "Имя", "Сотрудник", "Name"},
	"phone":      {"Телефон", "Phone"},
	"email":      {"Email", "E-mail", "Почта"},
	"telegram":   {"Telegram", "Телеграм"},
	"role":       {"Роль", "Role"},
	"position":   {"Должность", "Position"},
	"department": {"Отдел", "Department"},
	"stores":     {"Магазин", "Магазины", "Store", "Stores"},
	"birthDate":  {"Дата рождения", "birthDate"},
	"hireDate":   {"Дата приема", "hireDate"},
}

var planColumns = map[string][]string{
	"date":    {"Дата", "Date", "date"},
	"revenue": {"Выручка", "План выручки", "Revenue"},
	"focus":   {"Фокус", "План фокус", "Focus"},
	"sbp":     {"СБП", "План СБП", "SBP"},
}

var scheduleColumns = map[string][]string{
	"date":       {"Дата", "Date", "date"},
	"employeeId": {"Табельный номер", "Таб. номер", "Табельный", "employeeId", "ID"},
	"start":      {"Начало", "С", "Start", "startTime"},
	"end":        {"Конец", "До", "End", "endTime"},
	"type":       {"Тип", "Type"},
}

var sheetKinds = map[string][]string{
	ImportKindEmployees: {"Сотрудники", "Employees", "Персонал"},
	ImportKindPlans:     {"Планы", "План", "Plans"},
	ImportKindSchedules: {"График", "Графики", "Смены", "Schedules"},
}

// ImportService загрузка сотрудников, планов и графиков из таблиц
type ImportService struct {
	store        DocumentStore
	defaultStore string
	metrics      *metrics.Metrics
	now          func() time.Time
	logger       *logrus.Logger
}

func NewImportService(store DocumentStore, defaultStore string, m *metrics.Metrics) *ImportService {
	return &ImportService{
		store:        store,
		defaultStore: defaultStore,
		metrics:      m,
		now:          time.Now,
		logger:       newLogger(),
	}
}

func (s *ImportService) SetClock(now func() time.Time) {
	s.now = now
}

// ImportEmployees читает первый лист; существующие сотрудники обновляются
// непустыми значениями из таблицы
func (s *ImportService) ImportEmployees(reader io.Reader, filename string) (*ImportResult, error) {
	rows, err := spreadsheet.ReadRows(reader, filename)
	if err != nil {
		return nil, err
	}
	return s.importEmployeeRows(rows)
}

// ImportPlans читает первый лист с дневными планами
func (s *ImportService) ImportPlans(reader io.Reader, filename string) (*ImportResult, error) {
	rows, err := spreadsheet.ReadRows(reader, filename)
	if err != nil {
		return nil, err
	}
	return s.importPlanRows(rows)
}

// ImportSchedules читает первый лист со сменами
func (s *ImportService) ImportSchedules(reader io.Reader, filename string) (*ImportResult, error) {
	rows, err := spreadsheet.ReadRows(reader, filename)
	if err != nil {
		return nil, err
	}
	return s.importScheduleRows(rows)
}

// ImportWorkbook импортирует все узнаваемые по названию листы книги
func (s *ImportService) ImportWorkbook(reader io.Reader, filename string) (map[string]*ImportResult, error) {
	sheets, err := spreadsheet.ReadSheets(reader, filename)
	if err != nil {
		return nil, err
	}

	results := make(map[string]*ImportResult)
	for _, sheet := range sheets {
		kind := sheetKind(sheet.Name)
		if kind == "" || len(sheet.Rows) == 0 {
			s.logger.WithField("sheet", sheet.Name).Debug("Sheet skipped")
			continue
		}

		var res *ImportResult
		switch kind {
		case ImportKindEmployees:
			res, err = s.importEmployeeRows(sheet.Rows)
		case ImportKindPlans:
			res, err = s.importPlanRows(sheet.Rows)
		case ImportKindSchedules:
			res, err = s.importScheduleRows(sheet.Rows)
		}
		if err != nil {
			return results, fmt.Errorf("лист %s: %w", sheet.Name, err)
		}
		results[kind] = res
	}

	return results, nil
}

func sheetKind(name string) string {
	name = spreadsheet.NormalizeHeader(name)
	for kind, names := range sheetKinds {
		for _, n := range names {
			if spreadsheet.NormalizeHeader(n) == name {
				return kind
			}
		}
	}
	return ""
}

func requireColumns(index map[string]int, fields ...string) error {
	var missing []string
	for _, f := range fields {
		if index[f] < 0 {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

func (s *ImportService) importEmployeeRows(rows [][]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, spreadsheet.ErrEmptySheet
	}
	col := spreadsheet.MapHeader(rows[0], employeeColumns)
	if err := requireColumns(col, "employeeId", "name"); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	now := s.now()
	var inputs []EmployeeInput
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		line := i + 2
		if spreadsheet.IsEmptyRow(row) {
			continue
		}

		in := EmployeeInput{
			EmployeeID: spreadsheet.Cell(row, col["employeeId"]),
			Name:       spreadsheet.Cell(row, col["name"]),
			Phone:      spreadsheet.Cell(row, col["phone"]),
			Email:      spreadsheet.Cell(row, col["email"]),
			Telegram:   spreadsheet.Cell(row, col["telegram"]),
			Role:       spreadsheet.Cell(row, col["role"]),
			Position:   spreadsheet.Cell(row, col["position"]),
			Department: spreadsheet.Cell(row, col["department"]),
			Stores:     splitList(spreadsheet.Cell(row, col["stores"])),
		}
		in.BirthDate = freeFormDate(spreadsheet.Cell(row, col["birthDate"]))
		in.HireDate = freeFormDate(spreadsheet.Cell(row, col["hireDate"]))

		if _, err := buildEmployee(in, s.defaultStore, now); err != nil {
			res.skip(line, "%v", err)
			continue
		}
		if seen[in.EmployeeID] {
			res.skip(line, "табельный номер %s повторяется", in.EmployeeID)
			continue
		}
		seen[in.EmployeeID] = true
		inputs = append(inputs, in)
	}

	err := s.store.Update(func(doc *models.Document) error {
		for _, in := range inputs {
			if i := doc.FindEmployee(strings.TrimSpace(in.EmployeeID)); i >= 0 {
				doc.Employees[i] = applyPatch(doc.Employees[i], patchFromInput(in))
				continue
			}
			employee, err := buildEmployee(in, s.defaultStore, now)
			if err != nil {
				return err
			}
			doc.Employees = append(doc.Employees, employee)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения сотрудников: %w", err)
	}

	res.Imported = len(inputs)
	s.finish(ImportKindEmployees, res)
	return res, nil
}

// freeFormDate приводит распознанную дату к ISO, остальное оставляет как есть
func freeFormDate(value string) string {
	if parsed, ok := spreadsheet.ParseDate(value); ok {
		return parsed
	}
	return value
}

// patchFromInput непустые поля строки таблицы
func patchFromInput(in EmployeeInput) EmployeePatch {
	ptr := func(v string) *string {
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return &v
	}

	p := EmployeePatch{
		Name:       ptr(strings.TrimSpace(in.Name)),
		Phone:      ptr(in.Phone),
		Email:      ptr(in.Email),
		Telegram:   ptr(in.Telegram),
		BirthDate:  ptr(in.BirthDate),
		Role:       ptr(in.Role),
		Position:   ptr(in.Position),
		Department: ptr(in.Department),
		HireDate:   ptr(in.HireDate),
	}
	if len(in.Stores) > 0 {
		p.Stores = in.Stores
	}
	return p
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *ImportService) importPlanRows(rows [][]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, spreadsheet.ErrEmptySheet
	}
	col := spreadsheet.MapHeader(rows[0], planColumns)
	if err := requireColumns(col, "date", "revenue"); err != nil {
		return nil, err
	}

	res := &ImportResult{}
	updatedAt := models.FormatTimestamp(s.now())
	plans := make(map[string]models.Plan)

	for i, row := range rows[1:] {
		line := i + 2
		if spreadsheet.IsEmptyRow(row) {
			continue
		}

		date, ok := spreadsheet.ParseDate(spreadsheet.Cell(row, col["date"]))
		if !ok {
			res.skip(line, "некорректная дата %q", spreadsheet.Cell(row, col["date"]))
			continue
		}

		in := clampPlan(PlanInput{
			Revenue: models.ParseAmount(spreadsheet.Cell(row, col["revenue"])),
			Focus:   models.ParseAmount(spreadsheet.Cell(row, col["focus"])),
			SBP:     models.ParseAmount(spreadsheet.Cell(row, col["sbp"])),
		})
		plans[date] = models.Plan{Revenue: in.Revenue, Focus: in.Focus, SBP: in.SBP, UpdatedAt: updatedAt}
	}

	err := s.store.Update(func(doc *models.Document) error {
		for date, p := range plans {
			doc.Plans[date] = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения планов: %w", err)
	}

	res.Imported = len(plans)
	s.finish(ImportKindPlans, res)
	return res, nil
}

func (s *ImportService) importScheduleRows(rows [][]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, spreadsheet.ErrEmptySheet
	}
	col := spreadsheet.MapHeader(rows[0], scheduleColumns)
	if err := requireColumns(col, "date", "employeeId"); err != nil {
		return nil, err
	}

	type dated struct {
		date  string
		entry models.ScheduleEntry
	}

	res := &ImportResult{}
	createdAt := models.FormatTimestamp(s.now())
	var entries []dated

	for i, row := range rows[1:] {
		line := i + 2
		if spreadsheet.IsEmptyRow(row) {
			continue
		}

		date, ok := spreadsheet.ParseDate(spreadsheet.Cell(row, col["date"]))
		if !ok {
			res.skip(line, "некорректная дата %q", spreadsheet.Cell(row, col["date"]))
			continue
		}

		employeeID := spreadsheet.Cell(row, col["employeeId"])
		if employeeID == "" {
			res.skip(line, "не указан табельный номер")
			continue
		}

		scheduleType := parseScheduleType(spreadsheet.Cell(row, col["type"]))
		if scheduleType == "" {
			res.skip(line, "неизвестный тип смены %q", spreadsheet.Cell(row, col["type"]))
			continue
		}

		start, err := normalizeClock(sheetClock(spreadsheet.Cell(row, col["start"])))
		if err != nil {
			res.skip(line, "некорректное время начала")
			continue
		}
		end, err := normalizeClock(sheetClock(spreadsheet.Cell(row, col["end"])))
		if err != nil {
			res.skip(line, "некорректное время окончания")
			continue
		}

		entries = append(entries, dated{date: date, entry: models.ScheduleEntry{
			EmployeeID: employeeID,
			StartTime:  start,
			EndTime:    end,
			Type:       scheduleType,
			CreatedAt:  createdAt,
		}})
	}

	err := s.store.Update(func(doc *models.Document) error {
		for _, d := range entries {
			list := doc.Schedules[d.date]
			replaced := false
			for i := range list {
				if list[i].EmployeeID == d.entry.EmployeeID {
					list[i] = d.entry
					replaced = true
					break
				}
			}
			if !replaced {
				list = append(list, d.entry)
			}
			doc.Schedules[d.date] = list
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка сохранения графика: %w", err)
	}

	res.Imported = len(entries)
	s.finish(ImportKindSchedules, res)
	return res, nil
}

// parseScheduleType принимает код или русское название; пусто = рабочая смена
func parseScheduleType(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", models.ScheduleTypeWork, "работа", "смена", "рабочая смена":
		return models.ScheduleTypeWork
	case models.ScheduleTypeOvertime, "подработка", "переработка":
		return models.ScheduleTypeOvertime
	case models.ScheduleTypeHoliday, "выходной":
		return models.ScheduleTypeHoliday
	case models.ScheduleTypeSick, "больничный":
		return models.ScheduleTypeSick
	case models.ScheduleTypeVacation, "отпуск":
		return models.ScheduleTypeVacation
	}
	return ""
}

// sheetClock переводит долю суток Excel (0.375) в ЧЧ:ММ
func sheetClock(value string) string {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 || f >= 1 {
		return value
	}
	minutes := int(f*24*60 + 0.5)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func (s *ImportService) finish(kind string, res *ImportResult) {
	s.metrics.ObserveImport(kind, res.Imported, res.Skipped)
	s.logger.WithFields(logrus.Fields{
		"kind":     kind,
		"imported": res.Imported,
		"skipped":  res.Skipped,
	}).Info("Spreadsheet imported")
}
