package models

import (
	"strings"
	"time"
)

// DocumentVersion версия схемы основного документа
const DocumentVersion = "1.0"

// DateLayout формат ключей-дат в документе (ISO)
const DateLayout = "2006-01-02"

// TimestampLayout формат отметок времени (как Date.toISOString)
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Роли сотрудников
const (
	RoleStaff            = "staff"
	RoleAssistantManager = "assistant_manager"
	RoleQualityDirector  = "quality_director"
	RoleAdmin            = "admin"
)

// Типы смен в графике
const (
	ScheduleTypeWork     = "work"
	ScheduleTypeOvertime = "overtime"
	ScheduleTypeHoliday  = "holiday"
	ScheduleTypeSick     = "sick"
	ScheduleTypeVacation = "vacation"
)

// Document единственный сохраняемый агрегат с данными магазина
type Document struct {
	Employees   []Employee                 `json:"employees"`
	RevenueData map[string][]RevenueEntry  `json:"revenueData"`
	Plans       map[string]Plan            `json:"plans"`
	Schedules   map[string][]ScheduleEntry `json:"schedules"`
	Version     string                     `json:"version"`
	LastUpdated string                     `json:"lastUpdated"`
}

type Employee struct {
	ID         string   `json:"id"`
	EmployeeID string   `json:"employeeId"`
	Name       string   `json:"name"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email"`
	Telegram   string   `json:"telegram"`
	BirthDate  string   `json:"birthDate"`
	Stores     []string `json:"stores"`
	Role       string   `json:"role"`
	Position   string   `json:"position"`
	Department string   `json:"department"`
	HireDate   string   `json:"hireDate"`
	CreatedAt  string   `json:"createdAt"`
}

// RevenueEntry выручка одного сотрудника за день; суммы хранятся строками
type RevenueEntry struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Focus        string `json:"focus"`
	SBP          string `json:"sbp"`
	Cash         string `json:"cash"`
	Timestamp    string `json:"timestamp"`
}

type Plan struct {
	Revenue   int64  `json:"revenue"`
	Focus     int64  `json:"focus"`
	SBP       int64  `json:"sbp"`
	UpdatedAt string `json:"updatedAt"`
}

type ScheduleEntry struct {
	EmployeeID string `json:"employeeId"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Type       string `json:"type"`
	CreatedAt  string `json:"createdAt"`
}

// NewDocument создает пустой документ со всеми коллекциями
func NewDocument() *Document {
	return &Document{
		Employees:   []Employee{},
		RevenueData: map[string][]RevenueEntry{},
		Plans:       map[string]Plan{},
		Schedules:   map[string][]ScheduleEntry{},
		Version:     DocumentVersion,
	}
}

// Touch проставляет время последнего сохранения
func (d *Document) Touch(now time.Time) {
	d.LastUpdated = FormatTimestamp(now)
}

// Clone возвращает глубокую копию документа
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	out := &Document{
		Employees:   make([]Employee, len(d.Employees)),
		RevenueData: make(map[string][]RevenueEntry, len(d.RevenueData)),
		Plans:       make(map[string]Plan, len(d.Plans)),
		Schedules:   make(map[string][]ScheduleEntry, len(d.Schedules)),
		Version:     d.Version,
		LastUpdated: d.LastUpdated,
	}

	for i, e := range d.Employees {
		out.Employees[i] = e.Clone()
	}
	for date, entries := range d.RevenueData {
		out.RevenueData[date] = append([]RevenueEntry{}, entries...)
	}
	for date, plan := range d.Plans {
		out.Plans[date] = plan
	}
	for date, entries := range d.Schedules {
		out.Schedules[date] = append([]ScheduleEntry{}, entries...)
	}

	return out
}

// FindEmployee возвращает индекс сотрудника по табельному номеру или -1
func (d *Document) FindEmployee(employeeID string) int {
	for i := range d.Employees {
		if d.Employees[i].EmployeeID == employeeID {
			return i
		}
	}
	return -1
}

func (e Employee) Clone() Employee {
	e.Stores = append([]string{}, e.Stores...)
	return e
}

// IsAdmin проверяет, является ли сотрудник администратором
func (e *Employee) IsAdmin() bool {
	return e.Role == RoleAdmin
}

// IsManager руководящие роли могут задавать планы
func (e *Employee) IsManager() bool {
	switch e.Role {
	case RoleAdmin, RoleAssistantManager, RoleQualityDirector:
		return true
	}
	return false
}

// IsValidRole проверяет, входит ли роль в перечисление
func IsValidRole(role string) bool {
	switch role {
	case RoleStaff, RoleAssistantManager, RoleQualityDirector, RoleAdmin:
		return true
	}
	return false
}

// IsValidScheduleType проверяет тип смены
func IsValidScheduleType(t string) bool {
	switch t {
	case ScheduleTypeWork, ScheduleTypeOvertime, ScheduleTypeHoliday, ScheduleTypeSick, ScheduleTypeVacation:
		return true
	}
	return false
}

// IsWorking смена, в которую сотрудник продает
func (s *ScheduleEntry) IsWorking() bool {
	return s.Type == ScheduleTypeWork || s.Type == ScheduleTypeOvertime
}

// ParseDate разбирает ключ-дату документа
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate форматирует дату в ключ документа
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatTimestamp форматирует момент времени в UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
