package models

import "time"

// Метрики пользовательских отчетов
const (
	MetricFocus   = "focus"
	MetricSBP     = "sbp"
	MetricCash    = "cash"
	MetricRevenue = "revenue"
)

// ReportBook сохраняемый набор пользовательских отчетов
type ReportBook struct {
	Reports     []ReportDefinition `json:"reports"`
	LastUpdated string             `json:"lastUpdated"`
}

type ReportDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Metrics     []string `json:"metrics"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	EmployeeIDs []string `json:"employeeIds,omitempty"` // пусто = все сотрудники
	CreatedAt   string   `json:"createdAt"`
}

// ReportTable результат выполнения отчета
type ReportTable struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Totals []string   `json:"totals"`
}

func (b *ReportBook) Touch(now time.Time) {
	b.LastUpdated = FormatTimestamp(now)
}

// IsValidMetric проверяет название метрики
func IsValidMetric(m string) bool {
	switch m {
	case MetricFocus, MetricSBP, MetricCash, MetricRevenue:
		return true
	}
	return false
}
