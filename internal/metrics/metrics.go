// Package metrics содержит prometheus-коллекторы приложения.
package metrics

import (
	"retail-dashboard/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты сохранения документа
const (
	SaveOK       = "ok"
	SaveError    = "error"
	SaveConflict = "conflict"
)

// Metrics набор коллекторов. Все методы допускают nil-получатель,
// чтобы компоненты можно было создавать без метрик.
type Metrics struct {
	storeSaves       *prometheus.CounterVec
	storeSubscribers *prometheus.GaugeVec
	outboxEntries    *prometheus.GaugeVec
	achievements     *prometheus.CounterVec
	importedRows     *prometheus.CounterVec
}

// New регистрирует коллекторы в reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		storeSaves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retail",
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Document saves by key and result.",
		}, []string{"key", "result"}),
		storeSubscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "retail",
			Subsystem: "store",
			Name:      "subscribers",
			Help:      "Active change subscribers per key.",
		}, []string{"key"}),
		outboxEntries: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "retail",
			Subsystem: "outbox",
			Name:      "entries",
			Help:      "Outbox entries by status.",
		}, []string{"status"}),
		achievements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retail",
			Subsystem: "motivation",
			Name:      "achievements_total",
			Help:      "Achievements recorded by type.",
		}, []string{"type"}),
		importedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "retail",
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Spreadsheet rows processed by kind and result.",
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) ObserveSave(key, result string) {
	if m == nil {
		return
	}
	m.storeSaves.WithLabelValues(key, result).Inc()
}

func (m *Metrics) SetSubscribers(key string, n int) {
	if m == nil {
		return
	}
	m.storeSubscribers.WithLabelValues(key).Set(float64(n))
}

func (m *Metrics) SetOutbox(stats models.OutboxStats) {
	if m == nil {
		return
	}
	m.outboxEntries.WithLabelValues(models.OutboxPending).Set(float64(stats.Pending))
	m.outboxEntries.WithLabelValues(models.OutboxSent).Set(float64(stats.Sent))
	m.outboxEntries.WithLabelValues(models.OutboxFailed).Set(float64(stats.Failed))
}

func (m *Metrics) ObserveAchievement(achievementType string) {
	if m == nil {
		return
	}
	m.achievements.WithLabelValues(achievementType).Inc()
}

func (m *Metrics) ObserveImport(kind string, imported, skipped int) {
	if m == nil {
		return
	}
	m.importedRows.WithLabelValues(kind, "imported").Add(float64(imported))
	m.importedRows.WithLabelValues(kind, "skipped").Add(float64(skipped))
}
