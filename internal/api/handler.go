// Package api HTTP-интерфейс к показателям магазина.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// maxUploadSize ограничение на размер загружаемых файлов
const maxUploadSize = 20 << 20

// Services зависимости обработчиков
type Services struct {
	Employees    *service.EmployeeService
	Revenue      *service.RevenueService
	Plans        *service.PlanService
	Schedules    *service.ScheduleService
	Dashboard    *service.DashboardService
	Achievements *service.AchievementService
	Data         *service.DataService
	Import       *service.ImportService
	Export       *service.ExportService
	Reports      *service.ReportService
	Outbox       *service.OutboxService

	// Storage проверяется в /healthz; nil отключает проверку
	Storage KeyLister
}

// KeyLister часть хранилища, по которой видно, что оно отвечает
type KeyLister interface {
	Keys() ([]string, error)
}

type Handler struct {
	svc    Services
	now    func() time.Time
	logger *logrus.Logger
}

func NewHandler(svc Services) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Handler{
		svc:    svc,
		now:    time.Now,
		logger: logger,
	}
}

func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// NewRouter собирает роутер с middleware и /metrics
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", h.health)
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	h.RegisterRoutes(router)
	return router
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard/daily/{date}", h.dailySummary)
		r.Get("/dashboard/month/{year}/{month}", h.monthSummary)
		r.Get("/ranking", h.ranking)
		r.Get("/leaderboard", h.leaderboard)
		r.Get("/employees", h.listEmployees)
		r.Post("/employees", h.addEmployee)
		r.Get("/employees/{employeeId}", h.getEmployee)
		r.Put("/employees/{employeeId}", h.updateEmployee)
		r.Delete("/employees/{employeeId}", h.deleteEmployee)
		r.Get("/employees/{employeeId}/achievements", h.employeeStats)

		r.Get("/revenue/{date}", h.revenueEntries)
		r.Post("/revenue/{date}", h.saveRevenue)
		r.Put("/plans/{date}", h.savePlan)
		r.Get("/plans/month/{year}/{month}", h.monthPlans)
		r.Put("/plans/month/{year}/{month}", h.saveMonthPlan)

		r.Get("/schedules/{date}", h.scheduleForDate)
		r.Put("/schedules/{date}/{employeeId}", h.saveSchedule)
		r.Delete("/schedules/{date}/{employeeId}", h.deleteSchedule)

		r.Get("/export", h.exportData)
		r.Post("/import", h.importData)
		r.Get("/export/month/{year}/{month}.xlsx", h.exportMonth)
		r.Post("/import/workbook", h.importWorkbook)

		r.Get("/reports", h.listReports)
		r.Post("/reports", h.createReport)
		r.Get("/reports/{id}/run", h.runReport)
		r.Delete("/reports/{id}", h.deleteReport)

		r.Get("/outbox", h.outboxStats)
	})
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Dashboard.DailySummary(chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *Handler) monthSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	summary, err := h.svc.Dashboard.MonthSummary(year, month, h.now())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, summary)
}

func (h *Handler) ranking(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		today := h.now()
		from = models.FormatDate(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC))
		to = models.FormatDate(today)
	}

	ranking, err := h.svc.Dashboard.EmployeeRanking(from, to)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, ranking)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "некорректный limit")
			return
		}
		limit = n
	}

	board, err := h.svc.Achievements.GetLeaderboard(limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, board)
}

func (h *Handler) listEmployees(w http.ResponseWriter, _ *http.Request) {
	employees, err := h.svc.Employees.GetEmployees()
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, employees)
}

func (h *Handler) employeeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Achievements.GetEmployeeStats(chi.URLParam(r, "employeeId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

type revenueRequest struct {
	EmployeeID   string `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Focus        string `json:"focus"`
	SBP          string `json:"sbp"`
	Cash         string `json:"cash"`
}

func (h *Handler) saveRevenue(w http.ResponseWriter, r *http.Request) {
	var req revenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := req.EmployeeName
	if name == "" {
		if e, err := h.svc.Employees.GetEmployeeByID(req.EmployeeID); err == nil {
			name = e.Name
		}
	}

	entry, err := h.svc.Revenue.SaveRevenueEntry(chi.URLParam(r, "date"), req.EmployeeID, name, service.RevenueInput{
		Focus: req.Focus,
		SBP:   req.SBP,
		Cash:  req.Cash,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, entry)
}

type planRequest struct {
	Revenue int64 `json:"revenue"`
	Focus   int64 `json:"focus"`
	SBP     int64 `json:"sbp"`
}

func (h *Handler) savePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.svc.Plans.SaveDailyPlan(chi.URLParam(r, "date"), service.PlanInput(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, plan)
}

func (h *Handler) exportData(w http.ResponseWriter, _ *http.Request) {
	data, err := h.svc.Data.ExportData()
	if err != nil {
		h.fail(w, err)
		return
	}

	filename := fmt.Sprintf("retail-data-%s.json", models.FormatDate(h.now()))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) importData(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxUploadSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	issues, err := h.svc.Data.ImportData(raw)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"issues": issues})
}

func (h *Handler) exportMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export.ExportMonthReport(year, month, &buf); err != nil {
		h.fail(w, err)
		return
	}

	filename := fmt.Sprintf("report-%d-%02d.xlsx", year, month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) importWorkbook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "ожидается multipart-форма с файлом")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "файл не передан")
		return
	}
	defer file.Close()

	results, err := h.svc.Import.ImportWorkbook(file, header.Filename)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respond(w, http.StatusOK, results)
}

func (h *Handler) listReports(w http.ResponseWriter, _ *http.Request) {
	reports, err := h.svc.Reports.GetReports()
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, reports)
}

type reportRequest struct {
	Name        string   `json:"name"`
	Metrics     []string `json:"metrics"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	EmployeeIDs []string `json:"employeeIds"`
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Reports.SaveReport(service.ReportInput(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, report)
}

func (h *Handler) runReport(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.Reports.RunReport(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, table)
}

func (h *Handler) deleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reports.DeleteReport(chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) outboxStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.svc.Outbox.Stats()
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, stats)
}

func yearMonth(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, models.ErrInvalidDate
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, models.ErrInvalidMonth
	}
	return year, month, nil
}

// fail сопоставляет ошибку сервиса с HTTP-статусом
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrEmployeeNotFound),
		errors.Is(err, models.ErrReportNotFound),
		errors.Is(err, models.ErrScheduleNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrEmployeeExists),
		errors.Is(err, models.ErrVersionConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrInvalidMonth),
		errors.Is(err, models.ErrInvalidTime),
		errors.Is(err, models.ErrInvalidEmployee),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrInvalidScheduleType),
		errors.Is(err, models.ErrInvalidPlan),
		errors.Is(err, models.ErrInvalidReport),
		errors.Is(err, models.ErrInvalidDocument):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "внутренняя ошибка")
	}
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
