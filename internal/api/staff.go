package api

import (
	"encoding/json"
	"net/http"

	"retail-dashboard/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	if h.svc.Storage == nil {
		respond(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	keys, err := h.svc.Storage.Keys()
	if err != nil {
		h.logger.WithError(err).Error("Health check: storage unavailable")
		respondError(w, http.StatusServiceUnavailable, "хранилище недоступно")
		return
	}
	respond(w, http.StatusOK, map[string]any{"status": "ok", "keys": keys})
}

type employeeRequest struct {
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
}

// employeePatchRequest отсутствующее в JSON поле не меняется
type employeePatchRequest struct {
	EmployeeID *string  `json:"employeeId"`
	Name       *string  `json:"name"`
	Phone      *string  `json:"phone"`
	Email      *string  `json:"email"`
	Telegram   *string  `json:"telegram"`
	BirthDate  *string  `json:"birthDate"`
	Stores     []string `json:"stores"`
	Role       *string  `json:"role"`
	Position   *string  `json:"position"`
	Department *string  `json:"department"`
	HireDate   *string  `json:"hireDate"`
}

func (h *Handler) addEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	employee, err := h.svc.Employees.AddEmployee(service.EmployeeInput(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusCreated, employee)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	employee, err := h.svc.Employees.GetEmployeeByID(chi.URLParam(r, "employeeId"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, employee)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	employee, err := h.svc.Employees.UpdateEmployee(chi.URLParam(r, "employeeId"), service.EmployeePatch(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, employee)
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Employees.DeleteEmployee(chi.URLParam(r, "employeeId")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revenueEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Revenue.GetRevenueEntries(chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, entries)
}

func (h *Handler) monthPlans(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	plans, err := h.svc.Plans.GetPlansForMonth(year, month)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, plans)
}

func (h *Handler) saveMonthPlan(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	plans, err := h.svc.Plans.SaveMonthlyPlan(year, month, service.PlanInput(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, plans)
}

type scheduleRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Type      string `json:"type"`
}

func (h *Handler) scheduleForDate(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Schedules.GetScheduleForDate(chi.URLParam(r, "date"))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, entries)
}

func (h *Handler) saveSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.svc.Schedules.SaveScheduleEntry(chi.URLParam(r, "date"), chi.URLParam(r, "employeeId"), service.ScheduleInput(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	respond(w, http.StatusOK, entry)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Schedules.DeleteScheduleEntry(chi.URLParam(r, "date"), chi.URLParam(r, "employeeId")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
