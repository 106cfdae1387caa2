package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"retail-dashboard/internal/models"

	"github.com/google/uuid"
)

// DefaultStoreName магазин по умолчанию для сотрудников без списка магазинов
const DefaultStoreName = "Основной магазин"

// RepairDefaults значения, которыми заполняются отсутствующие поля
type RepairDefaults struct {
	Store string
	Now   func() time.Time
	NewID func() string
}

func (d RepairDefaults) withFallbacks() RepairDefaults {
	if d.Store == "" {
		d.Store = DefaultStoreName
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = func() string { return uuid.NewString() }
	}
	return d
}

// Repair приводит загруженный документ к инвариантам схемы.
// Возвращает типизированный документ и список сделанных исправлений;
// ошибка возникает, только если данные не являются JSON-объектом.
// Повторный вызов на исправленном документе не дает новых исправлений.
func Repair(raw []byte, defaults RepairDefaults) (*models.Document, []models.ValidationIssue, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidDocument, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: лишние данные после документа", models.ErrInvalidDocument)
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: документ должен быть объектом", models.ErrInvalidDocument)
	}

	r := &repairer{defaults: defaults.withFallbacks()}
	doc := models.NewDocument()

	doc.Employees = r.employees(obj)
	doc.RevenueData = r.revenueData(obj)
	doc.Plans = r.plans(obj)
	doc.Schedules = r.schedules(obj)

	if version, _ := asString(obj["version"]); version != "" {
		doc.Version = version
	} else {
		r.issue("version", "версия не указана, установлена "+models.DocumentVersion)
	}
	doc.LastUpdated, _ = asString(obj["lastUpdated"])

	return doc, r.issues, nil
}

type repairer struct {
	defaults RepairDefaults
	issues   []models.ValidationIssue
}

func (r *repairer) issue(path, message string) {
	r.issues = append(r.issues, models.ValidationIssue{Path: path, Message: message})
}

// asString приводит скалярное JSON-значение к строке; ok == true, если
// значение уже было строкой
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), false
	case bool:
		return strconv.FormatBool(t), false
	default:
		return "", false
	}
}

// stringField читает строковое поле, приводя числа и логические значения
func (r *repairer) stringField(path string, obj map[string]any, key string) string {
	raw, present := obj[key]
	if !present {
		return ""
	}

	s, isString := asString(raw)
	if !isString {
		switch raw.(type) {
		case json.Number, bool:
			r.issue(path+"."+key, "значение приведено к строке")
		default:
			r.issue(path+"."+key, "некорректное значение заменено пустой строкой")
		}
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *repairer) employees(obj map[string]any) []models.Employee {
	raw, present := obj["employees"]
	if !present {
		r.issue("employees", "отсутствует, создан пустой список")
		return []models.Employee{}
	}

	list, ok := raw.([]any)
	if !ok {
		r.issue("employees", "не является массивом, заменено пустым списком")
		return []models.Employee{}
	}

	out := make([]models.Employee, 0, len(list))
	for i, item := range list {
		path := fmt.Sprintf("employees[%d]", i)
		rec, ok := item.(map[string]any)
		if !ok {
			r.issue(path, "запись не является объектом, удалена")
			continue
		}
		out = append(out, r.employee(path, rec))
	}
	return out
}

func (r *repairer) employee(path string, rec map[string]any) models.Employee {
	e := models.Employee{
		ID:         r.stringField(path, rec, "id"),
		EmployeeID: r.stringField(path, rec, "employeeId"),
		Name:       r.stringField(path, rec, "name"),
		Phone:      r.stringField(path, rec, "phone"),
		Email:      r.stringField(path, rec, "email"),
		Telegram:   r.stringField(path, rec, "telegram"),
		BirthDate:  r.stringField(path, rec, "birthDate"),
		Position:   r.stringField(path, rec, "position"),
		Department: r.stringField(path, rec, "department"),
		HireDate:   r.stringField(path, rec, "hireDate"),
	}

	if e.ID == "" {
		e.ID = r.defaults.NewID()
		r.issue(path+".id", "отсутствует внутренний идентификатор, сгенерирован новый")
	}

	e.Stores = r.stores(path, rec)

	role, _ := asString(rec["role"])
	if !models.IsValidRole(role) {
		r.issue(path+".role", fmt.Sprintf("роль %q заменена на %q", role, models.RoleStaff))
		role = models.RoleStaff
	}
	e.Role = role

	e.CreatedAt = r.createdAt(path, rec)

	return e
}

func (r *repairer) stores(path string, rec map[string]any) []string {
	var stores []string

	switch v := rec["stores"].(type) {
	case []any:
		for _, item := range v {
			s, isString := asString(item)
			if !isString {
				r.issue(path+".stores", "некорректное название магазина")
			}
			if s != "" {
				stores = append(stores, s)
			}
		}
	case string:
		if v != "" {
			r.issue(path+".stores", "строка преобразована в список")
			stores = []string{v}
		}
	}

	if len(stores) == 0 {
		r.issue(path+".stores", "список магазинов пуст, назначен магазин по умолчанию")
		stores = []string{r.defaults.Store}
	}
	return stores
}

// createdAt принимает ISO-строку или миллисекунды эпохи
func (r *repairer) createdAt(path string, rec map[string]any) string {
	switch v := rec["createdAt"].(type) {
	case string:
		if v != "" {
			return v
		}
	case json.Number:
		if ms, err := v.Int64(); err == nil {
			r.issue(path+".createdAt", "метка времени преобразована в ISO")
			return models.FormatTimestamp(time.UnixMilli(ms))
		}
	}

	r.issue(path+".createdAt", "отсутствует дата создания, установлено текущее время")
	return models.FormatTimestamp(r.defaults.Now())
}

func (r *repairer) amountField(path string, rec map[string]any, key string) string {
	raw, present := rec[key]
	if !present {
		r.issue(path+"."+key, "сумма отсутствует, установлен 0")
		return "0"
	}

	s, isString := asString(raw)
	sanitized := models.SanitizeAmount(s)
	if !isString || sanitized != s {
		r.issue(path+"."+key, fmt.Sprintf("сумма %v приведена к %s", raw, sanitized))
	}
	return sanitized
}

// dateMap возвращает объект дата -> значение либо пустой объект с исправлением
func (r *repairer) dateMap(obj map[string]any, key string) map[string]any {
	raw, present := obj[key]
	if !present {
		r.issue(key, "отсутствует, создан пустой объект")
		return map[string]any{}
	}

	m, ok := raw.(map[string]any)
	if !ok {
		r.issue(key, "не является объектом, заменено пустым")
		return map[string]any{}
	}
	return m
}

// dateList возвращает записи за дату; не-массив заменяется пустым списком
func (r *repairer) dateList(path string, raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		r.issue(path, "данные за дату не являются массивом, заменены пустым списком")
		return nil
	}

	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			r.issue(fmt.Sprintf("%s[%d]", path, i), "запись не является объектом, удалена")
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (r *repairer) revenueData(obj map[string]any) map[string][]models.RevenueEntry {
	data := r.dateMap(obj, "revenueData")
	out := make(map[string][]models.RevenueEntry, len(data))

	for _, date := range sortedKeys(data) {
		path := "revenueData." + date
		entries := []models.RevenueEntry{}
		index := map[string]int{}

		for i, rec := range r.dateList(path, data[date]) {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			entry := models.RevenueEntry{
				EmployeeID:   r.stringField(itemPath, rec, "employeeId"),
				EmployeeName: r.stringField(itemPath, rec, "employeeName"),
				Focus:        r.amountField(itemPath, rec, "focus"),
				SBP:          r.amountField(itemPath, rec, "sbp"),
				Cash:         r.amountField(itemPath, rec, "cash"),
				Timestamp:    r.stringField(itemPath, rec, "timestamp"),
			}

			// не больше одной записи на сотрудника за дату, побеждает последняя
			if pos, ok := index[entry.EmployeeID]; ok {
				r.issue(itemPath, "повторная запись сотрудника за дату, оставлена последняя")
				entries[pos] = entry
				continue
			}
			index[entry.EmployeeID] = len(entries)
			entries = append(entries, entry)
		}

		out[date] = entries
	}
	return out
}

func (r *repairer) intField(path string, rec map[string]any, key string) int64 {
	raw, present := rec[key]
	if !present {
		return 0
	}

	var n int64
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			n = i
		} else if f, err := v.Float64(); err == nil {
			n = int64(f)
			r.issue(path+"."+key, "дробное значение округлено")
		}
	case string:
		n = models.ParseAmount(v)
		r.issue(path+"."+key, "строка приведена к числу")
	default:
		r.issue(path+"."+key, "некорректное значение заменено нулем")
	}

	if n < 0 {
		r.issue(path+"."+key, "отрицательное значение заменено нулем")
		n = 0
	}
	return n
}

func (r *repairer) plans(obj map[string]any) map[string]models.Plan {
	data := r.dateMap(obj, "plans")
	out := make(map[string]models.Plan, len(data))

	for _, date := range sortedKeys(data) {
		path := "plans." + date
		rec, ok := data[date].(map[string]any)
		if !ok {
			r.issue(path, "план не является объектом, удален")
			continue
		}

		updatedAt, _ := asString(rec["updatedAt"])
		out[date] = models.Plan{
			Revenue:   r.intField(path, rec, "revenue"),
			Focus:     r.intField(path, rec, "focus"),
			SBP:       r.intField(path, rec, "sbp"),
			UpdatedAt: updatedAt,
		}
	}
	return out
}

func (r *repairer) schedules(obj map[string]any) map[string][]models.ScheduleEntry {
	data := r.dateMap(obj, "schedules")
	out := make(map[string][]models.ScheduleEntry, len(data))

	for _, date := range sortedKeys(data) {
		path := "schedules." + date
		entries := []models.ScheduleEntry{}
		index := map[string]int{}

		for i, rec := range r.dateList(path, data[date]) {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			entry := models.ScheduleEntry{
				EmployeeID: r.stringField(itemPath, rec, "employeeId"),
				StartTime:  r.stringField(itemPath, rec, "startTime"),
				EndTime:    r.stringField(itemPath, rec, "endTime"),
				Type:       r.stringField(itemPath, rec, "type"),
				CreatedAt:  r.stringField(itemPath, rec, "createdAt"),
			}
			if !models.IsValidScheduleType(entry.Type) {
				r.issue(itemPath+".type", fmt.Sprintf("тип смены %q заменен на %q", entry.Type, models.ScheduleTypeWork))
				entry.Type = models.ScheduleTypeWork
			}

			if pos, ok := index[entry.EmployeeID]; ok {
				r.issue(itemPath, "повторная смена сотрудника за дату, оставлена последняя")
				entries[pos] = entry
				continue
			}
			index[entry.EmployeeID] = len(entries)
			entries = append(entries, entry)
		}

		out[date] = entries
	}
	return out
}
