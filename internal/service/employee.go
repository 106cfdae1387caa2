package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Значения по умолчанию для новых сотрудников
const (
	DefaultPosition   = "Продавец"
	DefaultDepartment = "Продажи"
)

// EmployeeInput данные нового сотрудника; пустые поля заполняются по умолчанию
type EmployeeInput struct {
	EmployeeID string
	Name       string
	Phone      string
	Email      string
	Telegram   string
	BirthDate  string
	Stores     []string
	Role       string
	Position   string
	Department string
	HireDate   string
}

// EmployeePatch частичное обновление: nil-поля не меняются
type EmployeePatch struct {
	EmployeeID *string
	Name       *string
	Phone      *string
	Email      *string
	Telegram   *string
	BirthDate  *string
	Stores     []string
	Role       *string
	Position   *string
	Department *string
	HireDate   *string
}

type EmployeeService struct {
	store        DocumentStore
	defaultStore string
	now          func() time.Time
	logger       *logrus.Logger
}

func NewEmployeeService(store DocumentStore, defaultStore string) *EmployeeService {
	return &EmployeeService{
		store:        store,
		defaultStore: defaultStore,
		now:          time.Now,
		logger:       newLogger(),
	}
}

func (s *EmployeeService) SetClock(now func() time.Time) {
	s.now = now
}

// GetEmployees возвращает всех сотрудников в порядке добавления
func (s *EmployeeService) GetEmployees() ([]models.Employee, error) {
	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}
	return doc.Employees, nil
}

// GetEmployeeByID ищет сотрудника по табельному номеру
func (s *EmployeeService) GetEmployeeByID(employeeID string) (*models.Employee, error) {
	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	i := doc.FindEmployee(employeeID)
	if i < 0 {
		s.logger.WithField("employee_id", employeeID).Debug("Employee not found")
		return nil, models.ErrEmployeeNotFound
	}

	employee := doc.Employees[i]
	return &employee, nil
}

// FindByTelegram ищет сотрудника по нику (@username) или ID чата
func (s *EmployeeService) FindByTelegram(username string, chatID int64) (*models.Employee, error) {
	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	username = normalizeTelegram(username)
	chat := strconv.FormatInt(chatID, 10)

	for _, e := range doc.Employees {
		handle := normalizeTelegram(e.Telegram)
		if handle == "" {
			continue
		}
		if (username != "" && handle == username) || handle == chat {
			employee := e
			return &employee, nil
		}
	}

	return nil, models.ErrEmployeeNotFound
}

func normalizeTelegram(value string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "@"))
}

// AddEmployee добавляет сотрудника; табельный номер должен быть уникальным
func (s *EmployeeService) AddEmployee(in EmployeeInput) (*models.Employee, error) {
	employee, err := buildEmployee(in, s.defaultStore, s.now())
	if err != nil {
		s.logger.WithError(err).Warn("Invalid employee data provided")
		return nil, err
	}

	err = s.store.Update(func(doc *models.Document) error {
		if doc.FindEmployee(employee.EmployeeID) >= 0 {
			return models.ErrEmployeeExists
		}
		doc.Employees = append(doc.Employees, employee)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("employee_id", employee.EmployeeID).Warn("Failed to add employee")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":          employee.ID,
		"employee_id": employee.EmployeeID,
	}).Info("Employee added")

	return &employee, nil
}

// buildEmployee проверяет ввод и заполняет поля по умолчанию
func buildEmployee(in EmployeeInput, defaultStore string, now time.Time) (models.Employee, error) {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Name = strings.TrimSpace(in.Name)

	if in.EmployeeID == "" || in.Name == "" {
		return models.Employee{}, models.ErrInvalidEmployee
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = models.RoleStaff
	}
	if !models.IsValidRole(role) {
		return models.Employee{}, models.ErrInvalidRole
	}

	return models.Employee{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		Name:       in.Name,
		Phone:      in.Phone,
		Email:      in.Email,
		Telegram:   in.Telegram,
		BirthDate:  in.BirthDate,
		Stores:     storesOrDefault(in.Stores, defaultStore),
		Role:       role,
		Position:   valueOr(in.Position, DefaultPosition),
		Department: valueOr(in.Department, DefaultDepartment),
		HireDate:   valueOr(in.HireDate, models.FormatDate(now)),
		CreatedAt:  models.FormatTimestamp(now),
	}, nil
}

// UpdateEmployee накладывает patch поверх существующей записи (поверхностное слияние)
func (s *EmployeeService) UpdateEmployee(employeeID string, patch EmployeePatch) (*models.Employee, error) {
	if patch.Role != nil && !models.IsValidRole(*patch.Role) {
		return nil, models.ErrInvalidRole
	}
	if patch.EmployeeID != nil && strings.TrimSpace(*patch.EmployeeID) == "" {
		return nil, models.ErrInvalidEmployee
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, models.ErrInvalidEmployee
	}

	var updated models.Employee
	err := s.store.Update(func(doc *models.Document) error {
		i := doc.FindEmployee(employeeID)
		if i < 0 {
			return models.ErrEmployeeNotFound
		}

		if patch.EmployeeID != nil {
			newID := strings.TrimSpace(*patch.EmployeeID)
			if newID != employeeID && doc.FindEmployee(newID) >= 0 {
				return models.ErrEmployeeExists
			}
		}

		doc.Employees[i] = applyPatch(doc.Employees[i], patch)
		updated = doc.Employees[i].Clone()
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("employee_id", employeeID).Warn("Failed to update employee")
		return nil, err
	}

	s.logger.WithField("employee_id", updated.EmployeeID).Info("Employee updated")
	return &updated, nil
}

func applyPatch(e models.Employee, p EmployeePatch) models.Employee {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	if p.EmployeeID != nil {
		e.EmployeeID = strings.TrimSpace(*p.EmployeeID)
	}
	set(&e.Name, p.Name)
	set(&e.Phone, p.Phone)
	set(&e.Email, p.Email)
	set(&e.Telegram, p.Telegram)
	set(&e.BirthDate, p.BirthDate)
	set(&e.Role, p.Role)
	set(&e.Position, p.Position)
	set(&e.Department, p.Department)
	set(&e.HireDate, p.HireDate)
	if p.Stores != nil {
		e.Stores = append([]string{}, p.Stores...)
	}
	return e
}

// DeleteEmployee удаляет сотрудника по табельному номеру
func (s *EmployeeService) DeleteEmployee(employeeID string) error {
	err := s.store.Update(func(doc *models.Document) error {
		i := doc.FindEmployee(employeeID)
		if i < 0 {
			return models.ErrEmployeeNotFound
		}
		doc.Employees = append(doc.Employees[:i], doc.Employees[i+1:]...)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("employee_id", employeeID).Warn("Failed to delete employee")
		return err
	}

	s.logger.WithField("employee_id", employeeID).Info("Employee deleted")
	return nil
}

func storesOrDefault(stores []string, defaultStore string) []string {
	out := make([]string, 0, len(stores))
	for _, st := range stores {
		if st = strings.TrimSpace(st); st != "" {
			out = append(out, st)
		}
	}
	if len(out) == 0 {
		return []string{defaultStore}
	}
	return out
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// FormatEmployee форматирует карточку сотрудника для вывода
func (s *EmployeeService) FormatEmployee(e *models.Employee) string {
	var lines []string

	roleEmoji := "👤"
	if e.IsManager() {
		roleEmoji = "👑"
	}

	lines = append(lines, fmt.Sprintf("%s %s", roleEmoji, e.Name))
	lines = append(lines, fmt.Sprintf("🆔 Табельный номер: %s", e.EmployeeID))
	lines = append(lines, fmt.Sprintf("💼 Должность: %s", e.Position))
	lines = append(lines, fmt.Sprintf("🏬 Магазины: %s", strings.Join(e.Stores, ", ")))

	if e.Phone != "" {
		lines = append(lines, fmt.Sprintf("📞 Телефон: %s", e.Phone))
	}
	if e.Telegram != "" {
		lines = append(lines, fmt.Sprintf("✈️ Telegram: %s", e.Telegram))
	}

	return strings.Join(lines, "\n")
}

// FormatEmployees форматирует список сотрудников
func (s *EmployeeService) FormatEmployees(employees []models.Employee) string {
	if len(employees) == 0 {
		return "📭 Список сотрудников пуст."
	}

	var b strings.Builder
	b.WriteString("📋 Сотрудники:\n\n")
	for i, e := range employees {
		fmt.Fprintf(&b, "%d. %s (%s) - %s\n", i+1, e.Name, e.EmployeeID, e.Position)
	}
	fmt.Fprintf(&b, "\n📊 Всего: %d", len(employees))
	return b.String()
}
