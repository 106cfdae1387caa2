package service

import (
	"errors"
	"testing"

	"retail-dashboard/internal/models"
)

func TestEmployeeService_AddEmployeeDefaults(t *testing.T) {
	svc := NewEmployeeService(newTestDataStore(t), "Тестовый магазин")
	svc.SetClock(newTestClock().Now)

	e, err := svc.AddEmployee(EmployeeInput{EmployeeID: " 12345 ", Name: "Иванов Иван"})
	if err != nil {
		t.Fatalf("AddEmployee() error: %v", err)
	}

	if e.ID == "" {
		t.Error("ID is empty")
	}
	if e.EmployeeID != "12345" {
		t.Errorf("EmployeeID = %q, want 12345", e.EmployeeID)
	}
	if len(e.Stores) != 1 || e.Stores[0] != "Тестовый магазин" {
		t.Errorf("Stores = %v, want [Тестовый магазин]", e.Stores)
	}
	if e.Role != models.RoleStaff {
		t.Errorf("Role = %q, want staff", e.Role)
	}
	if e.Position != DefaultPosition || e.Department != DefaultDepartment {
		t.Errorf("Position/Department = %q/%q", e.Position, e.Department)
	}
	if e.HireDate != "2024-10-15" {
		t.Errorf("HireDate = %q, want 2024-10-15", e.HireDate)
	}
	if e.CreatedAt != "2024-10-15T12:00:00.000Z" {
		t.Errorf("CreatedAt = %q", e.CreatedAt)
	}

	got, err := svc.GetEmployeeByID("12345")
	if err != nil {
		t.Fatalf("GetEmployeeByID() error: %v", err)
	}
	if got.ID != e.ID {
		t.Errorf("stored ID = %q, want %q", got.ID, e.ID)
	}
}

func TestEmployeeService_AddEmployeeValidation(t *testing.T) {
	svc := NewEmployeeService(newTestDataStore(t), "Тестовый магазин")
	if _, err := svc.AddEmployee(EmployeeInput{EmployeeID: "1", Name: "Первый"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   EmployeeInput
		want error
	}{
		{"duplicate id", EmployeeInput{EmployeeID: "1", Name: "Другой"}, models.ErrEmployeeExists},
		{"empty id", EmployeeInput{Name: "Без номера"}, models.ErrInvalidEmployee},
		{"empty name", EmployeeInput{EmployeeID: "2", Name: "  "}, models.ErrInvalidEmployee},
		{"unknown role", EmployeeInput{EmployeeID: "3", Name: "Роль", Role: "boss"}, models.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddEmployee(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("AddEmployee() error = %v, want %v", err, tt.want)
			}
		})
	}

	employees, err := svc.GetEmployees()
	if err != nil {
		t.Fatal(err)
	}
	if len(employees) != 1 {
		t.Errorf("len(employees) = %d, want 1", len(employees))
	}
}

func TestEmployeeService_UpdateIsShallowMerge(t *testing.T) {
	svc := NewEmployeeService(newTestDataStore(t), "Тестовый магазин")
	before, err := svc.AddEmployee(EmployeeInput{
		EmployeeID: "12345",
		Name:       "Иванов Иван",
		Phone:      "+7 900 000-00-01",
		Telegram:   "@ivanov",
	})
	if err != nil {
		t.Fatal(err)
	}

	phone := "+7 900 111-11-11"
	after, err := svc.UpdateEmployee("12345", EmployeePatch{Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateEmployee() error: %v", err)
	}

	want := before.Clone()
	want.Phone = phone
	if after.Phone != want.Phone || after.Name != want.Name || after.Telegram != want.Telegram ||
		after.ID != want.ID || after.Role != want.Role || after.CreatedAt != want.CreatedAt ||
		len(after.Stores) != len(want.Stores) {
		t.Errorf("UpdateEmployee() = %+v, want %+v", after, want)
	}
}

func TestEmployeeService_UpdateEmployeeIDConflict(t *testing.T) {
	svc := NewEmployeeService(newTestDataStore(t), "Тестовый магазин")
	for _, id := range []string{"1", "2"} {
		if _, err := svc.AddEmployee(EmployeeInput{EmployeeID: id, Name: "Сотрудник " + id}); err != nil {
			t.Fatal(err)
		}
	}

	taken := "2"
	if _, err := svc.UpdateEmployee("1", EmployeePatch{EmployeeID: &taken}); !errors.Is(err, models.ErrEmployeeExists) {
		t.Errorf("UpdateEmployee() error = %v, want ErrEmployeeExists", err)
	}

	name := "Никто"
	if _, err := svc.UpdateEmployee("404", EmployeePatch{Name: &name}); !errors.Is(err, models.ErrEmployeeNotFound) {
		t.Errorf("UpdateEmployee() error = %v, want ErrEmployeeNotFound", err)
	}
}

func TestEmployeeService_DeleteByEmployeeID(t *testing.T) {
	svc := NewEmployeeService(newTestDataStore(t), "Тестовый магазин")
	added, err := svc.AddEmployee(EmployeeInput{EmployeeID: "12345", Name: "Иванов Иван"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteEmployee(added.ID); !errors.Is(err, models.ErrEmployeeNotFound) {
		t.Errorf("DeleteEmployee(internal id) error = %v, want ErrEmployeeNotFound", err)
	}
	if err := svc.DeleteEmployee("12345"); err != nil {
		t.Fatalf("DeleteEmployee() error: %v", err)
	}
	if _, err := svc.GetEmployeeByID("12345"); !errors.Is(err, models.ErrEmployeeNotFound) {
		t.Errorf("GetEmployeeByID() error = %v, want ErrEmployeeNotFound", err)
	}
}

func TestEmployeeService_FindByTelegram(t *testing.T) {
	svc := NewEmployeeService(newTestDataStore(t), "Тестовый магазин")
	if _, err := svc.AddEmployee(EmployeeInput{EmployeeID: "1", Name: "По нику", Telegram: "@Ivanov"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddEmployee(EmployeeInput{EmployeeID: "2", Name: "По чату", Telegram: "777"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		username string
		chatID   int64
		want     string
	}{
		{"ivanov", 1, "1"},
		{"@IVANOV", 1, "1"},
		{"", 777, "2"},
		{"someone", 777, "2"},
	}

	for _, tt := range tests {
		e, err := svc.FindByTelegram(tt.username, tt.chatID)
		if err != nil {
			t.Errorf("FindByTelegram(%q, %d) error: %v", tt.username, tt.chatID, err)
			continue
		}
		if e.EmployeeID != tt.want {
			t.Errorf("FindByTelegram(%q, %d) = %s, want %s", tt.username, tt.chatID, e.EmployeeID, tt.want)
		}
	}

	if _, err := svc.FindByTelegram("nobody", 5); !errors.Is(err, models.ErrEmployeeNotFound) {
		t.Errorf("FindByTelegram() error = %v, want ErrEmployeeNotFound", err)
	}
}
