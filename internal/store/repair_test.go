package store

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"retail-dashboard/internal/models"
)

var testDefaults = RepairDefaults{
	Store: "Тестовый магазин",
	Now:   func() time.Time { return time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC) },
	NewID: func() string { return "generated-id" },
}

func TestRepair_RejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"text"`, `{broken`, ``, `{"employees":[]} trailing-garbage`, `{} {}`} {
		_, _, err := Repair([]byte(raw), testDefaults)
		if !errors.Is(err, models.ErrInvalidDocument) {
			t.Errorf("Repair(%q) error = %v, want ErrInvalidDocument", raw, err)
		}
	}
}

func TestRepair_EmptyObjectGetsAllCollections(t *testing.T) {
	doc, issues, err := Repair([]byte(`{}`), testDefaults)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Employees == nil || doc.RevenueData == nil || doc.Plans == nil || doc.Schedules == nil {
		t.Errorf("collections not initialized: %+v", doc)
	}
	if doc.Version != models.DocumentVersion {
		t.Errorf("Version = %q, want %q", doc.Version, models.DocumentVersion)
	}
	// employees, revenueData, plans, schedules, version
	if len(issues) != 5 {
		t.Errorf("issues = %d (%v), want 5", len(issues), issues)
	}
}

func TestRepair_EmployeeDefaultsAndCoercion(t *testing.T) {
	raw := `{
		"employees": [
			{"id": 1727773200000, "employeeId": 12345, "name": "Иванов", "createdAt": 1727773200000},
			"garbage",
			{"id": "x", "employeeId": "2", "name": "Петров", "role": "boss", "stores": "ТЦ Север", "createdAt": "2024-01-01T00:00:00.000Z"}
		],
		"revenueData": {}, "plans": {}, "schedules": {}, "version": "1.0"
	}`

	doc, issues, err := Repair([]byte(raw), testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Employees) != 2 {
		t.Fatalf("employees = %d, want 2", len(doc.Employees))
	}

	first := doc.Employees[0]
	if first.ID != "1727773200000" || first.EmployeeID != "12345" {
		t.Errorf("ids = %q/%q, want coerced strings", first.ID, first.EmployeeID)
	}
	if first.Role != models.RoleStaff {
		t.Errorf("Role = %q, want staff", first.Role)
	}
	if !reflect.DeepEqual(first.Stores, []string{"Тестовый магазин"}) {
		t.Errorf("Stores = %v, want default store", first.Stores)
	}
	if first.CreatedAt != "2024-10-01T09:00:00.000Z" {
		t.Errorf("CreatedAt = %q, want ISO from epoch millis", first.CreatedAt)
	}

	second := doc.Employees[1]
	if second.Role != models.RoleStaff {
		t.Errorf("invalid role not replaced: %q", second.Role)
	}
	if !reflect.DeepEqual(second.Stores, []string{"ТЦ Север"}) {
		t.Errorf("Stores = %v, want [ТЦ Север]", second.Stores)
	}
	if len(issues) == 0 {
		t.Error("expected issues to be reported")
	}
}

func TestRepair_RevenueDataShapes(t *testing.T) {
	raw := `{
		"employees": [], "plans": {}, "schedules": {}, "version": "1.0",
		"revenueData": {
			"2024-10-01": [
				{"employeeId": "1", "employeeName": "A", "focus": 5000, "sbp": "-10", "cash": "abc", "timestamp": "t1"},
				{"employeeId": "1", "employeeName": "A", "focus": "7000", "sbp": "1", "cash": "2", "timestamp": "t2"},
				42
			],
			"2024-10-02": "corrupted"
		}
	}`

	doc, issues, err := Repair([]byte(raw), testDefaults)
	if err != nil {
		t.Fatal(err)
	}

	day := doc.RevenueData["2024-10-01"]
	if len(day) != 1 {
		t.Fatalf("entries = %d, want 1 (deduplicated by employee)", len(day))
	}
	if day[0].Focus != "7000" || day[0].Timestamp != "t2" {
		t.Errorf("entry = %+v, want later entry kept", day[0])
	}

	corrupted, ok := doc.RevenueData["2024-10-02"]
	if !ok || len(corrupted) != 0 {
		t.Errorf("corrupted date = %v, %v; want empty list", corrupted, ok)
	}
	if len(issues) == 0 {
		t.Error("expected issues")
	}
}

func TestRepair_MoneySanitized(t *testing.T) {
	raw := `{"employees": [], "plans": {}, "schedules": {}, "version": "1.0",
		"revenueData": {"2024-10-01": [{"employeeId": "1", "focus": 5000, "sbp": "-10", "cash": "abc"}]}}`

	doc, _, err := Repair([]byte(raw), testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	entry := doc.RevenueData["2024-10-01"][0]
	if entry.Focus != "5000" || entry.SBP != "0" || entry.Cash != "0" {
		t.Errorf("entry = %+v, want focus 5000, sbp 0, cash 0", entry)
	}
}

func TestRepair_PlansAndSchedules(t *testing.T) {
	raw := `{"employees": [], "revenueData": {}, "version": "1.0",
		"plans": {"2024-10-01": {"revenue": "150000", "focus": -5, "sbp": 2000.7}, "2024-10-02": 5},
		"schedules": {"2024-10-01": [{"employeeId": "1", "startTime": "09:00", "endTime": "18:00", "type": "party"}]}}`

	doc, _, err := Repair([]byte(raw), testDefaults)
	if err != nil {
		t.Fatal(err)
	}

	plan := doc.Plans["2024-10-01"]
	if plan.Revenue != 150000 || plan.Focus != 0 || plan.SBP != 2000 {
		t.Errorf("plan = %+v", plan)
	}
	if _, ok := doc.Plans["2024-10-02"]; ok {
		t.Error("non-object plan should be dropped")
	}
	if got := doc.Schedules["2024-10-01"][0].Type; got != models.ScheduleTypeWork {
		t.Errorf("schedule type = %q, want work", got)
	}
}

func TestRepair_Idempotent(t *testing.T) {
	raw := `{"employees": [{"employeeId": 7, "name": "X"}], "revenueData": {"d": "bad"},
		"plans": [], "schedules": {"2024-10-01": [{"employeeId": "7", "type": ""}]}}`

	first, issues, err := Repair([]byte(raw), testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) == 0 {
		t.Fatal("first pass should report issues")
	}

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}

	second, issues, err := Repair(data, testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 {
		t.Errorf("second pass issues = %v, want none", issues)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass changed document:\n%+v\n%+v", first, second)
	}
}

func TestRepair_SeedDocumentNeedsNoRepair(t *testing.T) {
	data, err := json.Marshal(SeedDocument(time.Now(), "Магазин"))
	if err != nil {
		t.Fatal(err)
	}
	_, issues, err := Repair(data, testDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 {
		t.Errorf("seed document issues = %v, want none", issues)
	}
}

func TestRepair_AllowsTrailingWhitespace(t *testing.T) {
	if _, _, err := Repair([]byte("{}\n  \t\n"), testDefaults); err != nil {
		t.Errorf("Repair() error = %v, want nil", err)
	}
}
