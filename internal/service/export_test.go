package service

import (
	"bytes"
	"testing"

	"retail-dashboard/internal/spreadsheet"
)

func TestExportService_ExportMonthReport(t *testing.T) {
	ds := newTestDataStore(t)
	revenue := NewRevenueService(ds)
	if _, err := NewPlanService(ds).SaveDailyPlan("2024-10-01", PlanInput{Revenue: 20000}); err != nil {
		t.Fatal(err)
	}
	if _, err := revenue.SaveRevenueEntry("2024-10-01", "12345", "Иванов Иван", RevenueInput{Focus: "5000", SBP: "3000", Cash: "2000"}); err != nil {
		t.Fatal(err)
	}

	svc := NewExportService(ds, NewDashboardService(ds))
	svc.SetClock(newTestClock().Now)

	var buf bytes.Buffer
	if err := svc.ExportMonthReport(2024, 10, &buf); err != nil {
		t.Fatalf("ExportMonthReport() error: %v", err)
	}

	sheets, err := spreadsheet.ReadSheets(&buf, "report.xlsx")
	if err != nil {
		t.Fatalf("ReadSheets() error: %v", err)
	}

	wantNames := []string{"Сводка", "Сотрудники", "По дням"}
	if len(sheets) != len(wantNames) {
		t.Fatalf("sheets = %d, want %d", len(sheets), len(wantNames))
	}
	for i, name := range wantNames {
		if sheets[i].Name != name {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i].Name, name)
		}
	}

	employees := sheets[1].Rows
	if len(employees) != 2 || employees[1][1] != "12345" || employees[1][6] != "10000" {
		t.Errorf("Сотрудники rows = %v", employees)
	}

	days := sheets[2].Rows
	if len(days) != 2 || days[1][0] != "2024-10-01" || days[1][6] != "50" {
		t.Errorf("По дням rows = %v", days)
	}

	if err := svc.ExportMonthReport(2024, 0, &buf); err == nil {
		t.Error("ExportMonthReport(month 0) error = nil")
	}
}
