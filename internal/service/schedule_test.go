package service

import (
	"errors"
	"testing"

	"retail-dashboard/internal/models"
)

func TestScheduleService_SaveValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      ScheduleInput
		want    models.ScheduleEntry
		wantErr error
	}{
		{
			name: "default type",
			in:   ScheduleInput{StartTime: "9:00", EndTime: "21:00"},
			want: models.ScheduleEntry{StartTime: "09:00", EndTime: "21:00", Type: models.ScheduleTypeWork},
		},
		{
			name: "vacation without hours",
			in:   ScheduleInput{Type: models.ScheduleTypeVacation},
			want: models.ScheduleEntry{Type: models.ScheduleTypeVacation},
		},
		{name: "bad time", in: ScheduleInput{StartTime: "25:00"}, wantErr: models.ErrInvalidTime},
		{name: "bad type", in: ScheduleInput{Type: "party"}, wantErr: models.ErrInvalidScheduleType},
	}

	svc := NewScheduleService(newTestDataStore(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SaveScheduleEntry("2024-10-01", "12345", tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SaveScheduleEntry() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveScheduleEntry() error: %v", err)
			}
			if got.StartTime != tt.want.StartTime || got.EndTime != tt.want.EndTime || got.Type != tt.want.Type {
				t.Errorf("SaveScheduleEntry() = %+v, want %+v", got, tt.want)
			}
		})
	}

	entries, err := svc.GetScheduleForDate("2024-10-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1 (upsert by employee)", len(entries))
	}
}

func TestScheduleService_GetEmployeeSchedule(t *testing.T) {
	svc := NewScheduleService(newTestDataStore(t))
	saves := []struct {
		date, employeeID string
	}{
		{"2024-10-20", "1"},
		{"2024-10-02", "1"},
		{"2024-10-02", "2"},
		{"2024-11-01", "1"},
	}
	for _, s := range saves {
		if _, err := svc.SaveScheduleEntry(s.date, s.employeeID, ScheduleInput{StartTime: "10:00", EndTime: "22:00"}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := svc.GetEmployeeSchedule("1", 10, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date != "2024-10-02" || got[1].Date != "2024-10-20" {
		t.Errorf("GetEmployeeSchedule() = %+v", got)
	}
}

func TestScheduleService_DeleteScheduleEntry(t *testing.T) {
	svc := NewScheduleService(newTestDataStore(t))
	if _, err := svc.SaveScheduleEntry("2024-10-01", "1", ScheduleInput{}); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteScheduleEntry("2024-10-01", "1"); err != nil {
		t.Fatalf("DeleteScheduleEntry() error: %v", err)
	}
	if err := svc.DeleteScheduleEntry("2024-10-01", "1"); !errors.Is(err, models.ErrScheduleNotFound) {
		t.Errorf("second DeleteScheduleEntry() error = %v, want ErrScheduleNotFound", err)
	}

	entries, err := svc.GetScheduleForDate("2024-10-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
}
