package service

import (
	"errors"
	"fmt"
	"testing"

	"retail-dashboard/internal/models"
)

func TestAchievementService_RecordPoints(t *testing.T) {
	tests := []struct {
		name           string
		fact, plan     int64
		wantPercentage int
		wantPoints     int
	}{
		{"overachieved", 165000, 150000, 110, 15},
		{"exactly plan", 150000, 150000, 100, 10},
		{"rounded up to 101", 100600, 100000, 101, 15},
		{"below plan", 75000, 150000, 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAchievements(newTestClock().Now)
			a, err := svc.RecordAchievement("12345", models.AchievementRevenue, tt.fact, tt.plan, "2024-10-01")
			if err != nil {
				t.Fatalf("RecordAchievement() error: %v", err)
			}
			if a.Percentage != tt.wantPercentage {
				t.Errorf("Percentage = %d, want %d", a.Percentage, tt.wantPercentage)
			}
			if a.Points != tt.wantPoints {
				t.Errorf("Points = %d, want %d", a.Points, tt.wantPoints)
			}
			if a.ID == "" || a.Timestamp == "" {
				t.Errorf("achievement = %+v, want id and timestamp", a)
			}
		})
	}
}

func TestAchievementService_RecordValidation(t *testing.T) {
	svc := newTestAchievements(newTestClock().Now)

	if _, err := svc.RecordAchievement("1", models.AchievementRevenue, 100, 0, "2024-10-01"); !errors.Is(err, models.ErrInvalidPlan) {
		t.Errorf("plan 0: error = %v, want ErrInvalidPlan", err)
	}
	if _, err := svc.RecordAchievement("1", models.AchievementRevenue, 100, -5, "2024-10-01"); !errors.Is(err, models.ErrInvalidPlan) {
		t.Errorf("negative plan: error = %v, want ErrInvalidPlan", err)
	}
	if _, err := svc.RecordAchievement("1", models.AchievementRevenue, 100, 100, "вчера"); !errors.Is(err, models.ErrInvalidDate) {
		t.Errorf("bad date: error = %v, want ErrInvalidDate", err)
	}
	if _, err := svc.RecordAchievement("1", "bonus", 100, 100, "2024-10-01"); err == nil {
		t.Error("unknown type: error = nil")
	}

	list, err := svc.GetAchievements()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("achievements = %d, want 0", len(list))
	}
}

func TestAchievementService_LeaderboardComputedFromLedger(t *testing.T) {
	svc := newTestAchievements(newTestClock().Now) // октябрь 2024

	records := []struct {
		id, date string
		fact     int64
	}{
		{"B", "2024-09-30", 200}, // 15, не в текущем месяце
		{"B", "2024-09-29", 200}, // 15
		{"A", "2024-10-01", 100}, // 10
		{"C", "2024-10-02", 200}, // 15
		{"A", "2024-10-03", 100}, // 10
		{"D", "2024-10-04", 100}, // 10
	}
	for _, r := range records {
		if _, err := svc.RecordAchievement(r.id, models.AchievementRevenue, r.fact, 100, r.date); err != nil {
			t.Fatal(err)
		}
	}

	board, err := svc.GetLeaderboard(0)
	if err != nil {
		t.Fatalf("GetLeaderboard() error: %v", err)
	}

	want := []models.EmployeePoints{
		{EmployeeID: "A", MonthlyPoints: 20, TotalPoints: 20, TotalAchievements: 2},
		{EmployeeID: "C", MonthlyPoints: 15, TotalPoints: 15, TotalAchievements: 1},
		{EmployeeID: "D", MonthlyPoints: 10, TotalPoints: 10, TotalAchievements: 1},
		{EmployeeID: "B", MonthlyPoints: 0, TotalPoints: 30, TotalAchievements: 2},
	}
	if len(board) != len(want) {
		t.Fatalf("len(board) = %d, want %d", len(board), len(want))
	}
	for i := range want {
		if board[i] != want[i] {
			t.Errorf("board[%d] = %+v, want %+v", i, board[i], want[i])
		}
	}

	top, err := svc.GetLeaderboard(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[1].EmployeeID != "C" {
		t.Errorf("GetLeaderboard(2) = %+v", top)
	}
}

func TestAchievementService_EmployeeStats(t *testing.T) {
	svc := newTestAchievements(newTestClock().Now)

	for day := 1; day <= 12; day++ {
		date := fmt.Sprintf("2024-10-%02d", day)
		if _, err := svc.RecordAchievement("A", models.AchievementFocus, 100, 100, date); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.RecordAchievement("B", models.AchievementFocus, 100, 100, "2024-10-01"); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.GetEmployeeStats("B")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rank != 2 || stats.TotalPoints != 10 || len(stats.Recent) != 1 {
		t.Errorf("stats(B) = %+v", stats)
	}

	stats, err = svc.GetEmployeeStats("A")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rank != 1 || stats.TotalAchievements != 12 {
		t.Errorf("stats(A) rank/total = %d/%d, want 1/12", stats.Rank, stats.TotalAchievements)
	}
	if len(stats.Recent) != recentAchievements {
		t.Fatalf("len(Recent) = %d, want %d", len(stats.Recent), recentAchievements)
	}
	if stats.Recent[0].Date != "2024-10-12" {
		t.Errorf("Recent[0].Date = %s, want newest first", stats.Recent[0].Date)
	}

	stats, err = svc.GetEmployeeStats("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Rank != 0 || stats.TotalPoints != 0 || len(stats.Recent) != 0 {
		t.Errorf("stats(nobody) = %+v, want zero", stats)
	}
}

func TestAchievementService_HasAchievement(t *testing.T) {
	svc := newTestAchievements(newTestClock().Now)
	if _, err := svc.RecordAchievement("1", models.AchievementSBP, 10, 10, "2024-10-01"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id, typ, date string
		want          bool
	}{
		{"1", models.AchievementSBP, "2024-10-01", true},
		{"1", models.AchievementFocus, "2024-10-01", false},
		{"1", models.AchievementSBP, "2024-10-02", false},
		{"2", models.AchievementSBP, "2024-10-01", false},
	}
	for _, tt := range tests {
		got, err := svc.HasAchievement(tt.id, tt.typ, tt.date)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("HasAchievement(%s, %s, %s) = %v, want %v", tt.id, tt.typ, tt.date, got, tt.want)
		}
	}
}
