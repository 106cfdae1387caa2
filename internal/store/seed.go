package store

import (
	"time"

	"retail-dashboard/internal/models"

	"github.com/google/uuid"
)

// SeedDocument демонстрационные данные для первого запуска
func SeedDocument(now time.Time, storeName string) *models.Document {
	if storeName == "" {
		storeName = DefaultStoreName
	}

	doc := models.NewDocument()
	created := models.FormatTimestamp(now)
	today := models.FormatDate(now)

	doc.Employees = []models.Employee{
		{
			ID:         uuid.NewString(),
			EmployeeID: "12345",
			Name:       "Иванов Иван",
			Phone:      "+7 900 000-00-01",
			Email:      "ivanov@example.com",
			Telegram:   "@ivanov",
			BirthDate:  "15.03.1995",
			Stores:     []string{storeName},
			Role:       models.RoleStaff,
			Position:   "Продавец-консультант",
			Department: "Продажи",
			HireDate:   "2023-02-01",
			CreatedAt:  created,
		},
		{
			ID:         uuid.NewString(),
			EmployeeID: "12346",
			Name:       "Петрова Анна",
			Phone:      "+7 900 000-00-02",
			Email:      "petrova@example.com",
			Telegram:   "@petrova",
			BirthDate:  "02.07.1998",
			Stores:     []string{storeName},
			Role:       models.RoleAssistantManager,
			Position:   "Заместитель управляющего",
			Department: "Продажи",
			HireDate:   "2022-09-15",
			CreatedAt:  created,
		},
		{
			ID:         uuid.NewString(),
			EmployeeID: "10001",
			Name:       "Сидорова Мария",
			Phone:      "+7 900 000-00-03",
			Email:      "sidorova@example.com",
			Telegram:   "@sidorova",
			BirthDate:  "21.11.1989",
			Stores:     []string{storeName},
			Role:       models.RoleAdmin,
			Position:   "Управляющий",
			Department: "Администрация",
			HireDate:   "2021-05-10",
			CreatedAt:  created,
		},
	}

	doc.RevenueData[today] = []models.RevenueEntry{
		{EmployeeID: "12345", EmployeeName: "Иванов Иван", Focus: "12000", SBP: "8000", Cash: "5000", Timestamp: created},
		{EmployeeID: "12346", EmployeeName: "Петрова Анна", Focus: "9000", SBP: "11000", Cash: "3000", Timestamp: created},
	}

	doc.Plans[today] = models.Plan{Revenue: 60000, Focus: 25000, SBP: 20000, UpdatedAt: created}

	doc.Schedules[today] = []models.ScheduleEntry{
		{EmployeeID: "12345", StartTime: "09:00", EndTime: "18:00", Type: models.ScheduleTypeWork, CreatedAt: created},
		{EmployeeID: "12346", StartTime: "12:00", EndTime: "21:00", Type: models.ScheduleTypeWork, CreatedAt: created},
	}

	return doc
}
