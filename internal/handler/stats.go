package handler

import (
	"time"

	"retail-dashboard/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// leaderboardSize сколько лидеров показывает /top
const leaderboardSize = 10

// showRating /rating рейтинг по выручке с начала месяца
func (h *Handler) showRating(message *tgbotapi.Message) {
	now := h.now()
	from := models.FormatDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC))
	to := models.FormatDate(now)

	ranking, err := h.svc.Dashboard.EmployeeRanking(from, to)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения рейтинга: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, h.svc.Dashboard.FormatRanking(ranking, from, to))
}

// showLeaderboard /top
func (h *Handler) showLeaderboard(message *tgbotapi.Message) {
	board, err := h.svc.Achievements.GetLeaderboard(leaderboardSize)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения лидеров: "+err.Error())
		return
	}

	names := make(map[string]string)
	if employees, err := h.svc.Employees.GetEmployees(); err == nil {
		for _, e := range employees {
			names[e.EmployeeID] = e.Name
		}
	}

	h.reply(message.Chat.ID, h.svc.Achievements.FormatLeaderboard(board, names))
}

// showMyStats /mystats
func (h *Handler) showMyStats(message *tgbotapi.Message) {
	employee := h.requireEmployee(message)
	if employee == nil {
		return
	}

	stats, err := h.svc.Achievements.GetEmployeeStats(employee.EmployeeID)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения статистики: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, h.svc.Achievements.FormatEmployeeStats(stats))
}

// showMySchedule /schedule график на текущий месяц
func (h *Handler) showMySchedule(message *tgbotapi.Message) {
	employee := h.requireEmployee(message)
	if employee == nil {
		return
	}

	now := h.now()
	month, year := int(now.Month()), now.Year()

	entries, err := h.svc.Schedules.GetEmployeeSchedule(employee.EmployeeID, month, year)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения графика: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, h.svc.Schedules.FormatSchedule(entries, month, year))
}
