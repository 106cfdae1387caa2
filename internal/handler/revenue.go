package handler

import (
	"errors"
	"fmt"
	"strings"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// saveRevenue /revenue <фокус> <СБП> <наличные> [дата]
func (h *Handler) saveRevenue(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	fields := strings.Fields(args)
	if len(fields) < 3 || len(fields) > 4 {
		h.reply(chatID, "❌ Формат: /revenue <фокус> <СБП> <наличные> [дата]\nПример: /revenue 5000 3000 2000")
		return
	}

	employee := h.requireEmployee(message)
	if employee == nil {
		return
	}

	dateArg := ""
	if len(fields) == 4 {
		dateArg = fields[3]
	}
	date, err := h.parseDateArg(dateArg)
	if err != nil {
		h.reply(chatID, "❌ Неверная дата. Используйте формат ГГГГ-ММ-ДД или ДД.ММ.ГГГГ")
		return
	}

	entry, err := h.svc.Revenue.SaveRevenueEntry(date, employee.EmployeeID, employee.Name, service.RevenueInput{
		Focus: fields[0],
		SBP:   fields[1],
		Cash:  fields[2],
	})
	if err != nil {
		h.reply(chatID, "❌ Ошибка сохранения выручки: "+err.Error())
		return
	}

	text := fmt.Sprintf("✅ Выручка за %s сохранена:\n\n🎯 Фокус: %s\n📱 СБП: %s\n💵 Наличные: %s",
		date, entry.Focus, entry.SBP, entry.Cash)

	if plan, err := h.svc.Dashboard.PersonalPlan(date); err == nil && plan.Revenue > 0 {
		total := models.ParseAmount(entry.Focus) + models.ParseAmount(entry.SBP) + models.ParseAmount(entry.Cash)
		text += fmt.Sprintf("\n\n👤 Ваш личный план: %d, внесено %d (%.0f%%)",
			plan.Revenue, total, float64(total)/float64(plan.Revenue)*100)
	}

	h.reply(chatID, text)
}

// showToday /today [дата]
func (h *Handler) showToday(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	date, err := h.parseDateArg(args)
	if err != nil {
		h.reply(chatID, "❌ Неверная дата. Используйте формат ГГГГ-ММ-ДД или ДД.ММ.ГГГГ")
		return
	}

	summary, err := h.svc.Dashboard.DailySummary(date)
	if err != nil {
		h.reply(chatID, "❌ Ошибка получения выручки: "+err.Error())
		return
	}

	h.reply(chatID, h.svc.Dashboard.FormatDailySummary(summary))
}

// showMonth /month
func (h *Handler) showMonth(message *tgbotapi.Message) {
	now := h.now()

	summary, err := h.svc.Dashboard.MonthSummary(now.Year(), int(now.Month()), now)
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения итогов месяца: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, h.svc.Dashboard.FormatMonthSummary(summary))
}

// savePlan /plan <выручка> <фокус> <СБП> [дата]
func (h *Handler) savePlan(message *tgbotapi.Message, args string) {
	chatID := message.Chat.ID

	if !h.isManager(message) {
		h.reply(chatID, "❌ Доступ запрещен. Планы задают руководители.")
		return
	}

	fields := strings.Fields(args)
	if len(fields) < 3 || len(fields) > 4 {
		h.reply(chatID, "❌ Формат: /plan <выручка> <фокус> <СБП> [дата]\nПример: /plan 150000 50000 10000")
		return
	}

	dateArg := ""
	if len(fields) == 4 {
		dateArg = fields[3]
	}
	date, err := h.parseDateArg(dateArg)
	if err != nil {
		h.reply(chatID, "❌ Неверная дата. Используйте формат ГГГГ-ММ-ДД или ДД.ММ.ГГГГ")
		return
	}

	plan, err := h.svc.Plans.SaveDailyPlan(date, service.PlanInput{
		Revenue: models.ParseAmount(fields[0]),
		Focus:   models.ParseAmount(fields[1]),
		SBP:     models.ParseAmount(fields[2]),
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidDate) {
			h.reply(chatID, "❌ Неверная дата.")
			return
		}
		h.reply(chatID, "❌ Ошибка сохранения плана: "+err.Error())
		return
	}

	h.reply(chatID, "✅ "+h.svc.Plans.FormatPlan(date, plan))
}
