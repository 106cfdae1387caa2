package handler

import (
	"bytes"
	"fmt"

	"retail-dashboard/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// showEmployees показывает всех сотрудников
func (h *Handler) showEmployees(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	employees, err := h.svc.Employees.GetEmployees()
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка получения списка сотрудников: "+err.Error())
		return
	}

	h.reply(message.Chat.ID, h.svc.Employees.FormatEmployees(employees))
}

// exportData отправляет документ с данными файлом
func (h *Handler) exportData(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	data, err := h.svc.Data.ExportData()
	if err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка выгрузки данных: "+err.Error())
		return
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("retail-data-%s.json", models.FormatDate(h.now())),
		Bytes: data,
	})
	h.send(doc)
}

// exportMonthReport отправляет отчет за текущий месяц в xlsx
func (h *Handler) exportMonthReport(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	now := h.now()
	var buf bytes.Buffer
	if err := h.svc.Export.ExportMonthReport(now.Year(), int(now.Month()), &buf); err != nil {
		h.reply(message.Chat.ID, "❌ Ошибка построения отчета: "+err.Error())
		return
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("report-%d-%02d.xlsx", now.Year(), int(now.Month())),
		Bytes: buf.Bytes(),
	})
	h.send(doc)
}

// confirmClearData спрашивает подтверждение перед очисткой
func (h *Handler) confirmClearData(message *tgbotapi.Message) {
	if !h.requireAdmin(message) {
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, очистить", "confirm_clear"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel_clear"),
		),
	)

	msg := tgbotapi.NewMessage(message.Chat.ID, "⚠️ Удалить все данные магазина? Действие нельзя отменить.")
	msg.ReplyMarkup = keyboard
	h.send(msg)
}
