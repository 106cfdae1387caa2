package handler

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handler) handleCommand(message *tgbotapi.Message) {
	command := message.Command()
	args := message.CommandArguments()

	switch command {
	case "start":
		h.sendStartMessage(message)
	case "help":
		h.sendHelpMessage(message)

	// Выручка и показатели (все сотрудники)
	case "revenue":
		h.saveRevenue(message, args)
	case "today":
		h.showToday(message, args)
	case "month":
		h.showMonth(message)
	case "rating":
		h.showRating(message)
	case "top":
		h.showLeaderboard(message)
	case "mystats":
		h.showMyStats(message)
	case "schedule":
		h.showMySchedule(message)

	// Команды руководителей и администраторов
	case "plan":
		h.savePlan(message, args)
	case "employees":
		h.showEmployees(message)
	case "export":
		h.exportData(message)
	case "report":
		h.exportMonthReport(message)
	case "cleardata":
		h.confirmClearData(message)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	h.reply(message.Chat.ID, "❌ Неизвестная команда. Используйте /help для списка команд.")
}

func (h *Handler) sendStartMessage(message *tgbotapi.Message) {
	text := `👋 Добро пожаловать!

Бот собирает выручку магазина за день, показывает выполнение плана и рейтинг сотрудников.

Чтобы вносить выручку, администратор должен указать ваш Telegram (@ник) в карточке сотрудника.

Используйте /help для списка команд.`

	h.reply(message.Chat.ID, text)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message) {
	text := `📋 Команды:

💰 /revenue <фокус> <СБП> <наличные> [дата] - внести выручку за день
📊 /today [дата] - выручка и план за день
📈 /month - итоги месяца и прогноз
🏆 /rating - рейтинг сотрудников за месяц
⭐ /top - лидеры по баллам
🎖️ /mystats - ваши достижения
📅 /schedule - ваш график на месяц`

	if h.isAdmin(message.Chat.ID, message.From) {
		text += `

👑 Администратор:
🎯 /plan <выручка> <фокус> <СБП> [дата] - задать план на день
👥 /employees - список сотрудников
💾 /export - выгрузка данных (JSON)
📑 /report - отчет за месяц (xlsx)
🗑️ /cleardata - очистить все данные`
	}

	h.reply(message.Chat.ID, text)
}
