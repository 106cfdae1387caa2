package handler

import (
	"errors"
	"strings"
	"time"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/service"
	"retail-dashboard/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Services сервисы, которыми пользуется бот
type Services struct {
	Employees    *service.EmployeeService
	Revenue      *service.RevenueService
	Plans        *service.PlanService
	Schedules    *service.ScheduleService
	Dashboard    *service.DashboardService
	Achievements *service.AchievementService
	Data         *service.DataService
	Export       *service.ExportService
}

type Handler struct {
	bot    telegram.MessageSender
	svc    Services
	config *config.Config
	now    func() time.Time
	logger *logrus.Logger
}

func NewHandler(bot telegram.MessageSender, svc Services, cfg *config.Config) *Handler {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Handler{
		bot:    bot,
		svc:    svc,
		config: cfg,
		now:    time.Now,
		logger: logger,
	}
}

func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

func (h *Handler) HandleUpdates(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		// Обработка callback query (для inline кнопок)
		if update.CallbackQuery != nil {
			h.handleCallbackQuery(update.CallbackQuery)
			continue
		}

		if update.Message == nil {
			continue
		}

		h.handleMessage(update.Message)
	}
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID

	// Удаляем клавиатуру
	h.send(tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup()))

	switch callback.Data {
	case "confirm_clear":
		if !h.isAdmin(chatID, callback.From) {
			h.reply(chatID, "❌ Доступ запрещен.")
			break
		}
		if err := h.svc.Data.ClearAllData(); err != nil {
			h.reply(chatID, "❌ Ошибка очистки данных: "+err.Error())
		} else {
			h.reply(chatID, "✅ Данные очищены, созданы начальные данные.")
		}
	case "cancel_clear":
		h.reply(chatID, "❌ Очистка данных отменена.")
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.send(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	h.logger.WithFields(logrus.Fields{
		"chat_id":  message.Chat.ID,
		"username": username,
	}).Debug(message.Text)

	if message.IsCommand() {
		h.handleCommand(message)
		return
	}

	h.reply(message.Chat.ID, "Я понимаю только команды. Используйте /help для списка команд.")
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.WithError(err).Warn("Failed to send telegram message")
	}
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

// currentEmployee сотрудник, привязанный к чату через поле telegram
func (h *Handler) currentEmployee(message *tgbotapi.Message) (*models.Employee, error) {
	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	return h.svc.Employees.FindByTelegram(username, message.Chat.ID)
}

// requireEmployee отвечает подсказкой, если чат не привязан к сотруднику
func (h *Handler) requireEmployee(message *tgbotapi.Message) *models.Employee {
	employee, err := h.currentEmployee(message)
	if err == nil {
		return employee
	}

	if errors.Is(err, models.ErrEmployeeNotFound) {
		h.reply(message.Chat.ID, "❌ Вы не привязаны к сотруднику. Попросите администратора указать ваш Telegram в карточке сотрудника.")
	} else {
		h.reply(message.Chat.ID, "❌ Ошибка поиска сотрудника: "+err.Error())
	}
	return nil
}

// isAdmin администратор по роли сотрудника или по BASE_ADMIN_CHAT_ID
func (h *Handler) isAdmin(chatID int64, from *tgbotapi.User) bool {
	if h.config != nil && h.config.BaseAdminChatID != 0 && chatID == h.config.BaseAdminChatID {
		return true
	}

	username := ""
	if from != nil {
		username = from.UserName
	}
	employee, err := h.svc.Employees.FindByTelegram(username, chatID)
	if err != nil {
		return false
	}
	return employee.IsAdmin()
}

// isManager может задавать планы
func (h *Handler) isManager(message *tgbotapi.Message) bool {
	if h.isAdmin(message.Chat.ID, message.From) {
		return true
	}
	employee, err := h.currentEmployee(message)
	if err != nil {
		return false
	}
	return employee.IsManager()
}

func (h *Handler) requireAdmin(message *tgbotapi.Message) bool {
	if h.isAdmin(message.Chat.ID, message.From) {
		return true
	}
	h.reply(message.Chat.ID, "❌ Доступ запрещен. Эта команда только для администраторов.")
	return false
}

// parseDateArg принимает дату как 2024-10-01 или 01.10.2024; пусто = сегодня
func (h *Handler) parseDateArg(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return models.FormatDate(h.now()), nil
	}

	for _, layout := range []string{models.DateLayout, "02.01.2006", "2.1.2006"} {
		if t, err := time.Parse(layout, arg); err == nil {
			return models.FormatDate(t), nil
		}
	}
	return "", models.ErrInvalidDate
}
