// Package service содержит операции над документами магазина: сотрудники,
// выручка, планы, графики, производные показатели, достижения и очередь
// уведомлений. Каждая изменяющая операция читает документ целиком,
// меняет копию и записывает его обратно.
package service

import (
	"strconv"
	"strings"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// DocumentStore основной документ магазина
type DocumentStore interface {
	Snapshot() (*models.Document, error)
	Update(fn func(doc *models.Document) error) error
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// normalizeDate проверяет и приводит дату к ключу документа
func normalizeDate(date string) (string, error) {
	t, err := models.ParseDate(date)
	if err != nil {
		return "", err
	}
	return models.FormatDate(t), nil
}

func validateMonth(month int) error {
	if month < 1 || month > 12 {
		return models.ErrInvalidMonth
	}
	return nil
}

// inMonth проверяет, что ключ-дата относится к году и месяцу
func inMonth(date string, year, month int) bool {
	t, err := models.ParseDate(date)
	if err != nil {
		return false
	}
	return t.Year() == year && int(t.Month()) == month
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// monthName название месяца в именительном падеже
func monthName(month int) string {
	names := []string{"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}
	if month < 1 || month > 12 {
		return ""
	}
	return names[month-1]
}

// formatMoney форматирует сумму с разделителями разрядов: 165 000 ₽
func formatMoney(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(digits[i])
	}
	return sign + b.String() + " ₽"
}
