package models

import "errors"

var (
	// Сотрудники
	ErrEmployeeNotFound = errors.New("сотрудник не найден")
	ErrEmployeeExists   = errors.New("сотрудник с таким табельным номером уже существует")
	ErrInvalidEmployee  = errors.New("некорректные данные сотрудника: нужны табельный номер и имя")
	ErrInvalidRole      = errors.New("некорректная роль сотрудника")

	// Даты и графики
	ErrInvalidDate         = errors.New("некорректная дата, ожидается формат ГГГГ-ММ-ДД")
	ErrInvalidMonth        = errors.New("некорректный месяц, ожидается число от 1 до 12")
	ErrInvalidTime         = errors.New("некорректное время, ожидается формат ЧЧ:ММ")
	ErrInvalidScheduleType = errors.New("некорректный тип смены")
	ErrScheduleNotFound    = errors.New("смена не найдена")

	// Планы и достижения
	ErrInvalidPlan = errors.New("план должен быть больше нуля")

	// Хранилище
	ErrVersionConflict = errors.New("данные были изменены другим процессом")
	ErrInvalidDocument = errors.New("некорректный формат данных")

	// Отчеты
	ErrReportNotFound = errors.New("отчет не найден")
	ErrInvalidReport  = errors.New("некорректное описание отчета")

	// Уведомления
	ErrDeferred = errors.New("отправка отложена до восстановления связи")
)
