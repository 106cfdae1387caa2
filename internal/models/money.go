package models

import (
	"strconv"
	"strings"
	"unicode"
)

// maxAmountDigits суммы длиннее 18 цифр считаются некорректными (int64 не переполняется)
const maxAmountDigits = 18

// ParseAmount разбирает сумму из пользовательского ввода.
// Пробелы (в том числе неразрывные) игнорируются, берется ведущая целая часть
// со знаком, как это делает parseInt; нечисловой ввод и числа длиннее
// maxAmountDigits цифр дают 0.
func ParseAmount(value string) int64 {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)

	negative := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		negative = s[0] == '-'
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	digits := strings.TrimLeft(s[:end], "0")
	if digits == "" {
		return 0
	}
	if len(digits) > maxAmountDigits {
		return 0
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -n
	}
	return n
}

// SanitizeAmount приводит сумму к неотрицательному целому в виде строки
func SanitizeAmount(value string) string {
	n := ParseAmount(value)
	if n < 0 {
		n = 0
	}
	return strconv.FormatInt(n, 10)
}
