// Package spreadsheet читает и пишет таблицы xls/xlsx для импорта
// сотрудников, планов и графиков и выгрузки месячных отчетов.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxXLSRows ограничение на чтение старых .xls
const maxXLSRows = 100000

var (
	ErrNoSheets   = errors.New("в файле нет листов")
	ErrEmptySheet = errors.New("лист пуст")
)

// Sheet лист таблицы со строками как текст
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadRows читает первый лист файла
func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	sheets, err := ReadSheets(reader, filename)
	if err != nil {
		return nil, err
	}
	if len(sheets[0].Rows) == 0 {
		return nil, ErrEmptySheet
	}
	return sheets[0].Rows, nil
}

// ReadSheets читает все листы; формат выбирается по расширению файла
func ReadSheets(reader io.Reader, filename string) ([]Sheet, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		return readXLS(data)
	default:
		return readXLSX(data)
	}
}

func readXLS(data []byte) ([]Sheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения xls: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, ErrNoSheets
	}

	sheets := make([]Sheet, 0, workbook.NumSheets())
	for i := 0; i < workbook.NumSheets(); i++ {
		ws := workbook.GetSheet(i)
		if ws == nil {
			continue
		}

		var rows [][]string
		for r := 0; r <= int(ws.MaxRow) && r < maxXLSRows; r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, Sheet{Name: ws.Name, Rows: trimTrailingEmpty(rows)})
	}

	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	return sheets, nil
}

func readXLSX(data []byte) ([]Sheet, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	names := file.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := file.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения листа %s: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

func trimTrailingEmpty(rows [][]string) [][]string {
	for len(rows) > 0 && isEmptyRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsEmptyRow строка без значимых ячеек
func IsEmptyRow(row []string) bool {
	return isEmptyRow(row)
}

// NormalizeHeader приводит заголовок к виду для сравнения
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

// MapHeader сопоставляет колонки заголовка с полями по спискам синонимов.
// Отсутствующее поле получает -1.
func MapHeader(header []string, synonyms map[string][]string) map[string]int {
	index := make(map[string]int, len(synonyms))
	for field := range synonyms {
		index[field] = -1
	}

	for i, h := range header {
		name := NormalizeHeader(h)
		if name == "" {
			continue
		}
		for field, names := range synonyms {
			if index[field] >= 0 {
				continue
			}
			for _, n := range names {
				if NormalizeHeader(n) == name {
					index[field] = i
					break
				}
			}
		}
	}
	return index
}

// Cell значение ячейки или пустая строка за границами строки
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var dateFormats = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"02/01/2006",
	"2006/01/02",
}

// ParseDate разбирает дату ячейки в ISO: поддерживаются текстовые форматы
// и числовые даты Excel
func ParseDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		// отсекаем числа, похожие на год или номер
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return parsed.Format("2006-01-02"), true
			}
		}
		return "", false
	}

	for _, layout := range dateFormats {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	return "", false
}
