package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// DataStoreAdmin операции над документом целиком
type DataStoreAdmin interface {
	DocumentStore
	Replace(doc *models.Document) error
	RepairPayload(raw []byte) (*models.Document, []models.ValidationIssue, error)
	Clear() error
}

// DataService экспорт, импорт и очистка данных магазина
type DataService struct {
	store  DataStoreAdmin
	logger *logrus.Logger
}

func NewDataService(store DataStoreAdmin) *DataService {
	return &DataService{
		store:  store,
		logger: newLogger(),
	}
}

// ExportData выгружает текущий документ в JSON с отступами
func (s *DataService) ExportData() ([]byte, error) {
	doc, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения данных: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации данных: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"employees": len(doc.Employees),
		"bytes":     len(data),
	}).Info("Data exported")

	return data, nil
}

// ImportData заменяет документ загруженным. Данные сначала проходят ту же
// нормализацию, что и при чтении; не-объект отклоняется без изменений.
func (s *DataService) ImportData(raw []byte) ([]models.ValidationIssue, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		s.logger.Warn("Import payload is not a JSON object")
		return nil, models.ErrInvalidDocument
	}

	doc, issues, err := s.store.RepairPayload(trimmed)
	if err != nil {
		s.logger.WithError(err).Warn("Import payload rejected")
		return nil, models.ErrInvalidDocument
	}

	for _, issue := range issues {
		s.logger.WithFields(logrus.Fields{
			"path":  issue.Path,
			"issue": issue.Message,
		}).Warn("Import payload repaired")
	}

	if err := s.store.Replace(doc); err != nil {
		s.logger.WithError(err).Error("Failed to replace document on import")
		return issues, fmt.Errorf("ошибка импорта данных: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"employees": len(doc.Employees),
		"issues":    len(issues),
	}).Info("Data imported")

	return issues, nil
}

// ClearAllData удаляет все данные и создает начальный документ
func (s *DataService) ClearAllData() error {
	if err := s.store.Clear(); err != nil {
		s.logger.WithError(err).Error("Failed to clear data")
		return fmt.Errorf("ошибка очистки данных: %w", err)
	}

	s.logger.Info("All data cleared")
	return nil
}
