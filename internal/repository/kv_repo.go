package repository

import (
	"errors"
	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// KVRepository хранилище документов по ключу с версионированием.
// Put записывает значение, только если текущая версия равна expectedVersion
// (0 означает, что ключа еще нет), и возвращает новую версию.
type KVRepository interface {
	Get(key string) (*models.KVEntry, error)
	Put(key, value string, expectedVersion int64) (int64, error)
	Delete(key string) error
	Keys() ([]string, error)
}

type GormKVRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormKVRepository(db *gorm.DB) (*GormKVRepository, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	// Автомиграция
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate kv_entries table")
		return nil, err
	}

	logger.Info("KV repository initialized")

	return &GormKVRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *GormKVRepository) Get(key string) (*models.KVEntry, error) {
	var entry models.KVEntry
	result := r.db.Where("`key` = ?", key).First(&entry)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("key", key).Debug("KV entry not found")
		return nil, nil
	}

	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("key", key).Error("Failed to get KV entry")
		return nil, result.Error
	}

	return &entry, nil
}

func (r *GormKVRepository) Put(key, value string, expectedVersion int64) (int64, error) {
	var newVersion int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.KVEntry
		result := tx.Where("`key` = ?", key).First(&existing)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if expectedVersion != 0 {
				return models.ErrVersionConflict
			}
			entry := &models.KVEntry{Key: key, Value: value, Version: 1}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			newVersion = entry.Version
			return nil
		}
		if result.Error != nil {
			return result.Error
		}

		if existing.Version != expectedVersion {
			return models.ErrVersionConflict
		}

		// Условное обновление: версия могла измениться между чтением и записью
		result = tx.Model(&models.KVEntry{}).
			Where("`key` = ? AND version = ?", key, expectedVersion).
			Updates(map[string]any{
				"value":   value,
				"version": expectedVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.ErrVersionConflict
		}

		newVersion = expectedVersion + 1
		return nil
	})

	if err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			r.logger.WithFields(logrus.Fields{
				"key":              key,
				"expected_version": expectedVersion,
			}).Warn("KV version conflict")
		} else {
			r.logger.WithError(err).WithField("key", key).Error("Failed to put KV entry")
		}
		return 0, err
	}

	r.logger.WithFields(logrus.Fields{
		"key":     key,
		"version": newVersion,
		"bytes":   len(value),
	}).Debug("KV entry saved")

	return newVersion, nil
}

func (r *GormKVRepository) Delete(key string) error {
	result := r.db.Where("`key` = ?", key).Delete(&models.KVEntry{})
	if result.Error != nil {
		r.logger.WithError(result.Error).WithField("key", key).Error("Failed to delete KV entry")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"key":     key,
		"deleted": result.RowsAffected,
	}).Info("KV entry deleted")

	return nil
}

func (r *GormKVRepository) Keys() ([]string, error) {
	var keys []string
	result := r.db.Model(&models.KVEntry{}).Order("`key` ASC").Pluck("key", &keys)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to list KV keys")
		return nil, result.Error
	}
	return keys, nil
}

// Close закрывает соединение с БД
func (r *GormKVRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
