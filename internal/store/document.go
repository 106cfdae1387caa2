package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"retail-dashboard/internal/models"

	"github.com/sirupsen/logrus"
)

// maxUpdateAttempts сколько раз Update перечитывает документ при конфликте версий
const maxUpdateAttempts = 3

// DecodeFunc разбирает сохраненные байты в документ
type DecodeFunc[T any] func(data []byte) (*T, error)

type toucher interface {
	Touch(now time.Time)
}

// Document типизированный JSON-документ поверх Store
type Document[T any] struct {
	store  *Store
	decode DecodeFunc[T]
	empty  func() *T
	now    func() time.Time

	mu sync.Mutex // один писатель на документ в процессе
}

// NewDocument создает документ; empty возвращает значение для отсутствующего
// ключа, decode == nil означает обычный json.Unmarshal
func NewDocument[T any](s *Store, empty func() *T, decode DecodeFunc[T]) *Document[T] {
	if decode == nil {
		decode = func(data []byte) (*T, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return &v, nil
		}
	}

	return &Document[T]{
		store:  s,
		decode: decode,
		empty:  empty,
		now:    time.Now,
	}
}

// SetClock подменяет источник времени (для тестов)
func (d *Document[T]) SetClock(now func() time.Time) {
	d.now = now
}

func (d *Document[T]) Store() *Store {
	return d.store
}

// Load возвращает nil, nil, если документа нет или его не удалось разобрать
func (d *Document[T]) Load() (*T, error) {
	data, ok, err := d.store.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	v, err := d.decode(data)
	if err != nil {
		d.store.logger.WithError(err).WithField("key", d.store.key).Warn("Stored document is unparsable, treating as absent")
		return nil, nil
	}

	return v, nil
}

// Snapshot возвращает текущий документ или пустой, если его нет
func (d *Document[T]) Snapshot() (*T, error) {
	v, _, err := d.readVersioned()
	return v, err
}

// Save проставляет время изменения и записывает документ целиком
// (версия берется из последнего Load)
func (d *Document[T]) Save(v *T) error {
	data, err := d.encode(v)
	if err != nil {
		return err
	}
	return d.store.Save(data)
}

func (d *Document[T]) encode(v *T) ([]byte, error) {
	if t, ok := any(v).(toucher); ok {
		t.Touch(d.now())
	}

	data, err := json.Marshal(v)
	if err != nil {
		d.store.logger.WithError(err).WithField("key", d.store.key).Error("Failed to serialize document")
		return nil, fmt.Errorf("ошибка сериализации документа: %w", err)
	}
	return data, nil
}

// readVersioned читает документ вместе с версией, из которой он получен
func (d *Document[T]) readVersioned() (*T, int64, error) {
	data, version, err := d.store.Read()
	if err != nil {
		return nil, 0, err
	}
	if version == 0 {
		return d.empty(), 0, nil
	}

	v, err := d.decode(data)
	if err != nil {
		d.store.logger.WithError(err).WithField("key", d.store.key).Warn("Stored document is unparsable, starting from empty")
		return d.empty(), version, nil
	}
	return v, version, nil
}

// Update читает документ, применяет fn к копии и записывает результат.
// При конфликте версий документ перечитывается и fn вызывается заново.
// Подписчики вызываются после снятия блокировки и могут сами писать в документ.
func (d *Document[T]) Update(fn func(v *T) error) error {
	if err := d.update(fn); err != nil {
		return err
	}
	d.store.notify()
	return nil
}

func (d *Document[T]) update(fn func(v *T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		v, version, err := d.readVersioned()
		if err != nil {
			return err
		}

		if err := fn(v); err != nil {
			return err
		}

		data, err := d.encode(v)
		if err != nil {
			return err
		}

		lastErr = d.store.write(data, version)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, models.ErrVersionConflict) {
			return lastErr
		}

		d.store.logger.WithFields(logrus.Fields{
			"key":     d.store.key,
			"attempt": attempt,
		}).Warn("Version conflict, reloading document")
	}

	return lastErr
}

// Replace перезаписывает документ целиком, не глядя на текущее содержимое
func (d *Document[T]) Replace(v *T) error {
	if err := d.replace(v); err != nil {
		return err
	}
	d.store.notify()
	return nil
}

func (d *Document[T]) replace(v *T) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, version, err := d.store.Read()
	if err != nil {
		return err
	}

	data, err := d.encode(v)
	if err != nil {
		return err
	}
	return d.store.write(data, version)
}

// Delete удаляет документ
func (d *Document[T]) Delete() error {
	d.mu.Lock()
	err := d.store.remove()
	d.mu.Unlock()

	if err != nil {
		return err
	}
	d.store.notify()
	return nil
}

func (d *Document[T]) Subscribe(fn func()) func() {
	return d.store.Subscribe(fn)
}
