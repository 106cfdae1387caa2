// Package store хранит документы приложения в KV-хранилище целиком:
// чтение всего документа, изменение копии, запись всего документа,
// после чего синхронно оповещаются подписчики.
package store

import (
	"errors"
	"sync"

	"retail-dashboard/internal/metrics"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/repository"

	"github.com/sirupsen/logrus"
)

// Store владеет одним ключом хранилища
type Store struct {
	repo    repository.KVRepository
	key     string
	metrics *metrics.Metrics
	logger  *logrus.Logger

	mu      sync.Mutex
	version int64

	subsMu    sync.Mutex
	subs      []subscription
	nextSubID uint64
}

type subscription struct {
	id uint64
	fn func()
}

func New(repo repository.KVRepository, key string, m *metrics.Metrics) *Store {
	return &Store{
		repo:    repo,
		key:     key,
		metrics: m,
		logger:  newLogger(),
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// SetLogger заменяет логгер (уровень логирования задается конфигом)
func (s *Store) SetLogger(logger *logrus.Logger) {
	s.logger = logger
}

func (s *Store) Key() string {
	return s.key
}

// Read возвращает сохраненные байты и их версию; версия 0 означает, что ключа нет
func (s *Store) Read() ([]byte, int64, error) {
	entry, err := s.repo.Get(s.key)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Error("Failed to load document")
		return nil, 0, err
	}

	if entry == nil {
		return nil, 0, nil
	}

	return []byte(entry.Value), entry.Version, nil
}

// Write записывает документ, только если сохраненная версия равна
// expectedVersion, и после успешной записи оповещает всех подписчиков
func (s *Store) Write(data []byte, expectedVersion int64) error {
	if err := s.write(data, expectedVersion); err != nil {
		return err
	}
	s.notify()
	return nil
}

// write записывает без оповещения; вызывающий оповещает сам, уже отпустив свои блокировки
func (s *Store) write(data []byte, expectedVersion int64) error {
	version, err := s.repo.Put(s.key, string(data), expectedVersion)
	if err != nil {
		result := metrics.SaveError
		if errors.Is(err, models.ErrVersionConflict) {
			result = metrics.SaveConflict
		}
		s.metrics.ObserveSave(s.key, result)
		s.logger.WithError(err).WithField("key", s.key).Error("Failed to save document")
		return err
	}

	s.mu.Lock()
	s.version = version
	s.mu.Unlock()

	s.metrics.ObserveSave(s.key, metrics.SaveOK)
	s.logger.WithFields(logrus.Fields{
		"key":     s.key,
		"version": version,
	}).Debug("Document saved")

	return nil
}

// Load возвращает сохраненные байты; ok == false, если ключа нет.
// Версия запоминается для последующего Save.
func (s *Store) Load() ([]byte, bool, error) {
	data, version, err := s.Read()
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	s.version = version
	s.mu.Unlock()

	return data, version != 0, nil
}

// Save записывает документ, если с момента последнего Load/Save его никто не менял
func (s *Store) Save(data []byte) error {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	return s.Write(data, version)
}

// Delete удаляет ключ и оповещает подписчиков
func (s *Store) Delete() error {
	if err := s.remove(); err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *Store) remove() error {
	s.mu.Lock()
	err := s.repo.Delete(s.key)
	if err == nil {
		s.version = 0
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Error("Failed to delete document")
		return err
	}

	s.logger.WithField("key", s.key).Info("Document deleted")
	return nil
}

// Subscribe регистрирует обработчик, вызываемый после каждого успешного
// сохранения. Возвращаемая функция снимает именно эту подписку.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subsMu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	count := len(s.subs)
	s.subsMu.Unlock()

	s.metrics.SetSubscribers(s.key, count)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
			count := len(s.subs)
			s.subsMu.Unlock()

			s.metrics.SetSubscribers(s.key, count)
		})
	}
}

// SubscriberCount количество активных подписок
func (s *Store) SubscriberCount() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}

// notify вызывает подписчиков по снимку списка: подписка или отписка
// внутри обработчика не влияет на текущий проход
func (s *Store) notify() {
	s.subsMu.Lock()
	snapshot := make([]subscription, len(s.subs))
	copy(snapshot, s.subs)
	s.subsMu.Unlock()

	for _, sub := range snapshot {
		s.call(sub)
	}
}

func (s *Store) call(sub subscription) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"key":          s.key,
				"subscription": sub.id,
				"panic":        r,
			}).Error("Subscriber panicked")
		}
	}()
	sub.fn()
}
