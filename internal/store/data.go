package store

import (
	"time"

	"retail-dashboard/internal/metrics"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/repository"

	"github.com/sirupsen/logrus"
)

// DataStoreConfig настройки основного документа
type DataStoreConfig struct {
	Key          string
	DefaultStore string
	SeedDemo     bool
}

// DataStore основной документ с сотрудниками, выручкой, планами и графиками.
// Любое чтение проходит через Repair, поэтому потребители всегда видят
// документ с корректной формой.
type DataStore struct {
	*Document[models.Document]

	cfg    DataStoreConfig
	now    func() time.Time
	logger *logrus.Logger
}

func NewDataStore(repo repository.KVRepository, cfg DataStoreConfig, m *metrics.Metrics) *DataStore {
	ds := &DataStore{
		cfg:    cfg,
		now:    time.Now,
		logger: newLogger(),
	}

	s := New(repo, cfg.Key, m)
	ds.Document = NewDocument(s, models.NewDocument, ds.decode)
	return ds
}

// SetClock подменяет источник времени (для тестов)
func (d *DataStore) SetClock(now func() time.Time) {
	d.now = now
	d.Document.SetClock(now)
}

// SetLogger заменяет логгер документа и его хранилища
func (d *DataStore) SetLogger(logger *logrus.Logger) {
	d.logger = logger
	d.Document.Store().SetLogger(logger)
}

func (d *DataStore) repairDefaults() RepairDefaults {
	return RepairDefaults{Store: d.cfg.DefaultStore, Now: d.now}
}

func (d *DataStore) decode(data []byte) (*models.Document, error) {
	doc, issues, err := Repair(data, d.repairDefaults())
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		d.logger.WithFields(logrus.Fields{
			"key":    d.cfg.Key,
			"issues": len(issues),
		}).Debug("Document normalized on read")
	}
	return doc, nil
}

// Open загружает документ один раз при старте: исправляет его форму и
// сохраняет обратно, только если что-то пришлось исправить. Отсутствующий
// или нечитаемый документ заменяется начальными данными.
func (d *DataStore) Open() ([]models.ValidationIssue, error) {
	raw, ok, err := d.Store().Load()
	if err != nil {
		return nil, err
	}

	if !ok {
		d.logger.WithField("key", d.cfg.Key).Info("Document not found, creating initial data")
		return nil, d.Save(d.initial())
	}

	doc, issues, err := Repair(raw, d.repairDefaults())
	if err != nil {
		d.logger.WithError(err).WithField("key", d.cfg.Key).Warn("Document is unparsable, recreating initial data")
		return nil, d.Save(d.initial())
	}

	if len(issues) == 0 {
		d.logger.WithField("key", d.cfg.Key).Info("Document loaded, no repair needed")
		return nil, nil
	}

	for _, issue := range issues {
		d.logger.WithFields(logrus.Fields{
			"path":  issue.Path,
			"issue": issue.Message,
		}).Warn("Document repaired")
	}

	if err := d.Save(doc); err != nil {
		return issues, err
	}
	return issues, nil
}

// Clear удаляет документ и создает начальные данные заново
func (d *DataStore) Clear() error {
	if err := d.Delete(); err != nil {
		return err
	}
	return d.Replace(d.initial())
}

func (d *DataStore) initial() *models.Document {
	if d.cfg.SeedDemo {
		return SeedDocument(d.now(), d.cfg.DefaultStore)
	}
	return models.NewDocument()
}

// RepairPayload нормализует внешний документ (например, при импорте)
// по тем же правилам, что и при загрузке
func (d *DataStore) RepairPayload(raw []byte) (*models.Document, []models.ValidationIssue, error) {
	return Repair(raw, d.repairDefaults())
}
