package store

import (
	"testing"
	"time"

	"retail-dashboard/internal/models"
	"retail-dashboard/internal/repository"
)

func newTestDataStore(repo repository.KVRepository, seed bool) *DataStore {
	ds := NewDataStore(repo, DataStoreConfig{Key: "retail-analytics-data", DefaultStore: "Магазин", SeedDemo: seed}, nil)
	ds.SetClock(func() time.Time { return time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC) })
	return ds
}

func TestDataStore_OpenSeedsWhenAbsent(t *testing.T) {
	ds := newTestDataStore(repository.NewMemoryKVRepository(), true)

	if _, err := ds.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	doc, err := ds.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Employees) != 3 {
		t.Errorf("employees = %d, want 3 demo employees", len(doc.Employees))
	}
	if doc.LastUpdated == "" {
		t.Error("LastUpdated not stamped")
	}
}

func TestDataStore_OpenUnparsableReseeds(t *testing.T) {
	repo := repository.NewMemoryKVRepository()
	if _, err := repo.Put("retail-analytics-data", "not json", 0); err != nil {
		t.Fatal(err)
	}

	ds := newTestDataStore(repo, false)
	if _, err := ds.Open(); err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	doc, err := ds.Load()
	if err != nil || doc == nil {
		t.Fatalf("Load() = %v, %v", doc, err)
	}
	if len(doc.Employees) != 0 || doc.RevenueData == nil {
		t.Errorf("document = %+v, want empty initialized document", doc)
	}
}

func TestDataStore_OpenRepairsOnceAndSavesOnlyWhenNeeded(t *testing.T) {
	repo := repository.NewMemoryKVRepository()
	if _, err := repo.Put("retail-analytics-data", `{"employees": {}, "version": "1.0"}`, 0); err != nil {
		t.Fatal(err)
	}

	ds := newTestDataStore(repo, false)
	saves := 0
	ds.Subscribe(func() { saves++ })

	issues, err := ds.Open()
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) == 0 || saves != 1 {
		t.Fatalf("first open: issues=%d saves=%d; want >0 and 1", len(issues), saves)
	}

	issues, err = ds.Open()
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 || saves != 1 {
		t.Errorf("second open: issues=%d saves=%d; want 0 and 1 (no spurious save)", len(issues), saves)
	}
}

func TestDataStore_Clear(t *testing.T) {
	ds := newTestDataStore(repository.NewMemoryKVRepository(), true)
	if _, err := ds.Open(); err != nil {
		t.Fatal(err)
	}

	if err := ds.Update(func(doc *models.Document) error {
		doc.Employees = doc.Employees[:0]
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := ds.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}

	doc, _ := ds.Snapshot()
	if len(doc.Employees) != 3 {
		t.Errorf("employees after clear = %d, want 3 (re-seeded)", len(doc.Employees))
	}
}
