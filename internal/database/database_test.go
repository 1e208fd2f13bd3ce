package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/franckalain/nutriscan/internal/models"
)

func TestSaveAndGetScan(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewSQLiteDB error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	rec := &models.ScanRecord{
		ID:          "scan-1",
		SessionID:   "session-1",
		Barcode:     "3017620422003",
		Symbology:   "EAN-13",
		Status:      models.ScanFound,
		ProductName: "Nutella",
	}
	if err := db.SaveScan(ctx, rec); err != nil {
		t.Fatalf("SaveScan error: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	got, err := db.GetScan(ctx, "scan-1")
	if err != nil {
		t.Fatalf("GetScan error: %v", err)
	}
	if got == nil || got.Barcode != "3017620422003" || got.ProductName != "Nutella" || got.Status != models.ScanFound {
		t.Fatalf("scan mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt.UTC()) {
		t.Fatalf("created_at mismatch: got=%v want=%v", got.CreatedAt, rec.CreatedAt)
	}

	missing, err := db.GetScan(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing scan; got %+v, %v", missing, err)
	}
}

func TestGetRecentScansInMemory(t *testing.T) {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDB error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, code := range []string{"96385074", "036000291452", "0000000000000"} {
		status := models.ScanFound
		if i == 2 {
			status = models.ScanNotFound
		}
		err := db.SaveScan(ctx, &models.ScanRecord{
			ID:        code,
			SessionID: "s",
			Barcode:   code,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveScan error: %v", err)
		}
	}

	scans, err := db.GetRecentScans(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecentScans error: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("len mismatch: %d", len(scans))
	}
	if scans[0].Barcode != "0000000000000" || scans[0].Status != models.ScanNotFound {
		t.Fatalf("newest mismatch: %+v", scans[0])
	}
	if scans[1].Barcode != "036000291452" {
		t.Fatalf("second mismatch: %+v", scans[1])
	}
}
