package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"time"

	"github.com/franckalain/nutriscan/internal/models"
	_ "modernc.org/sqlite"
)

// fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

//go:embed schema.sql
var schemaFS embed.FS

// DB interface defines the methods the scan journal implements
type DB interface {
	SaveScan(ctx context.Context, scan *models.ScanRecord) error
	GetScan(ctx context.Context, id string) (*models.ScanRecord, error)
	GetRecentScans(ctx context.Context, limit int) ([]*models.ScanRecord, error)
	Close() error
}

// SQLiteDB implements the DB interface
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the journal. ":memory:" keeps it for the life of the process.
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// every pooled connection to :memory: would be a separate database
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("error enabling WAL mode: %w", err)
		}
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func initializeSchema(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := db.Exec(string(schemaBytes)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	log.Println("Database schema initialized successfully")
	return nil
}

// SaveScan stores a finished scan cycle
func (s *SQLiteDB) SaveScan(ctx context.Context, scan *models.ScanRecord) error {
	query := `
		INSERT OR REPLACE INTO scans (
			id, session_id, barcode, symbology, status, product_name, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if scan.CreatedAt.IsZero() {
		scan.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		scan.ID, scan.SessionID, scan.Barcode, scan.Symbology, scan.Status,
		scan.ProductName, scan.Error, scan.CreatedAt.UTC().Format(timeLayout),
	)
	return err
}

// GetScan retrieves one scan; nil if it does not exist
func (s *SQLiteDB) GetScan(ctx context.Context, id string) (*models.ScanRecord, error) {
	query := `
		SELECT id, session_id, barcode, symbology, status, product_name, error, created_at
		FROM scans WHERE id = ?
	`

	scan, err := scanRow(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return scan, nil
}

// GetRecentScans retrieves the most recent scans, newest first
func (s *SQLiteDB) GetRecentScans(ctx context.Context, limit int) ([]*models.ScanRecord, error) {
	query := `
		SELECT id, session_id, barcode, symbology, status, product_name, error, created_at
		FROM scans
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*models.ScanRecord{}
	for rows.Next() {
		scan, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, scan)
	}
	return results, rows.Err()
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*models.ScanRecord, error) {
	var scan models.ScanRecord
	var createdAt string
	if err := row.Scan(
		&scan.ID, &scan.SessionID, &scan.Barcode, &scan.Symbology, &scan.Status,
		&scan.ProductName, &scan.Error, &createdAt,
	); err != nil {
		return nil, err
	}
	scan.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return &scan, nil
}
