package models

import (
	"time"
)

// Scan outcomes stored in the journal
const (
	ScanFound    = "found"
	ScanNotFound = "not_found"
	ScanFailed   = "failed"
)

// ScanRecord represents one finished decode-to-lookup cycle
type ScanRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Barcode     string    `json:"barcode"`
	Symbology   string    `json:"symbology,omitempty"`
	Status      string    `json:"status"` // "found", "not_found", "failed"
	ProductName string    `json:"product_name,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
