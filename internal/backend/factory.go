// Package backend selects and constructs the data source named by the
// application config.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"wastedash/internal/config"
	applog "wastedash/internal/log"
	"wastedash/internal/source"
	"wastedash/internal/source/google"
	"wastedash/internal/source/memory"
	"wastedash/internal/source/xlsx"
)

// Type selects where the backing workbook lives.
type Type string

const (
	XLSXBackend   Type = "xlsx"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

func (t Type) String() string { return string(t) }

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case XLSXBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// New creates the Source selected by the application config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (source.Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend := Type(cfg.DataBackend)
	if !backend.IsValid() {
		return nil, fmt.Errorf("invalid data backend: %s", cfg.DataBackend)
	}

	switch backend {
	case SheetsBackend:
		cli, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("create sheets source: %w", err)
		}
		logger.Info("Initialized Google Sheets source", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return cli, nil
	case MemoryBackend:
		logger.Info("Initialized memory source")
		return memory.NewSample(), nil
	default:
		logger.Info("Initialized workbook source", applog.FieldPath, cfg.WorkbookPath)
		return xlsx.New(cfg.WorkbookPath), nil
	}
}
