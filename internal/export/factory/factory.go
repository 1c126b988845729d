// Package factory builds the configured summary export backend.
package factory

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/config"
	"tally/internal/export"
	"tally/internal/export/google"
	"tally/internal/export/memory"
)

// Backend selects the summary export implementation.
type Backend string

const (
	// GoogleBackend writes summaries to the configured Google Sheet.
	GoogleBackend Backend = "google"
	// MemoryBackend keeps summaries in process, for local runs and tests.
	MemoryBackend Backend = "memory"
	// Disabled writes nothing.
	Disabled Backend = ""
)

// NewWriterFromConfig builds the export writer the config asks for. A nil
// writer means export is disabled; callers skip the export step entirely.
func NewWriterFromConfig(ctx context.Context, cfg *config.Config) (export.SummaryWriter, error) {
	switch backendFor(cfg) {
	case GoogleBackend:
		writer, err := google.New(ctx, google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenJSON:  cfg.GoogleOAuthTokenJSON,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize sheets export: %w", err)
		}
		slog.InfoContext(ctx, "Summary export enabled",
			"backend", GoogleBackend,
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet_name", cfg.GoogleSheetName)
		return writer, nil
	case MemoryBackend:
		slog.InfoContext(ctx, "Summary export using in-process store", "backend", MemoryBackend)
		return memory.New(), nil
	default:
		slog.InfoContext(ctx, "Summary export disabled, no spreadsheet configured")
		return nil, nil
	}
}

func backendFor(cfg *config.Config) Backend {
	if cfg.SheetsExportEnabled() {
		return GoogleBackend
	}
	if cfg.ExportBackend == string(MemoryBackend) {
		return MemoryBackend
	}
	return Disabled
}
