package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"windalert/internal/types"
)

// Store loads and saves the ledger.
type Store interface {
	// Load returns the current ledger. A missing or unreadable backing store
	// yields Default(now, loc) and a nil error.
	Load(now time.Time, loc *time.Location) Ledger
	// Save overwrites the backing store with l.
	Save(l Ledger) error
	// Key identifies the storage location for mutual exclusion.
	Key() string
}

// FileStore keeps the ledger in a single JSON file that is overwritten whole
// on every save.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// Compile-time assertion that FileStore implements Store.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

// Key returns the cleaned file path.
func (s *FileStore) Key() string {
	return filepath.Clean(s.path)
}

// Load reads the ledger file. Absence is a first run; a decode or read error
// is logged and the defaults are used.
func (s *FileStore) Load(now time.Time, loc *time.Location) Ledger {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("error reading ledger file, using defaults",
				"path", s.path,
				"error", err,
			)
		}
		return Default(now, loc)
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		s.logger.Warn("error decoding ledger file, using defaults",
			"path", s.path,
			"error", err,
		)
		return Default(now, loc)
	}
	if l.AlertCountToday < 0 {
		l.AlertCountToday = 0
	}
	return l
}

// Save writes the ledger as indented JSON, creating the parent directory when
// needed.
func (s *FileStore) Save(l Ledger) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return types.NewAppErrorWithDetails(types.ErrCodeInternalLedgerIO,
				"failed to create ledger directory", err, map[string]any{"path": s.path})
		}
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalLedgerIO, "failed to encode ledger", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeInternalLedgerIO,
			fmt.Sprintf("failed to write ledger file %s", s.path), err, map[string]any{"path": s.path})
	}

	s.logger.Debug("ledger saved",
		"path", s.path,
		"alert_count_today", l.AlertCountToday,
		"last_alert_time", l.LastAlertTime,
	)
	return nil
}
