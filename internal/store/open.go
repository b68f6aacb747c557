package store

import (
	"fmt"

	"github.com/ppiankov/endi/internal/model"
)

// Storage drivers
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// OpenBackend returns the backend selected by storage.driver
func OpenBackend(cfg *model.Config) (Backend, error) {
	switch cfg.Storage.Driver {
	case "", DriverJSON:
		return NewJSONFile(cfg.Paths.MemoryFile), nil
	case DriverSQLite:
		db, err := OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Open loads a store from the configured backend with the configured
// capacity; opts supplies the extraction collaborators and logger
func Open(cfg *model.Config, opts Options) (*FactStore, error) {
	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open memory backend: %w", err)
	}
	opts.MaxFacts = cfg.Memory.MaxFacts
	opts.Backend = backend
	return New(opts), nil
}
