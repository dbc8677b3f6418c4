// Package store persists tuning results.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baldhumanity/evo-go/evo"
	"github.com/baldhumanity/evo-go/tuning"
)

// ErrDriverNotSupported is returned for an unknown storage driver.
var ErrDriverNotSupported = errors.New("driver not supported")

// Driver selects the storage backend.
type Driver int

const (
	SQLite Driver = iota
	BadgerDB
	InMem
)

// ParseDriver parses a driver name.
func ParseDriver(driver string) (Driver, error) {
	switch strings.ToLower(driver) {
	case "sqlite":
		return SQLite, nil
	case "badger":
		return BadgerDB, nil
	case "inmem", "":
		return InMem, nil
	default:
		return -1, fmt.Errorf("%w: %q", ErrDriverNotSupported, driver)
	}
}

func (driver Driver) String() string {
	switch driver {
	case SQLite:
		return "sqlite"
	case BadgerDB:
		return "badger"
	case InMem:
		return "inmem"
	default:
		return "unknown"
	}
}

// Config describes where results are stored.
type Config struct {
	Driver Driver
	Name   string // Database name, default "tuning"
	Path   string // Directory holding the database files
	InMem  bool   // Keep the sqlite or badger database in memory
}

// Repository stores and lists tuning results.
type Repository interface {
	Store(results ...*tuning.Result) error
	// List returns the results of one algorithm, or all results when
	// algorithm is empty, ordered by ID.
	List(algorithm evo.Algorithm) ([]*tuning.Result, error)
	Truncate() error
	Close() error
}

// NewRepository opens the repository selected by cfg.Driver.
func NewRepository(cfg Config) (Repository, error) {
	if cfg.Name == "" {
		cfg.Name = "tuning"
	}
	if cfg.Path == "" {
		cfg.Path = "."
	}

	switch cfg.Driver {
	case SQLite:
		return newSQLiteRepository(cfg)
	case BadgerDB:
		return newBadgerRepository(cfg)
	case InMem:
		return newInMemRepository(), nil
	default:
		return nil, ErrDriverNotSupported
	}
}
