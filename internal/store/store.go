package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/alexanderramin/timesflying/internal/db"
	"github.com/alexanderramin/timesflying/internal/event"
	"github.com/alexanderramin/timesflying/internal/repository"
)

// Options configures Open.
type Options struct {
	// Path is the SQLite file, or db.MemoryPath for a private in-memory store.
	Path string
	// Logger receives watcher and change-log output. Defaults to a discard logger.
	Logger *slog.Logger
}

// Store is the shared database handle.
type Store struct {
	path   string
	db     *sql.DB
	bus    *event.Bus
	logger *slog.Logger

	entries  *TimeEntryTable
	projects *ProjectTable
}

// Open opens (and migrates) the database and returns a new handle.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	database, err := db.OpenDB(opts.Path)
	if err != nil {
		return nil, err
	}

	bus := event.NewBus()
	s := &Store{
		path:   opts.Path,
		db:     database,
		bus:    bus,
		logger: logger,
	}
	s.entries = &TimeEntryTable{
		repo: repository.NewSQLiteTimeEntryRepo(database),
		uow:  db.NewSQLiteUnitOfWork(database),
		bus:  bus,
	}
	s.projects = &ProjectTable{
		repo: repository.NewSQLiteProjectRepo(database),
		bus:  bus,
	}
	return s, nil
}

// OpenMemory opens a private in-memory store, mainly for tests.
func OpenMemory() (*Store, error) {
	return Open(Options{Path: db.MemoryPath})
}

var (
	sharedOnce  sync.Once
	sharedStore *Store
	sharedErr   error
)

// Shared returns the process-wide store, opening it with opts on first use.
// Later calls ignore opts and return the same handle (or the same error).
func Shared(opts Options) (*Store, error) {
	sharedOnce.Do(func() {
		sharedStore, sharedErr = Open(opts)
	})
	return sharedStore, sharedErr
}

// TimeEntries returns the time entry table.
func (s *Store) TimeEntries() *TimeEntryTable { return s.entries }

// Projects returns the project table.
func (s *Store) Projects() *ProjectTable { return s.projects }

// Changes returns the bus every write is published on.
func (s *Store) Changes() *event.Bus { return s.bus }

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// LogChanges logs every published change at debug level until ctx is done.
func (s *Store) LogChanges(ctx context.Context) error {
	changes, err := s.bus.Stream(ctx)
	if err != nil {
		return err
	}
	go func() {
		for c := range changes {
			s.logger.DebugContext(ctx, "store_change",
				"collection", string(c.Collection),
				"op", string(c.Op),
				"id", c.ID,
			)
		}
	}()
	return nil
}

// Close releases the bus and the database. The shared store is normally
// left open for the life of the process.
func (s *Store) Close() error {
	busErr := s.bus.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return busErr
}
