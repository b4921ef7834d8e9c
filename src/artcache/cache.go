// Package artcache stores resolved artwork durably. Records live in a SQLite
// database and the image bytes themselves live in a content-addressed file
// tree. A record may say "this entity has this image file" or "resolution was
// attempted and nothing was found". The absence of a record is a state of its
// own, it means the entity was never attempted and a caller should resolve it.
package artcache

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/afero"
)

// State is the outcome of a cache lookup.
type State int

const (
	// StateUnknown means no record exists for the identity. Resolution has
	// never been attempted or the record was invalidated since.
	StateUnknown State = iota

	// StateFound means artwork was resolved and its file is in the store.
	StateFound

	// StateNotFound means resolution was attempted and exhausted all
	// providers without an image. Callers should not try again until the
	// record is cleared.
	StateNotFound
)

// Record is what a cache lookup returns. Path and MusicBrainzID are only
// populated for StateFound records.
type Record struct {
	State         State
	Path          string
	MusicBrainzID string
}

// StorageError is returned by Store when writing the image file fails. No
// database record is written in that case, so the identity stays unknown
// and can be retried.
type StorageError struct {
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("artwork storage: %s", e.Err)
}

// Unwrap returns the underlying storage error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Cache is the durable artwork cache. All database access goes through a
// single worker goroutine, wired up in New.
type Cache struct {
	db      *sql.DB
	storage afero.Fs

	// sqlFilesFS is the directory with the .sql files for sql-migrate.
	sqlFilesFS fs.FS

	dbExecutes chan DatabaseExecutable

	ctx       context.Context
	ctxCancel context.CancelFunc
	workerWG  sync.WaitGroup
}

// New opens (or creates) the cache database at databasePath, applies any
// pending migrations from sqlFilesFS and starts the database worker. Image
// files are written to storage, relative to its root.
func New(databasePath string, storage afero.Fs, sqlFilesFS fs.FS) (*Cache, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// All access is serialized through the database worker, one connection
	// is enough.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithCancel(context.Background())

	c := &Cache{
		db:         db,
		storage:    storage,
		sqlFilesFS: sqlFilesFS,
		ctx:        ctx,
		ctxCancel:  cancel,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	c.workerWG.Add(1)
	go c.databaseWorker(&wg)
	wg.Wait()

	if err := c.applyMigrations(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// Close stops the database worker and closes the database. It is safe to
// call it more than once.
func (c *Cache) Close() {
	c.ctxCancel()
	c.workerWG.Wait()

	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}
