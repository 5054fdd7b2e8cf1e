// Package store persists the bibliography as a single YAML file: one
// explicitly delimited document per entry, in insertion order.
//
// A Database is an explicit context object. Nothing is cached globally; each
// command opens, loads, mutates and saves its own instance.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"bibdb/src/internal/entry"
	"bibdb/src/internal/logger"
)

var (
	// ErrNotInitialized is returned when the backing file does not exist.
	ErrNotInitialized = errors.New("database file does not exist, run `bib init` first")
	// ErrLocked is returned when another process holds the database lock.
	ErrLocked = errors.New("another bib process is modifying the database")
	// ErrNotLoaded is returned by mutations attempted before Load.
	ErrNotLoaded = errors.New("database not loaded")
)

// Database is the in-memory view of the backing YAML file.
type Database struct {
	path   string
	batch  *entry.Batch
	loaded bool
	dirty  bool
	lock   *flock.Flock
	log    *logger.Logger
}

// Open prepares a Database for the file at path. Nothing is read until Load.
func Open(path string, log *logger.Logger) *Database {
	if log == nil {
		log = logger.Nop()
	}
	return &Database{path: path, batch: entry.NewBatch(), log: log.Component("store")}
}

// Path returns the backing file path.
func (d *Database) Path() string { return d.path }

// Root returns the directory containing the backing file.
func (d *Database) Root() string { return filepath.Dir(d.path) }

// Exists reports whether the backing file is present.
func (d *Database) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// Loaded reports whether Load has succeeded.
func (d *Database) Loaded() bool { return d.loaded }

// Dirty reports whether there are unsaved changes.
func (d *Database) Dirty() bool { return d.dirty }

// Load reads the backing file once. Later calls are no-ops; use Reload to
// force a fresh read.
func (d *Database) Load() error {
	if d.loaded {
		return nil
	}
	return d.Reload()
}

// Reload discards the in-memory state and re-reads the backing file.
func (d *Database) Reload() error {
	b, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotInitialized, d.path)
	}
	if err != nil {
		return fmt.Errorf("read database: %w", err)
	}
	batch, dups, err := entry.ParseYAML(string(b))
	if err != nil {
		return fmt.Errorf("parse database %s: %w", d.path, err)
	}
	for _, l := range dups {
		d.log.Warn().Str("label", l).Msg("duplicate label in database, the last occurrence wins")
	}
	d.batch, d.loaded, d.dirty = batch, true, false
	d.log.Debug().Int("entries", batch.Len()).Str("file", d.path).Msg("database loaded")
	return nil
}

// Len reports the number of entries.
func (d *Database) Len() int { return d.batch.Len() }

// Labels returns labels in insertion order.
func (d *Database) Labels() []string { return d.batch.Labels() }

// Entries returns entries in insertion order.
func (d *Database) Entries() []*entry.Entry { return d.batch.Entries() }

// Has reports whether label exists.
func (d *Database) Has(label string) bool { return d.batch.Has(label) }

// Get returns the entry for label.
func (d *Database) Get(label string) (*entry.Entry, bool) { return d.batch.Get(label) }

// Update inserts or replaces every entry of b, in b's order. Replaced entries
// are overwritten wholesale; fields are not merged.
func (d *Database) Update(b *entry.Batch) error {
	if !d.loaded {
		return ErrNotLoaded
	}
	for _, e := range b.Entries() {
		d.batch.Set(e)
		d.dirty = true
	}
	return nil
}

// Rename moves the entry at from to to.
func (d *Database) Rename(from, to string) error {
	if !d.loaded {
		return ErrNotLoaded
	}
	if err := d.batch.Rename(from, to); err != nil {
		return err
	}
	d.dirty = true
	return nil
}

// Save rewrites the whole backing file.
func (d *Database) Save() error {
	if !d.loaded {
		return ErrNotLoaded
	}
	var sb strings.Builder
	for _, e := range d.batch.Entries() {
		y, err := e.ToYAML()
		if err != nil {
			return err
		}
		sb.WriteString(y)
	}
	if err := writeFileAtomic(d.path, []byte(sb.String())); err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	d.dirty = false
	return nil
}

// Create writes an empty backing file (and its directory) unless one exists.
// It reports whether a file was created.
func (d *Database) Create() (bool, error) {
	if d.Exists() {
		return false, nil
	}
	if err := os.MkdirAll(d.Root(), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(d.path, nil, 0o644); err != nil {
		return false, err
	}
	d.batch, d.loaded, d.dirty = entry.NewBatch(), true, false
	return true, nil
}

// LockPath is the file Lock holds, "<file>.lock".
func (d *Database) LockPath() string { return d.path + ".lock" }

// Lock takes the advisory lock on LockPath without blocking.
func (d *Database) Lock() error {
	if err := os.MkdirAll(d.Root(), 0o755); err != nil {
		return err
	}
	if d.lock == nil {
		d.lock = flock.New(d.LockPath())
	}
	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring database lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock taken by Lock.
func (d *Database) Unlock() error {
	if d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".bib-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
