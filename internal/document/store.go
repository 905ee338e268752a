package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/acompanha/acompanha/internal/fifo"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/acompanha/acompanha/pkg/metrics"
)

// TempSuffix is appended to the canonical path to form the side file that is
// written in full and then renamed over the canonical file.
const TempSuffix = ".tmp"

// LockSuffix names the sidecar file whose advisory lock serializes every
// process that opens the same document.
const LockSuffix = ".lock"

// Mutator receives a private copy of the current document and edits it in
// place. Returning an error aborts the write.
type Mutator func(doc *Document) error

// Store owns the single JSON document file. Every read and every
// read-modify-write runs as one critical section of a FIFO queue, and every
// write replaces the file atomically, so no caller ever sees a partial file.
// Inside the queue the Store also holds an exclusive lock on the sidecar
// lock file, so a second Store on the same path (in this or another
// process, such as casectl next to the server) waits its turn.
//
// Store keeps no document in memory between operations.
type Store struct {
	path     string
	tmpPath  string
	lockPath string
	queue    fifo.Mutex

	// beforeRename runs after the temp file is durable and before it replaces
	// the canonical file. Tests use it to simulate a crash.
	beforeRename func() error
}

// Open returns a Store for path, creating the parent directory if needed.
// The file itself is created lazily by the first Read or Update.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("document store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageErr("mkdir", filepath.Dir(path), err)
	}
	return &Store{path: path, tmpPath: path + TempSuffix, lockPath: path + LockSuffix}, nil
}

// Path returns the canonical file path.
func (s *Store) Path() string { return s.path }

// Read returns a consistent snapshot of the document. On first run it
// creates the file with the empty document before returning it.
func (s *Store) Read() (*Document, error) {
	var doc *Document
	err := s.critical("read", func() error {
		var err error
		doc, err = s.load()
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Update loads the current document, applies fn and persists the result,
// all while holding the queue. Concurrent Updates are applied in the order
// they reached the queue. If fn fails nothing is written and its error is
// returned unchanged.
func (s *Store) Update(fn Mutator) (*Document, error) {
	var doc *Document
	err := s.critical("update", func() error {
		cur, err := s.load()
		if err != nil {
			return err
		}
		if err := fn(cur); err != nil {
			return err
		}
		cur.normalize()
		if err := s.write(cur); err != nil {
			return err
		}
		doc = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) critical(op string, fn func() error) error {
	start := time.Now()
	err := s.queue.Do(func() (err error) {
		unlock, lerr := s.lockSidecar()
		metrics.StoreLockWait.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if lerr != nil {
			return lerr
		}
		defer func() {
			if uerr := unlock(); uerr != nil && err == nil {
				err = storageErr("unlock", s.lockPath, uerr)
			}
		}()
		return fn()
	})
	status := "ok"
	if err != nil {
		status = "error"
		var se *StorageError
		if errors.As(err, &se) {
			status = "storage_error"
			logger.Errorf("document store %s failed: %v", op, err)
		}
	}
	metrics.StoreOperations.WithLabelValues(op, status).Inc()
	return err
}

// lockSidecar blocks until this handle owns the sidecar lock. The returned
// func releases it and closes the handle.
func (s *Store) lockSidecar() (func() error, error) {
	f, err := os.OpenFile(s.lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, storageErr("lock", s.lockPath, err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, storageErr("lock", s.lockPath, err)
	}
	return func() error {
		return errors.Join(unlockFile(f), f.Close())
	}, nil
}

// load parses the canonical file. Must be called with the queue held.
func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := Empty()
		if err := s.write(doc); err != nil {
			return nil, err
		}
		metrics.StoreInitializations.Inc()
		logger.Infof("document store initialized at %s", s.path)
		return doc, nil
	}
	if err != nil {
		return nil, storageErr("read", s.path, err)
	}
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, storageErr("parse", s.path, err)
	}
	doc.normalize()
	return doc, nil
}

// write serializes doc to the temp path, flushes it, and renames it over the
// canonical path. Must be called with the queue held.
func (s *Store) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return storageErr("encode", s.path, err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return storageErr("create", s.tmpPath, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return storageErr("write", s.tmpPath, errors.Join(err, os.Remove(s.tmpPath)))
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return storageErr("sync", s.tmpPath, errors.Join(err, os.Remove(s.tmpPath)))
	}
	if err := f.Close(); err != nil {
		return storageErr("close", s.tmpPath, errors.Join(err, os.Remove(s.tmpPath)))
	}
	if s.beforeRename != nil {
		if err := s.beforeRename(); err != nil {
			return storageErr("rename", s.path, fmt.Errorf("interrupted: %w", err))
		}
	}
	if err := os.Rename(s.tmpPath, s.path); err != nil {
		return storageErr("rename", s.path, errors.Join(err, os.Remove(s.tmpPath)))
	}
	_ = syncDir(filepath.Dir(s.path))
	metrics.StoreDocumentBytes.Set(float64(len(data)))
	logger.Debugf("document store wrote %d bytes to %s", len(data), s.path)
	return nil
}

func syncDir(path string) error {
	dir, err := os.Open(path)
	if err != nil {
		return err
	}
	defer dir.Close()
	return dir.Sync()
}
