package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/gofrs/flock"

	"github.com/stageside/stageside/pkg/domain"
)

// ErrLocked is returned when another writer holds the archive lock until ctx is done
var ErrLocked = errors.New("archive is locked by another writer")

const lockRetryDelay = 100 * time.Millisecond

// Store reads and writes the archive JSON file. Writers are serialized with a lock file
// next to the archive, the file itself is replaced atomically via temp file and rename.
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore makes a store for the archive at path
func NewStore(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// Path returns location of the archive file
func (s *Store) Path() string { return s.path }

// Load reads the archive. Missing or empty file is an empty archive.
func (s *Store) Load() (domain.Archive, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Archive{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Archive{}, nil
	}
	var res domain.Archive
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse archive %s: %w", s.path, err)
	}
	return res, nil
}

// Save replaces the archive file with the given records
func (s *Store) Save(ctx context.Context, a domain.Archive) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	return s.write(ctx, a)
}

// Update loads the archive, applies fn and saves the result, all under the writer lock.
// Nothing is written if fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(domain.Archive) (domain.Archive, error)) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.Load()
	if err != nil {
		return err
	}
	updated, err := fn(current)
	if err != nil {
		return err
	}
	return s.write(ctx, updated)
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			lgr.Printf("[WARN] failed to release archive lock: %v", err)
		}
	}, nil
}

// write marshals the archive and swaps the file in, retrying transient filesystem errors
func (s *Store) write(ctx context.Context, a domain.Archive) error {
	if a == nil {
		a = domain.Archive{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("marshal archive: %w", err)
	}

	retrier := repeater.NewBackoff(3, 50*time.Millisecond, repeater.WithMaxDelay(time.Second))
	return retrier.Do(ctx, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		tmpName := tmp.Name()
		if _, err := tmp.Write(buf.Bytes()); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			_ = os.Remove(tmpName)
			return fmt.Errorf("close temp file: %w", err)
		}
		if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // archive is served as a public site asset
			_ = os.Remove(tmpName)
			return fmt.Errorf("chmod temp file: %w", err)
		}
		if err := os.Rename(tmpName, s.path); err != nil {
			_ = os.Remove(tmpName)
			return fmt.Errorf("replace archive: %w", err)
		}
		return nil
	})
}
