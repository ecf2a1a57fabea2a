package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

const (
	// CredentialsFileName is the file written by [FileStore].
	CredentialsFileName = "credentials.json"

	lockFileName = ".credentials.lock"
)

// LockTimeout bounds the wait for another intmo process to release the credentials file.
const LockTimeout = 2 * time.Second

// ErrLockTimeout is returned when the credentials file stays locked past [LockTimeout].
var ErrLockTimeout = errors.New("timed out waiting for credentials file lock")

// FileStore keeps all secrets in one JSON object on disk.
//
// Every operation holds an exclusive lock on a sibling lock file, and writes go through a temp
// file renamed over the existing one, so concurrent processes never see a torn file.
type FileStore struct {
	dir string
}

// NewFileStore creates a [FileStore] rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the full path to the credentials file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, CredentialsFileName)
}

func (s *FileStore) lockPath() string {
	return filepath.Join(s.dir, lockFileName)
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.withLock(ctx, func() error {
		all, err := s.load()
		if err != nil {
			return err
		}
		value, ok = all[key]
		return nil
	})
	return value, ok, err
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.withLock(ctx, func() error {
		all, err := s.load()
		if err != nil {
			return err
		}
		all[key] = value
		return s.save(all)
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.withLock(ctx, func() error {
		all, err := s.load()
		if err != nil {
			return err
		}
		if _, ok := all[key]; !ok {
			return nil
		}
		delete(all, key)
		return s.save(all)
	})
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	if err := ensureDir(s.dir); err != nil {
		return err
	}

	fl := flock.New(s.lockPath())

	lctx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lctx, 10*time.Millisecond)
	if err != nil {
		if errors.Is(lctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrLockTimeout
		}
		return fmt.Errorf("locking credentials file: %w", err)
	}
	if !locked {
		return ErrLockTimeout
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

// load reads the file; the caller must hold the lock.
func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	all := make(map[string]string)
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", s.Path(), err)
	}
	return all, nil
}

// save writes the file atomically; the caller must hold the lock.
func (s *FileStore) save(all map[string]string) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.dir, "credentials-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp credentials file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	// Windows refuses to rename over an existing file.
	destPath := s.Path()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}
	return nil
}
