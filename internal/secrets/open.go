package secrets

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/intmo/internal/auth"
	"github.com/desertthunder/intmo/internal/repositories"
	"github.com/desertthunder/intmo/internal/shared"
)

// DatabaseFileName is the sqlite backend's file inside the storage directory.
const DatabaseFileName = "intmo.db"

// Store is a closable [auth.SecretStore].
type Store interface {
	auth.SecretStore
	Close() error
}

var (
	_ Store = (*KeyringStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*repositories.SecretRepository)(nil)
)

// Open returns the backend selected by cfg.Storage.Backend.
//
// When the keyring is selected but unusable (headless Linux, containers) it falls back to the
// file backend and says so.
func Open(ctx context.Context, cfg *shared.Config, logger *log.Logger) (Store, string, error) {
	backend := cfg.Storage.Backend

	switch backend {
	case shared.BackendMemory:
		return NewMemoryStore(), backend, nil
	case shared.BackendKeyring:
		ks := NewKeyringStore(ServiceName)
		err := ks.Available()
		if err == nil {
			return ks, backend, nil
		}
		if logger != nil {
			dir, _ := cfg.StoragePath()
			logger.Warn("system keyring unavailable, storing credentials in plaintext",
				"path", filepath.Join(dir, CredentialsFileName), "error", err)
		}
		fallthrough
	case shared.BackendFile:
		dir, err := cfg.StoragePath()
		if err != nil {
			return nil, "", err
		}
		return NewFileStore(dir), shared.BackendFile, nil
	case shared.BackendSQLite:
		dir, err := cfg.StoragePath()
		if err != nil {
			return nil, "", err
		}
		repo, err := openSQLite(ctx, dir)
		if err != nil {
			return nil, "", err
		}
		return repo, backend, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown storage backend %q", shared.ErrInvalidConfig, backend)
	}
}

func openSQLite(ctx context.Context, dir string) (*repositories.SecretRepository, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(filepath.Join(dir, DatabaseFileName))
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, 4, 2)

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate credentials database: %w", err)
	}
	return repositories.NewSecretRepository(db), nil
}
