package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ServiceName scopes every keyring entry written by intmo.
const ServiceName = "intmo"

const probeKey = "intmo::probe"

// KeyringStore keeps secrets in the system keychain, one entry per key.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a [KeyringStore] for service; empty means [ServiceName].
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = ServiceName
	}
	return &KeyringStore{service: service}
}

// Available reports whether the keychain accepts writes.
func (s *KeyringStore) Available() error {
	if err := keyring.Set(s.service, probeKey, "probe"); err != nil {
		return err
	}
	_ = keyring.Delete(s.service, probeKey)
	return nil
}

func (s *KeyringStore) Get(_ context.Context, key string) (string, bool, error) {
	value, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s from keyring: %w", key, err)
	}
	return value, true, nil
}

func (s *KeyringStore) Set(_ context.Context, key, value string) error {
	if err := keyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("writing %s to keyring: %w", key, err)
	}
	return nil
}

func (s *KeyringStore) Delete(_ context.Context, key string) error {
	err := keyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting %s from keyring: %w", key, err)
	}
	return nil
}

func (s *KeyringStore) Close() error { return nil }
