// Package session persists the signed-in identity. On the device the UI keeps
// the token in the platform secure store; the companion keeps its own copy so
// it can call user-scoped backend endpoints between launches.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"teleplay/internal/domain"
	"teleplay/internal/domain/ports"
	"teleplay/internal/remote"
)

const storageKey = "credentials"

type Store struct {
	kv ports.KeyValue
}

func NewStore(kv ports.KeyValue) *Store {
	return &Store{kv: kv}
}

func (s *Store) Save(ctx context.Context, creds remote.Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storageKey, raw); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (remote.Credentials, error) {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return remote.Credentials{}, err
	}
	if !ok {
		return remote.Credentials{}, domain.ErrNotFound
	}
	var creds remote.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return remote.Credentials{}, domain.ErrNotFound
	}
	if creds.UserID == "" {
		return remote.Credentials{}, domain.ErrNotFound
	}
	return creds, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, storageKey)
}
