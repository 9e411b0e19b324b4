// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session is the single source of truth for "am I authenticated,
// and as what role". The token and role are persisted in the local store
// so the session survives restarts; the token is sealed at rest.
package session

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/olegiv/storefront-go/internal/model"
	"github.com/olegiv/storefront-go/internal/store"
)

// Persisted keys. The role is stored in the clear; only the token is sealed.
const (
	keyToken = "session:token"
	keyRole  = "session:role"
)

// Store persists and retrieves the client session.
type Store struct {
	db      *sql.DB
	queries *store.Queries
	sealKey []byte
}

// New creates a session store. The secret must be at least 32 bytes; the
// first 32 bytes key the token sealer.
func New(db *sql.DB, secret string) (*Store, error) {
	if len(secret) < chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session secret must be at least %d bytes", chacha20poly1305.KeySize)
	}
	return &Store{
		db:      db,
		queries: store.New(db),
		sealKey: []byte(secret[:chacha20poly1305.KeySize]),
	}, nil
}

// Set persists the token and role in one transaction so no reader can
// observe a token without its role or vice versa.
func (s *Store) Set(ctx context.Context, token, role string) error {
	sealed, err := s.seal([]byte(token))
	if err != nil {
		return fmt.Errorf("sealing token: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	now := time.Now().UTC()
	if err := q.SetKVEntry(ctx, store.SetKVEntryParams{Key: keyToken, Value: sealed, StoredAt: now}); err != nil {
		return err
	}
	if err := q.SetKVEntry(ctx, store.SetKVEntryParams{Key: keyRole, Value: []byte(role), StoredAt: now}); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the current session. A missing or unreadable token
// normalizes to the logged-out session regardless of any stale role.
func (s *Store) Get(ctx context.Context) model.Session {
	entry, err := s.queries.GetKVEntry(ctx, keyToken)
	if err != nil {
		return model.Session{}
	}

	token, err := s.unseal(entry.Value)
	if err != nil || len(token) == 0 {
		return model.Session{}
	}

	var role string
	if roleEntry, err := s.queries.GetKVEntry(ctx, keyRole); err == nil {
		role = string(roleEntry.Value)
	}
	return model.Session{Token: string(token), Role: role}
}

// Clear removes both session fields. Called on logout and by the HTTP
// client whenever any authenticated call comes back 401.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	if err := q.DeleteKVEntry(ctx, keyToken); err != nil {
		return err
	}
	if err := q.DeleteKVEntry(ctx, keyRole); err != nil {
		return err
	}
	return tx.Commit()
}

// seal encrypts a token with XChaCha20-Poly1305, nonce prepended.
func (s *Store) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// unseal decrypts a sealed token. Any tampering or a key change makes
// the stored session unreadable, which reads as logged out.
func (s *Store) unseal(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed token too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
