// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/connectx-campus/connectx/api"
	"github.com/connectx-campus/connectx/lib/sealed"
	"github.com/connectx-campus/connectx/lib/secret"
)

// Record is the persisted form of a session: the three keys.
type Record struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	User         *api.User `json:"user,omitempty"`
}

// Backend persists a Record. Load returns ErrNoSession when nothing is
// stored.
type Backend interface {
	Load() (*Record, error)
	Save(record *Record) error
	Clear() error
}

// FileBackend stores the record as JSON with mode 0600.
type FileBackend struct {
	Path string
}

func (b FileBackend) Load() (*Record, error) {
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", b.Path, err)
	}
	defer secret.Zero(data)
	return decodeRecord(data, b.Path)
}

func (b FileBackend) Save(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}
	defer secret.Zero(data)
	return writePrivate(b.Path, append(data, '\n'))
}

func (b FileBackend) Clear() error { return removeIfPresent(b.Path) }

// SealedBackend stores the record age-encrypted to Identity.
type SealedBackend struct {
	Path     string
	Identity *sealed.Identity
}

func (b SealedBackend) Load() (*Record, error) {
	ciphertext, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", b.Path, err)
	}
	plaintext, err := sealed.Open(ciphertext, b.Identity)
	if err != nil {
		return nil, fmt.Errorf("session: %s: %w", b.Path, err)
	}
	defer plaintext.Close()
	return decodeRecord(plaintext.Bytes(), b.Path)
}

func (b SealedBackend) Save(record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("session: encoding: %w", err)
	}
	defer secret.Zero(data)
	ciphertext, err := sealed.Seal(data, b.Identity.Recipient)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return writePrivate(b.Path, ciphertext)
}

func (b SealedBackend) Clear() error { return removeIfPresent(b.Path) }

// MemoryBackend keeps the record in process. The zero value is empty.
type MemoryBackend struct {
	mu     sync.Mutex
	record *Record
	saves  int
}

func (b *MemoryBackend) Load() (*Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.record == nil {
		return nil, ErrNoSession
	}
	copied := *b.record
	return &copied, nil
}

func (b *MemoryBackend) Save(record *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := *record
	b.record = &copied
	b.saves++
	return nil
}

func (b *MemoryBackend) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record = nil
	return nil
}

// Saves returns how many times Save has been called.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func decodeRecord(data []byte, path string) (*Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("session: parsing %s: %w", path, err)
	}
	if record.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &record, nil
}

func writePrivate(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("session: creating directory: %w", err)
	}
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, data, 0600); err != nil {
		return fmt.Errorf("session: writing %s: %w", temporary, err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("session: replacing %s: %w", path, err)
	}
	return nil
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: removing %s: %w", path, err)
	}
	return nil
}
