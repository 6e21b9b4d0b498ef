// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts small files at rest with age X25519 keys. The
// session store uses it to keep bearer tokens unreadable to anything
// that lacks the local identity file.
package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/connectx-campus/connectx/lib/secret"
)

// Identity is an age X25519 private key and its public recipient.
type Identity struct {
	private   *secret.Buffer
	Recipient string
}

// Close zeroes the private key.
func (i *Identity) Close() error { return i.private.Close() }

// GenerateIdentity creates a new random identity.
func GenerateIdentity() (*Identity, error) {
	generated, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("sealed: generating identity: %w", err)
	}
	private, err := secret.NewFromString(generated.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	return &Identity{private: private, Recipient: generated.Recipient().String()}, nil
}

// LoadOrCreateIdentity reads the identity at path, creating one with
// mode 0600 (directory 0700) if the file does not exist.
func LoadOrCreateIdentity(path string) (*Identity, error) {
	buffer, err := secret.ReadFile(path)
	if err == nil {
		defer buffer.Close()
		return parseIdentity(buffer.Bytes())
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("sealed: reading identity: %w", err)
	}

	identity, err := GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		identity.Close()
		return nil, fmt.Errorf("sealed: creating identity directory: %w", err)
	}
	contents := "# public key: " + identity.Recipient + "\n" + identity.private.String() + "\n"
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		identity.Close()
		return nil, fmt.Errorf("sealed: writing identity: %w", err)
	}
	return identity, nil
}

func parseIdentity(data []byte) (*Identity, error) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parsed, err := age.ParseX25519Identity(line)
		if err != nil {
			return nil, fmt.Errorf("sealed: parsing identity: %w", err)
		}
		private, err := secret.NewFromString(line)
		if err != nil {
			return nil, fmt.Errorf("sealed: %w", err)
		}
		return &Identity{private: private, Recipient: parsed.Recipient().String()}, nil
	}
	return nil, errors.New("sealed: identity file has no key")
}

// Seal encrypts plaintext to the given recipient and returns
// ASCII-armored ciphertext.
func Seal(plaintext []byte, recipient string) ([]byte, error) {
	parsed, err := age.ParseX25519Recipient(recipient)
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing recipient: %w", err)
	}
	var output bytes.Buffer
	armored := armor.NewWriter(&output)
	writer, err := age.Encrypt(armored, parsed)
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: encrypting: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing: %w", err)
	}
	if err := armored.Close(); err != nil {
		return nil, fmt.Errorf("sealed: closing armor: %w", err)
	}
	return output.Bytes(), nil
}

// Open decrypts armored ciphertext produced by Seal. The plaintext is
// returned in a secret.Buffer; the caller closes it.
func Open(ciphertext []byte, identity *Identity) (*secret.Buffer, error) {
	parsed, err := age.ParseX25519Identity(identity.private.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: %w", err)
	}
	reader, err := age.Decrypt(armor.NewReader(bytes.NewReader(ciphertext)), parsed)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	buffer, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: %w", err)
	}
	return buffer, nil
}
