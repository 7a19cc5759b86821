// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/awnumar/memguard"
)

// ErrEmptyPool is returned when a credential is requested from a pool with no keys.
var ErrEmptyPool = errors.New("llm: key pool is empty")

// =============================================================================
// Credential
// =============================================================================

// Credential is one provider API key sealed in guarded memory.
//
// # Description
//
// The secret is moved into a memguard Enclave when the credential is created
// and the plaintext source is wiped. Reveal decrypts a short-lived copy for a
// single provider call.
//
// # Thread Safety
//
// Immutable after construction. Safe for concurrent use.
type Credential struct {
	provider string
	index    int
	enclave  *memguard.Enclave
}

// NewCredential seals secret for the given provider.
func NewCredential(provider string, index int, secret string) Credential {
	return Credential{
		provider: provider,
		index:    index,
		enclave:  memguard.NewEnclave([]byte(secret)),
	}
}

// Provider returns the provider tag the credential belongs to.
func (c Credential) Provider() string { return c.provider }

// Index returns the credential's position in its pool.
func (c Credential) Index() int { return c.index }

// Reveal opens the enclave and returns the plaintext secret.
//
// # Outputs
//
//   - string: The secret. Callers must not log or retain it.
//   - error: Non-nil if the enclave cannot be opened.
func (c Credential) Reveal() (string, error) {
	if c.enclave == nil {
		return "", fmt.Errorf("llm: credential %s[%d] has no secret", c.provider, c.index)
	}
	buf, err := c.enclave.Open()
	if err != nil {
		return "", fmt.Errorf("llm: open credential %s[%d]: %w", c.provider, c.index, err)
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// String never exposes the secret.
func (c Credential) String() string {
	return fmt.Sprintf("%s[%d]=[REDACTED]", c.provider, c.index)
}

// =============================================================================
// KeyPool
// =============================================================================

// KeyPool holds the ordered credentials of one provider plus a rotation cursor.
//
// # Description
//
// Next hands out the credential at the cursor and advances the cursor by one,
// wrapping modulo the pool size. The cursor lives for the process lifetime so
// a credential that failed on one request is tried again on a later cycle.
//
// # Thread Safety
//
// The cursor is an atomic counter with no surrounding lock. Concurrent callers
// interleave their advances, so strict round-robin order across requests is
// not guaranteed, but every credential stays reachable.
//
// # Limitations
//
//   - Credentials are fixed at construction; there is no reload.
type KeyPool struct {
	provider    string
	credentials []Credential
	cursor      atomic.Uint64
}

// NewKeyPool builds a pool from raw secrets. Blank entries are dropped.
func NewKeyPool(provider string, secrets []string) *KeyPool {
	p := &KeyPool{provider: provider}
	for _, s := range secrets {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p.credentials = append(p.credentials, NewCredential(provider, len(p.credentials), s))
	}
	return p
}

// LoadKeyPool reads the provider's keys from the environment.
//
// # Description
//
// listEnv holds a comma-separated list of keys. When it is unset or blank the
// single-key variable singleEnv is used instead. Neither set yields an empty
// pool, which callers treat as an unavailable provider tier.
//
// # Inputs
//
//   - provider: Tag stored on every credential (e.g. "gemini").
//   - listEnv: Name of the comma-separated list variable.
//   - singleEnv: Name of the single-key fallback variable.
//
// # Outputs
//
//   - *KeyPool: Never nil. May have Size() == 0.
func LoadKeyPool(provider, listEnv, singleEnv string) *KeyPool {
	raw := strings.TrimSpace(os.Getenv(listEnv))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv(singleEnv))
	}
	pool := NewKeyPool(provider, strings.Split(raw, ","))
	slog.Info("Loaded provider key pool",
		slog.String("provider", provider),
		slog.Int("keys", pool.Size()))
	return pool
}

// Provider returns the provider tag.
func (p *KeyPool) Provider() string { return p.provider }

// Size returns the number of credentials in the pool.
func (p *KeyPool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.credentials)
}

// Next returns the credential at the cursor and advances the cursor.
//
// # Outputs
//
//   - Credential: The drawn credential.
//   - error: ErrEmptyPool when the pool has no credentials.
func (p *KeyPool) Next() (Credential, error) {
	n := uint64(p.Size())
	if n == 0 {
		return Credential{}, ErrEmptyPool
	}
	idx := (p.cursor.Add(1) - 1) % n
	return p.credentials[idx], nil
}
