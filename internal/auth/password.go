// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth hashes account passwords. New accounts get argon2id hashes.
// Accounts imported from the earlier bcrypt-based user table keep signing in
// with their bcrypt hash until a successful sign-in replaces it.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// argon2id parameters for new hashes (OWASP second choice: m=19456, t=2, p=1).
const (
	argon2Time    = 2
	argon2Memory  = 19 * 1024 // 19 MB, fits on 256MB VMs
	argon2Threads = 1
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// Scheme names the algorithm a stored password hash was produced with.
type Scheme string

const (
	SchemeArgon2id Scheme = "argon2id"
	// SchemeBcrypt covers imported accounts ($2a$, $2b$ and $2y$ prefixes).
	SchemeBcrypt Scheme = "bcrypt"
)

var (
	ErrUnknownScheme = errors.New("unknown password hash scheme")
	ErrMalformedHash = errors.New("malformed password hash")
)

// Verdict is the outcome of a sign-in password check.
type Verdict struct {
	Match bool
	// Upgrade is set on a match when the stored hash should be replaced by
	// HashPassword: imported bcrypt hashes and argon2id hashes made with
	// older parameters.
	Upgrade bool
}

// HashPassword returns an encoded argon2id hash of password in the form
// $argon2id$v=19$m=19456,t=2,p=1$salt$key.
func HashPassword(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	h := argon2Hash{
		memory:  argon2Memory,
		time:    argon2Time,
		threads: argon2Threads,
		salt:    salt,
	}
	h.key = h.derive(password, argon2KeyLen)
	return h.String(), nil
}

// SchemeOf reports which algorithm produced encoded.
func SchemeOf(encoded string) (Scheme, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return SchemeArgon2id, nil
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return SchemeBcrypt, nil
	default:
		return "", ErrUnknownScheme
	}
}

// CheckPassword verifies password against a stored hash of either scheme.
// A wrong password is a Verdict with Match=false and no error; errors mean
// the stored hash itself is unusable.
func CheckPassword(password, encoded string) (Verdict, error) {
	scheme, err := SchemeOf(encoded)
	if err != nil {
		return Verdict{}, err
	}

	if scheme == SchemeBcrypt {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Verdict{}, nil
		}
		if err != nil {
			return Verdict{}, fmt.Errorf("%w: %w", ErrMalformedHash, err)
		}
		return Verdict{Match: true, Upgrade: true}, nil
	}

	h, err := parseArgon2(encoded)
	if err != nil {
		return Verdict{}, err
	}
	key := h.derive(password, uint32(len(h.key)))
	if subtle.ConstantTimeCompare(key, h.key) != 1 {
		return Verdict{}, nil
	}
	return Verdict{Match: true, Upgrade: !h.current()}, nil
}

type argon2Hash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2(encoded string) (argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != string(SchemeArgon2id) {
		return argon2Hash{}, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: version: %w", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return argon2Hash{}, fmt.Errorf("%w: argon2 version %d", ErrUnknownScheme, version)
	}

	var h argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: parameters: %w", ErrMalformedHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: salt: %w", ErrMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return argon2Hash{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return h, nil
}

func (h argon2Hash) derive(password string, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, keyLen)
}

// current reports whether h was made with today's parameters.
func (h argon2Hash) current() bool {
	return h.memory == argon2Memory && h.time == argon2Time && h.threads == argon2Threads &&
		len(h.key) == argon2KeyLen
}

func (h argon2Hash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}
