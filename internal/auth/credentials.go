// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/hyunwoo-dev/newsync/internal/config"
)

// ErrInvalidCredentials means the username or password did not match.
// Deliberately indistinguishable between the two cases.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// CredentialChecker verifies the configured admin credentials.
type CredentialChecker struct {
	username     string
	passwordHash []byte
}

// NewCredentialChecker creates a checker from security configuration.
// Returns nil when no admin account is configured; callers treat a nil
// checker as "login disabled".
func NewCredentialChecker(cfg *config.SecurityConfig) *CredentialChecker {
	if cfg.AdminUsername == "" {
		return nil
	}
	return &CredentialChecker{
		username:     cfg.AdminUsername,
		passwordHash: []byte(cfg.AdminPasswordHash),
	}
}

// Check verifies a username/password pair against the stored bcrypt hash.
func (c *CredentialChecker) Check(username, password string) error {
	// Constant-time username comparison; bcrypt handles the password.
	userOK := subtle.ConstantTimeCompare([]byte(c.username), []byte(username)) == 1
	err := bcrypt.CompareHashAndPassword(c.passwordHash, []byte(password))
	if !userOK || err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
