// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"database/sql"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/nodezblockchain/nodez-go/internal/session"
)

// newTestSessionManager builds a session manager over a migrated test
// database.
func newTestSessionManager(t *testing.T, db *sql.DB) *scs.SessionManager {
	t.Helper()
	return session.New(db, true)
}
