// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/nodezblockchain/nodez-go/internal/identity"
)

// Home redirects the site root to the content home.
func Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, identity.ContentHome, http.StatusSeeOther)
}
