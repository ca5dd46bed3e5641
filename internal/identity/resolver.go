// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nodezblockchain/nodez-go/internal/remote"
)

// Resolver computes a Session from an access token. The allow-list is
// injected at construction and never changes at runtime; updating it means
// redeploying, not a data migration.
type Resolver struct {
	identity  remote.Identity
	allowlist map[string]struct{}
	logger    *slog.Logger
}

// NewResolver creates a Resolver over the given identity client.
func NewResolver(identity remote.Identity, allowlist []string, logger *slog.Logger) *Resolver {
	set := make(map[string]struct{}, len(allowlist))
	for _, email := range allowlist {
		set[email] = struct{}{}
	}
	return &Resolver{identity: identity, allowlist: set, logger: logger}
}

// Resolve determines the session for an access token. It always returns a
// resolved session: "nobody signed in" is a normal viewer result, and an
// unreachable identity service degrades to viewer rather than leaving the
// caller parked on unknown forever.
func (r *Resolver) Resolve(ctx context.Context, accessToken string) Session {
	user, err := r.identity.CurrentUser(ctx, accessToken)
	if err != nil {
		if errors.Is(err, remote.ErrUnavailable) {
			r.logger.Warn("identity service unreachable, degrading to viewer", "category", "auth")
		} else {
			r.logger.Warn("identity resolution failed, degrading to viewer", "category", "auth", "error", err)
		}
		return Session{Privilege: PrivilegeViewer}
	}

	if user.Email == "" {
		return Session{Privilege: PrivilegeViewer}
	}

	// Exact, case-sensitive membership.
	if _, ok := r.allowlist[user.Email]; ok {
		return Session{Email: user.Email, Privilege: PrivilegeAdmin}
	}
	return Session{Email: user.Email, Privilege: PrivilegeViewer}
}
