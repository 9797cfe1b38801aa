// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth resolves caller identity and generates record IDs.

# Caller Identity

Identity comes from trusted headers set by the fronting auth layer:

	id, err := auth.CallerIdentity(r)

X-User-ID is required; X-User-Role defaults to "member". Admin-only
endpoints use:

	id, err := auth.RequireAdmin(r)

which fails unless the role is "admin". This service never verifies
credentials itself - session handling lives in front of it.

# ID Generation

Random UUIDs for database records:

	id := auth.NewID()
*/
package auth
