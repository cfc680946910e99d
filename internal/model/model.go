// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Credential is a stored login identity. Created once at activation and
// never mutated by this subsystem (password change is a separate concern).
type Credential struct {
	Username     string // unique key, doubles as the notification address
	PasswordHash string // hex SHA-256 of password||salt
	PasswordSalt string // uppercase A-Z salt string
	CreatedAt    time.Time
}

// IPRecord is one appended login-attempt record for an origin address.
// Records are never updated, only inserted and bulk-deleted during pruning.
type IPRecord struct {
	ID         string // ULID, sortable storage key
	Address    string
	IsFailure  bool
	RecordedAt time.Time
}

// Review is the minimum review shape the removal workflow needs: identity,
// attribution, and content. Ratings and search live outside this service.
type Review struct {
	ID        uuid.UUID
	Author    string
	Body      string
	CreatedAt time.Time
}

// Session carries the access token issued after a successful login.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
}
