// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/foodfellow/gatekeeper/internal/model"
)

// UserRepository persists login credentials.
type UserRepository interface {
	// Exists reports whether a credential is stored for username.
	Exists(ctx context.Context, username string) (bool, error)
	// Get loads the credential for username; errs.ErrNotFound if absent.
	Get(ctx context.Context, username string) (*model.Credential, error)
	// Insert stores a new credential; errs.ErrAlreadyExists on duplicate username.
	Insert(ctx context.Context, c *model.Credential) error
}
