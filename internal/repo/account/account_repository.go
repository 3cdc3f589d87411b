package account

import (
	"context"

	"github.com/xlan/socialdesk/internal/domain"
)

// Repository defines the interface for account persistence.
type Repository interface {
	// GetByUsername retrieves an account by its username.
	// Returns the account and true if found, or nil and false if not found.
	// Returns an error if the operation fails.
	GetByUsername(ctx context.Context, username string) (*domain.Account, bool, error)

	// UsernameTaken reports whether an account with the given username exists.
	UsernameTaken(ctx context.Context, username string) (bool, error)

	// Create inserts a new account with VIP disabled and returns the stored
	// row with its assigned id.
	// Returns ErrUsernameTaken if the username already exists.
	Create(ctx context.Context, username, password, firstName, lastName string) (*domain.Account, error)

	// SetVIP marks the account with the given username as VIP.
	// Returns ErrAccountNotFound if no such account exists. Re-invoking on an
	// account that is already VIP succeeds.
	SetVIP(ctx context.Context, username string) error

	// Update overwrites every editable field of the account identified by
	// currentUsername. Field merging happens in the service layer; the
	// repository writes exactly what it is given.
	// Returns ErrAccountNotFound if no such account exists and
	// ErrUsernameTaken if the new username collides with another account.
	Update(ctx context.Context, currentUsername string, acct domain.Account) error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
