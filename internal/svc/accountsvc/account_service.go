package accountsvc

import (
	"context"
	"fmt"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/repo/account"
)

// AccountService provides authentication, registration and profile management.
//
// Passwords are stored and compared in clear text. This mirrors the behavior
// the rest of the tool was built against; do not hash here without changing
// the authentication contract everywhere.
type AccountService struct {
	Repo account.Repository
	Log  logging.Logger
}

// NewAccountService creates a new AccountService with the given account
// repository factory.
// Returns an error if the repository cannot be created.
func NewAccountService(repoFactory account.RepositoryFactory) (*AccountService, error) {
	repo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new account repo: %w", err)
	}

	return &AccountService{
		Repo: repo,
		Log:  logging.GetLogger("svc.accountsvc.account_service"),
	}, nil
}

// Authenticate looks up the account by username and compares the stored
// password for exact equality. Unknown username and wrong password both
// surface as ErrInvalidCredentials; callers cannot enumerate usernames
// through this path.
func (s *AccountService) Authenticate(
	ctx context.Context,
	username, password string,
) (_ *domain.Account, err error) {
	log := s.Log.With(logging.Group("account", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "authenticate failed", "error", err)
		} else {
			log.DebugContext(ctx, "authenticated")
		}
	}()

	acct, ok, err := s.Repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	if !ok || acct.Password != password {
		return nil, domain.ErrInvalidCredentials
	}

	return acct, nil
}

// Register creates a new account with the VIP flag disabled.
// All four fields must be non-empty (ErrValidation) and the username must not
// already exist (ErrUsernameTaken).
func (s *AccountService) Register(
	ctx context.Context,
	username, password, firstName, lastName string,
) (_ *domain.Account, err error) {
	log := s.Log.With(logging.Group("account", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "register failed", "error", err)
		} else {
			log.DebugContext(ctx, "account registered")
		}
	}()

	if username == "" || password == "" || firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrValidation)
	}

	taken, err := s.Repo.UsernameTaken(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}

	if taken {
		return nil, domain.ErrUsernameTaken
	}

	acct, err := s.Repo.Create(ctx, username, password, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	return acct, nil
}

// UpgradeVIP marks the account as VIP. The operation is idempotent: upgrading
// an account that is already VIP still reports success.
// Returns ErrAccountNotFound for an unknown username.
func (s *AccountService) UpgradeVIP(ctx context.Context, username string) (err error) {
	log := s.Log.With(logging.Group("account", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "vip upgrade failed", "error", err)
		} else {
			log.InfoContext(ctx, "account upgraded to vip")
		}
	}()

	if err := s.Repo.SetVIP(ctx, username); err != nil {
		return fmt.Errorf("set vip: %w", err)
	}

	return nil
}

// EditProfile updates the editable fields of the account identified by
// currentUsername. A field submitted empty keeps its current value; an
// all-empty submission is rejected with ErrValidation before any store
// access. Renaming to an already-taken username yields ErrUsernameTaken.
// Returns the merged account as stored.
func (s *AccountService) EditProfile(
	ctx context.Context,
	currentUsername, newUsername, newPassword, newFirstName, newLastName string,
) (_ *domain.Account, err error) {
	log := s.Log.With(logging.Group("account", "username", currentUsername))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "edit profile failed", "error", err)
		} else {
			log.DebugContext(ctx, "profile edited")
		}
	}()

	if newUsername == "" && newPassword == "" && newFirstName == "" && newLastName == "" {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrValidation)
	}

	acct, ok, err := s.Repo.GetByUsername(ctx, currentUsername)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	if newUsername != "" && newUsername != currentUsername {
		taken, err := s.Repo.UsernameTaken(ctx, newUsername)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}

		if taken {
			return nil, domain.ErrUsernameTaken
		}
	}

	merged := *acct
	if newUsername != "" {
		merged.Username = newUsername
	}

	if newPassword != "" {
		merged.Password = newPassword
	}

	if newFirstName != "" {
		merged.FirstName = newFirstName
	}

	if newLastName != "" {
		merged.LastName = newLastName
	}

	if err := s.Repo.Update(ctx, currentUsername, merged); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	return &merged, nil
}
