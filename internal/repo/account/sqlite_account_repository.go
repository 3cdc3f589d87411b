package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xlan/socialdesk/internal/domain"
	"github.com/xlan/socialdesk/internal/infra/logging"
	"github.com/xlan/socialdesk/internal/repo/store"
)

// SQLiteAccountRepository implements Repository on the shared SQLite store.
type SQLiteAccountRepository struct {
	store *store.Store
	log   logging.Logger
}

var _ Repository = (*SQLiteAccountRepository)(nil)

// SQLiteAccountRepositoryFactory creates a factory function that returns a new
// SQLiteAccountRepository bound to the given store.
// The factory function implements the RepositoryFactory type.
func SQLiteAccountRepositoryFactory(st *store.Store) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteAccountRepository(st), nil
	}
}

// NewSQLiteAccountRepository creates a new SQLiteAccountRepository using the
// given store's connection.
func NewSQLiteAccountRepository(st *store.Store) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{
		store: st,
		log:   logging.GetLogger("repo.account.sqlite_account_repository"),
	}
}

// GetByUsername implements Repository.GetByUsername using SQLite.
func (r *SQLiteAccountRepository) GetByUsername(
	ctx context.Context,
	username string,
) (*domain.Account, bool, error) {
	var acct domain.Account

	err := r.store.DB().GetContext(ctx, &acct,
		"SELECT id, username, password, first_name, last_name, is_vip FROM accounts WHERE username = ?",
		username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query account: %w", err)
	}

	return &acct, true, nil
}

// UsernameTaken implements Repository.UsernameTaken using SQLite.
func (r *SQLiteAccountRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int

	err := r.store.DB().GetContext(ctx, &count,
		"SELECT COUNT(1) FROM accounts WHERE username = ?",
		username,
	)
	if err != nil {
		return false, fmt.Errorf("query username: %w", err)
	}

	return count > 0, nil
}

// Create implements Repository.Create using SQLite.
func (r *SQLiteAccountRepository) Create(
	ctx context.Context,
	username, password, firstName, lastName string,
) (*domain.Account, error) {
	unlock := r.store.LockWrites()
	defer unlock()

	res, err := r.store.DB().ExecContext(ctx,
		"INSERT INTO accounts (username, password, first_name, last_name, is_vip) VALUES (?, ?, ?, ?, 0)",
		username,
		password,
		firstName,
		lastName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", classifyConflict(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.Account{
		ID:        id,
		Username:  username,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		IsVIP:     false,
	}, nil
}

// SetVIP implements Repository.SetVIP using SQLite.
func (r *SQLiteAccountRepository) SetVIP(ctx context.Context, username string) error {
	unlock := r.store.LockWrites()
	defer unlock()

	res, err := r.store.DB().ExecContext(ctx,
		"UPDATE accounts SET is_vip = 1 WHERE username = ?",
		username,
	)
	if err != nil {
		return fmt.Errorf("update vip: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Update implements Repository.Update using SQLite.
func (r *SQLiteAccountRepository) Update(
	ctx context.Context,
	currentUsername string,
	acct domain.Account,
) error {
	unlock := r.store.LockWrites()
	defer unlock()

	res, err := r.store.DB().ExecContext(ctx,
		"UPDATE accounts SET username = ?, password = ?, first_name = ?, last_name = ? WHERE username = ?",
		acct.Username,
		acct.Password,
		acct.FirstName,
		acct.LastName,
		currentUsername,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", classifyConflict(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// classifyConflict maps sqlite unique-constraint violations on the username
// column to ErrUsernameTaken so callers can distinguish conflicts from
// store-level faults.
func classifyConflict(err error) error {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			fallthrough
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return errors.Join(domain.ErrUsernameTaken, err)
		}
	}

	return err
}
