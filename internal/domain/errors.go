package domain

import "errors"

var (
	// ErrValidation is returned when a required field is empty or a numeric
	// field holds an out-of-range value. No store access happens in that case.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned when the username/password combination
	// is incorrect. Unknown username and wrong password are deliberately not
	// distinguished.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned when registering or renaming to a username
	// that already exists.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrAccountNotFound is returned when looking up a non-existent account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPostNotFound is returned when looking up a non-existent post.
	ErrPostNotFound = errors.New("post not found")

	// ErrPostExists is returned when inserting a post whose explicit id is
	// already present, as bulk import may attempt.
	ErrPostExists = errors.New("post already exists")

	// ErrFolderNotFound is returned when an export/import folder path does not
	// name an existing directory.
	ErrFolderNotFound = errors.New("folder does not exist")

	// ErrFileExists is returned when an export target file already exists.
	// Exports never overwrite.
	ErrFileExists = errors.New("file already exists")

	// ErrFileNotFound is returned when an import source file does not exist.
	ErrFileNotFound = errors.New("file does not exist")

	// ErrVIPRequired is returned by the session gate when a non-VIP account
	// invokes a VIP-only feature. This is a normal outcome, not a fault.
	ErrVIPRequired = errors.New("vip membership required")
)
