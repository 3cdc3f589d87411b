package domain

// Account represents a registered user of the tool.
//
// The password is stored and compared in clear text. That is inherited
// behavior the rest of the system depends on; hashing it would change the
// authentication semantics observed by callers.
type Account struct {
	ID        int64  `db:"id"`         // Unique identifier, assigned by the store
	Username  string `db:"username"`   // Login username, unique
	Password  string `db:"password"`   // Clear-text password
	FirstName string `db:"first_name"` // Given name
	LastName  string `db:"last_name"`  // Family name
	IsVIP     bool   `db:"is_vip"`     // VIP tier flag, false at registration
}
