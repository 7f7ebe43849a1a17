package identity

import "time"

// User represents a registered account holder. The ledger trusts the
// authenticated user identity completely; authorization happens here and in
// the auth package, never inside the ledger.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    time.Time
}

// Credentials is the login/registration request structure.
type Credentials struct {
	Email    string
	Password string
}
