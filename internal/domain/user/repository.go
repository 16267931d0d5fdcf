package user

import "context"

// Directory resolves identities. User/account management is owned elsewhere;
// attendance only reads.
type Directory interface {
	// ResolveBadge maps an external badge code to a user. Returns nil when
	// the code is unknown; unregistered badges are expected noise, not an
	// error.
	ResolveBadge(ctx context.Context, employeeCode string) (*User, error)

	GetByID(ctx context.Context, id string) (User, error)
}
