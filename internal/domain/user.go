package domain

import "time"

// User is the domain model for employees who file vouchers. The identifier
// is assigned by the external identity provider; the profile row is created
// lazily on first authenticated request and never hard-deleted.
type User struct {
	ID         string
	Email      string
	FirstName  *string
	LastName   *string
	Department Department
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
