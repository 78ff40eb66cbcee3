package model

import "time"

// User roles.  Customers may optionally authenticate so their
// reservations carry an owner; administrators review and reconcile
// reservations.  The role claim is verified server-side on every admin
// operation.
const (
    RoleCustomer = "CUSTOMER"
    RoleAdmin    = "ADMIN"
)

// User is an authenticated identity.  Authentication is optional for
// buyers: reservations placed without a token simply have no owner.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login email.
//  PasswordHash – bcrypt hash of the password.
//  Role         – CUSTOMER or ADMIN.
//  CreatedAt    – creation timestamp.
type User struct {
    ID           uint64    `json:"id"`    // users.id
    Email        string    `json:"email"` // users.email
    PasswordHash string    `json:"-"`     // users.password_hash (never serialized)
    Role         string    `json:"role"`  // users.role
    CreatedAt    time.Time `json:"created_at"` // users.created_at
}
