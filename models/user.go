package models

import (
	"time"
)

// Role identifies what a user may do on the platform
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSubadmin Role = "subadmin"
	RolePlayer   Role = "player"
)

// UserStatus controls whether a user may transact
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// User represents a platform account with a wallet balance
type User struct {
	ID            int64      `db:"id"`
	Username      string     `db:"username"`
	PasswordHash  string     `db:"password_hash"`
	Role          Role       `db:"role"`
	Status        UserStatus `db:"status"`
	WalletBalance int64      `db:"wallet_balance"`
	SubadminID    *int64     `db:"subadmin_id"` // Managing subadmin for players
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// IsActive checks if the user may place bets and submit requests
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsManagedBy checks if the user is a player assigned to the given subadmin
func (u *User) IsManagedBy(subadminID int64) bool {
	return u.Role == RolePlayer && u.SubadminID != nil && *u.SubadminID == subadminID
}

// Actor is the already-authenticated caller of a core operation
type Actor struct {
	ID   int64
	Role Role
}

// IsAdmin checks if the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsSubadmin checks if the actor has the subadmin role
func (a Actor) IsSubadmin() bool {
	return a.Role == RoleSubadmin
}
