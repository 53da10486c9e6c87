package model

import "time"

// User mirrors the `users` table. The password hash never leaves the
// repository/service boundary; handlers work with the projection types
// below.
//
// Fields:
//
//	ID          – primary key identifier of the user.
//	Login       – unique login name (user_login).
//	Email       – unique email address (user_email).
//	PassHash    – bcrypt hashed password (user_pass).
//	DisplayName – optional display name; nil when unset.
//	CreatedAt   – timestamp of creation.
//	UpdatedAt   – timestamp of last update.
type User struct {
	ID          uint64
	Login       string
	Email       string
	PassHash    string
	DisplayName *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublicView returns the projection of a user that is safe to hand to
// clients: everything except the password hash.
func (u User) PublicView() UserPublicView {
	return UserPublicView{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// UserPublicView is the safe projection of a user returned from signup,
// login and listing endpoints.
type UserPublicView struct {
	ID          uint64    `json:"id"`
	Login       string    `json:"userLogin"`
	Email       string    `json:"userEmail"`
	DisplayName *string   `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserView is the full projection returned by the user detail endpoint.
// Meta and Roles are only populated when the caller asked for them.
type UserView struct {
	UserPublicView
	Meta  []UserMeta `json:"meta,omitempty"`
	Roles []Role     `json:"roles,omitempty"`
}

// UserMeta is a key/value pair scoped to one user. MetaValue is stored as
// an opaque string; non-string values are JSON text and are decoded on
// read. At most one row exists per (UserID, MetaKey), enforced by a
// unique key.
type UserMeta struct {
	ID        uint64 `json:"id"`
	UserID    uint64 `json:"userId"`
	MetaKey   string `json:"metaKey"`
	MetaValue string `json:"metaValue"`
}

// Role is a named capability set. Capabilities maps capability name to a
// flag; any truthy value grants the capability.
type Role struct {
	ID           uint64         `json:"id"`
	Name         string         `json:"name"`
	Capabilities map[string]any `json:"capabilities"`
}

// UserToken models a row in the `user_tokens` table. The raw opaque token
// is stored; revocation deletes matching rows and a background sweeper
// purges expired ones.
type UserToken struct {
	ID        uint64    `json:"-"`
	UserID    uint64    `json:"-"`
	Token     string    `json:"token"`
	Type      string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"-"`
}

// UserPage is one page of the user listing along with the total number of
// matching rows.
type UserPage struct {
	Items   []UserPublicView `json:"items"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"perPage"`
}
