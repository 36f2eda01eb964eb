// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles an account can hold.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Avatar references an image held by the external object store.
type Avatar struct {
	PublicID string `bson:"public_id" json:"public_id"`
	URL      string `bson:"url" json:"url"`
}

// User is an account that can sign in: an admin or a member.
//
// NOTE:
//   - DeletedAt != nil means the account is pending deletion. IsActive is
//     always false in that state. The record (and the tasks assigned to it)
//     stays in place until an admin restores it or the daily purge removes it.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // admin | member
	IsActive     bool               `bson:"is_active" json:"is_active"`
	Avatar       *Avatar            `bson:"avatar,omitempty" json:"avatar,omitempty"`
	DeletedAt    *time.Time         `bson:"deleted_at" json:"deleted_at"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PendingDeletion reports whether the account has been soft-deleted.
func (u User) PendingDeletion() bool {
	return u.DeletedAt != nil
}

// IsValidRole reports whether role is one of the known account roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}
