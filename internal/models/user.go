package models

import (
	"time"

	"github.com/google/uuid"
)

// Role decides which task operations a user may perform.
type Role string

const (
	RoleCreator   Role = "creator"
	RoleCompleter Role = "completer"
)

// ParseRole accepts the role names and the legacy numeric form values.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "creator", "Creator", "1":
		return RoleCreator, true
	case "completer", "Completer", "2":
		return RoleCompleter, true
	}
	return "", false
}

// TombstoneUserID identifies the placeholder user that takes over the tasks
// of deleted accounts.
var TombstoneUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// TombstoneUsername is the display name of the tombstone user.
const TombstoneUsername = "deleted user"

// DefaultProfileImage is the media path every new profile starts with.
const DefaultProfileImage = "default.png"

type User struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Role         Role      `db:"role"`
	PasswordHash string    `db:"password_hash"`
	DateJoined   time.Time `db:"date_joined"`
}

// IsTombstone reports whether u is the deleted-user placeholder.
func (u *User) IsTombstone() bool {
	return u.ID == TombstoneUserID
}

type Profile struct {
	ID     uuid.UUID `db:"id"`
	UserID uuid.UUID `db:"user_id"`
	Image  string    `db:"image"`
}
