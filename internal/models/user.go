package models

import "time"

// Identity is an opaque, stable reference to an authenticated user. It is
// only ever compared for equality and used as an owner key.
type Identity string

// IsZero reports whether no identity is present.
func (i Identity) IsZero() bool { return i == "" }

func (i Identity) String() string { return string(i) }

// User is an identity record (email + bcrypt password hash)
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
}

// Identity returns the user's identity reference.
func (u *User) Identity() Identity { return Identity(u.ID) }
