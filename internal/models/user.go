package models

import "time"

// User is the site owner account. Password users have a bcrypt hash;
// users mapped from an external identity provider only have claims.
type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Sub          string    `bson:"sub" json:"sub"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name" json:"name"`
	PasswordHash string    `bson:"passwordHash,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
