package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPreferences holds per-user settings. ShareCallerDetails controls
// whether tasks owned by this user expose the unmasked contact phone number
// to assignees; it defaults to false.
type UserPreferences struct {
	ShareCallerDetails bool `bson:"shareCallerDetails" json:"shareCallerDetails"`
}

type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	LastName           string             `bson:"lastName" json:"lastName"`
	Username           string             `bson:"username" json:"username"`
	Password           string             `bson:"password" json:"password,omitempty"`
	Email              string             `bson:"email" json:"email"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	VerificationCode   string             `bson:"verificationCode" json:"-"`
	VerificationExpiry time.Time          `bson:"verificationExpiry" json:"-"`
	Preferences        UserPreferences    `bson:"preferences" json:"preferences"`
}
