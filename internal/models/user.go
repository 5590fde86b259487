package models

import "time"

// User is an internal profile created lazily from an external identity.
type User struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"-"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url"`
	Bio         *string   `db:"bio" json:"bio,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Session is the identity asserted by the external provider for one request.
type Session struct {
	SubjectID   string `mapstructure:"sub"`
	Email       string `mapstructure:"email"`
	DisplayName string `mapstructure:"name"`
	AvatarURL   string `mapstructure:"picture"`
}
