package models

import "time"

// User holds sign-in credentials.
type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Email        string    `gorm:"size:256;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile carries the role of a user. A missing row means "viewer".
type Profile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Email     string    `gorm:"size:256" json:"email"`
	Role      string    `gorm:"size:16;default:viewer" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
