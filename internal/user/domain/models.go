// Package domain contains the user directory model.
package domain

import "time"

// User is an identity seen through a verified token. IDs are the token subject.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(191)" json:"id"`
	Username  string    `gorm:"type:varchar(191);not null;default:''" json:"username"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }
