package models

import "time"

// AuthSession is a login session bound to a browser fingerprint.
type AuthSession struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	UserID       uint      `gorm:"not null;index"`
	Fingerprint  string    `gorm:"not null"`
	RefreshToken string    `gorm:"not null;uniqueIndex"`
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AuthSession) TableName() string {
	return "auth_sessions"
}
