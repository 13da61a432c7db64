package user

import (
	"database/sql"
	"time"
)

// User represents the users table
type User struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	Email      string         `gorm:"uniqueIndex;not null"`
	Username   string         `gorm:"uniqueIndex;not null"`
	Phone      sql.NullString `gorm:"uniqueIndex"`
	Password   string         `gorm:"not null"`
	ProfilePic sql.NullString
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string {
	return "users"
}
