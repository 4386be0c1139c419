package models

import "time"

// User is an identity that can sign in.
type User struct {
	ID               uint      `gorm:"column:id;primaryKey"`
	Email            string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	PasswordHash     string    `gorm:"column:password_hash;not null"`
	FirstName        *string   `gorm:"column:first_name;type:varchar(100)"`
	LastName         *string   `gorm:"column:last_name;type:varchar(100)"`
	RegistrationDate time.Time `gorm:"column:registration_date;not null"`
}

// Role is a named permission group.
type Role struct {
	ID   uint   `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;type:varchar(50);not null;uniqueIndex"`
}

// UserRole links a user to a role. The pair is the primary key.
type UserRole struct {
	UserID uint `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoleID uint `gorm:"column:role_id;primaryKey;autoIncrement:false"`
}
