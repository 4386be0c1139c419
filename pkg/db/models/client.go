package models

import (
	"time"

	"github.com/novatech/management-backend/pkg/enums"
)

// Client is a customer record.
type Client struct {
	ID         uint               `gorm:"column:id;primaryKey"`
	ClientName string             `gorm:"column:client_name;type:varchar(200);not null"`
	Email      string             `gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	Phone      *string            `gorm:"column:phone;type:varchar(50)"`
	Status     enums.ClientStatus `gorm:"column:status;type:varchar(20);not null"`
	DateAdded  time.Time          `gorm:"column:date_added;not null"`
}
