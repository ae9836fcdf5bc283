package address

import (
	"time"
)

// Address represents the ceremony venue. Coordinates come from the external
// geocoding lookup and are stored as given.
type Address struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StreetAddress string    `gorm:"size:255;not null" json:"street_address"`
	City          string    `gorm:"size:255;not null" json:"city"`
	State         *string   `gorm:"size:255" json:"state,omitempty"`
	PostalCode    *string   `gorm:"size:20" json:"postal_code,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
