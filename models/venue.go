package models

import (
	"time"
)

// Venue repräsentiert eine getrackte Konferenz bzw. einen Review-Zyklus auf OpenReview.
type Venue struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GroupID string `json:"group_id" gorm:"uniqueIndex;size:255;not null"` // z.B. "ICLR.cc/2024/Conference"
	Name    string `json:"name" gorm:"size:255;index"`
	Year    *int   `json:"year,omitempty" gorm:"index"`

	Papers []Paper `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Venue) TableName() string {
	return "venues"
}
