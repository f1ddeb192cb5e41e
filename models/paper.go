package models

import (
	"time"
)

// Paper repräsentiert eine Submission inklusive denormalisierter Review-Daten.
// Die Felder werden bei jeder Ingestion komplett neu berechnet und überschrieben;
// pro (venue, forum) existiert genau eine Zeile.
type Paper struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	VenueID uint   `json:"venue_id" gorm:"index:idx_papers_venue_forum,unique;not null"`
	Forum   string `json:"forum" gorm:"index:idx_papers_venue_forum,unique;size:128;not null"`
	Note    string `json:"note" gorm:"size:128;index"`

	Title    string `json:"title" gorm:"size:1024;index"`
	Abstract string `json:"abstract,omitempty" gorm:"type:text"`
	Authors  string `json:"authors,omitempty" gorm:"type:text"`  // mit "; " verbunden
	Keywords string `json:"keywords,omitempty" gorm:"type:text"` // kommagetrennt

	Decision   string   `json:"decision,omitempty" gorm:"size:255;index"`
	AvgRating  *float64 `json:"avg_rating,omitempty" gorm:"index"`
	NumReviews int      `json:"num_reviews" gorm:"default:0"`

	LastRefreshed time.Time `json:"last_refreshed"`

	Matches []PreprintMatch `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Paper) TableName() string {
	return "papers"
}
