package models

import (
	"time"
)

// PreprintMatch ist ein einzelner arXiv-Abgleichsversuch für ein Paper.
// Die Tabelle ist append-only: jeder Versuch legt eine neue Zeile an, damit die
// Match-Historie erhalten bleibt. Der "beste" Match wird nicht gespeichert,
// sondern per (exact, score) abgeleitet.
type PreprintMatch struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PaperID uint   `json:"paper_id" gorm:"index;not null"`
	ArxivID string `json:"arxiv_id" gorm:"size:64;index;not null"`
	Title   string `json:"title" gorm:"size:1024"`

	Exact     bool      `json:"exact" gorm:"default:false"`
	Score     float64   `json:"score" gorm:"default:0"`
	MatchedAt time.Time `json:"matched_at" gorm:"index"`
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (PreprintMatch) TableName() string {
	return "preprint_matches"
}
