package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"review-radar/config"
	"review-radar/models"
	"review-radar/providers"
	"review-radar/providers/openreview"
)

// IngestService orchestriert den gesamten Ingestion-Lauf pro Venue:
// Fetch -> Normalisierung -> Upsert in die DB -> arXiv-Abgleich mit Cache-Policy.
type IngestService struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *zap.Logger
	Source  providers.SubmissionSource
	Matcher providers.PreprintFinder
}

// NewIngestService erstellt eine neue Instanz des IngestService.
func NewIngestService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, source providers.SubmissionSource, matcher providers.PreprintFinder) *IngestService {
	return &IngestService{
		Config:  cfg,
		DB:      db,
		Logger:  logger,
		Source:  source,
		Matcher: matcher,
	}
}

// Ingest führt einen vollständigen, idempotenten Ingestion-Lauf für eine
// Venue-Gruppe aus und gibt die Anzahl der verarbeiteten Submissions zurück.
// Venue- und Paper-Schreibzugriffe laufen in einer Transaktion, der
// anschließende arXiv-Abgleich in einer zweiten; bricht eine Phase ab, bleibt
// von ihr nichts zurück.
func (s *IngestService) Ingest(ctx context.Context, groupID, name string, year *int, withMatching bool) (int, error) {
	log := s.Logger.With(zap.String("group_id", groupID))
	log.Info("Starte Ingestion für Venue-Gruppe.")

	summaries, err := s.Source.FetchGroup(ctx, groupID)
	if err != nil {
		log.Error("Abruf der Submissions fehlgeschlagen", zap.Error(err))
		return 0, err
	}

	var venue models.Venue
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		v, err := s.ensureVenue(tx, groupID, name, year)
		if err != nil {
			return err
		}
		venue = *v
		for _, summary := range summaries {
			if err := s.upsertPaper(tx, venue.ID, summary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Speichern der Submissions fehlgeschlagen", zap.Error(err))
		return 0, err
	}
	log.Info("Submissions gespeichert", zap.Int("count", len(summaries)))

	if withMatching {
		if err := s.matchVenue(ctx, venue.ID); err != nil {
			return 0, err
		}
	}
	return len(summaries), nil
}

// IngestAll stößt die Ingestion für alle bekannten Venues an (Cron-Job).
// Fehler einzelner Venues werden geloggt und überspringen nur diese Venue.
func (s *IngestService) IngestAll(ctx context.Context, withMatching bool) (int, error) {
	var venues []models.Venue
	if err := s.DB.Find(&venues).Error; err != nil {
		s.Logger.Error("Fehler beim Abrufen der Venues", zap.Error(err))
		return 0, err
	}

	total := 0
	for _, venue := range venues {
		count, err := s.Ingest(ctx, venue.GroupID, venue.Name, venue.Year, withMatching)
		if err != nil {
			s.Logger.Error("Ingestion für Venue fehlgeschlagen", zap.String("group_id", venue.GroupID), zap.Error(err))
			continue
		}
		total += count
	}
	return total, nil
}

// ensureVenue legt die Venue-Zeile atomar an, falls sie fehlt. Der Default-Name
// ist der Gruppen-Prefix bis zum ersten "/".
func (s *IngestService) ensureVenue(tx *gorm.DB, groupID, name string, year *int) (*models.Venue, error) {
	if name == "" {
		name = groupID
		if i := strings.Index(groupID, "/"); i > 0 {
			name = groupID[:i]
		}
	}
	venue := models.Venue{GroupID: groupID, Name: name, Year: year}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}},
		DoNothing: true,
	}).Create(&venue).Error
	if err != nil {
		return nil, err
	}
	if venue.ID == 0 {
		// Konfliktfall: Zeile existierte bereits, also nachladen.
		if err := tx.Where("group_id = ?", groupID).First(&venue).Error; err != nil {
			return nil, err
		}
	}
	return &venue, nil
}

// upsertPaper schreibt eine Submission atomar, geschlüsselt über (venue, forum):
// neue Foren werden eingefügt, bestehende komplett überschrieben und
// last_refreshed angehoben.
func (s *IngestService) upsertPaper(tx *gorm.DB, venueID uint, summary openreview.SubmissionSummary) error {
	paper := models.Paper{
		VenueID:       venueID,
		Forum:         summary.Forum,
		Note:          summary.Note,
		Title:         summary.Title,
		Abstract:      summary.Abstract,
		Authors:       summary.Authors,
		Keywords:      strings.Join(summary.Keywords, ", "),
		Decision:      summary.Decision,
		AvgRating:     summary.AvgRating,
		NumReviews:    summary.NumReviews,
		LastRefreshed: time.Now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "venue_id"}, {Name: "forum"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"note", "title", "abstract", "authors", "keywords",
			"decision", "avg_rating", "num_reviews", "last_refreshed", "updated_at",
		}),
	}).Create(&paper).Error
}

// matchVenue wendet die Match-Cache-Policy auf alle Papers der Venue an, nicht
// nur auf die gerade aktualisierten. Neue Matches werden erst am Ende der
// Transaktion committet; ein Fehler mitten in der Schleife verwirft alle
// Matches dieses Laufs.
func (s *IngestService) matchVenue(ctx context.Context, venueID uint) error {
	log := s.Logger.With(zap.Uint("venue_id", venueID))
	deadline := time.Now().UTC().Add(-s.Config.MatchTTL())

	newMatches := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var papers []models.Paper
		if err := tx.Where("venue_id = ?", venueID).Find(&papers).Error; err != nil {
			return err
		}

		for _, paper := range papers {
			var latest models.PreprintMatch
			err := tx.Where("paper_id = ?", paper.ID).Order("matched_at desc").First(&latest).Error
			if err == nil && latest.MatchedAt.After(deadline) {
				// Cache-Treffer: der letzte Match ist noch frisch genug.
				continue
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			match, err := s.Matcher.FindMatch(ctx, paper.Title)
			if err != nil {
				return err
			}
			if match.ArxivID == "" {
				// Negative Ergebnisse werden nicht gecacht: kein Insert, kein
				// Refresh von matched_at. Solche Papers werden nach Ablauf der
				// TTL bei jedem Lauf erneut angefragt.
				continue
			}

			title := match.Title
			if title == "" {
				title = paper.Title
			}
			row := models.PreprintMatch{
				PaperID:   paper.ID,
				ArxivID:   match.ArxivID,
				Title:     title,
				Exact:     match.Exact,
				Score:     match.Score,
				MatchedAt: time.Now().UTC(),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			newMatches++
		}
		return nil
	})
	if err != nil {
		log.Error("arXiv-Abgleich fehlgeschlagen", zap.Error(err))
		return err
	}
	log.Info("arXiv-Abgleich abgeschlossen", zap.Int("new_matches", newMatches))
	return nil
}

// BestMatch leitet den aktuell besten Match eines Papers ab: exakte Matches
// schlagen fuzzy Matches, darunter entscheidet der höhere Score.
func BestMatch(db *gorm.DB, paperID uint) (*models.PreprintMatch, error) {
	var match models.PreprintMatch
	err := db.Where("paper_id = ?", paperID).
		Order("exact desc").
		Order("score desc").
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}
