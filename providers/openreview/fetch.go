package openreview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"review-radar/config"
)

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Invitation-Suffixe in Prioritätsreihenfolge. Die Fallback-Liste wird nur
// benutzt, wenn die primäre Liste insgesamt keine Notes liefert.
var (
	defaultInvitations  = []string{"Blind_Submission", "Submission"}
	fallbackInvitations = []string{"Submission"}
)

const pageSize = 200

// Fetcher kapselt die Logik zur Interaktion mit der OpenReview Notes-API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewFetcher erstellt eine neue Instanz des OpenReview-Fetchers.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "openreview"
}

// FetchGroup holt alle Submissions einer Venue-Gruppe über alle bekannten
// Invitation-Kategorien und gibt sie dedupliziert und normalisiert zurück.
func (f *Fetcher) FetchGroup(ctx context.Context, groupID string) ([]SubmissionSummary, error) {
	log := f.Logger.With(zap.String("group_id", groupID))
	log.Info("Starte Abruf der Submissions von OpenReview.")

	var notes []Note
	for _, invite := range defaultInvitations {
		page, err := f.fetchNotes(ctx, groupID+"/-/"+invite)
		if err != nil {
			return nil, err
		}
		notes = append(notes, page...)
	}
	if len(notes) == 0 {
		for _, invite := range fallbackInvitations {
			page, err := f.fetchNotes(ctx, groupID+"/-/"+invite)
			if err != nil {
				return nil, err
			}
			notes = append(notes, page...)
		}
	}
	if len(notes) == 0 {
		log.Warn("Keine Submissions für die Gruppe gefunden.")
		return nil, nil
	}

	// Duplikate über Invitations hinweg anhand der Note-ID entfernen.
	// Die zuletzt gesehene Kopie gewinnt, die Reihenfolge des ersten Auftretens bleibt stabil.
	seen := make(map[string]Note, len(notes))
	var order []string
	for _, n := range notes {
		if _, ok := seen[n.ID]; !ok {
			order = append(order, n.ID)
		}
		seen[n.ID] = n
	}

	summaries := make([]SubmissionSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, Summarize(seen[id]))
	}
	log.Info("Abruf abgeschlossen", zap.Int("unique_submissions", len(summaries)))
	return summaries, nil
}

// fetchNotes holt alle Seiten einer Invitation. Die Pagination endet, sobald
// eine Seite leer ist oder weniger als pageSize Einträge liefert.
func (f *Fetcher) fetchNotes(ctx context.Context, invitation string) ([]Note, error) {
	log := f.Logger.With(zap.String("invitation", invitation))
	base := strings.TrimRight(f.Config.OpenReviewBaseURL, "/")

	var collected []Note
	for offset := 0; ; {
		params := url.Values{}
		params.Set("invitation", invitation)
		params.Set("details", "directReplies")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))
		notesURL := base + "/notes?" + params.Encode()
		log.Debug("Rufe Notes-Seite ab", zap.Int("offset", offset))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, notesURL, nil)
		if err != nil {
			return nil, err
		}
		if f.Config.OpenReviewUsername != "" && f.Config.OpenReviewPassword != "" {
			req.SetBasicAuth(f.Config.OpenReviewUsername, f.Config.OpenReviewPassword)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			log.Error("Notes-Anfrage fehlgeschlagen", zap.Error(err))
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			log.Error("Notes-API hat nicht-200-Status zurückgegeben", zap.Int("status", resp.StatusCode))
			return nil, fmt.Errorf("notes fetch failed: status %d", resp.StatusCode)
		}

		var nr notesResponse
		err = json.NewDecoder(resp.Body).Decode(&nr)
		resp.Body.Close()
		if err != nil {
			log.Error("Fehler beim Parsen der Notes-JSON-Antwort", zap.Error(err))
			return nil, err
		}

		page := nr.Notes
		if len(page) == 0 {
			page = nr.Items
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		offset += len(page)

		// Eine volle letzte Seite wird hier nicht erkannt; in dem Fall liefert
		// die Folgeanfrage eine leere Seite und beendet die Schleife.
		if len(page) < pageSize {
			break
		}
	}
	log.Debug("Invitation vollständig abgerufen", zap.Int("count", len(collected)))
	return collected, nil
}
