package arxiv

import (
	"context"
	"encoding/xml"
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

// maxResults begrenzt die Kandidatenmenge pro Titel-Suche.
const maxResults = 5

// Matcher kapselt die Titel-Suche gegen die arXiv-API und den Abgleich der
// Kandidaten gegen den gesuchten Titel.
type Matcher struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewMatcher erstellt eine neue Instanz des arXiv-Matchers.
func NewMatcher(cfg *config.Config, logger *zap.Logger) *Matcher {
	return &Matcher{Config: cfg, Logger: logger}
}

// Name gibt den Namen des Providers zurück.
func (m *Matcher) Name() string {
	return "arxiv"
}

// QueryByTitle fragt die arXiv-API mit einer exakten Titel-Phrase ab und gibt
// bis zu maxResults Kandidaten zurück. Die arXiv-ID ist das letzte Pfadsegment
// hinter "/abs/" in der kanonischen Entry-URL.
func (m *Matcher) QueryByTitle(ctx context.Context, title string) ([]Candidate, error) {
	log := m.Logger.With(zap.String("title", title))

	params := url.Values{}
	params.Set("search_query", `ti:"`+title+`"`)
	params.Set("max_results", strconv.Itoa(maxResults))
	queryURL := strings.TrimRight(m.Config.ArxivBaseURL, "/") + "?" + params.Encode()
	log.Debug("Rufe arXiv-Query-API auf", zap.String("url", queryURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Error("arXiv-Anfrage fehlgeschlagen", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("arXiv-API hat nicht-200-Status zurückgegeben", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("arxiv query failed: status %d", resp.StatusCode)
	}

	var feed atomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		log.Error("Fehler beim Parsen des Atom-Feeds", zap.Error(err))
		return nil, err
	}

	candidates := make([]Candidate, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		id := entry.ID
		if i := strings.LastIndex(id, "/abs/"); i >= 0 {
			id = id[i+len("/abs/"):]
		}
		candidates = append(candidates, Candidate{
			ID:    strings.TrimSpace(id),
			Title: strings.TrimSpace(entry.Title),
		})
	}
	log.Debug("arXiv-Kandidaten erhalten", zap.Int("count", len(candidates)))
	return candidates, nil
}

// FindMatch klassifiziert die Kandidaten für einen Submission-Titel:
// der erste exakte Treffer (nach Normalisierung) gewinnt sofort mit Score 1.0,
// ansonsten gewinnt der Kandidat mit dem höchsten Ähnlichkeits-Score. Bei
// Gleichstand bleibt der zuerst gesehene Kandidat, weil nur ein strikt
// größerer Score den bisherigen besten ersetzt.
func (m *Matcher) FindMatch(ctx context.Context, title string) (Match, error) {
	candidates, err := m.QueryByTitle(ctx, title)
	if err != nil {
		return Match{}, err
	}
	if len(candidates) == 0 {
		m.Logger.Debug("Keine arXiv-Kandidaten gefunden", zap.String("title", title))
		return Match{}, nil
	}

	normTitle := NormalizeTitle(title)
	var best Match
	for _, c := range candidates {
		if NormalizeTitle(c.Title) == normTitle {
			return Match{ArxivID: c.ID, Title: c.Title, Exact: true, Score: 1.0}, nil
		}
		if score := Similarity(title, c.Title); score > best.Score {
			best = Match{ArxivID: c.ID, Title: c.Title, Exact: false, Score: score}
		}
	}
	return best, nil
}
