package openalex

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

// OpenAlex-Konzept "Natural language processing"
const nlpConceptID = "https://openalex.org/C41008148"

var httpClient = &http.Client{Timeout: 15 * time.Second}

// Client kapselt die zustandslose Proceedings-Suche gegen die OpenAlex Works-API.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
}

// NewClient erstellt einen neuen OpenAlex-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{Config: cfg, Logger: logger}
}

// Query beschreibt eine Proceedings-Suche.
type Query struct {
	Search    string `json:"search"`
	VenueType string `json:"venue_type"` // "conference", "journal" oder "any"
	YearFrom  int    `json:"year_from"`
	YearTo    int    `json:"year_to"`
	Sort      string `json:"sort"` // "relevance", "year" oder "citations"
	PerPage   int    `json:"per_page"`
	Page      int    `json:"page"`
}

// Result ist ein einzelner Proceedings-Treffer.
type Result struct {
	OpenAlexID string `json:"openalex_id"`
	Title      string `json:"title"`
	Authors    string `json:"authors"`
	Venue      string `json:"venue"`
	VenueType  string `json:"venue_type"`
	Year       int    `json:"year,omitempty"`
	DOI        string `json:"doi,omitempty"`
	URL        string `json:"url,omitempty"`
	Citations  int    `json:"citations"`
}

// SearchResponse bündelt Treffer und Paginierungs-Metadaten.
type SearchResponse struct {
	Results []Result `json:"results"`
	Count   int      `json:"count"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"per_page"`
}

// worksResponse bildet die für uns relevanten Teile der Works-API-Antwort ab.
type worksResponse struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Results []struct {
		ID              string `json:"id"`
		DisplayName     string `json:"display_name"`
		Title           string `json:"title"`
		PublicationYear int    `json:"publication_year"`
		DOI             string `json:"doi"`
		CitedByCount    int    `json:"cited_by_count"`
		Authorships     []struct {
			RawAuthorName string `json:"raw_author_name"`
			Author        struct {
				DisplayName string `json:"display_name"`
			} `json:"author"`
		} `json:"authorships"`
		PrimaryLocation struct {
			Type           string `json:"type"`
			LandingPageURL string `json:"landing_page_url"`
			Source         struct {
				DisplayName string `json:"display_name"`
				Publisher   string `json:"publisher"`
				Type        string `json:"type"`
			} `json:"source"`
		} `json:"primary_location"`
		OpenAccess struct {
			OAURL string `json:"oa_url"`
		} `json:"open_access"`
	} `json:"results"`
}

var sortParams = map[string]string{
	"relevance": "relevance_score:desc",
	"year":      "publication_year:desc",
	"citations": "cited_by_count:desc",
}

// SearchProceedings führt eine Read-Through-Suche ohne lokale Persistenz aus.
func (c *Client) SearchProceedings(ctx context.Context, q Query) (*SearchResponse, error) {
	log := c.Logger.With(zap.String("search", q.Search))

	filters := []string{"concepts.id:" + nlpConceptID}
	if q.VenueType == "conference" || q.VenueType == "journal" {
		filters = append(filters, "primary_location.source.type:"+q.VenueType)
	}
	if q.YearFrom > 0 {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", q.YearFrom))
	}
	if q.YearTo > 0 {
		filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", q.YearTo))
	}

	sortParam, ok := sortParams[q.Sort]
	if !ok {
		sortParam = sortParams["relevance"]
	}
	search := q.Search
	if search == "" {
		search = "natural language processing"
	}
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("search", search)
	params.Set("filter", strings.Join(filters, ","))
	params.Set("per-page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sort", sortParam)

	worksURL := strings.TrimRight(c.Config.OpenAlexBaseURL, "/") + "/works?" + params.Encode()
	log.Debug("Rufe OpenAlex Works-API auf", zap.String("url", worksURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, worksURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Error("OpenAlex-Anfrage fehlgeschlagen", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("OpenAlex-API hat nicht-200-Status zurückgegeben", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("openalex search failed: status %d", resp.StatusCode)
	}

	var works worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&works); err != nil {
		log.Error("Fehler beim Parsen der OpenAlex-JSON-Antwort", zap.Error(err))
		return nil, err
	}

	results := make([]Result, 0, len(works.Results))
	for _, item := range works.Results {
		title := item.DisplayName
		if title == "" {
			title = item.Title
		}
		if title == "" {
			title = "(untitled)"
		}

		var names []string
		for _, auth := range item.Authorships {
			name := auth.Author.DisplayName
			if name == "" {
				name = auth.RawAuthorName
			}
			if name != "" {
				names = append(names, name)
			}
		}
		authors := strings.Join(truncate(names, 8), "; ")
		if len(names) > 8 {
			authors += " et al."
		}

		venueType := item.PrimaryLocation.Source.Type
		if venueType == "" {
			venueType = item.PrimaryLocation.Type
		}
		if venueType == "" {
			venueType = "unknown"
		}
		venue := item.PrimaryLocation.Source.DisplayName
		if venue == "" {
			venue = item.PrimaryLocation.Source.Publisher
		}
		resultURL := item.PrimaryLocation.LandingPageURL
		if resultURL == "" {
			resultURL = item.OpenAccess.OAURL
		}
		if resultURL == "" {
			resultURL = item.ID
		}

		results = append(results, Result{
			OpenAlexID: item.ID,
			Title:      title,
			Authors:    authors,
			Venue:      venue,
			VenueType:  venueType,
			Year:       item.PublicationYear,
			DOI:        item.DOI,
			URL:        resultURL,
			Citations:  item.CitedByCount,
		})
	}

	log.Info("Proceedings-Suche abgeschlossen", zap.Int("results", len(results)), zap.Int("total", works.Meta.Count))
	return &SearchResponse{
		Results: results,
		Count:   len(results),
		Total:   works.Meta.Count,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func truncate(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
