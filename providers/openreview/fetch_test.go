package openreview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"review-radar/config"
)

func testFetcher(baseURL string) *Fetcher {
	return NewFetcher(&config.Config{OpenReviewBaseURL: baseURL}, zap.NewNop())
}

func writeNotes(w http.ResponseWriter, key string, notes []map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{key: notes})
}

func makeNotes(prefix string, n int) []map[string]any {
	notes := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		notes = append(notes, map[string]any{
			"id":      fmt.Sprintf("%s-%d", prefix, i),
			"forum":   fmt.Sprintf("%s-%d", prefix, i),
			"content": map[string]any{"title": fmt.Sprintf("Paper %d", i)},
		})
	}
	return notes
}

func TestFetchGroupPaginationFullPageThenEmpty(t *testing.T) {
	requests := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invitation := r.URL.Query().Get("invitation")
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		requests[invitation]++

		if strings.HasSuffix(invitation, "Blind_Submission") && offset == 0 {
			writeNotes(w, "notes", makeNotes("bs", pageSize))
			return
		}
		writeNotes(w, "notes", nil)
	}))
	defer srv.Close()

	summaries, err := testFetcher(srv.URL).FetchGroup(context.Background(), "V/2024/Conference")
	if err != nil {
		t.Fatalf("FetchGroup failed: %v", err)
	}
	if len(summaries) != pageSize {
		t.Errorf("expected %d summaries, got %d", pageSize, len(summaries))
	}
	// Volle Seite erzwingt genau eine Folgeanfrage, die leer zurückkommt.
	if got := requests["V/2024/Conference/-/Blind_Submission"]; got != 2 {
		t.Errorf("expected 2 requests for full-page invitation, got %d", got)
	}
}

func TestFetchGroupPaginationShortPageTerminates(t *testing.T) {
	requests := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invitation := r.URL.Query().Get("invitation")
		requests[invitation]++
		if strings.HasSuffix(invitation, "Blind_Submission") {
			writeNotes(w, "notes", makeNotes("bs", 3))
			return
		}
		writeNotes(w, "notes", nil)
	}))
	defer srv.Close()

	summaries, err := testFetcher(srv.URL).FetchGroup(context.Background(), "V/2024/Conference")
	if err != nil {
		t.Fatalf("FetchGroup failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Errorf("expected 3 summaries, got %d", len(summaries))
	}
	if got := requests["V/2024/Conference/-/Blind_Submission"]; got != 1 {
		t.Errorf("expected 1 request for short page, got %d", got)
	}
}

func TestFetchGroupDeduplicatesAcrossInvitationsLastWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invitation := r.URL.Query().Get("invitation")
		switch {
		case strings.HasSuffix(invitation, "Blind_Submission"):
			writeNotes(w, "notes", []map[string]any{{
				"id": "n1", "forum": "f1",
				"content": map[string]any{"title": "Old Title"},
			}})
		case strings.HasSuffix(invitation, "Submission"):
			writeNotes(w, "notes", []map[string]any{{
				"id": "n1", "forum": "f1",
				"content": map[string]any{"title": "New Title"},
			}})
		default:
			writeNotes(w, "notes", nil)
		}
	}))
	defer srv.Close()

	summaries, err := testFetcher(srv.URL).FetchGroup(context.Background(), "V/2024/Conference")
	if err != nil {
		t.Fatalf("FetchGroup failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 deduplicated summary, got %d", len(summaries))
	}
	if summaries[0].Title != "New Title" {
		t.Errorf("expected last-seen copy to win, got title %q", summaries[0].Title)
	}
}

func TestFetchGroupFallbackInvitations(t *testing.T) {
	requests := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests[r.URL.Query().Get("invitation")]++
		writeNotes(w, "notes", nil)
	}))
	defer srv.Close()

	summaries, err := testFetcher(srv.URL).FetchGroup(context.Background(), "V/2024/Conference")
	if err != nil {
		t.Fatalf("FetchGroup failed: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("expected no summaries, got %d", len(summaries))
	}
	// "Submission" wird einmal in der primären Liste und einmal im Fallback angefragt.
	if got := requests["V/2024/Conference/-/Submission"]; got != 2 {
		t.Errorf("expected 2 requests for fallback invitation, got %d", got)
	}
}

func TestFetchGroupItemsKeyVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Query().Get("invitation"), "Blind_Submission") {
			writeNotes(w, "items", makeNotes("it", 2))
			return
		}
		writeNotes(w, "notes", nil)
	}))
	defer srv.Close()

	summaries, err := testFetcher(srv.URL).FetchGroup(context.Background(), "V/2024/Conference")
	if err != nil {
		t.Fatalf("FetchGroup failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("expected 2 summaries from items key, got %d", len(summaries))
	}
}

func TestFetchGroupPropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testFetcher(srv.URL).FetchGroup(context.Background(), "V/2024/Conference")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestFetchGroupSendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		writeNotes(w, "notes", nil)
	}))
	defer srv.Close()

	fetcher := NewFetcher(&config.Config{
		OpenReviewBaseURL:  srv.URL,
		OpenReviewUsername: "user@example.org",
		OpenReviewPassword: "secret",
	}, zap.NewNop())

	if _, err := fetcher.FetchGroup(context.Background(), "V/2024/Conference"); err != nil {
		t.Fatalf("FetchGroup failed: %v", err)
	}
	if gotUser != "user@example.org" || gotPass != "secret" {
		t.Errorf("expected basic auth credentials, got %q/%q", gotUser, gotPass)
	}
}
