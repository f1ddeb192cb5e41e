package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"review-radar/config"
)

func testMatcher(baseURL string) *Matcher {
	return NewMatcher(&config.Config{ArxivBaseURL: baseURL}, zap.NewNop())
}

func atomServer(t *testing.T, entries ...[2]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
		b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "<entry><id>http://arxiv.org/abs/%s</id><title>%s</title></entry>\n", e[0], e[1])
		}
		b.WriteString("</feed>\n")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(b.String()))
	}))
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Foo Bar", "foo bar"},
		{"foo   bar", "foo bar"},
		{"Attention Is All You Need!", "attention is all you need"},
		{"  Graphs: A Survey (2024)  ", "graphs a survey 2024"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Errorf("NormalizeTitle(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeTitleCollapsesCaseAndWhitespace(t *testing.T) {
	// Beide Varianten müssen nach Normalisierung als exakt gleich gelten.
	if NormalizeTitle("Foo Bar") != NormalizeTitle("foo   bar") {
		t.Error("expected case/whitespace variants to normalize equal")
	}
}

func TestSimilarityIdenticalTitles(t *testing.T) {
	if got := Similarity("Foo Bar", "foo   bar"); got != 1.0 {
		t.Errorf("expected similarity 1.0 for normalized-equal titles, got %.3f", got)
	}
}

func TestQueryByTitleExtractsIDFromAbsURL(t *testing.T) {
	srv := atomServer(t, [2]string{"2408.12345v1", "Some Paper"})
	defer srv.Close()

	candidates, err := testMatcher(srv.URL).QueryByTitle(context.Background(), "Some Paper")
	if err != nil {
		t.Fatalf("QueryByTitle failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ID != "2408.12345v1" {
		t.Errorf("expected id from /abs/ segment, got %q", candidates[0].ID)
	}
}

func TestFindMatchExactShortCircuits(t *testing.T) {
	srv := atomServer(t,
		[2]string{"1111.1111", "Foo Bar"},
		[2]string{"2222.2222", "foo   bar"},
	)
	defer srv.Close()

	match, err := testMatcher(srv.URL).FindMatch(context.Background(), "Foo Bar")
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if !match.Exact {
		t.Error("expected exact match")
	}
	if match.Score != 1.0 {
		t.Errorf("expected score 1.0, got %.3f", match.Score)
	}
	// Der erste exakte Treffer gewinnt; beide Kandidaten sind nach
	// Normalisierung exakt gleich zum gesuchten Titel.
	if match.ArxivID != "1111.1111" {
		t.Errorf("expected first exact candidate, got %q", match.ArxivID)
	}
}

func TestFindMatchFuzzyBest(t *testing.T) {
	srv := atomServer(t,
		[2]string{"1111.1111", "completely unrelated words here"},
		[2]string{"2222.2222", "deep learning for graphs revisited"},
	)
	defer srv.Close()

	match, err := testMatcher(srv.URL).FindMatch(context.Background(), "deep learning for graphs")
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if match.Exact {
		t.Error("expected fuzzy match, got exact")
	}
	if match.ArxivID != "2222.2222" {
		t.Errorf("expected best-scoring candidate, got %q", match.ArxivID)
	}
	if match.Score <= 0 || match.Score >= 1 {
		t.Errorf("expected score in (0,1), got %.3f", match.Score)
	}
}

func TestFindMatchTieKeepsEarliestCandidate(t *testing.T) {
	// Beide Kandidaten unterscheiden sich vom Zieltitel um genau ein Zeichen
	// an derselben Position und erreichen damit denselben Score.
	srv := atomServer(t,
		[2]string{"1111.1111", "alpha betx"},
		[2]string{"2222.2222", "alpha bety"},
	)
	defer srv.Close()

	match, err := testMatcher(srv.URL).FindMatch(context.Background(), "alpha beta")
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if match.ArxivID != "1111.1111" {
		t.Errorf("expected earliest candidate on tie, got %q", match.ArxivID)
	}
}

func TestFindMatchNoCandidates(t *testing.T) {
	srv := atomServer(t)
	defer srv.Close()

	match, err := testMatcher(srv.URL).FindMatch(context.Background(), "anything")
	if err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if match.ArxivID != "" || match.Exact || match.Score != 0 {
		t.Errorf("expected zero match, got %+v", match)
	}
}

func TestFindMatchPropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testMatcher(srv.URL).FindMatch(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestFindMatchSendsExactPhraseQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	}))
	defer srv.Close()

	if _, err := testMatcher(srv.URL).FindMatch(context.Background(), "Foo Bar"); err != nil {
		t.Fatalf("FindMatch failed: %v", err)
	}
	if gotQuery != `ti:"Foo Bar"` {
		t.Errorf("expected exact-phrase title query, got %q", gotQuery)
	}
}
