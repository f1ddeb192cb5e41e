package providers

import (
	"context"

	"review-radar/providers/arxiv"
	"review-radar/providers/openreview"
)

// SubmissionSource ist das Interface, das eine Submission-Quelle (z.B. OpenReview)
// implementieren muss.
type SubmissionSource interface {
	// FetchGroup liefert alle normalisierten Submissions einer Venue-Gruppe.
	FetchGroup(ctx context.Context, groupID string) ([]openreview.SubmissionSummary, error)

	// Name gibt den eindeutigen Namen der Quelle zurück (z.B. "openreview").
	Name() string
}

// PreprintFinder gleicht einen Submission-Titel gegen einen Preprint-Index ab.
type PreprintFinder interface {
	// FindMatch liefert den besten Kandidaten; eine leere ArxivID heißt "kein Match".
	FindMatch(ctx context.Context, title string) (arxiv.Match, error)

	// Name gibt den eindeutigen Namen des Index zurück (z.B. "arxiv").
	Name() string
}
