package openreview

// Note ist ein roher Submission-Datensatz der OpenReview Notes-API. Der Content
// ist bewusst untypisiert, weil die Feldnamen und Wertformen je nach Venue und
// API-Version stark variieren.
type Note struct {
	ID         string         `json:"id"`
	Forum      string         `json:"forum"`
	Invitation string         `json:"invitation"`
	Content    map[string]any `json:"content"`
	Details    NoteDetails    `json:"details"`
}

// NoteDetails enthält die mit details=directReplies angeforderten Unterdatensätze.
type NoteDetails struct {
	DirectReplies []Reply `json:"directReplies"`
}

// Reply ist eine direkte Antwort auf eine Submission (Review, Decision, Meta-Review).
type Reply struct {
	ID         string         `json:"id"`
	Invitation string         `json:"invitation"`
	Content    map[string]any `json:"content"`
}

// notesResponse ist die Top-Level-Struktur der Notes-API-Antwort. Je nach
// API-Version liegt die Liste unter "notes" oder unter "items".
type notesResponse struct {
	Notes []Note `json:"notes"`
	Items []Note `json:"items"`
}

// SubmissionSummary ist die kanonische, schema-bereinigte Form einer Submission.
type SubmissionSummary struct {
	Forum      string
	Note       string
	Title      string
	Abstract   string
	Authors    string
	Keywords   []string
	Decision   string
	AvgRating  *float64
	NumReviews int
}
