package arxiv

import "encoding/xml"

// atomFeed bildet die Atom-Antwort der arXiv-Query-API ab. Wir brauchen nur
// id und title der Einträge.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID    string `xml:"id"`
	Title string `xml:"title"`
}

// Candidate ist ein Suchtreffer der arXiv-API.
type Candidate struct {
	ID    string
	Title string
}

// Match ist das Ergebnis eines Titel-Abgleichs. Eine leere ArxivID bedeutet
// "kein Match gefunden" (Exact false, Score 0).
type Match struct {
	ArxivID string
	Title   string
	Exact   bool
	Score   float64
}
