package arxiv

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle macht Titel vergleichbar: NFC-Normalisierung, Kleinschreibung,
// alle Zeichen außer Buchstaben, Ziffern und Whitespace werden entfernt und
// Whitespace-Läufe auf ein einzelnes Leerzeichen reduziert.
func NormalizeTitle(s string) string {
	s = strings.ToLower(norm.NFC.String(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity berechnet die Sequence-Matcher-Ratio der normalisierten Titel auf
// Zeichenebene, Wertebereich [0,1].
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runeSlice(NormalizeTitle(a)), runeSlice(NormalizeTitle(b))).Ratio()
}

func runeSlice(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
