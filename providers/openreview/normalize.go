package openreview

import (
	"fmt"
	"strconv"
	"strings"
)

// Bekannte Varianten des Keyword-Feldnamens, in Prioritätsreihenfolge.
var keywordKeys = []string{"keywords", "Keywords", "key_areas", "Key Areas", "Key Area(s)"}

// Summarize wandelt eine rohe Note samt ihrer direkten Replies in eine
// SubmissionSummary um. Die Funktion ist rein und tolerant gegenüber den
// diversen Schema-Varianten der Venues (Groß-/Kleinschreibung, {value: ...}-
// Wrapper, Listen- vs. String-Felder).
func Summarize(note Note) SubmissionSummary {
	content := note.Content

	title := asString(firstValue(content, "title", "Title"))
	abstract := asString(firstValue(content, "abstract", "Abstract"))
	authors := authorsString(firstValue(content, "authors", "Authors"))
	keywords := extractKeywords(content)

	var decision string
	var ratings []float64
	for _, reply := range note.Details.DirectReplies {
		if isDecisionReply(reply) {
			if dv := asString(firstValue(reply.Content, "decision", "Decision", "recommendation")); dv != "" {
				decision = dv
			}
		}
		for key, val := range reply.Content {
			if strings.Contains(strings.ToLower(key), "rating") {
				if r, ok := ParseRating(val); ok {
					ratings = append(ratings, r)
				}
			}
		}
	}

	var avg *float64
	if len(ratings) > 0 {
		sum := 0.0
		for _, r := range ratings {
			sum += r
		}
		mean := sum / float64(len(ratings))
		avg = &mean
	}

	forum := note.Forum
	if forum == "" {
		forum = note.ID
	}

	return SubmissionSummary{
		Forum:      forum,
		Note:       note.ID,
		Title:      title,
		Abstract:   abstract,
		Authors:    authors,
		Keywords:   keywords,
		Decision:   decision,
		AvgRating:  avg,
		NumReviews: len(ratings),
	}
}

// isDecisionReply erkennt Decision-Replies entweder am Invitation-String oder
// an einem Content-Key, der case-insensitiv "decision" heißt.
func isDecisionReply(reply Reply) bool {
	if strings.Contains(reply.Invitation, "Decision") {
		return true
	}
	for key := range reply.Content {
		if strings.EqualFold(key, "decision") {
			return true
		}
	}
	return false
}

// extractKeywords prüft die bekannten Key-Varianten in Reihenfolge.
// Listen werden elementweise stringifiziert und getrimmt; Strings werden an
// Kommas und Semikolons zerlegt, leere Tokens fliegen raus.
func extractKeywords(content map[string]any) []string {
	for _, key := range keywordKeys {
		value, ok := content[key]
		if !ok {
			continue
		}
		if m, isMap := value.(map[string]any); isMap {
			if inner, hasValue := m["value"]; hasValue {
				value = inner
			}
		}
		switch v := value.(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, strings.TrimSpace(asString(item)))
			}
			return out
		case string:
			var out []string
			for _, token := range strings.Split(strings.ReplaceAll(v, ";", ","), ",") {
				if trimmed := strings.TrimSpace(token); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			return out
		}
	}
	return nil
}

// ParseRating liest den führenden numerischen Token aus der String-Form eines
// Rating-Wertes (z.B. "7: Good paper" -> 7). Ziffern und höchstens ein
// Dezimalpunkt werden gesammelt; nach der ersten gesammelten Stelle beendet
// das erste nicht-numerische Zeichen den Scan. Unparsebare Werte werden
// stillschweigend verworfen.
func ParseRating(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	}

	s := asString(value)
	var buf strings.Builder
scan:
	for _, ch := range s {
		switch {
		case ch >= '0' && ch <= '9':
			buf.WriteRune(ch)
		case ch == '.' && !strings.Contains(buf.String(), "."):
			buf.WriteRune(ch)
		default:
			if buf.Len() > 0 {
				break scan
			}
		}
	}
	if buf.Len() == 0 {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(buf.String(), 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// firstValue liefert den ersten vorhandenen Wert der angegebenen Keys.
func firstValue(content map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := content[key]; ok && v != nil {
			if s, isString := v.(string); isString && s == "" {
				continue
			}
			return v
		}
	}
	return nil
}

// authorsString akzeptiert das Autorenfeld als Liste oder Freitext.
// Listen werden mit "; " verbunden.
func authorsString(value any) string {
	if m, isMap := value.(map[string]any); isMap {
		if inner, ok := m["value"]; ok {
			value = inner
		}
	}
	switch v := value.(type) {
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, asString(item))
		}
		return strings.Join(parts, "; ")
	case string:
		return v
	}
	return ""
}

// asString packt {value: ...}-Wrapper aus und stringifiziert Skalare.
func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if inner, ok := v["value"]; ok {
			return asString(inner)
		}
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
