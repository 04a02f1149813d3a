package lexer

import "time"

// iso8601Layouts enumerates the timestamp shapes spec.md §3.1 permits:
// seconds precision and optional fractional seconds, always UTC ('Z').
var iso8601Layouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999999Z",
}

// parseISO8601 validates a timestamp lexeme against the restricted ISO-8601
// shape this grammar accepts, rejecting anything time.Parse would otherwise
// silently widen (e.g. non-UTC offsets, date-only forms).
func parseISO8601(lexeme string) (time.Time, error) {
	var lastErr error
	for _, layout := range iso8601Layouts {
		if t, err := time.Parse(layout, lexeme); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
