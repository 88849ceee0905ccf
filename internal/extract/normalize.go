package extract

import (
	"fmt"
	"strings"
)

const (
	// NotFoundSentinel is the reply a model gives when a field is not in the transcript.
	NotFoundSentinel = "-1"

	// PluralSeparator separates items of a plural reply.
	PluralSeparator = ";"
)

// Normalize converts a raw model reply into a Value.
//
// The reply is trimmed and stripped of every double quote. The whole cleaned
// string is then compared against NotFoundSentinel; only after that check is
// it split on PluralSeparator. An empty reply is a valid empty scalar.
func Normalize(raw string) Value {
	cleaned := clean(raw)

	if cleaned == NotFoundSentinel {
		return Absent()
	}

	if strings.Contains(cleaned, PluralSeparator) {
		items, err := SplitPlural(cleaned)
		if err != nil {
			// Unreachable: the separator was just found.
			panic(err)
		}
		return List(items...)
	}

	return Scalar(cleaned)
}

// SplitPlural splits a plural reply on PluralSeparator and trims every
// segment. It returns ErrNotPlural if s has no separator.
func SplitPlural(s string) ([]string, error) {
	if !strings.Contains(s, PluralSeparator) {
		return nil, fmt.Errorf("%w: %q", ErrNotPlural, s)
	}

	parts := strings.Split(s, PluralSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, nil
}

func clean(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), `"`, "")
}
