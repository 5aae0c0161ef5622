package gorod

import (
	"fmt"
	"strings"
)

// ResponseClassifier decides whether a submission response body means
// success. The portal answers 200 no matter what, so the body is the only
// authority; keeping the heuristic behind an interface lets it be swapped
// for a different locale without touching the session logic.
type ResponseClassifier interface {
	Classify(body string) (ok bool, reason string)
}

// KeywordClassifier fails a response if it contains any of the given
// substrings, compared case-insensitively.
type KeywordClassifier struct {
	Keywords []string
}

func (c KeywordClassifier) Classify(body string) (bool, string) {
	lowered := strings.ToLower(body)
	for _, keyword := range c.Keywords {
		if strings.Contains(lowered, strings.ToLower(keyword)) {
			return false, fmt.Sprintf("response contains failure indicator %q", keyword)
		}
	}
	return true, ""
}

// DefaultClassifier knows the error/retry keywords the portal renders in
// its current locale.
func DefaultClassifier() ResponseClassifier {
	return KeywordClassifier{
		Keywords: []string{
			"ошибка",
			"не удалось",
			"повторите попытку",
			"error",
		},
	}
}
