package reflection

import "strings"

// CorrectionPolicy decides whether a user message is correcting
// previously stored information. Implementations are swappable; the
// lexical default is a heuristic with known false positives and
// negatives, not NLP.
type CorrectionPolicy interface {
	IsCorrection(message string) bool
}

// LexicalPolicy scans a message case-insensitively for indicator
// phrases. A matched indicator is suppressed when a negation token is
// directly concatenated in front of it, so "not actually" does not
// trigger while a bare "actually" does.
type LexicalPolicy struct {
	Indicators []string
	Negations  []string
}

// NewLexicalPolicy returns the default indicator and negation lists.
func NewLexicalPolicy() *LexicalPolicy {
	return &LexicalPolicy{
		Indicators: []string{
			"actually",
			"in fact",
			"the truth is",
			"correction:",
			"my mistake",
			"i was wrong",
			"that's not right",
			"that's incorrect",
			"no,",
		},
		Negations: []string{"not ", "isn't "},
	}
}

func (p *LexicalPolicy) IsCorrection(message string) bool {
	lower := strings.ToLower(message)

	for _, ind := range p.Indicators {
		if !strings.Contains(lower, ind) {
			continue
		}

		suppressed := false
		for _, neg := range p.Negations {
			if strings.Contains(lower, neg+ind) {
				suppressed = true
				break
			}
		}
		if !suppressed {
			return true
		}
	}
	return false
}
