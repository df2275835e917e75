package reflection

import "testing"

func TestLexicalPolicy(t *testing.T) {
	p := NewLexicalPolicy()

	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"plain correction", "Actually, it's a DSL, not a DNS button", true},
		{"correction prefix", "Correction: deploy uses blue-green now", true},
		{"my mistake", "My mistake, the meeting is at 3pm", true},
		{"in fact", "In fact, the limit is 100 requests", true},
		{"thats incorrect", "That's incorrect, we use Postgres", true},
		{"no comma", "No, the port is 8443", true},
		{"uppercase", "ACTUALLY the cache is write-through", true},
		{"no indicator", "The weather is nice today", false},
		{"negated indicator", "I did not say that", false},
		{"suppressed actually", "That's not actually true of the scheduler", false},
		{"suppressed isnt", "It isn't actually broken", false},
		{"one suppressed one live", "It isn't actually broken. No, wait, it is", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsCorrection(tt.message); got != tt.want {
				t.Errorf("IsCorrection(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestLexicalPolicyCustomLists(t *testing.T) {
	p := &LexicalPolicy{
		Indicators: []string{"wrong"},
		Negations:  []string{"never "},
	}

	if !p.IsCorrection("that is wrong") {
		t.Error("expected custom indicator to trigger")
	}
	if p.IsCorrection("I was never wrong") {
		t.Error("expected custom negation to suppress")
	}
	if p.IsCorrection("actually, fine") {
		t.Error("expected default indicators to be replaced")
	}
}
