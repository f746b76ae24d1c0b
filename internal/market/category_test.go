package market

import (
	"testing"

	"edgefinder/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		question    string
		description string
		want        domain.Category
	}{
		{"Will Bitcoin reach $100,000 by March 2025?", "Resolves YES if BTC reaches $100k", domain.CategoryCrypto},
		{"Will the Fed cut rates in January 2025?", "Resolves based on FOMC decision", domain.CategoryEconomics},
		{"Who will win Super Bowl LIX?", "NFL Championship Game", domain.CategorySports},
		{"Will Trump be inaugurated on January 20, 2025?", "", domain.CategoryPolitics},
		{"Will it rain in Paris tomorrow?", "", domain.CategoryOther},
		// one politics hit and one sports hit: the earlier category wins
		{"Will the president attend the game?", "", domain.CategoryPolitics},
	}
	for _, tt := range tests {
		if got := Classify(tt.question, tt.description); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.question, got, tt.want)
		}
	}
}

func TestClassify_MatchesWholeWords(t *testing.T) {
	// "federal" must not count as "fed", nor "winter" as "win".
	if got := Classify("Will federal spending rise this winter?", ""); got != domain.CategoryOther {
		t.Errorf("got %s, want other", got)
	}
}

func TestClassify_CountsDistinctKeywords(t *testing.T) {
	// Repeating one sports keyword does not beat two distinct crypto keywords.
	got := Classify("Will the game, the game, the game move bitcoin and eth?", "")
	if got != domain.CategoryCrypto {
		t.Errorf("got %s, want crypto", got)
	}
}
