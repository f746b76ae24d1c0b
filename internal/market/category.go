package market

import (
	"regexp"
	"strings"

	"edgefinder/internal/domain"
)

var categoryKeywords = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryPolitics, []string{"election", "president", "congress", "senate", "trump", "biden", "republican", "democrat", "governor", "vote", "poll"}},
	{domain.CategorySports, []string{"nfl", "nba", "mlb", "nhl", "super bowl", "championship", "playoffs", "finals", "game", "match", "win", "score"}},
	{domain.CategoryCrypto, []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "solana", "token"}},
	{domain.CategoryEconomics, []string{"fed", "interest rate", "inflation", "gdp", "unemployment", "recession"}},
	{domain.CategoryEntertainment, []string{"movie", "oscar", "grammy", "emmy", "album", "netflix", "box office"}},
	{domain.CategoryScience, []string{"space", "nasa", "spacex", "climate", "vaccine", "fda"}},
}

type categoryMatcher struct {
	category domain.Category
	re       *regexp.Regexp
}

var categoryMatchers = func() []categoryMatcher {
	out := make([]categoryMatcher, 0, len(categoryKeywords))
	for _, ck := range categoryKeywords {
		quoted := make([]string, len(ck.keywords))
		for i, kw := range ck.keywords {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		out = append(out, categoryMatcher{
			category: ck.category,
			re:       regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}
	return out
}()

// Classify picks the category with the most distinct keyword hits in the
// question and description. Ties go to the category listed first; no hits
// gives other.
func Classify(question, description string) domain.Category {
	text := strings.ToLower(question + " " + description)

	best, bestHits := domain.CategoryOther, 0
	for _, m := range categoryMatchers {
		seen := make(map[string]struct{})
		for _, hit := range m.re.FindAllString(text, -1) {
			seen[hit] = struct{}{}
		}
		if len(seen) > bestHits {
			best, bestHits = m.category, len(seen)
		}
	}
	return best
}
