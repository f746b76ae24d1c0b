package detector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
)

const months = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)`

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:by|before|on|in|until|through)\s+(?:the\s+)?end\s+of\s+(?:q[1-4]\s+)?\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:by|before|on|in|until|through)\s+q[1-4]\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:by|before|on|in|until|through)\s+` + months + `\.?(?:\s+\d{1,2}(?:st|nd|rd|th)?)?,?(?:\s+\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:by|before|in|until|through)\s+\d{4}\b`),
}

var spaceRun = regexp.MustCompile(`\s+`)

// ladderKey strips the date phrase from a question so that "X by March?" and
// "X by June?" group together. The boolean is false when no date phrase matched.
func ladderKey(question string) (string, bool) {
	key := strings.ToLower(question)
	matched := false
	for _, p := range datePatterns {
		if p.MatchString(key) {
			matched = true
			key = p.ReplaceAllString(key, " ")
		}
	}
	if !matched {
		return "", false
	}
	key = strings.Trim(spaceRun.ReplaceAllString(key, " "), " ?.")
	return key, true
}

// Temporal flags inconsistencies between resolution dates and prices: an
// earlier deadline priced above a later deadline for the same event, or a
// near coin-flip price on a market about to resolve.
type Temporal struct {
	cfg config.TemporalConfig
}

func NewTemporal(cfg config.TemporalConfig) *Temporal {
	return &Temporal{cfg: cfg}
}

func (t *Temporal) Name() string          { return "temporal" }
func (t *Temporal) Type() domain.EdgeType { return domain.EdgeTemporal }
func (t *Temporal) Enabled() bool         { return t.cfg.Enabled }

func (t *Temporal) Detect(_ context.Context, markets []domain.Market) ([]domain.EdgeOpportunity, error) {
	ladder := t.ladderInversions(markets)

	var opps []domain.EdgeOpportunity
	for _, m := range markets {
		if opp, ok := ladder[m.ID]; ok {
			opps = append(opps, opp)
			continue
		}
		if opp, ok := t.nearResolution(m); ok {
			opps = append(opps, opp)
		}
	}

	slog.Info("temporal detection complete", "markets_evaluated", len(markets), "ladder_inversions", len(ladder), "opportunities", len(opps))
	return opps, nil
}

// ladderInversions groups dated binary markets by their date-stripped
// question. P(event by an earlier date) can never exceed P(event by a later
// date), so an earlier market priced above a later one is flagged.
func (t *Temporal) ladderInversions(markets []domain.Market) map[string]domain.EdgeOpportunity {
	groups := make(map[string][]domain.Market)
	for _, m := range markets {
		if m.ResolutionDate == nil || m.IsMultiOutcome() {
			continue
		}
		key, ok := ladderKey(m.Question)
		if !ok {
			continue
		}
		groups[key] = append(groups[key], m)
	}

	found := make(map[string]domain.EdgeOpportunity)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ResolutionDate.Before(*group[j].ResolutionDate)
		})

		for i := 0; i < len(group); i++ {
			earlier := group[i]
			if _, done := found[earlier.ID]; done {
				continue
			}
			for j := i + 1; j < len(group); j++ {
				later := group[j]
				if !later.ResolutionDate.After(*earlier.ResolutionDate) {
					continue
				}
				gap := earlier.YesPrice - later.YesPrice
				if gap <= t.cfg.LadderGap {
					continue
				}
				found[earlier.ID] = domain.EdgeOpportunity{
					MarketID:       earlier.ID,
					MarketQuestion: earlier.Question,
					Description: fmt.Sprintf("Earlier deadline priced %.1f pts above later deadline",
						gap*100),
					Confidence:     confidence(t.cfg.LadderConfidence),
					ExpectedReturn: gap * 100,
					RiskLevel:      domain.RiskLow,
					SuggestedAction: fmt.Sprintf("Buy NO here at %.2f and YES on %q at %.2f",
						1-earlier.YesPrice, later.Question, later.YesPrice),
					Reasoning: fmt.Sprintf("%q resolves %s at %.2f while %q resolves %s at %.2f; the earlier deadline cannot be more likely.",
						earlier.Question, earlier.ResolutionDate.Format("2006-01-02"), earlier.YesPrice,
						later.Question, later.ResolutionDate.Format("2006-01-02"), later.YesPrice),
				}
				break
			}
		}
	}
	return found
}

func (t *Temporal) nearResolution(m domain.Market) (domain.EdgeOpportunity, bool) {
	if m.DaysUntilResolution == nil || m.IsMultiOutcome() {
		return domain.EdgeOpportunity{}, false
	}
	days := *m.DaysUntilResolution
	if days > t.cfg.NearResolutionDays {
		return domain.EdgeOpportunity{}, false
	}
	if math.Abs(m.YesPrice-0.5) > t.cfg.UncertaintyBand {
		return domain.EdgeOpportunity{}, false
	}

	return domain.EdgeOpportunity{
		MarketID:        m.ID,
		MarketQuestion:  m.Question,
		Description:     fmt.Sprintf("Price %.1f%% with %d day(s) to resolution", m.YesPrice*100, days),
		Confidence:      confidence(t.cfg.NearConfidence),
		ExpectedReturn:  0,
		RiskLevel:       domain.RiskLow,
		SuggestedAction: "Research the outcome before resolution; the price has not converged",
		Reasoning: fmt.Sprintf("Markets this close to resolution usually trade near 0 or 1; %.2f implies information is still unpriced.",
			m.YesPrice),
	}, true
}
