package analysis

import (
	"math"
	"regexp"
	"sort"
	"time"

	"tastetrail/internal/model"
)

const (
	// minMoviesForPatterns guards the whole run and the per-element filter.
	// One film is anecdote, two is the beginning of a pattern.
	minMoviesForPatterns = 2
	maxPatterns          = 12
	maxExamples          = 3
	minCoverage          = 0.3

	elementConfidenceCap    = 0.95
	preferenceConfidenceCap = 0.9
	confirmedBoost          = 0.15
	confidenceCeiling       = 0.98
	minPreferenceSignals    = 2
)

// Aggregator turns the full response history into a ranked set of taste
// patterns, honoring prior confirm/reject feedback.
type Aggregator struct {
	lex  *Lexicon
	ext  *Extractor
	pick PickFunc
}

// NewAggregator builds an aggregator over the given lexicon. A nil pick
// falls back to RandomPick.
func NewAggregator(lex *Lexicon, pick PickFunc) *Aggregator {
	if pick == nil {
		pick = RandomPick
	}
	return &Aggregator{lex: lex, ext: NewExtractor(lex), pick: pick}
}

type elementTally struct {
	mentions int
	positive int
	negative int
	neutral  int
	movies   map[string]struct{}
	examples []string
}

// DetectPatterns recomputes the pattern set from scratch. Prior patterns
// contribute only their validation verdicts and first-detected timestamps:
// rejected elements are filtered out, confirmed ones get a confidence boost
// and keep their confirmed mark. Results are confidence-sorted, ties keep
// lexicon registry order, and the list is capped at maxPatterns.
func (g *Aggregator) DetectPatterns(responses []*model.Response, movieCount int, prior []*model.Pattern) []*model.Pattern {
	distinct := make(map[string]struct{})
	for _, r := range responses {
		distinct[r.MovieID] = struct{}{}
	}
	if movieCount < minMoviesForPatterns || len(distinct) < minMoviesForPatterns {
		return []*model.Pattern{}
	}

	rejected := make(map[string]bool)
	confirmed := make(map[string]bool)
	firstSeen := make(map[string]time.Time)
	for _, p := range prior {
		firstSeen[p.Element] = p.FirstDetected
		if p.Validated == nil {
			continue
		}
		if *p.Validated {
			confirmed[p.Element] = true
		} else {
			rejected[p.Element] = true
		}
	}

	tallies := make(map[string]*elementTally)
	for _, r := range responses {
		for _, m := range g.ext.ExtractElements(r.Text) {
			t := tallies[m.Key]
			if t == nil {
				t = &elementTally{movies: make(map[string]struct{})}
				tallies[m.Key] = t
			}
			t.mentions++
			t.movies[r.MovieID] = struct{}{}
			switch m.Sentiment {
			case model.SentimentPositive:
				t.positive++
			case model.SentimentNegative:
				t.negative++
			case model.SentimentNeutral:
				t.neutral++
			}
			// Mixed still counts as a mention but votes for no bucket.
			if len(t.examples) < maxExamples && m.Context != "" {
				t.examples = append(t.examples, m.Context)
			}
		}
	}

	now := time.Now()
	totalResponses := float64(len(responses))
	out := make([]*model.Pattern, 0, maxPatterns)

	for _, rule := range g.lex.Elements {
		t := tallies[rule.Key]
		if t == nil || rejected[rule.Key] {
			continue
		}
		coverage := float64(len(t.movies)) / float64(movieCount)
		if len(t.movies) < minMoviesForPatterns && coverage < minCoverage {
			continue
		}

		sentiment := dominantSentiment(t)
		confidence := math.Min(elementConfidenceCap,
			coverage*0.5+float64(t.mentions)/totalResponses*0.3+0.2)

		p := &model.Pattern{
			Element:       rule.Key,
			Type:          rule.Category,
			Description:   elementDescription(sentiment, rule.Label, g.pick),
			Sentiment:     sentiment,
			Confidence:    confidence,
			MovieIDs:      sortedKeys(t.movies),
			MovieCount:    len(t.movies),
			MentionCount:  t.mentions,
			Examples:      t.examples,
			FirstDetected: now,
			LastDetected:  now,
		}
		g.applyFeedback(p, firstSeen, confirmed)
		out = append(out, p)
	}

	for _, rule := range g.lex.Preferences {
		if rejected[rule.Key] {
			continue
		}
		signals, antis := 0, 0
		movies := make(map[string]struct{})
		for _, r := range responses {
			if matchesAny(rule.Signals, r.Text) {
				signals++
				movies[r.MovieID] = struct{}{}
			}
			if matchesAny(rule.AntiSignals, r.Text) {
				antis++
			}
		}
		// Require a 2:1 supermajority over complaints about the same
		// quality so the preference doesn't flip-flop between runs.
		if signals < minPreferenceSignals || signals <= 2*antis {
			continue
		}

		p := &model.Pattern{
			Element:       rule.Key,
			Type:          model.PatternTypePreference,
			Description:   rule.Description,
			Sentiment:     model.SentimentPositive,
			Confidence:    math.Min(preferenceConfidenceCap, 0.5+float64(signals)*0.1),
			MovieIDs:      sortedKeys(movies),
			MovieCount:    len(movies),
			MentionCount:  signals,
			FirstDetected: now,
			LastDetected:  now,
		}
		g.applyFeedback(p, firstSeen, confirmed)
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > maxPatterns {
		out = out[:maxPatterns]
	}
	return out
}

// applyFeedback carries the first-detected timestamp across runs and keeps
// the confirmed mark with its confidence boost.
func (g *Aggregator) applyFeedback(p *model.Pattern, firstSeen map[string]time.Time, confirmed map[string]bool) {
	if first, ok := firstSeen[p.Element]; ok {
		p.FirstDetected = first
	}
	if confirmed[p.Element] {
		p.Confidence = math.Min(p.Confidence+confirmedBoost, confidenceCeiling)
		v := true
		p.Validated = &v
	}
}

// dominantSentiment picks the strictly largest bucket; any tie at the top
// lands on neutral.
func dominantSentiment(t *elementTally) model.Sentiment {
	switch {
	case t.positive > t.negative && t.positive > t.neutral:
		return model.SentimentPositive
	case t.negative > t.positive && t.negative > t.neutral:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func matchesAny(pats []*regexp.Regexp, text string) bool {
	for _, p := range pats {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
