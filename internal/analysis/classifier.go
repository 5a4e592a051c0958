package analysis

import (
	"strings"
	"unicode/utf8"
)

const (
	// minResponseLength is measured in runes after trimming.
	minResponseLength = 50
	// maxFollowUpAttempts is the push-back ceiling; once reached the
	// response is accepted as-is.
	maxFollowUpAttempts = 3

	baseScore          = 0.5
	vagueScoreFloor    = 0.5
	retryAcceptScore   = 0.4
	tooShortScore      = 0.2
	vaguePatternScore  = 0.3
	longResponseBonus  = 0.1
	veryLongBonus      = 0.05
	longResponseWords  = 50
	veryLongWords      = 100
)

// Analysis is the verdict on a single reflection draft.
type Analysis struct {
	IsVague          bool
	VaguenessType    string
	SpecificityScore float64
	FollowUps        []string
}

// FollowUpAt returns the prompt to serve on the given retry. Attempts past
// the end of the pool keep getting the last prompt.
func (a Analysis) FollowUpAt(attempts int) string {
	if len(a.FollowUps) == 0 {
		return ""
	}
	idx := attempts
	if idx >= len(a.FollowUps) {
		idx = len(a.FollowUps) - 1
	}
	return a.FollowUps[idx]
}

// Classifier decides whether a reflection is specific enough to keep.
type Classifier struct {
	lex *Lexicon
}

func NewClassifier(lex *Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify runs the three vagueness gates in order: length, pattern table,
// computed specificity. The first gate that trips determines the vagueness
// type and the follow-up pool.
func (c *Classifier) Classify(text string) Analysis {
	trimmed := strings.TrimSpace(text)

	if utf8.RuneCountInString(trimmed) < minResponseLength {
		return Analysis{
			IsVague:          true,
			VaguenessType:    VaguenessTooShort,
			SpecificityScore: tooShortScore,
			FollowUps:        c.lex.TooShortFollowUps,
		}
	}

	for _, rule := range c.lex.VagueRules {
		if ruleMatches(rule, trimmed) {
			return Analysis{
				IsVague:          true,
				VaguenessType:    rule.Category,
				SpecificityScore: vaguePatternScore,
				FollowUps:        rule.FollowUps,
			}
		}
	}

	score := c.Score(trimmed)
	if score < vagueScoreFloor {
		return Analysis{
			IsVague:          true,
			VaguenessType:    VaguenessLowSpecificity,
			SpecificityScore: score,
			FollowUps:        c.lex.LowSpecificityFollowUps,
		}
	}

	return Analysis{SpecificityScore: score}
}

// Score computes the specificity score: a 0.5 baseline nudged up by concrete
// detail cues and down by hedging, plus a length bonus, clamped to [0, 1].
// Each cue contributes its weight once regardless of repetition.
func (c *Classifier) Score(text string) float64 {
	score := baseScore

	for _, cue := range c.lex.PositiveCues {
		if cue.Pattern.MatchString(text) {
			score += cue.Weight
		}
	}
	for _, cue := range c.lex.NegativeCues {
		if cue.Pattern.MatchString(text) {
			score += cue.Weight
		}
	}

	words := len(strings.Fields(text))
	if words > longResponseWords {
		score += longResponseBonus
	}
	if words > veryLongWords {
		score += veryLongBonus
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// DecideAcceptance applies the escape-valve policy: non-vague responses pass
// immediately, anything passes after the attempt ceiling, and a borderline
// score passes once the user has already been pushed back at least once.
func DecideAcceptance(a Analysis, attempts int) bool {
	if !a.IsVague {
		return true
	}
	if attempts >= maxFollowUpAttempts {
		return true
	}
	return a.SpecificityScore >= retryAcceptScore && attempts >= 1
}

// ruleMatches reports whether the rule fires on text. A hit is suppressed
// when the Except pattern matches starting at the same offset; the rule
// fires if at least one hit survives.
func ruleMatches(rule VagueRule, text string) bool {
	locs := rule.Matcher.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return false
	}
	if rule.Except == nil {
		return true
	}
	suppressed := make(map[int]bool)
	for _, loc := range rule.Except.FindAllStringIndex(text, -1) {
		suppressed[loc[0]] = true
	}
	for _, loc := range locs {
		if !suppressed[loc[0]] {
			return true
		}
	}
	return false
}
