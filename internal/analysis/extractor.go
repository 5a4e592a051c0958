package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"tastetrail/internal/model"
)

// windowRadius is the number of bytes inspected on each side of an element
// match when judging local sentiment, widened outward to rune boundaries.
const windowRadius = 50

// Extractor finds which film elements a reflection talks about and how the
// text around each mention leans.
type Extractor struct {
	lex *Lexicon
}

func NewExtractor(lex *Lexicon) *Extractor {
	return &Extractor{lex: lex}
}

// ExtractElements walks the element table in registry order and returns at
// most one match per element key, taken from the first matcher that fires.
// Output order follows the table, so results are deterministic for a given
// lexicon.
func (e *Extractor) ExtractElements(text string) []model.ElementMatch {
	var matches []model.ElementMatch
	for _, rule := range e.lex.Elements {
		for _, m := range rule.Matchers {
			loc := m.FindStringIndex(text)
			if loc == nil {
				continue
			}
			window := windowAround(text, loc[0])
			matches = append(matches, model.ElementMatch{
				Key:       rule.Key,
				Label:     rule.Label,
				Category:  rule.Category,
				Sentiment: e.judge(window),
				Context:   normalizeWhitespace(window),
			})
			break
		}
	}
	return matches
}

// OverallSentiment judges the whole response with the same rule used for
// element windows.
func (e *Extractor) OverallSentiment(text string) model.Sentiment {
	return e.judge(text)
}

// judge counts distinct positive and negative indicator entries in text.
// Both present means mixed, otherwise the larger side wins and a tie at
// zero stays neutral.
func (e *Extractor) judge(text string) model.Sentiment {
	pos := countIndicators(e.lex.PositiveIndicators, text)
	neg := countIndicators(e.lex.NegativeIndicators, text)
	switch {
	case pos > 0 && neg > 0:
		return model.SentimentMixed
	case pos > neg:
		return model.SentimentPositive
	case neg > pos:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

// countIndicators reports how many entries match at least once. Repeated
// occurrences of the same entry still count as one.
func countIndicators(indicators []*regexp.Regexp, text string) int {
	n := 0
	for _, ind := range indicators {
		if ind.MatchString(text) {
			n++
		}
	}
	return n
}

// windowAround slices windowRadius bytes on each side of pos, clamped to the
// text and widened so multi-byte runes are never split.
func windowAround(text string, pos int) string {
	lo := pos - windowRadius
	if lo < 0 {
		lo = 0
	}
	hi := pos + windowRadius
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
