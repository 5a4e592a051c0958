package analysis

import (
	"regexp"

	"tastetrail/internal/model"
)

// Vagueness types produced by the classifier outside the rule table.
const (
	VaguenessTooShort       = "too_short"
	VaguenessLowSpecificity = "low_specificity"
)

// VagueRule flags one class of generic response. Rules are evaluated in
// slice order and the first hit wins, so ordering is part of the contract.
// Except suppresses a Matcher hit that starts at the same offset; it stands
// in for the lookahead the table was originally written with.
type VagueRule struct {
	Category  string
	Matcher   *regexp.Regexp
	Except    *regexp.Regexp
	FollowUps []string
}

// ScoreCue is one lexical cue with its fixed score contribution. Negative
// cues carry a negative weight.
type ScoreCue struct {
	Pattern *regexp.Regexp
	Weight  float64
}

// ElementRule identifies one subject-matter facet. The element is present in
// a response if any of its matchers fires; the first hit supplies the match
// position for the sentiment window.
type ElementRule struct {
	Key      string
	Label    string
	Category string
	Matchers []*regexp.Regexp
}

// PreferenceRule describes a higher-order taste signal detected at the
// aggregate level: responses voting via signal phrases, gated by anti-signal
// complaints about the same quality.
type PreferenceRule struct {
	Key         string
	Description string
	Signals     []*regexp.Regexp
	AntiSignals []*regexp.Regexp
}

// Lexicon is the full matcher configuration the engine runs on. It is
// immutable after construction and injected into the classifier, extractor
// and aggregator, so tests can run against a trimmed table.
type Lexicon struct {
	VagueRules              []VagueRule
	TooShortFollowUps       []string
	LowSpecificityFollowUps []string

	PositiveCues []ScoreCue
	NegativeCues []ScoreCue

	PositiveIndicators []*regexp.Regexp
	NegativeIndicators []*regexp.Regexp

	Elements    []ElementRule
	Preferences []PreferenceRule
}

// NewLexicon builds the default tables.
func NewLexicon() *Lexicon {
	return &Lexicon{
		VagueRules: defaultVagueRules(),
		TooShortFollowUps: []string{
			"Can you elaborate on that?",
			"Tell me more—what specifically do you mean?",
			"I'd like to understand this better. Can you expand?",
		},
		LowSpecificityFollowUps: []string{
			"Can you be more specific? Describe a particular moment.",
			"Give me the details—what exactly happened in that scene?",
			"I want to see it through your eyes. Describe it like I haven't seen the film.",
		},
		PositiveCues:       defaultPositiveCues(),
		NegativeCues:       defaultNegativeCues(),
		PositiveIndicators: defaultPositiveIndicators(),
		NegativeIndicators: defaultNegativeIndicators(),
		Elements:           defaultElements(),
		Preferences:        defaultPreferences(),
	}
}

func defaultVagueRules() []VagueRule {
	return []VagueRule{
		{
			Category: "acting",
			Matcher:  regexp.MustCompile(`(?i)\bgood acting\b|\bgreat acting\b|\bacting was good\b`),
			FollowUps: []string{
				"Which actor specifically?",
				"Can you describe a moment where their performance stood out?",
				"What exactly were they doing that worked?",
				"How was their approach different from what you typically see?",
			},
		},
		{
			Category: "vague_positive",
			Matcher:  regexp.MustCompile(`(?i)\binteresting\b`),
			Except:   regexp.MustCompile(`(?i)\binteresting (?:because|in that|how)\b`),
			FollowUps: []string{
				"What made it interesting, specifically?",
				"Interesting compared to what?",
				"Can you point to the exact moment that felt interesting?",
				"Interesting in what way—surprising? Unusual? Thought-provoking?",
			},
		},
		{
			Category: "cinematography",
			Matcher:  regexp.MustCompile(`(?i)\bbeautiful cinematography\b|\bgreat cinematography\b|\bvisually stunning\b`),
			FollowUps: []string{
				"Can you describe one specific shot that struck you?",
				"Was it the framing, the lighting, the movement, or something else?",
				"What made it beautiful—the composition, colors, or mood?",
				"Close your eyes and describe one image from the film.",
			},
		},
		{
			Category: "music",
			Matcher:  regexp.MustCompile(`(?i)\bgreat soundtrack\b|\bgood music\b|\bmusic was great\b|\bamazing score\b`),
			FollowUps: []string{
				"Can you hum or describe a specific piece from the score?",
				"When in the film did the music most affect you?",
				"What did the music add that wouldn't be there without it?",
				"Was it the melody, the instruments, or how it interacted with the scene?",
			},
		},
		{
			Category: "writing",
			Matcher:  regexp.MustCompile(`(?i)\bwell written\b|\bgood writing\b|\bgreat dialogue\b`),
			FollowUps: []string{
				"Can you quote or paraphrase a line that stuck with you?",
				"What made the writing effective—naturalistic? Witty? Poetic?",
				"Was there a conversation or monologue that particularly worked?",
				"How would you describe the voice of this screenplay?",
			},
		},
		{
			Category: "generic_positive",
			Matcher:  regexp.MustCompile(`(?i)\bi liked it\b|\bit was good\b|\breally enjoyed it\b`),
			FollowUps: []string{
				"What specifically did you like about it?",
				"If you had to pick one element that made it work, what would it be?",
				"What kept you engaged?",
				"What would you tell a friend about why they should watch it?",
			},
		},
		{
			Category: "emotional_vague",
			Matcher:  regexp.MustCompile(`(?i)\bpowerful\b|\bmoving\b|\bemotional\b`),
			Except:   regexp.MustCompile(`(?i)\b(?:powerful|moving|emotional) because\b`),
			FollowUps: []string{
				"What specifically made it powerful/moving?",
				"Which scene hit you the hardest?",
				"What were you feeling in that moment?",
				"Was it the content, the execution, or both?",
			},
		},
		{
			Category: "structural_vague",
			Matcher:  regexp.MustCompile(`(?i)\bthe ending\b|\bthe beginning\b`),
			Except:   regexp.MustCompile(`(?i)\bthe (?:ending|beginning) wh(?:en|ere)\b`),
			FollowUps: []string{
				"What about the ending specifically?",
				"Describe the moment in the ending that affected you.",
				"What did the ending make you feel, and why?",
				"How did it land differently than you expected?",
			},
		},
		{
			Category: "relatable",
			Matcher:  regexp.MustCompile(`(?i)\brelatable\b|\brelateable\b`),
			FollowUps: []string{
				"What specifically did you relate to?",
				"Was it a character, a situation, or a feeling?",
				"What from your own experience connected to this?",
				"Can you describe the moment you felt that connection?",
			},
		},
		{
			Category: "hyperbole",
			Matcher:  regexp.MustCompile(`(?i)\bperfect\b|\bflawless\b|\bmasterpiece\b`),
			FollowUps: []string{
				"What made it so effective for you?",
				"Which elements came together particularly well?",
				"Was there anything that almost didn't work but somehow did?",
				"What sets it apart from other films you've loved?",
			},
		},
	}
}

func defaultPositiveCues() []ScoreCue {
	return []ScoreCue{
		// Temporal and scene anchoring
		{regexp.MustCompile(`(?i)\bwhen\b.*\b(was|were|did)\b`), 0.08},
		{regexp.MustCompile(`(?i)\bthe scene where\b|\bin the scene\b`), 0.12},
		{regexp.MustCompile(`(?i)\bthe moment\b|\bthat moment\b`), 0.10},
		// Exactness and recall
		{regexp.MustCompile(`(?i)\bspecifically\b|\bexactly\b|\bprecisely\b`), 0.08},
		{regexp.MustCompile(`(?i)\bi remember\b|\bi recall\b`), 0.08},
		// Quoted dialogue
		{regexp.MustCompile(`"[^"]{5,}?"`), 0.12},
		{regexp.MustCompile(`'[^']{5,}?'`), 0.10},
		// Sequencing
		{regexp.MustCompile(`(?i)\bfirst\b.*\bthen\b|\bafter\b.*\bbefore\b`), 0.08},
		// Sensory and craft nouns
		{regexp.MustCompile(`(?i)\b(face|eyes|hands|voice|expression)\b`), 0.08},
		{regexp.MustCompile(`(?i)\b(shot|frame|cut|angle|camera)\b`), 0.10},
		{regexp.MustCompile(`(?i)\b(lighting|color|shadow|contrast)\b`), 0.08},
		{regexp.MustCompile(`(?i)\b(score|soundtrack|music|sound|silence)\b`), 0.06},
		// Reasoning and exemplification
		{regexp.MustCompile(`(?i)\bbecause\b`), 0.06},
		{regexp.MustCompile(`(?i)\bfor example\b|\bfor instance\b`), 0.10},
		{regexp.MustCompile(`(?i)\b(felt|feeling|emotion)\b.*\b(when|during|as)\b`), 0.08},
	}
}

func defaultNegativeCues() []ScoreCue {
	return []ScoreCue{
		{regexp.MustCompile(`(?i)\bkind of\b|\bsort of\b`), -0.08},
		{regexp.MustCompile(`(?i)\bi guess\b|\bmaybe\b|\bprobably\b`), -0.08},
		{regexp.MustCompile(`(?i)\bin general\b|\boverall\b|\bmostly\b`), -0.10},
		{regexp.MustCompile(`(?i)\bjust\b.*\breally\b|\breally\b.*\bjust\b`), -0.08},
		{regexp.MustCompile(`(?i)\bi don'?t know\b|\bi'?m not sure\b`), -0.10},
	}
}

// Sentiment indicators. Each entry contributes exactly one vote when it
// matches, no matter how many times it occurs.
func defaultPositiveIndicators() []*regexp.Regexp {
	return compileAll(
		`\blove[sd]?\b`,
		`\bincredible\b`,
		`\bamazing\b`,
		`\bbrilliant\b`,
		`\bbeautiful(?:ly)?\b`,
		`\bstunning\b`,
		`\bgorgeous\b`,
		`\bperfect(?:ly)?\b`,
		`\bmasterful(?:ly)?\b`,
		`\bpowerful\b`,
		`\bmoving\b`,
		`\bcompelling\b`,
		`\bgripping\b`,
		`\bwonderful\b`,
		`\bimpressive\b`,
		`\bfavorite\b`,
		`\bworked\b`,
		`\bresonated?\b`,
	)
}

func defaultNegativeIndicators() []*regexp.Regexp {
	return compileAll(
		`\bhate[sd]?\b`,
		`\bboring\b`,
		`\bdull\b`,
		`\bflat\b`,
		`\bweak\b`,
		`\bannoying\b`,
		`\bdistracting\b`,
		`\boverdone\b`,
		`\baggressive\b`,
		`\bcold\b`,
		`\bmessy\b`,
		`\btedious\b`,
		`\bgrating\b`,
		`\bclumsy\b`,
		`\bfell flat\b`,
		`\btook me out\b`,
		`\bdidn'?t work\b`,
		`\bheavy-handed\b`,
	)
}

func defaultElements() []ElementRule {
	return []ElementRule{
		// Technical craft
		{
			Key: "cinematography", Label: "Cinematography", Category: model.CategoryTechnical,
			Matchers: compileAll(`\bcinematography\b`, `\bframing\b`, `\bcomposition\b`, `\bcamera ?work\b`),
		},
		{
			Key: "lighting", Label: "Lighting", Category: model.CategoryTechnical,
			Matchers: compileAll(`\blighting\b`, `\bshadows?\b`, `\bsilhouettes?\b`, `\bbacklit\b`),
		},
		{
			Key: "color", Label: "Color and palette", Category: model.CategoryTechnical,
			Matchers: compileAll(`\bcolors?\b`, `\bpalette\b`, `\bcolor grading\b`, `\bsaturation\b`),
		},
		{
			Key: "sound", Label: "Sound and score", Category: model.CategoryTechnical,
			Matchers: compileAll(`\bscore\b`, `\bsoundtrack\b`, `\bsound design\b`, `\bmusic\b`),
		},
		// Structure
		{
			Key: "editing", Label: "Editing and pacing", Category: model.CategoryStructural,
			Matchers: compileAll(`\bediting\b`, `\bcuts?\b`, `\bpacing\b`, `\brhythm\b`),
		},
		{
			Key: "structure", Label: "Narrative structure", Category: model.CategoryStructural,
			Matchers: compileAll(`\bstructure\b`, `\btimeline\b`, `\bnon-?linear\b`, `\bflashbacks?\b`),
		},
		// Performance
		{
			Key: "performance", Label: "Performances", Category: model.CategoryPerformance,
			Matchers: compileAll(`\bperformances?\b`, `\bacting\b`, `\bdelivery\b`, `\bportrayal\b`),
		},
		// Writing
		{
			Key: "dialogue", Label: "Dialogue", Category: model.CategoryWriting,
			Matchers: compileAll(`\bdialogue\b`, `\bexchanges\b`, `\bbanter\b`, `\bmonologues?\b`),
		},
		{
			Key: "script", Label: "Writing", Category: model.CategoryWriting,
			Matchers: compileAll(`\bscript\b`, `\bscreenplay\b`, `\bwriting\b`),
		},
		// Emotional texture
		{
			Key: "atmosphere", Label: "Atmosphere and mood", Category: model.CategoryEmotional,
			Matchers: compileAll(`\batmosphere\b`, `\bmood\b`, `\btone\b`, `\bvibe\b`),
		},
		{
			Key: "emotion", Label: "Emotional resonance", Category: model.CategoryEmotional,
			Matchers: compileAll(`\bcried\b`, `\btears\b`, `\bchills\b`, `\bgoosebumps\b`, `\bmoved me\b`),
		},
		// Themes
		{
			Key: "theme:loss", Label: "Themes of loss", Category: model.CategoryThematic,
			Matchers: compileAll(`\bloss\b`, `\bgrief\b`, `\bmourning\b`),
		},
		{
			Key: "theme:love", Label: "Themes of love", Category: model.CategoryThematic,
			Matchers: compileAll(`\blove\b`, `\bromance\b`, `\brelationships?\b`),
		},
		{
			Key: "theme:isolation", Label: "Themes of isolation", Category: model.CategoryThematic,
			Matchers: compileAll(`\bisolation\b`, `\bloneliness\b`, `\blonely\b`, `\balone\b`),
		},
		{
			Key: "theme:hope", Label: "Themes of hope", Category: model.CategoryThematic,
			Matchers: compileAll(`\bhope\b`, `\bredemption\b`, `\bhealing\b`),
		},
		{
			Key: "theme:nostalgia", Label: "Themes of memory", Category: model.CategoryThematic,
			Matchers: compileAll(`\bnostalgia\b`, `\bmemor(?:y|ies)\b`, `\bthe past\b`),
		},
		{
			Key: "theme:identity", Label: "Themes of identity", Category: model.CategoryThematic,
			Matchers: compileAll(`\bidentity\b`, `\bwho (?:i|he|she|they) (?:am|is|are)\b`, `\bsense of self\b`),
		},
		{
			Key: "theme:family", Label: "Themes of family", Category: model.CategoryThematic,
			Matchers: compileAll(`\bfamily\b`, `\bparents?\b`, `\bfathers?\b`, `\bmothers?\b`, `\bchildhood\b`),
		},
		{
			Key: "theme:mortality", Label: "Themes of mortality", Category: model.CategoryThematic,
			Matchers: compileAll(`\bmortality\b`, `\bdeath\b`, `\bdying\b`),
		},
		// Viewing experience
		{
			Key: "immersion", Label: "Immersion", Category: model.CategoryExperience,
			Matchers: compileAll(`\bimmersi(?:ve|on|ng)\b`, `\bimmersed\b`, `\blost track of time\b`, `\bglued\b`),
		},
		{
			Key: "rewatch", Label: "Rewatch pull", Category: model.CategoryExperience,
			Matchers: compileAll(`\brewatch(?:ed|ing)?\b`, `\bwatch (?:it|this) again\b`, `\bsecond viewing\b`),
		},
	}
}

func defaultPreferences() []PreferenceRule {
	return []PreferenceRule{
		{
			Key:         "intimacy",
			Description: "You value intimate, close moments in films",
			Signals:     compileAll(`\bintimate\b`, `\bintimacy\b`),
			AntiSignals: compileAll(`\btoo small\b`, `\bslight\b`, `\binconsequential\b`),
		},
		{
			Key:         "quietness",
			Description: "Quiet, still moments resonate with you",
			Signals:     compileAll(`\bquiet\b`, `\bsilence\b`, `\bstillness\b`),
			AntiSignals: compileAll(`\btoo quiet\b`, `\bnothing happens\b`, `\bdull stretches\b`),
		},
		{
			Key:         "surprise",
			Description: "You appreciate the unexpected",
			Signals:     compileAll(`\bunexpected\b`, `\bsurprise\b`, `\bsurprising\b`),
			AntiSignals: compileAll(`\bcontrived twist\b`, `\btwist for its own sake\b`, `\bgimmicky\b`),
		},
		{
			Key:         "authenticity",
			Description: "Authenticity matters deeply to you",
			Signals:     compileAll(`\bauthentic\b`, `\breal\b`, `\bgenuine\b`),
			AntiSignals: compileAll(`\btoo mundane\b`, `\bkitchen-sink\b`, `\bdrab\b`),
		},
		{
			Key:         "beauty",
			Description: "Visual beauty captures your attention",
			Signals:     compileAll(`\bbeautiful\b`, `\bbeauty\b`, `\bgorgeous\b`),
			AntiSignals: compileAll(`\bstyle over substance\b`, `\bempty prettiness\b`, `\bhollow\b`),
		},
		{
			Key:         "tension",
			Description: "You engage with tension and suspense",
			Signals:     compileAll(`\btension\b`, `\btense\b`, `\bsuspense\b`),
			AntiSignals: compileAll(`\bexhausting\b`, `\bstressful\b`, `\bpunishing\b`),
		},
		{
			Key:         "subtlety",
			Description: "You appreciate subtlety over obviousness",
			Signals:     compileAll(`\bsubtle\b`, `\bsubtlety\b`, `\bunderstated\b`),
			AntiSignals: compileAll(`\btoo subtle\b`, `\binert\b`, `\bdidn'?t register\b`),
		},
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}
