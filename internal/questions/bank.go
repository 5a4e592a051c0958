// Package questions serves the guided-reflection question bank. The bank is
// compiled into the binary; sessions walk it phase by phase.
package questions

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"tastetrail/internal/model"
)

//go:embed bank.yaml
var bankYAML []byte

type bankFile struct {
	Questions []bankEntry `yaml:"questions"`
}

type bankEntry struct {
	Key          string `yaml:"key"`
	Phase        string `yaml:"phase"`
	Category     string `yaml:"category"`
	Prompt       string `yaml:"prompt"`
	Hint         string `yaml:"hint"`
	ExampleGood  string `yaml:"example_good"`
	ExampleVague string `yaml:"example_vague"`
}

// Bank holds the question registry in serving order.
type Bank struct {
	order   []*model.Question
	byPhase map[model.Phase][]*model.Question
	byKey   map[string]*model.Question
}

// Load parses the embedded bank.
func Load() (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(bankYAML, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	b := &Bank{
		byPhase: make(map[model.Phase][]*model.Question),
		byKey:   make(map[string]*model.Question),
	}
	for _, e := range f.Questions {
		q := &model.Question{
			Key:          e.Key,
			Phase:        model.Phase(e.Phase),
			Category:     e.Category,
			Prompt:       e.Prompt,
			Hint:         e.Hint,
			ExampleGood:  e.ExampleGood,
			ExampleVague: e.ExampleVague,
		}
		if _, dup := b.byKey[q.Key]; dup {
			return nil, fmt.Errorf("duplicate question key %q", q.Key)
		}
		b.order = append(b.order, q)
		b.byPhase[q.Phase] = append(b.byPhase[q.Phase], q)
		b.byKey[q.Key] = q
	}
	return b, nil
}

// PhasesFor maps a session type to the phases it walks. Unknown types get
// the full sequence.
func PhasesFor(t model.SessionType) []model.Phase {
	switch t {
	case model.SessionPatternHunt:
		return []model.Phase{model.PhaseEvaluation}
	case model.SessionTemporal:
		return []model.Phase{model.PhasePlanning, model.PhaseEvaluation}
	default:
		return []model.Phase{model.PhasePlanning, model.PhaseMonitoring, model.PhaseEvaluation}
	}
}

// ForType returns the questions a session of the given type serves, in order.
func (b *Bank) ForType(t model.SessionType) []*model.Question {
	var out []*model.Question
	for _, phase := range PhasesFor(t) {
		out = append(out, b.byPhase[phase]...)
	}
	return out
}

// ForPhase returns the questions of one phase in bank order.
func (b *Bank) ForPhase(p model.Phase) []*model.Question {
	return b.byPhase[p]
}

// Get returns the question with the given key, or nil.
func (b *Bank) Get(key string) *model.Question {
	return b.byKey[key]
}

// All returns every question in bank order.
func (b *Bank) All() []*model.Question {
	return b.order
}

// Render substitutes the movie title into the prompt.
func Render(q *model.Question, movieTitle string) string {
	return strings.ReplaceAll(q.Prompt, "{movie}", movieTitle)
}
