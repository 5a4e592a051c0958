package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastetrail/internal/model"
)

func TestLoad(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.Len(t, b.All(), 20)
	assert.Len(t, b.ForPhase(model.PhasePlanning), 5)
	assert.Len(t, b.ForPhase(model.PhaseMonitoring), 7)
	assert.Len(t, b.ForPhase(model.PhaseEvaluation), 8)

	first := b.All()[0]
	assert.Equal(t, "first_memory", first.Key)
	assert.Equal(t, model.PhasePlanning, first.Phase)
	assert.NotEmpty(t, first.Hint)
	assert.NotEmpty(t, first.ExampleGood)
	assert.NotEmpty(t, first.ExampleVague)

	q := b.Get("removal_test")
	require.NotNil(t, q)
	assert.Equal(t, model.PhaseEvaluation, q.Phase)
	assert.Nil(t, b.Get("no_such_question"))
}

func TestForType(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	deep := b.ForType(model.SessionDeepDive)
	require.Len(t, deep, 20)
	assert.Equal(t, "first_memory", deep[0].Key)
	assert.Equal(t, "narrative_structure", deep[len(deep)-1].Key)

	hunt := b.ForType(model.SessionPatternHunt)
	require.Len(t, hunt, 8)
	assert.Equal(t, "emotional_impact", hunt[0].Key)
	for _, q := range hunt {
		assert.Equal(t, model.PhaseEvaluation, q.Phase)
	}

	temporal := b.ForType(model.SessionTemporal)
	require.Len(t, temporal, 13)
	for _, q := range temporal {
		assert.NotEqual(t, model.PhaseMonitoring, q.Phase)
	}

	assert.Len(t, b.ForType(model.SessionType("someday_new")), 20)
}

func TestRender(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	rendered := Render(b.Get("first_memory"), "Arrival")
	assert.Contains(t, rendered, "Arrival")
	assert.NotContains(t, rendered, "{movie}")

	// Prompts without the placeholder pass through untouched.
	q := b.Get("attention_focus")
	assert.Equal(t, q.Prompt, Render(q, "Arrival"))
}
