package similarity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestionResponseStructured(t *testing.T) {
	content := `[
		{"description":"Replace the door seal","assignedTo":"tech-2","dueDate":"2026-04-01","status":"pending"},
		{"description":"Re-enable fridge alarms","assignedTo":"","dueDate":"","status":"pending"},
		{"description":"","assignedTo":"nobody","dueDate":"","status":"pending"}
	]`

	items := parseSuggestionResponse(content)
	require.Len(t, items, 2, "items without a description are dropped")

	assert.Equal(t, "Replace the door seal", items[0].Description)
	assert.Equal(t, "tech-2", items[0].AssignedTo)
	require.NotNil(t, items[0].DueDate)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), *items[0].DueDate)

	assert.Equal(t, "Re-enable fridge alarms", items[1].Description)
	assert.Nil(t, items[1].DueDate)
}

func TestParseSuggestionResponseFencedJSON(t *testing.T) {
	content := "```json\n[{\"description\":\"Retrain staff\",\"assignedTo\":\"\",\"dueDate\":\"\",\"status\":\"pending\"}]\n```"

	items := parseSuggestionResponse(content)
	require.Len(t, items, 1)
	assert.Equal(t, "Retrain staff", items[0].Description)
}

func TestParseSuggestionResponseFallsBackToText(t *testing.T) {
	content := "Here are my suggestions:\n1. Replace the door seal\n2. Retrain staff"

	items := parseSuggestionResponse(content)
	require.Len(t, items, 2)
	assert.Equal(t, "Replace the door seal", items[0].Description)
}

func TestParseSuggestionResponseBadDueDateIgnored(t *testing.T) {
	content := `[{"description":"Replace the door seal","assignedTo":"","dueDate":"next week","status":"pending"}]`

	items := parseSuggestionResponse(content)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].DueDate)
}

func TestNewSuggesterRequiresKey(t *testing.T) {
	_, err := NewSuggester("", "gpt-4o-mini")
	assert.ErrorIs(t, err, ErrMissingCredential)
}
