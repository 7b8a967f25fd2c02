package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BetJor/plantilla-sub000/models"
)

func descriptions(items []models.ProposedActionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Description
	}
	return out
}

func TestParseSuggestionTextNumberedList(t *testing.T) {
	text := "Suggested steps:\n1. Replace the door seal\n2) Re-enable fridge alarms\n3. Retrain staff on logging"
	items := ParseSuggestionText(text)

	assert.Equal(t, []string{
		"Replace the door seal",
		"Re-enable fridge alarms",
		"Retrain staff on logging",
	}, descriptions(items))
}

func TestParseSuggestionTextBulletList(t *testing.T) {
	text := "- Replace the door seal\n* Re-enable fridge alarms\n• Retrain staff"
	items := ParseSuggestionText(text)

	assert.Equal(t, []string{
		"Replace the door seal",
		"Re-enable fridge alarms",
		"Retrain staff",
	}, descriptions(items))
}

func TestParseSuggestionTextNumberedWinsOverBullets(t *testing.T) {
	text := "1. First numbered step\n- A bullet that should be ignored"
	items := ParseSuggestionText(text)

	assert.Equal(t, []string{"First numbered step"}, descriptions(items))
}

func TestParseSuggestionTextKeywordSentences(t *testing.T) {
	text := "The team should review the storage procedure. Staff must be trained on the new log. The weather was nice."
	items := ParseSuggestionText(text)

	require.Len(t, items, 2)
	assert.Contains(t, items[0].Description, "review the storage procedure")
	assert.Contains(t, items[1].Description, "trained on the new log")
}

func TestParseSuggestionTextFallsBackToWholeText(t *testing.T) {
	text := "Something vague with no structure at all"
	items := ParseSuggestionText(text)

	require.Len(t, items, 1)
	assert.Equal(t, text, items[0].Description)
}

func TestParseSuggestionTextEmptyInput(t *testing.T) {
	assert.Nil(t, ParseSuggestionText(""))
	assert.Nil(t, ParseSuggestionText("   \n  "))
}

func TestParseSuggestionTextItemDefaults(t *testing.T) {
	items := ParseSuggestionText("1. Replace the door seal")
	require.Len(t, items, 1)

	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, models.ImplementationPending, items[0].ImplementationStatus)
	assert.Equal(t, models.VerificationNotVerified, items[0].VerificationStatus)
	assert.Nil(t, items[0].DueDate)
}
