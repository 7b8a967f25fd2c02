// similarity/suggest.go
package similarity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/BetJor/plantilla-sub000/models"
)

// Suggester asks the model to propose remediation steps for an action. The
// model is asked for structured JSON; malformed output is recovered locally
// through the free-text parser, never propagated as a fatal error.
type Suggester struct {
	client *openai.Client
	model  string
}

func NewSuggester(apiKey, model string) (*Suggester, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	return &Suggester{client: openai.NewClient(apiKey), model: model}, nil
}

type suggestedItem struct {
	Description string `json:"description"`
	AssignedTo  string `json:"assignedTo"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
}

// ProposeActions returns draft proposed-action items for the given action.
func (s *Suggester) ProposeActions(ctx context.Context, a models.Action) ([]models.ProposedActionItem, error) {
	prompt := fmt.Sprintf(
		"Corrective action:\ntitle: %s\ndescription: %s\ntype: %s\ncategory: %s\n",
		a.Title, a.Description, a.Type, a.Category)
	if a.AnalysisData != nil && a.AnalysisData.RootCauses != "" {
		prompt += fmt.Sprintf("root causes: %s\n", a.AnalysisData.RootCauses)
	}
	prompt += "\nPropose 2-5 concrete remediation steps. Respond with a JSON array of " +
		`objects {"description","assignedTo","dueDate","status"} (dueDate as YYYY-MM-DD, ` +
		"assignedTo empty if unknown, status always \"pending\")."

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You help healthcare quality teams draft corrective-action plans.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("suggestion generation returned no choices")
	}
	return parseSuggestionResponse(resp.Choices[0].Message.Content), nil
}

// parseSuggestionResponse tries structured JSON first and falls back to the
// best-effort text parser.
func parseSuggestionResponse(content string) []models.ProposedActionItem {
	raw := stripCodeFence(content)

	var structured []suggestedItem
	if err := json.Unmarshal([]byte(raw), &structured); err == nil && len(structured) > 0 {
		items := make([]models.ProposedActionItem, 0, len(structured))
		for _, s := range structured {
			if s.Description == "" {
				continue
			}
			item := newDraftItem(s.Description)
			item.AssignedTo = s.AssignedTo
			if s.DueDate != "" {
				if due, err := time.Parse("2006-01-02", s.DueDate); err == nil {
					item.DueDate = &due
				}
			}
			items = append(items, item)
		}
		if len(items) > 0 {
			return items
		}
	}

	log.Printf("Suggestion response was not valid JSON, using text parser")
	return ParseSuggestionText(content)
}

func newDraftItem(description string) models.ProposedActionItem {
	return models.ProposedActionItem{
		ID:                   uuid.NewString(),
		Description:          description,
		ImplementationStatus: models.ImplementationPending,
		VerificationStatus:   models.VerificationNotVerified,
	}
}
