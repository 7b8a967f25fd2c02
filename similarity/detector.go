// similarity/detector.go
package similarity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/BetJor/plantilla-sub000/models"
)

// ErrMissingCredential means no API key is configured. This is surfaced to
// the user as a configuration error; it never blocks core CRUD or
// transitions.
var ErrMissingCredential = errors.New("similarity detector: no API credential configured")

// MinScore is the cut-off below which matches are dropped.
const MinScore = 30

// Candidate is the set of fields the detector compares against the pool.
type Candidate struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Centre      string `json:"centre,omitempty"`
	Department  string `json:"department,omitempty"`
}

// Match is one ranked result. Scores run 0-100; the ranking is not required
// to be deterministic across invocations.
type Match struct {
	Action          models.Action `json:"action"`
	SimilarityScore int           `json:"similarityScore"`
	Reasons         []string      `json:"reasons"`
}

// Detector compares a candidate against existing actions and returns ranked
// matches with score >= MinScore, highest first.
type Detector interface {
	Compare(ctx context.Context, candidate Candidate, pool []models.Action) ([]Match, error)
}

// OpenAIDetector scores similarity with a chat-completion model. The model
// is a black box; only the contract above is relied on.
type OpenAIDetector struct {
	client *openai.Client
	model  string
}

func NewOpenAIDetector(apiKey, model string) (*OpenAIDetector, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	return &OpenAIDetector{client: openai.NewClient(apiKey), model: model}, nil
}

func (d *OpenAIDetector) Compare(ctx context.Context, candidate Candidate, pool []models.Action) ([]Match, error) {
	comparable := filterPool(candidate, pool)
	if len(comparable) == 0 {
		return nil, nil
	}

	prompt := buildComparePrompt(candidate, comparable)
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You compare corrective actions in a healthcare quality system and " +
					"detect duplicates. Respond only with JSON of the form " +
					`{"matches":[{"id":"...","score":0,"reasons":["..."]}]}.`,
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("similarity comparison failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("similarity comparison returned no choices")
	}

	byID := make(map[string]models.Action, len(comparable))
	for _, a := range comparable {
		byID[a.ID] = a
	}
	return parseMatches(resp.Choices[0].Message.Content, byID)
}

// parseMatches decodes the model response, drops unknown ids and scores
// below MinScore, and ranks the rest highest first.
func parseMatches(content string, byID map[string]models.Action) ([]Match, error) {
	var parsed struct {
		Matches []struct {
			ID      string   `json:"id"`
			Score   int      `json:"score"`
			Reasons []string `json:"reasons"`
		} `json:"matches"`
	}
	raw := stripCodeFence(content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("similarity comparison returned malformed JSON: %w", err)
	}

	var matches []Match
	for _, m := range parsed.Matches {
		a, ok := byID[m.ID]
		if !ok || m.Score < MinScore {
			continue
		}
		matches = append(matches, Match{Action: a, SimilarityScore: m.Score, Reasons: m.Reasons})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].SimilarityScore > matches[j].SimilarityScore
	})
	return matches, nil
}

// filterPool keeps non-draft actions and drops the candidate itself when it
// is an update of an existing action.
func filterPool(candidate Candidate, pool []models.Action) []models.Action {
	var out []models.Action
	for _, a := range pool {
		if a.Status == models.StatusDraft {
			continue
		}
		if candidate.ID != "" && a.ID == candidate.ID {
			continue
		}
		out = append(out, a)
	}
	return out
}

func buildComparePrompt(candidate Candidate, pool []models.Action) string {
	var b strings.Builder
	b.WriteString("Candidate action:\n")
	fmt.Fprintf(&b, "- title: %s\n- description: %s\n- type: %s\n- category: %s\n",
		candidate.Title, candidate.Description, candidate.Type, candidate.Category)
	if candidate.Centre != "" {
		fmt.Fprintf(&b, "- centre: %s\n", candidate.Centre)
	}
	if candidate.Department != "" {
		fmt.Fprintf(&b, "- department: %s\n", candidate.Department)
	}
	b.WriteString("\nExisting actions:\n")
	for _, a := range pool {
		fmt.Fprintf(&b, "- id=%s | title=%s | type=%s | category=%s | centre=%s | department=%s | description=%s\n",
			a.ID, a.Title, a.Type, a.Category, a.Centre, a.Department, truncate(a.Description, 300))
	}
	b.WriteString("\nScore each existing action 0-100 for similarity to the candidate. " +
		"Only include actions scoring 30 or higher, with brief reasons.")
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
