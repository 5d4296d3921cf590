package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"nutricoach"
)

// Suggestion is one recommended meal aimed at the user's remaining macros.
type Suggestion struct {
	Name        string   `json:"name"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

// maxSuggestions caps how many suggestions a single request may yield.
const maxSuggestions = 3

const suggestionSystemPrompt = `You are a nutrition-focused meal suggestion expert. Generate %d meal suggestions that fit the user's remaining macro needs.

REQUIREMENTS
- Suggest realistic, practical meals for %s.
- Target the remaining macros: %.0f calories, %.0fg protein, %.0fg carbs, %.0fg fat.
- Consider preferences: %s.
- Each suggestion should be achievable and tasty.

OUTPUT CONTRACT
- Your response must be ONE valid JSON array only (no extra text, no markdown, no code fences) matching this schema:

%s

Return exactly %d suggestions in valid JSON format.`

// Suggestions generates meal suggestions against remaining macro targets.
type Suggestions struct {
	client nutricoach.CompletionClient
}

func NewSuggestions(client nutricoach.CompletionClient) *Suggestions {
	return &Suggestions{client: client}
}

// Generate asks the completion service for up to three meals fitting the gap
// between current intake and targets. Same fail-closed parsing as the other
// extractors: any malformed output degrades to an empty result.
func (s *Suggestions) Generate(ctx context.Context, mealType nutricoach.MealType, current, target nutricoach.MacroSet, preferences []string) ([]Suggestion, error) {
	remaining := nutricoach.MacroSet{
		Calories: max(0, target.Calories-current.Calories),
		Protein:  max(0, target.Protein-current.Protein),
		Carbs:    max(0, target.Carbs-current.Carbs),
		Fat:      max(0, target.Fat-current.Fat),
	}

	prefs := "none specified"
	if len(preferences) > 0 {
		prefs = strings.Join(preferences, ", ")
	}

	prompt := fmt.Sprintf(suggestionSystemPrompt,
		maxSuggestions, mealType,
		remaining.Calories, remaining.Protein, remaining.Carbs, remaining.Fat,
		prefs, renderSchema(suggestionSchema()), maxSuggestions,
	)

	content, err := s.client.Complete(ctx, []nutricoach.Message{{Role: nutricoach.RoleSystem, Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("suggestion completion failed: %w", err)
	}

	payload, ok := jsonPayload(content)
	if !ok {
		return nil, nil
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(payload), &suggestions); err != nil {
		slog.Warn("EXTRACT: Discarding unparseable suggestion output", "error", err)
		return nil, nil
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return suggestions, nil
}
