package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"nutricoach"
)

// ActionType identifies a higher-level intent detected in a conversation turn.
type ActionType string

const (
	ActionUpdateGoals        ActionType = "update_goals"
	ActionSuggestMeals       ActionType = "suggest_meals"
	ActionShowProgress       ActionType = "show_progress"
	ActionEditMeal           ActionType = "edit_meal"
	ActionDeleteMeal         ActionType = "delete_meal"
	ActionCalculateRemaining ActionType = "calculate_remaining"
)

// IsValid reports whether at is a known action type.
func (at ActionType) IsValid() bool {
	switch at {
	case ActionUpdateGoals, ActionSuggestMeals, ActionShowProgress,
		ActionEditMeal, ActionDeleteMeal, ActionCalculateRemaining:
		return true
	}
	return false
}

// Action is one detected intent with its payload and independent confidence.
type Action struct {
	Type       ActionType `json:"type"`
	Data       ActionData `json:"data"`
	Confidence float64    `json:"confidence"`
}

// ActionData is the union of the per-intent payloads; each intent reads only
// its own fields.
type ActionData struct {
	// update_goals
	Calories float64 `json:"calories,omitempty"`
	Protein  float64 `json:"protein,omitempty"`
	Carbs    float64 `json:"carbs,omitempty"`
	Fat      float64 `json:"fat,omitempty"`

	// suggest_meals
	MealType     string    `json:"meal_type,omitempty"`
	Preferences  []string  `json:"preferences,omitempty"`
	CalorieRange []float64 `json:"calorie_range,omitempty"`

	// edit_meal / delete_meal
	MealIdentifier string `json:"meal_identifier,omitempty"`
	Changes        string `json:"changes,omitempty"`

	// calculate_remaining: one of protein|calories|carbs|fat|all
	Macro string `json:"macro,omitempty"`
}

// actionConfidenceThreshold filters extracted intents; better to miss an
// action than to create a wrong one.
const actionConfidenceThreshold = 0.7

const actionSystemPrompt = `You are an intent parser for a nutrition assistant. Analyze conversations between a user and the assistant to detect specific actions that should be performed in the nutrition app.

DETECT THESE ACTIONS
- update_goals: the user wants to change nutrition targets. Data: calories, protein, carbs, fat (numbers).
- suggest_meals: the user asks for meal recommendations. Data: meal_type (breakfast|lunch|dinner|snack), preferences (array of strings), calorie_range ([min, max]).
- show_progress: the user asks about current nutrition status. Data: empty object.
- edit_meal: the user wants to modify a logged meal. Data: meal_identifier (description of which meal), changes (what to change).
- delete_meal: the user wants to remove a logged meal. Data: meal_identifier.
- calculate_remaining: the user asks how much more they need to reach goals. Data: macro (protein|calories|carbs|fat|all).

RULES
- Only return actions with confidence above 0.7.
- Return an empty array if no clear actions are detected.
- Be conservative - better to miss an action than create a wrong one.

OUTPUT CONTRACT
- Your response must be ONE valid JSON array only (no extra text, no markdown, no code fences) matching this schema:

%s

Return a valid JSON array or [].`

// Actions extracts typed intents from conversation turns.
type Actions struct {
	client nutricoach.CompletionClient
}

func NewActions(client nutricoach.CompletionClient) *Actions {
	return &Actions{client: client}
}

// Extract returns the intents detected in the turn, keeping only well-formed
// entries above the confidence threshold. Any failure - network, parse or
// schema - degrades to an empty result.
func (a *Actions) Extract(ctx context.Context, userMessage, aiResponse string) ([]Action, error) {
	messages := []nutricoach.Message{
		{Role: nutricoach.RoleSystem, Content: fmt.Sprintf(actionSystemPrompt, renderSchema(actionSchema()))},
		{Role: nutricoach.RoleUser, Content: conversationContext(userMessage, aiResponse)},
	}

	content, err := a.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("action extraction completion failed: %w", err)
	}

	payload, ok := jsonPayload(content)
	if !ok {
		return nil, nil
	}

	var raw []Action
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		slog.Warn("EXTRACT: Discarding unparseable action output", "error", err)
		return nil, nil
	}

	actions := make([]Action, 0, len(raw))
	for _, action := range raw {
		if !action.Type.IsValid() {
			slog.Warn("EXTRACT: Dropping unknown action type", "type", action.Type)
			continue
		}
		if action.Confidence <= actionConfidenceThreshold {
			slog.Info("EXTRACT: Dropping low-confidence action", "type", action.Type, "confidence", action.Confidence)
			continue
		}
		actions = append(actions, action)
	}

	return actions, nil
}
