package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"nutricoach"
)

// mealConfidenceThreshold is the floor below which the extractor itself
// discards a candidate meal; it never reaches the rest of the pipeline.
const mealConfidenceThreshold = 0.6

const mealSystemPrompt = `You are a nutrition data extraction specialist. Extract structured meal and macro information from conversations.

TASK
Parse the user's message and the assistant's reply to extract meal logging data in JSON format.

RULES
- Only extract if the conversation involves actual food items being logged/tracked.
- Estimate realistic macro values based on typical portions.
- Return the literal string null if no meal logging is detected.
- Be conservative with confidence scores.

OUTPUT CONTRACT
- Your response must be ONE valid JSON value only (no extra text, no markdown, no code fences) matching this schema:

%s

Return only valid JSON or null if no meal data detected.`

// Meals extracts candidate meals from conversation turns.
type Meals struct {
	client nutricoach.CompletionClient
}

func NewMeals(client nutricoach.CompletionClient) *Meals {
	return &Meals{client: client}
}

// Extract asks the completion service for a structured candidate meal based
// on the user's message and the assistant's reply. A non-nil error means the
// completion call itself failed; (nil, nil) means no usable meal was found,
// covering unparseable output, a declared null, low confidence and schema
// violations alike.
func (m *Meals) Extract(ctx context.Context, userMessage, aiResponse string) (*nutricoach.CandidateMeal, error) {
	messages := []nutricoach.Message{
		{Role: nutricoach.RoleSystem, Content: fmt.Sprintf(mealSystemPrompt, renderSchema(mealSchema()))},
		{Role: nutricoach.RoleUser, Content: conversationContext(userMessage, aiResponse)},
	}

	content, err := m.client.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("meal extraction completion failed: %w", err)
	}

	payload, ok := jsonPayload(content)
	if !ok {
		slog.Info("EXTRACT: No meal payload in completion", "content_len", len(content))
		return nil, nil
	}

	var meal nutricoach.CandidateMeal
	if err := json.Unmarshal([]byte(payload), &meal); err != nil {
		slog.Warn("EXTRACT: Discarding unparseable meal output", "error", err)
		return nil, nil
	}

	if meal.Confidence <= mealConfidenceThreshold {
		slog.Info("EXTRACT: Discarding low-confidence meal", "confidence", meal.Confidence)
		return nil, nil
	}

	if !meal.IsValid() {
		slog.Warn("EXTRACT: Discarding invalid meal candidate")
		return nil, nil
	}

	// Totals are recomputed from the items so a rendered summary always sums
	// to totalMacros.calories.
	meal.TotalMacros = sumMacros(meal.Items)

	return &meal, nil
}

func sumMacros(items []nutricoach.FoodItem) nutricoach.MacroSet {
	var total nutricoach.MacroSet
	for _, item := range items {
		total.Calories += item.Macros.Calories
		total.Protein += item.Macros.Protein
		total.Carbs += item.Macros.Carbs
		total.Fat += item.Macros.Fat
		total.Fiber += item.Macros.Fiber
		total.Sugar += item.Macros.Sugar
		total.Sodium += item.Macros.Sodium
	}
	return total
}

// conversationContext formats the turn pair the way all three extractors
// present it to the model.
func conversationContext(userMessage, aiResponse string) string {
	return fmt.Sprintf("User: %q\nAI: %q", userMessage, aiResponse)
}

// jsonPayload trims a completion down to its JSON value, tolerating stray
// prose or code fences around it. Returns false for empty output or a
// declared null.
func jsonPayload(content string) (string, bool) {
	s := strings.TrimSpace(content)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return "", false
	}

	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return "", false
	}

	return s[start : end+1], true
}
