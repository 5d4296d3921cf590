package dialogue

import (
	"fmt"
	"strings"

	"nutricoach"
	"nutricoach/extract"
)

// WelcomeMessage greets a fresh session before any turn is processed.
const WelcomeMessage = "Hi! I'm your nutrition coach. Tell me what you've eaten and I'll track it, or ask me about your goals and progress."

const coachSystemPrompt = `You are a friendly, knowledgeable nutrition coach. Help the user log meals, track macros and reach their daily goals.

GUIDELINES
- Keep replies short and conversational.
- When the user describes food, acknowledge it and estimate nutrition naturally.
- If quantities are missing, ask for them (how many, what size, what type).
- Encourage without lecturing. Never shame food choices.
- Stay on nutrition topics.

TODAY'S CONTEXT
%s`

// contextMessages assembles the completion request for a fresh turn: the
// coach persona with today's snapshot, the recent history window, then the
// incoming message.
func (e *Engine) contextMessages(message string) []nutricoach.Message {
	goals := e.state.Goals()
	totals := e.state.Totals()

	var snapshot strings.Builder
	fmt.Fprintf(&snapshot, "Goals: %.0f calories, %.0fg protein, %.0fg carbs, %.0fg fat.\n", goals.Calories, goals.Protein, goals.Carbs, goals.Fat)
	fmt.Fprintf(&snapshot, "Logged so far: %.0f calories, %.0fg protein, %.0fg carbs, %.0fg fat.\n", totals.Calories, totals.Protein, totals.Carbs, totals.Fat)

	meals := e.state.TodaysMeals()
	if len(meals) == 0 {
		snapshot.WriteString("No meals logged yet today.")
	} else {
		names := make([]string, 0, len(meals))
		for _, m := range meals {
			names = append(names, m.Name)
		}
		fmt.Fprintf(&snapshot, "Today's meals: %s.", strings.Join(names, ", "))
	}

	messages := []nutricoach.Message{
		{Role: nutricoach.RoleSystem, Content: fmt.Sprintf(coachSystemPrompt, snapshot.String())},
	}
	messages = append(messages, e.state.History()...)
	messages = append(messages, nutricoach.Message{Role: nutricoach.RoleUser, Content: message})
	return messages
}

func renderProgress(totals, goals nutricoach.MacroSet) string {
	pct := func(current, target float64) float64 {
		if target <= 0 {
			return 0
		}
		return current / target * 100
	}

	return fmt.Sprintf(
		"Here's where you are today:\n- Calories: %.0f / %.0f (%.0f%%)\n- Protein: %.0fg / %.0fg (%.0f%%)\n- Carbs: %.0fg / %.0fg (%.0f%%)\n- Fat: %.0fg / %.0fg (%.0f%%)",
		totals.Calories, goals.Calories, pct(totals.Calories, goals.Calories),
		totals.Protein, goals.Protein, pct(totals.Protein, goals.Protein),
		totals.Carbs, goals.Carbs, pct(totals.Carbs, goals.Carbs),
		totals.Fat, goals.Fat, pct(totals.Fat, goals.Fat),
	)
}

func renderSuggestions(mealType nutricoach.MealType, suggestions []extract.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here are some %s ideas that fit your remaining macros:\n", mealType)
	for i, s := range suggestions {
		fmt.Fprintf(&b, "\n%d. %s (%.0f cal, %.0fg protein, %.0fg carbs, %.0fg fat)\n", i+1, s.Name, s.Calories, s.Protein, s.Carbs, s.Fat)
		if s.Description != "" {
			fmt.Fprintf(&b, "   %s\n", s.Description)
		}
		if len(s.Ingredients) > 0 {
			fmt.Fprintf(&b, "   Ingredients: %s\n", strings.Join(s.Ingredients, ", "))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderRemaining formats goal-minus-actual deltas. Exceeded targets render
// as "over", never as negative remainders.
func renderRemaining(macro string, remaining nutricoach.MacroSet) string {
	line := func(label string, value float64, unit string) string {
		if value < 0 {
			return fmt.Sprintf("%s: %.0f%s over target", label, -value, unit)
		}
		return fmt.Sprintf("%s: %.0f%s to go", label, value, unit)
	}

	single := func(value float64, unit, noun string) string {
		if value < 0 {
			return fmt.Sprintf("You're %.0f%s of %s over target today.", -value, unit, noun)
		}
		return fmt.Sprintf("You have %.0f%s of %s to go today.", value, unit, noun)
	}

	switch strings.ToLower(macro) {
	case "calories":
		if remaining.Calories < 0 {
			return fmt.Sprintf("You're %.0f calories over target today.", -remaining.Calories)
		}
		return fmt.Sprintf("You have %.0f calories to go today.", remaining.Calories)
	case "protein":
		return single(remaining.Protein, "g", "protein")
	case "carbs":
		return single(remaining.Carbs, "g", "carbs")
	case "fat":
		return single(remaining.Fat, "g", "fat")
	default:
		return fmt.Sprintf(
			"Here's what's left today:\n- %s\n- %s\n- %s\n- %s",
			line("Calories", remaining.Calories, ""),
			line("Protein", remaining.Protein, "g"),
			line("Carbs", remaining.Carbs, "g"),
			line("Fat", remaining.Fat, "g"),
		)
	}
}
