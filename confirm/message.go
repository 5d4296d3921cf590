package confirm

import (
	"fmt"
	"strings"

	"nutricoach"
)

// ConfirmationMessage renders a human-readable summary of a candidate meal
// for the user to confirm. It is deterministic and never invents values not
// present in the meal data: every item appears exactly once and the calorie
// total is the sum over the items.
func ConfirmationMessage(meal *nutricoach.CandidateMeal) string {
	parts := make([]string, 0, len(meal.Items))
	total := 0.0
	for _, item := range meal.Items {
		parts = append(parts, fmt.Sprintf("%s%s of %s", item.Quantity, item.Unit, item.Name))
		total += item.Macros.Calories
	}
	itemsList := strings.Join(parts, ", ")

	mealType := string(meal.MealType)
	if mealType == "" {
		mealType = "your meal"
	}

	return fmt.Sprintf(
		"Perfect! Let me make sure I have this right.\n\nYou had %s for %s.\n\nThat's about %.0f calories total. Should I add this to your nutrition tracker?\n\nReply \"yes\" to confirm or let me know if I need to adjust anything!",
		itemsList, mealType, total,
	)
}
