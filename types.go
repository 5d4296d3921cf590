package nutricoach

import (
	"context"
	"net/http"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CompletionClient is the external text-completion collaborator. It takes an
// ordered list of role-tagged messages and returns a single text completion.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Message is a role-tagged chat message sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MacroSet holds macro-nutrient values. Fiber, sugar and sodium are optional
// and omitted when zero.
type MacroSet struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber,omitempty"`
	Sugar    float64 `json:"sugar,omitempty"`
	Sodium   float64 `json:"sodium,omitempty"`
}

// MealType is one of breakfast, lunch, dinner, snack.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// IsValid reports whether mt is a known meal type.
func (mt MealType) IsValid() bool {
	switch mt {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// FoodItem is a single candidate food item produced by extraction. It is
// immutable once produced; a turn that supplies missing details replaces the
// whole item set, never patches fields.
type FoodItem struct {
	Name     string   `json:"name"`
	Quantity string   `json:"quantity"`
	Unit     string   `json:"unit"`
	Macros   MacroSet `json:"macros"`
}

// CandidateMeal is a structured, not-yet-persisted meal proposal.
type CandidateMeal struct {
	Items       []FoodItem `json:"items"`
	TotalMacros MacroSet   `json:"totalMacros"`
	MealType    MealType   `json:"mealType,omitempty"`
	Confidence  float64    `json:"confidence"`
}

// IsValid checks if the CandidateMeal meets basic validation requirements.
func (cm *CandidateMeal) IsValid() bool {
	if len(cm.Items) == 0 {
		return false
	}

	for _, item := range cm.Items {
		if item.Name == "" {
			return false
		}
	}

	if cm.Confidence < 0 || cm.Confidence > 1 {
		return false
	}

	// Meal type is optional, but when present it must be a known value.
	if cm.MealType != "" && !cm.MealType.IsValid() {
		return false
	}

	return true
}

// ItemNames returns the item names in order, for detail analysis.
func (cm *CandidateMeal) ItemNames() []string {
	names := make([]string, 0, len(cm.Items))
	for _, item := range cm.Items {
		names = append(names, item.Name)
	}
	return names
}

// MealRecord is the persisted meal shape. The embedded MacroSet flattens into
// the record's top-level fields, matching the meal_logs row layout.
type MealRecord struct {
	ID       string   `json:"id,omitempty"`
	UserID   string   `json:"user_id,omitempty"`
	Name     string   `json:"meal_name"`
	MealType MealType `json:"meal_type"`
	MacroSet
	Confidence float64   `json:"confidence"`
	LoggedAt   time.Time `json:"logged_at"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Goals are daily macro targets.
type Goals = MacroSet

// DefaultGoals returns the fallback targets used when no profile is loaded.
func DefaultGoals() Goals {
	return Goals{Calories: 2000, Protein: 150, Carbs: 250, Fat: 65}
}
