package confirm_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"nutricoach"
	"nutricoach/confirm"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func candidateMeal() *nutricoach.CandidateMeal {
	return &nutricoach.CandidateMeal{
		Items: []nutricoach.FoodItem{
			{Name: "eggs", Quantity: "2", Unit: " large", Macros: nutricoach.MacroSet{Calories: 140, Protein: 12}},
			{Name: "toast", Quantity: "1", Unit: " slice", Macros: nutricoach.MacroSet{Calories: 80, Protein: 3}},
		},
		TotalMacros: nutricoach.MacroSet{Calories: 220, Protein: 15},
		MealType:    nutricoach.MealTypeBreakfast,
		Confidence:  0.9,
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := confirm.NewStore()

	id := store.Add(&confirm.Action{Type: confirm.ActionMealLog, Meal: candidateMeal()})
	must.NotEmpty(t, id)

	pending := store.Pending()
	must.Len(t, pending, 1)
	should.Equal(t, confirm.StatusPending, pending[0].Status)
	should.Equal(t, id, pending[0].ID)

	confirmed := store.Confirm(id)
	must.NotNil(t, confirmed)
	should.Equal(t, confirm.StatusConfirmed, confirmed.Status)
	should.Empty(t, store.Pending())
}

func TestStoreTerminalTransitions(t *testing.T) {
	store := confirm.NewStore()

	should.Nil(t, store.Confirm("unknown"))
	should.Nil(t, store.Reject("unknown"))

	id := store.Add(&confirm.Action{Type: confirm.ActionMealLog, Meal: candidateMeal()})
	must.NotNil(t, store.Confirm(id))

	// Terminal: a second transition of either kind is a no-op.
	should.Nil(t, store.Confirm(id))
	should.Nil(t, store.Reject(id))
	should.Equal(t, confirm.StatusConfirmed, store.Get(id).Status)
}

func TestStoreLatestPendingMeal(t *testing.T) {
	store := confirm.NewStore()
	should.Nil(t, store.LatestPendingMeal())

	store.Add(&confirm.Action{Type: confirm.ActionGoalUpdate})
	should.Nil(t, store.LatestPendingMeal(), "non-meal actions are not addressable")

	first := store.Add(&confirm.Action{Type: confirm.ActionMealLog, Meal: candidateMeal()})
	second := store.Add(&confirm.Action{Type: confirm.ActionMealLog, Meal: candidateMeal()})

	latest := store.LatestPendingMeal()
	must.NotNil(t, latest)
	should.Equal(t, second, latest.ID, "only the newest pending meal is addressable")

	store.Confirm(second)
	latest = store.LatestPendingMeal()
	must.NotNil(t, latest)
	should.Equal(t, first, latest.ID)
}

func TestStoreClearOld(t *testing.T) {
	store := confirm.NewStore()

	id := store.Add(&confirm.Action{Type: confirm.ActionMealLog, Meal: candidateMeal()})
	store.ClearOld(time.Hour)
	should.NotNil(t, store.Get(id), "fresh actions survive")

	// A zero horizon falls back to the default, which still keeps it.
	store.ClearOld(0)
	should.NotNil(t, store.Get(id))
}

func TestStoreUpdateMeal(t *testing.T) {
	store := confirm.NewStore()

	id := store.Add(&confirm.Action{
		Type:         confirm.ActionMealLog,
		Meal:         candidateMeal(),
		UserMessage:  "I had some chicken",
		NeedsDetails: true,
	})

	updated := store.UpdateMeal(id, candidateMeal(), "I had some chicken 6 oz grilled")
	must.NotNil(t, updated)
	should.False(t, updated.NeedsDetails)
	should.Nil(t, updated.Gaps)
	should.Equal(t, "I had some chicken 6 oz grilled", updated.UserMessage)

	store.Confirm(id)
	should.Nil(t, store.UpdateMeal(id, candidateMeal(), "late"), "resolved actions are immutable")
}

func TestConfirmationMessage(t *testing.T) {
	meal := candidateMeal()
	message := confirm.ConfirmationMessage(meal)

	// Every item appears exactly once and the rendered total matches the sum
	// over the items.
	for _, item := range meal.Items {
		should.Equal(t, 1, strings.Count(message, item.Name), "item %q should appear once", item.Name)
	}
	should.Contains(t, message, fmt.Sprintf("about %.0f calories", meal.TotalMacros.Calories))
	should.Contains(t, message, "breakfast")
	should.Contains(t, message, "nutrition tracker")
}
