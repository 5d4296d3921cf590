package extract_test

import (
	"context"
	"errors"
	"testing"

	"nutricoach"
	"nutricoach/completion/scripted"
	"nutricoach/extract"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

const mealJSON = `{
	"items": [
		{"name": "eggs", "quantity": "2", "unit": " large", "macros": {"calories": 140, "protein": 12, "carbs": 1, "fat": 10}},
		{"name": "toast", "quantity": "1", "unit": " slice", "macros": {"calories": 80, "protein": 3, "carbs": 15, "fat": 1}}
	],
	"totalMacros": {"calories": 999, "protein": 1, "carbs": 1, "fat": 1},
	"mealType": "breakfast",
	"confidence": 0.9
}`

func TestMealsExtract(t *testing.T) {
	extractor := extract.NewMeals(scripted.NewClient(mealJSON))

	meal, err := extractor.Extract(context.Background(), "I had 2 eggs and toast", "Sounds great!")
	must.NoError(t, err)
	must.NotNil(t, meal)

	must.Len(t, meal.Items, 2)
	should.Equal(t, "eggs", meal.Items[0].Name)
	should.Equal(t, nutricoach.MealTypeBreakfast, meal.MealType)

	// Totals are recomputed from the items, overriding whatever the model said.
	should.Equal(t, 220.0, meal.TotalMacros.Calories)
	should.Equal(t, 15.0, meal.TotalMacros.Protein)
}

func TestMealsExtractFailClosed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "declared null", response: "null"},
		{name: "prose only", response: "I couldn't find any meal data in that conversation."},
		{name: "malformed json", response: `{"items": [`},
		{name: "low confidence", response: `{"items":[{"name":"eggs","macros":{"calories":140}}],"confidence":0.5}`},
		{name: "no items", response: `{"items":[],"confidence":0.9}`},
		{name: "unnamed item", response: `{"items":[{"name":"","macros":{"calories":10}}],"confidence":0.9}`},
		{name: "unknown meal type", response: `{"items":[{"name":"eggs","macros":{"calories":140}}],"mealType":"brunch","confidence":0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := extract.NewMeals(scripted.NewClient(tt.response))
			meal, err := extractor.Extract(context.Background(), "I had eggs", "ok")
			should.NoError(t, err)
			should.Nil(t, meal)
		})
	}
}

func TestMealsExtractToleratesCodeFences(t *testing.T) {
	extractor := extract.NewMeals(scripted.NewClient("```json\n" + mealJSON + "\n```"))
	meal, err := extractor.Extract(context.Background(), "I had 2 eggs and toast", "ok")
	must.NoError(t, err)
	must.NotNil(t, meal)
	should.Len(t, meal.Items, 2)
}

func TestMealsExtractCompletionFailure(t *testing.T) {
	extractor := extract.NewMeals(scripted.NewClientWithError(errors.New("boom")))
	meal, err := extractor.Extract(context.Background(), "I had eggs", "ok")
	should.Error(t, err)
	should.Nil(t, meal)
}
