// Package extract turns free conversation text into structured meal data,
// higher-level intents, and meal suggestions by prompting the completion
// service for strict JSON and validating everything client-side. Parsing is
// fail-closed: malformed or low-confidence output never reaches callers.
package extract

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Output schemas rendered into the extraction prompts. No schema is enforced
// server-side; these describe the contract to the model, and validation
// happens here after parsing.

func mealSchema() *jsonschema.Schema {
	confMin := 0.0
	confMax := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"items": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":     {Type: "string"},
						"quantity": {Type: "string"},
						"unit":     {Type: "string"},
						"macros":   macroSchema(),
					},
					Required: []string{"name", "quantity", "unit", "macros"},
				},
			},
			"totalMacros": macroSchema(),
			"mealType":    {Type: "string", Enum: []any{"breakfast", "lunch", "dinner", "snack"}},
			"confidence":  {Type: "number", Minimum: &confMin, Maximum: &confMax},
		},
		Required: []string{"items", "totalMacros", "confidence"},
	}
}

func macroSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"calories": {Type: "number"},
			"protein":  {Type: "number"},
			"carbs":    {Type: "number"},
			"fat":      {Type: "number"},
		},
		Required: []string{"calories", "protein", "carbs", "fat"},
	}
}

func actionSchema() *jsonschema.Schema {
	confMin := 0.0
	confMax := 1.0
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"type": {
					Type: "string",
					Enum: []any{"update_goals", "suggest_meals", "show_progress", "edit_meal", "delete_meal", "calculate_remaining"},
				},
				"data":       {Type: "object"},
				"confidence": {Type: "number", Minimum: &confMin, Maximum: &confMax},
			},
			Required: []string{"type", "data", "confidence"},
		},
	}
}

func suggestionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":        {Type: "string"},
				"calories":    {Type: "number"},
				"protein":     {Type: "number"},
				"carbs":       {Type: "number"},
				"fat":         {Type: "number"},
				"description": {Type: "string"},
				"ingredients": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			},
			Required: []string{"name", "calories", "protein", "carbs", "fat", "description", "ingredients"},
		},
	}
}

// renderSchema marshals a schema for embedding into a system prompt.
func renderSchema(s *jsonschema.Schema) string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		// Schemas are static values; a marshal failure is a programming error.
		panic(err)
	}
	return string(b)
}
