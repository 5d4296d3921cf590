// Package detail decides whether a described meal carries enough
// quantitative information (counts, weights, volumes) to be logged, and
// produces targeted follow-up questions when it does not. All functions are
// pure heuristics over the utterance text.
package detail

import (
	"fmt"
	"regexp"
	"strings"
)

// Gap is one food item's missing quantitative details, blocking
// confirmation-readiness.
type Gap struct {
	FoodItem           string
	MissingDetails     []string
	SuggestedQuestions []string
}

// Analysis aggregates the gaps for one utterance. The utterance is complete
// iff the gap list is empty.
type Analysis struct {
	HasAllDetails bool
	Gaps          []Gap
	Confidence    float64
}

type category struct {
	name      string
	keywords  []string
	questions []string
}

// Food categories that need specific quantity questions. Order matters:
// only the first matching category per item is applied.
var categories = []category{
	{
		name:      "eggs",
		keywords:  []string{"egg", "eggs", "scrambled", "fried", "boiled", "poached"},
		questions: []string{"How many eggs?", "What size eggs (large, medium, small)?"},
	},
	{
		name:      "bread",
		keywords:  []string{"toast", "bread", "slice", "slices", "bagel", "muffin"},
		questions: []string{"How many slices?", "What type of bread?", "What size (regular, thick cut)?"},
	},
	{
		name:      "meat",
		keywords:  []string{"chicken", "beef", "pork", "turkey", "salmon", "fish", "steak"},
		questions: []string{"How many ounces/grams?", "What cut/type?", "How was it prepared?"},
	},
	{
		name:      "dairy",
		keywords:  []string{"milk", "yogurt", "cheese", "cream"},
		questions: []string{"How much (cups/oz)?", "What type (whole, skim, etc.)?"},
	},
	{
		name:      "vegetables",
		keywords:  []string{"vegetables", "veggies", "salad", "broccoli", "carrots", "spinach"},
		questions: []string{"How much (cups/servings)?", "Raw or cooked?", "What vegetables specifically?"},
	},
	{
		name:      "grains",
		keywords:  []string{"rice", "pasta", "quinoa", "oats", "cereal"},
		questions: []string{"How much (cups cooked)?", "What type?"},
	},
	{
		name:      "nuts",
		keywords:  []string{"nuts", "almonds", "peanuts", "walnuts", "seeds"},
		questions: []string{"How much (oz/handful/tablespoons)?", "What type of nuts?"},
	},
	{
		name:      "fruits",
		keywords:  []string{"fruit", "apple", "banana", "orange", "berries", "grapes"},
		questions: []string{"How many pieces?", "What size?", "What type of fruit?"},
	},
	{
		name:      "beverages",
		keywords:  []string{"coffee", "juice", "soda", "smoothie", "water", "tea"},
		questions: []string{"How much (oz/cups)?", "What type?", "Any additions (milk, sugar)?"},
	},
	{
		name:      "snacks",
		keywords:  []string{"chips", "crackers", "cookies", "chocolate", "candy"},
		questions: []string{"How much (oz/pieces/servings)?", "What brand/type?"},
	},
}

// Patterns that indicate specific quantities are already provided.
var quantityIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d+\s*(oz|ounces|grams?|g|lbs?|pounds?|cups?|tbsp|tablespoons?|tsp|teaspoons?)\b`),
	regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten|\d+)\s*(small\s+|medium\s+|large\s+|extra\s*large\s+)?(pieces?|slices?|eggs?|cups?)\b`),
	regexp.MustCompile(`(?i)\b(small|medium|large|extra\s*large)\s*(serving|portion|size)\b`),
	regexp.MustCompile(`(?i)\b(handful|pinch|dash|splash)\b`),
	regexp.MustCompile(`(?i)\b\d+/\d+\s*(cup|oz)\b`), // fractions like 1/2 cup
}

var eggCountPattern = regexp.MustCompile(`\b(one|two|three|four|five|six|\d+)\s*(small\s+|medium\s+|large\s+|extra\s*large\s+)?eggs?\b`)

func hasQuantityIndicator(s string) bool {
	for _, p := range quantityIndicators {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Analyze inspects each extracted food item against the category table and
// flags missing quantitative details. Only the first matching category per
// item applies, to avoid redundant questioning.
func Analyze(foodItems []string, userMessage string) Analysis {
	var gaps []Gap
	lowerMessage := strings.ToLower(userMessage)

	hasQuantity := hasQuantityIndicator(lowerMessage)

	for _, item := range foodItems {
		lowerItem := strings.ToLower(item)
		var missing []string
		var questions []string

		for _, cat := range categories {
			matched := false
			for _, keyword := range cat.keywords {
				if strings.Contains(lowerItem, keyword) || strings.Contains(lowerMessage, keyword) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}

			if !hasQuantity {
				missing = append(missing, "quantity")
				questions = append(questions, cat.questions...)
			}

			// Category-specific secondary checks add finer gaps.
			switch cat.name {
			case "meat":
				if !strings.Contains(lowerMessage, "oz") && !strings.Contains(lowerMessage, "gram") && !strings.Contains(lowerMessage, "pound") {
					missing = append(missing, "weight")
				}
			case "bread":
				if !strings.Contains(lowerMessage, "slice") && !strings.Contains(lowerMessage, "piece") {
					missing = append(missing, "count")
				}
			case "eggs":
				if !eggCountPattern.MatchString(lowerMessage) {
					missing = append(missing, "count")
				}
			}
			break // first matching category wins
		}

		if len(missing) > 0 {
			gaps = append(gaps, Gap{
				FoodItem:           item,
				MissingDetails:     missing,
				SuggestedQuestions: dedupe(questions),
			})
		}
	}

	confidence := 0.9
	if len(gaps) > 0 {
		confidence = max(0.1, 0.8-float64(len(gaps))*0.2)
	}

	return Analysis{
		HasAllDetails: len(gaps) == 0,
		Gaps:          gaps,
		Confidence:    confidence,
	}
}

// Questions renders a single follow-up message for an incomplete analysis:
// at most two questions per item, deduplicated, capped at four in total, and
// always ending with the eating-time question. Returns "" when the analysis
// is already complete.
func Questions(analysis Analysis) string {
	if analysis.HasAllDetails {
		return ""
	}

	const timeQuestion = "What time did you eat this?"

	var questions []string
	for _, gap := range analysis.Gaps {
		qs := gap.SuggestedQuestions
		if len(qs) > 2 {
			qs = qs[:2]
		}
		questions = append(questions, qs...)
	}

	unique := dedupe(questions)
	if len(unique) > 4 {
		unique = unique[:4]
	}

	questionText := timeQuestion
	if len(unique) > 0 {
		questionText = strings.Join(unique, " ") + " " + timeQuestion
	}

	return fmt.Sprintf("Let me get some more details for accurate tracking: %s Then I can add this to your nutrition tracker!", questionText)
}

var (
	numberPattern       = regexp.MustCompile(`\b\d+`)
	quantityWordPattern = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|small|medium|large|cup|oz|slice|piece)\b`)
)

// HasProvidedMissingDetails reports whether a follow-up reply now supplies
// what was missing. It does not map specific gaps to specific values: any
// quantity-like evidence anywhere in the reply is accepted as satisfying all
// outstanding gaps.
func HasProvidedMissingDetails(response string, previousGaps []Gap) bool {
	lower := strings.ToLower(response)

	return hasQuantityIndicator(lower) ||
		numberPattern.MatchString(response) ||
		quantityWordPattern.MatchString(response)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
