// Package scope decides whether an utterance is on-topic for nutrition
// coaching. It is a pure keyword/pattern heuristic: no state is read or
// written, and ambiguous messages fall through to normal handling rather
// than being blocked.
package scope

import (
	"regexp"
	"strings"
	"sync/atomic"
)

// Analysis is the classifier's tagged result for one utterance.
type Analysis struct {
	IsNutritionRelated bool
	Confidence         float64
	DetectedTopics     []string
	RedirectionNeeded  bool
}

var nutritionKeywords = []string{
	// Core nutrition
	"nutrition", "macro", "macros", "micro", "micronutrient", "calorie", "calories", "protein", "carb", "carbs", "carbohydrate", "fat", "fiber", "sugar", "sodium", "cholesterol",

	// Food and meals
	"food", "meal", "eat", "eating", "ate", "breakfast", "lunch", "dinner", "snack", "recipe", "ingredient", "cook", "cooking", "bake", "baking", "prep", "portion",

	// Meal planning
	"plan", "planning", "meal plan", "grocery", "shopping", "pantry", "kitchen", "menu", "weekly meals",

	// Diet and health conditions
	"diet", "dietary", "pcos", "hashimoto", "hashimotos", "gluten", "lactose", "intolerance", "allergy", "allergic", "celiac", "keto", "paleo", "vegan", "vegetarian",

	// Nutritional aspects
	"vitamin", "mineral", "supplement", "hydration", "water", "intake", "deficiency", "balanced", "healthy eating", "metabolism",

	// Food preparation
	"restaurant", "dining", "takeout", "delivery", "fresh", "organic", "processed", "whole food",
}

// Topic families that trigger redirection when no nutrition signal is present.
var nonNutritionPatterns = []*regexp.Regexp{
	// Fitness and exercise
	regexp.MustCompile(`(?i)\b(workout|exercise|gym|fitness|training|cardio|weights|running|jogging|yoga|pilates|sports|athletic)\b`),

	// Medical (beyond diet-related conditions)
	regexp.MustCompile(`(?i)\b(doctor|medicine|medication|surgery|hospital|treatment|therapy|diagnosis|symptoms|disease|illness)\b`),

	// Technology
	regexp.MustCompile(`(?i)\b(computer|software|app|technology|programming|coding|internet|website|phone|device)\b`),

	// Travel and lifestyle
	regexp.MustCompile(`(?i)\b(travel|vacation|work|job|career|relationship|dating|family|school|education|hobby)\b`),

	// Entertainment
	regexp.MustCompile(`(?i)\b(movie|music|tv|show|game|entertainment|celebrity|news|politics|weather)\b`),

	// General conversation
	regexp.MustCompile(`(?i)\b(how are you|what's up|tell me about|what do you think|opinion|advice|help with)\b`),

	// Shopping (non-food)
	regexp.MustCompile(`(?i)\b(clothes|clothing|shoes|electronics|car|house|furniture)\b`),
}

var (
	foodVerbPattern   = regexp.MustCompile(`(?i)\b(had|have|having|ate|eating|drink|drinking|taste|tasty|delicious|hungry|full)\b`)
	mealTimingPattern = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|today|yesterday|tonight|earlier|later|before|after)\b`)
	wordPattern       = regexp.MustCompile(`[a-z]+`)
)

// Analyze scores a message against the nutrition keyword list and the
// non-nutrition topic families. Redirection is deliberately conservative:
// it requires confidence above 0.8 that the message is off-topic.
func Analyze(message string) Analysis {
	lower := strings.ToLower(message)

	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(lower, -1) {
		words[w] = true
	}

	// Single-word keywords match whole tokens only ("ate" must not fire
	// inside "lately"); multi-word phrases match as substrings.
	nutritionScore := 0
	for _, keyword := range nutritionKeywords {
		if strings.Contains(keyword, " ") {
			if strings.Contains(lower, keyword) {
				nutritionScore++
			}
		} else if words[keyword] {
			nutritionScore++
		}
	}

	var topics []string
	for _, pattern := range nonNutritionPatterns {
		if pattern.MatchString(lower) {
			topics = append(topics, pattern.String())
		}
	}

	// Contextual boosts: talking about eating or meal timing leans nutrition.
	if foodVerbPattern.MatchString(lower) {
		nutritionScore += 2
	}
	if mealTimingPattern.MatchString(lower) {
		nutritionScore++
	}

	nonNutritionScore := len(topics)

	isNutrition := nutritionScore > 0 && nonNutritionScore == 0

	confidence := float64(nutritionScore) / float64(nutritionScore+nonNutritionScore+1)
	if confidence > 0.95 {
		confidence = 0.95
	}

	// Redirection requires strong confidence that the message is off-topic;
	// any nutrition signal at all drags this down so ambiguous messages fall
	// through to normal handling.
	var nonConfidence float64
	if nonNutritionScore > 0 {
		nonConfidence = float64(nonNutritionScore) / float64(nonNutritionScore+nutritionScore)
	}

	return Analysis{
		IsNutritionRelated: isNutrition,
		Confidence:         confidence,
		DetectedTopics:     topics,
		RedirectionNeeded:  !isNutrition && nonConfidence > 0.8,
	}
}

var redirectionReplies = []string{
	"I'm your dedicated nutrition coach! I'm here specifically to help with your food, meals, and nutrition goals. What can I help you with regarding your eating today?",
	"Hey there! I focus exclusively on nutrition and meal planning. Let's talk about your food journey - what's on your plate today?",
	"I'm all about nutrition! I'm designed to help with meals, macros, and healthy eating. What would you like to know about your food choices?",
	"My expertise is in nutrition and meal planning! I'd love to help you with anything food-related - what are you curious about regarding your eating habits?",
	"I'm your nutrition-focused buddy! Let's keep our chat centered on food, meals, and your health goals. What nutritional topic can I help you with?",
}

var redirectionCursor atomic.Uint64

// RedirectionReply returns the next canned redirection response, rotating
// through the set so repeated off-topic messages don't get the same reply.
func RedirectionReply() string {
	n := redirectionCursor.Add(1) - 1
	return redirectionReplies[n%uint64(len(redirectionReplies))]
}
