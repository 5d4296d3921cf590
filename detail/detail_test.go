package detail_test

import (
	"strings"
	"testing"

	"nutricoach/detail"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name           string
		items          []string
		message        string
		wantAllDetails bool
		wantGapDetails []string
	}{
		{
			name:           "eggs without quantity",
			items:          []string{"eggs"},
			message:        "I had eggs for breakfast",
			wantAllDetails: false,
			wantGapDetails: []string{"quantity", "count"},
		},
		{
			name:           "eggs with count and size",
			items:          []string{"eggs"},
			message:        "I had 2 large eggs",
			wantAllDetails: true,
		},
		{
			name:           "chicken without weight",
			items:          []string{"chicken"},
			message:        "I had some chicken",
			wantAllDetails: false,
			wantGapDetails: []string{"quantity", "weight"},
		},
		{
			name:           "chicken with ounces",
			items:          []string{"chicken"},
			message:        "I had 6 oz of grilled chicken",
			wantAllDetails: true,
		},
		{
			name:           "toast with slice count",
			items:          []string{"toast"},
			message:        "I had 2 slices of toast",
			wantAllDetails: true,
		},
		{
			name:           "uncategorized item has no gaps",
			items:          []string{"mystery casserole"},
			message:        "I had mystery casserole",
			wantAllDetails: true,
		},
		{
			name:           "no items",
			items:          nil,
			message:        "hello",
			wantAllDetails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := detail.Analyze(tt.items, tt.message)
			should.Equal(t, tt.wantAllDetails, analysis.HasAllDetails)

			if tt.wantAllDetails {
				should.Empty(t, analysis.Gaps)
				should.Equal(t, 0.9, analysis.Confidence)
				return
			}

			must.NotEmpty(t, analysis.Gaps)
			var details []string
			for _, gap := range analysis.Gaps {
				details = append(details, gap.MissingDetails...)
			}
			for _, want := range tt.wantGapDetails {
				should.Contains(t, details, want)
			}
			should.Less(t, analysis.Confidence, 0.9)
		})
	}
}

func TestAnalyzeConfidenceDegradesWithGaps(t *testing.T) {
	one := detail.Analyze([]string{"eggs"}, "I had eggs")
	two := detail.Analyze([]string{"eggs", "chicken"}, "I had eggs and chicken")

	must.Len(t, one.Gaps, 1)
	must.Len(t, two.Gaps, 2)
	should.Greater(t, one.Confidence, two.Confidence)
}

func TestQuestions(t *testing.T) {
	analysis := detail.Analyze([]string{"eggs"}, "I had eggs for breakfast")
	must.False(t, analysis.HasAllDetails)

	questions := detail.Questions(analysis)
	should.Contains(t, questions, "How many eggs?")
	should.Contains(t, questions, "What time did you eat this?")

	// At most four gap questions plus the time question.
	should.LessOrEqual(t, strings.Count(questions, "?"), 5)
}

func TestQuestionsCompleteAnalysis(t *testing.T) {
	analysis := detail.Analyze([]string{"eggs"}, "I had 2 large eggs")
	must.True(t, analysis.HasAllDetails)
	should.Empty(t, detail.Questions(analysis))
}

func TestQuestionsDeduplicatesAcrossItems(t *testing.T) {
	analysis := detail.Analyze([]string{"eggs", "scrambled eggs"}, "I had eggs and scrambled eggs")
	questions := detail.Questions(analysis)
	should.Equal(t, 1, strings.Count(questions, "How many eggs?"))
}

func TestHasProvidedMissingDetails(t *testing.T) {
	gaps := []detail.Gap{{FoodItem: "chicken", MissingDetails: []string{"weight"}}}

	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{name: "ounces", response: "6 oz grilled", want: true},
		{name: "bare number", response: "it was 3", want: true},
		{name: "quantity word", response: "a large piece", want: true},
		{name: "informal measure", response: "just a handful", want: true},
		{name: "no quantity evidence", response: "it was tasty", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			should.Equal(t, tt.want, detail.HasProvidedMissingDetails(tt.response, gaps))
		})
	}
}
