// Package confirm classifies user replies to a proposed action and keeps the
// session-scoped registry of actions awaiting confirmation.
package confirm

import (
	"regexp"
	"strings"
)

// ResultType tags the detector's classification of a reply.
type ResultType string

const (
	TypeConfirm ResultType = "confirm"
	TypeReject  ResultType = "reject"
	TypeModify  ResultType = "modify"
	TypeUnclear ResultType = "unclear"
)

// Result is the detector's tagged output for one utterance. Derived
// transiently per message; never stored.
type Result struct {
	IsConfirmation bool
	IsRejection    bool
	Confidence     float64
	Type           ResultType
}

var confirmationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(yes|yep|yeah|correct|right|add it|log it|that's right|sounds good|perfect|exactly)\b`),
	regexp.MustCompile(`(?i)\b(go ahead|do it|sure|okay|ok|looks good|that works)\b`),
	regexp.MustCompile(`(?i)^(y|yes|yep)$`),
}

var rejectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(no|nope|wrong|incorrect|don't|don't add|not right|cancel)\b`),
	regexp.MustCompile(`(?i)\b(never mind|nevermind|skip|ignore|delete|remove)\b`),
	regexp.MustCompile(`(?i)^(n|no|nope)$`),
}

var modificationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(actually|but|however|change|different|more|less|instead)\b`),
	regexp.MustCompile(`(?i)\b(it was|i had|make it|should be|not)\b`),
}

func countMatches(patterns []*regexp.Regexp, s string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(s) {
			n++
		}
	}
	return n
}

// Detect classifies a reply as confirm / reject / modify / unclear. A message
// matching both the confirm and reject families is unclear: ambiguity must
// never resolve silently to an action. Pure function.
func Detect(message string) Result {
	lower := strings.TrimSpace(strings.ToLower(message))

	confirmations := countMatches(confirmationPatterns, lower)
	rejections := countMatches(rejectionPatterns, lower)
	modifications := countMatches(modificationPatterns, lower)

	resultType := TypeUnclear
	confidence := 0.0

	switch {
	case confirmations > 0 && rejections > 0:
		// Both families matched: ambiguity must never resolve silently to an
		// action, so the reply stays unclear even if modify words are present.
		resultType = TypeUnclear
	case confirmations > 0:
		resultType = TypeConfirm
		confidence = min(float64(confirmations)*0.4, 0.9)
	case rejections > 0:
		resultType = TypeReject
		confidence = min(float64(rejections)*0.4, 0.9)
	case modifications > 0:
		resultType = TypeModify
		confidence = min(float64(modifications)*0.3, 0.8)
	}

	// Terse replies are decisive: a short message with a clear signal is
	// forced to 0.8 regardless of match count.
	if len(lower) < 10 && (resultType == TypeConfirm || resultType == TypeReject) {
		confidence = 0.8
	}

	return Result{
		IsConfirmation: resultType == TypeConfirm && confidence > 0.6,
		IsRejection:    resultType == TypeReject && confidence > 0.6,
		Confidence:     confidence,
		Type:           resultType,
	}
}
