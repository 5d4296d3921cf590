package nutricoach

import "time"

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1000"`
	Temperature float32 `env:"TEMPERATURE,default=0.7"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AssistantConfig struct {
	OpenAIAPIKey       string `env:"OPENAI_API_KEY,default="`
	OpenAIEndpoint     string `env:"OPENAI_ENDPOINT,default=https://api.openai.com/v1/chat/completions"`
	ProfilePath        string `env:"ARTIFACTS_PROFILE_PATH,default=artifacts/profile.json"`
	MealDBPath         string `env:"MEAL_DB_PATH,default=artifacts/meals.db"`
	HistoryWindow      int    `env:"HISTORY_WINDOW,default=10"`
	FollowUpDelayMs    int    `env:"FOLLOWUP_DELAY_MS,default=1500"`
	PendingHorizonMins int    `env:"PENDING_HORIZON_MINS,default=30"`
}

// FollowUpDelay is the pause before a supplementary detail/confirmation
// message, letting the primary reply render first.
func (c AssistantConfig) FollowUpDelay() time.Duration {
	return time.Duration(c.FollowUpDelayMs) * time.Millisecond
}

// PendingHorizon is the maximum age of an unresolved pending action.
func (c AssistantConfig) PendingHorizon() time.Duration {
	return time.Duration(c.PendingHorizonMins) * time.Minute
}
