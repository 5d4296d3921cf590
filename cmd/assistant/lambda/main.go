// Lambda entry point: one dialogue turn per invocation. The profile snapshot
// comes from S3 and meal records go to a PostgREST-style HTTP store; follow-up
// prompts run inline and come back in the response payload.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"nutricoach"
	"nutricoach/completion/bedrock"
	"nutricoach/dialogue"
	"nutricoach/session"
	"nutricoach/store"
)

type Params struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type Results struct {
	Reply     string   `json:"reply"`
	FollowUps []string `json:"follow_ups,omitempty"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig nutricoach.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var assistantConfig nutricoach.AssistantConfig
		if err := envdecode.Decode(&assistantConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		// S3 config from env
		s3Bucket := os.Getenv("ARTIFACTS_S3_BUCKET")
		profileKey := os.Getenv("ARTIFACTS_PROFILE_S3_KEY")
		if s3Bucket == "" || profileKey == "" {
			return Results{}, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET, ARTIFACTS_PROFILE_S3_KEY must be set")
		}

		restURL := os.Getenv("MEAL_STORE_URL")
		restKey := os.Getenv("MEAL_STORE_API_KEY")
		if restURL == "" {
			return Results{}, fmt.Errorf("missing store config: MEAL_STORE_URL must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		profile := store.NewS3ProfileState(s3Client, s3Bucket, profileKey)
		goals := store.LoadGoals(ctx, profile)
		slog.Info("SETUP: Profile goals loaded from S3", "calories", goals.Calories, "protein", goals.Protein)

		records := store.NewRESTStore(restURL, restKey, params.UserID, http.DefaultClient)
		state := session.NewState(params.UserID, goals)

		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to create Bedrock client", "error", err)
			return Results{}, err
		}

		client := bedrock.NewClient(brc, bedrock.ClientOpts{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		collector := &collectEmitter{}

		engine := dialogue.NewEngine(dialogue.EngineConfig{
			Completion: client,
			Records:    records,
			Session:    state,
			Emitter:    collector,
			TurnLogger: nutricoach.NewStdoutTurnLogger(),
			// The invocation ends when the handler returns, so follow-ups run
			// inline and ride back in the response.
			Scheduler:      func(_ time.Duration, fn func()) { fn() },
			PendingHorizon: assistantConfig.PendingHorizon(),
		})

		if err := engine.LoadToday(ctx); err != nil {
			slog.Warn("SETUP: Could not load today's meals", "error", err)
		}

		reply, err := engine.HandleMessage(ctx, params.Message)
		if err != nil {
			slog.Error("RESULT: Error handling message", "error", err)
			return Results{}, err
		}

		return Results{Reply: reply, FollowUps: collector.Messages()}, nil
	}

	lambda.Start(fn)
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

type collectEmitter struct {
	mu       sync.Mutex
	messages []string
}

func (c *collectEmitter) Send(_ context.Context, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, message)
	return nil
}

func (c *collectEmitter) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}
