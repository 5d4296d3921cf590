// One-shot instrumented run against AWS Bedrock: processes a single message
// with full OpenTelemetry instrumentation and delivers the reply to Slack.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nutricoach"
	"nutricoach/completion/bedrock"
	"nutricoach/dialogue"
	"nutricoach/session"
	"nutricoach/slack"
	"nutricoach/store"
)

func main() {
	godotenv.Load() // nolint: errcheck

	ctx := context.Background()

	var modelConfig nutricoach.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var assistantConfig nutricoach.AssistantConfig
	if err := envdecode.Decode(&assistantConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	message := argOr(1, "I had 2 large eggs and a slice of toast for breakfast")

	brc, err := newBedrockRuntimeClient(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to create Bedrock client", "error", err)
		return
	}

	client := bedrock.NewClient(brc, bedrock.ClientOpts{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})

	records, err := store.NewSQLiteStore(assistantConfig.MealDBPath, store.AnonymousUser)
	if err != nil {
		slog.Error("SETUP: Failed to open meal database", "error", err)
		return
	}
	defer records.Close()

	profile := store.NewFileProfileState(assistantConfig.ProfilePath)
	goals := store.LoadGoals(ctx, profile)
	slog.Info("SETUP: Profile goals loaded", "calories", goals.Calories, "protein", goals.Protein)

	state := session.NewState(store.AnonymousUser, goals)

	turnLogger, cleanup, err := newTurnLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create turn logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush turn log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := nutricoach.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	// Fake Slack webhook endpoint so the full delivery path runs locally.
	testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := new(bytes.Buffer)
		body.ReadFrom(r.Body) // nolint: errcheck
		slog.Info("FINAL: Received request",
			"method", r.Method,
			"path", r.URL.Path,
			"header", r.Header,
			"body", body.String(),
		)
		w.WriteHeader(http.StatusOK)
	}))
	defer testServer.Close()

	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	if webhookURL == "" {
		webhookURL = testServer.URL
	}
	notifier := slack.NewNotifier(slack.NewClient(webhookURL, http.DefaultClient), "#nutrition")

	tracer := tracerProvider.Tracer(nutricoach.TracerNameBedrock)
	meter := meterProvider.Meter(nutricoach.TracerNameBedrock)
	ctx, span := tracer.Start(ctx, nutricoach.TracerNameBedrock, trace.WithAttributes(
		attribute.String("model.id", modelConfig.ModelID),
		attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
		attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
		attribute.Float64("model.top_p", float64(modelConfig.TopP)),
	))
	defer span.End()

	engine := dialogue.NewInstrumentedEngine(dialogue.NewEngine(dialogue.EngineConfig{
		Completion:     client,
		Records:        records,
		Session:        state,
		Emitter:        notifier,
		TurnLogger:     turnLogger,
		FollowUpDelay:  assistantConfig.FollowUpDelay(),
		PendingHorizon: assistantConfig.PendingHorizon(),
	}), tracer, meter)

	if err := engine.LoadToday(ctx); err != nil {
		slog.Warn("SETUP: Could not load today's meals", "error", err)
	}

	reply, err := engine.HandleMessage(ctx, message)
	if err != nil {
		slog.Error("RESULT: Error handling message", "error", err)
		return
	}

	if err := notifier.Send(ctx, reply); err != nil {
		slog.Error("Failed to post reply to Slack", "error", err)
	}
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newTurnLogger(modelID string) (nutricoach.TurnLogger, func() error, error) {
	logFilePath := nutricoach.NewTurnLogFilePath(modelID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := nutricoach.NewFileTurnLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
