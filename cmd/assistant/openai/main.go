// Interactive nutrition coach backed by the OpenAI chat completions API,
// with meal records persisted to a local SQLite database.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"nutricoach"
	"nutricoach/completion/openai"
	"nutricoach/dialogue"
	"nutricoach/session"
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

	client, err := openai.NewClient(openai.ClientOpts{
		Endpoint:    assistantConfig.OpenAIEndpoint,
		APIKey:      assistantConfig.OpenAIAPIKey,
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create OpenAI client", "error", err)
		return
	}

	records, err := store.NewSQLiteStore(assistantConfig.MealDBPath, store.AnonymousUser)
	if err != nil {
		slog.Error("SETUP: Failed to open meal database", "error", err)
		return
	}
	defer records.Close()
	slog.Info("SETUP: Meal database opened", "path", assistantConfig.MealDBPath)

	profile := store.NewFileProfileState(assistantConfig.ProfilePath)
	goals := store.LoadGoals(ctx, profile)
	slog.Info("SETUP: Profile goals loaded", "calories", goals.Calories, "protein", goals.Protein)

	userID, err := records.CurrentUser(ctx)
	if err != nil {
		userID = store.AnonymousUser
	}
	state := session.NewState(userID, goals)

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

	engine := dialogue.NewEngine(dialogue.EngineConfig{
		Completion:     client,
		Records:        records,
		Session:        state,
		Emitter:        stdoutEmitter{},
		TurnLogger:     turnLogger,
		FollowUpDelay:  assistantConfig.FollowUpDelay(),
		PendingHorizon: assistantConfig.PendingHorizon(),
	})

	if err := engine.LoadToday(ctx); err != nil {
		slog.Warn("SETUP: Could not load today's meals", "error", err)
	}

	fmt.Println(dialogue.WelcomeMessage)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		reply, err := engine.HandleMessage(ctx, message)
		if err != nil {
			slog.Error("RESULT: Turn failed", "error", err)
			continue
		}
		fmt.Println(reply)
	}
}

type stdoutEmitter struct{}

func (stdoutEmitter) Send(_ context.Context, message string) error {
	fmt.Println(message)
	return nil
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
