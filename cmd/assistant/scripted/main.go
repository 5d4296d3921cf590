// Offline demo: replays a scripted conversation through the dialogue engine
// with no network calls. Useful for eyeballing the turn ladder end to end.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"nutricoach"
	"nutricoach/completion/scripted"
	"nutricoach/dialogue"
	"nutricoach/session"
	"nutricoach/store"
)

// The scripted client serves completions in call order: each fresh turn
// consumes one assistant reply, one meal-extraction result and one
// action-extraction result.
var scriptedResponses = []string{
	// Turn 1: "I had 2 large eggs and a slice of toast for breakfast"
	"Nice breakfast! Two large eggs and a slice of toast is a solid start to the day.",
	`{"items":[{"name":"eggs","quantity":"2","unit":" large","macros":{"calories":140,"protein":12,"carbs":1,"fat":10}},{"name":"toast","quantity":"1","unit":" slice","macros":{"calories":80,"protein":3,"carbs":15,"fat":1}}],"totalMacros":{"calories":220,"protein":15,"carbs":16,"fat":11},"mealType":"breakfast","confidence":0.9}`,
	`[]`,

	// Turn 3 (after the "yes" commit turn, which needs no completion):
	// "how much protein do I have left?"
	"Let me check your remaining protein for today.",
	"null",
	`[{"type":"calculate_remaining","data":{"macro":"protein"},"confidence":0.9}]`,
}

var demoTurns = []string{
	"I had 2 large eggs and a slice of toast for breakfast",
	"yes",
	"how much protein do I have left?",
	"what's a good workout routine?",
}

func main() {
	godotenv.Load() // nolint: errcheck

	ctx := context.Background()

	turnLogger, cleanup, err := newTurnLogger("scripted")
	if err != nil {
		slog.Error("SETUP: Failed to create turn logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush turn log", "error", err)
		}
	}()

	records := store.NewTestRecordStore()
	state := session.NewState(store.AnonymousUser, nutricoach.DefaultGoals())

	engine := dialogue.NewEngine(dialogue.EngineConfig{
		Completion: scripted.NewClient(scriptedResponses...),
		Records:    records,
		Session:    state,
		Emitter:    stdoutEmitter{},
		TurnLogger: turnLogger,
		// Run follow-ups inline so the demo output is deterministic.
		Scheduler: func(_ time.Duration, fn func()) { fn() },
	})

	fmt.Println(dialogue.WelcomeMessage)
	for _, message := range demoTurns {
		fmt.Printf("\n> %s\n", message)
		reply, err := engine.HandleMessage(ctx, message)
		if err != nil {
			slog.Error("RESULT: Turn failed", "error", err)
			return
		}
		fmt.Println(reply)
	}

	fmt.Printf("\n%d meal record(s) persisted.\n", len(records.Records()))
}

type stdoutEmitter struct{}

func (stdoutEmitter) Send(_ context.Context, message string) error {
	fmt.Println(message)
	return nil
}

func newTurnLogger(model string) (nutricoach.TurnLogger, func() error, error) {
	logFilePath := nutricoach.NewTurnLogFilePath(model)
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
