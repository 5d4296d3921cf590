package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"nutricoach"
)

// ProfileState is the load-only user profile snapshot consulted at session
// start. The payload is profile JSON carrying the nutrition goals.
type ProfileState interface {
	Load(ctx context.Context) ([]byte, error)
}

type FileProfileState struct {
	FilePath string
}

func NewFileProfileState(filePath string) *FileProfileState {
	return &FileProfileState{FilePath: filePath}
}

func (p *FileProfileState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(p.FilePath)
}

// TestProfileState is a simple in-memory implementation for testing
type TestProfileState struct {
	data []byte
	err  error
}

func NewTestProfileState(data []byte) *TestProfileState {
	return &TestProfileState{data: data}
}

func NewTestProfileStateWithError() *TestProfileState {
	return &TestProfileState{err: errors.New("not found")}
}

func (t *TestProfileState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

type profileDocument struct {
	UserID         string            `json:"user_id"`
	NutritionGoals *nutricoach.Goals `json:"nutrition_goals"`
}

// LoadGoals reads the profile snapshot and returns its nutrition goals. A
// missing or malformed profile falls back to the default targets rather than
// failing the session.
func LoadGoals(ctx context.Context, profile ProfileState) nutricoach.Goals {
	data, err := profile.Load(ctx)
	if err != nil {
		return nutricoach.DefaultGoals()
	}

	var doc profileDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.NutritionGoals == nil {
		return nutricoach.DefaultGoals()
	}
	if doc.NutritionGoals.Calories <= 0 {
		return nutricoach.DefaultGoals()
	}
	return *doc.NutritionGoals
}
