// Package store provides the record-store collaborators: persisted meal
// records and the load-only profile snapshot consulted at session start.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"nutricoach"
)

// AnonymousUser is the identity fallback when no user can be resolved.
const AnonymousUser = "anonymous"

// RecordStore is the persistence collaborator for meal records. All
// operations may fail (network/auth); callers surface create/delete failures
// to the user without losing in-memory pending-action state.
type RecordStore interface {
	CreateMeal(ctx context.Context, record nutricoach.MealRecord) (nutricoach.MealRecord, error)
	DeleteMeal(ctx context.Context, id string) error
	// ListMeals returns records for the user in [from, to), ordered by logged
	// time descending.
	ListMeals(ctx context.Context, userID string, from, to time.Time) ([]nutricoach.MealRecord, error)
	CurrentUser(ctx context.Context) (string, error)
}

// TestRecordStore is a simple in-memory implementation for testing.
type TestRecordStore struct {
	mu      sync.Mutex
	records []nutricoach.MealRecord
	user    string
	err     error
}

func NewTestRecordStore() *TestRecordStore {
	return &TestRecordStore{user: AnonymousUser}
}

func NewTestRecordStoreWithError(err error) *TestRecordStore {
	if err == nil {
		err = errors.New("store unavailable")
	}
	return &TestRecordStore{user: AnonymousUser, err: err}
}

func (t *TestRecordStore) CreateMeal(ctx context.Context, record nutricoach.MealRecord) (nutricoach.MealRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nutricoach.MealRecord{}, t.err
	}

	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	if record.UserID == "" {
		record.UserID = t.user
	}
	t.records = append(t.records, record)
	return record, nil
}

func (t *TestRecordStore) DeleteMeal(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.err
	}

	for i, r := range t.records {
		if r.ID == id {
			t.records = append(t.records[:i], t.records[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (t *TestRecordStore) ListMeals(ctx context.Context, userID string, from, to time.Time) ([]nutricoach.MealRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nil, t.err
	}

	var out []nutricoach.MealRecord
	for _, r := range t.records {
		if r.UserID != userID {
			continue
		}
		if r.LoggedAt.Before(from) || !r.LoggedAt.Before(to) {
			continue
		}
		out = append(out, r)
	}

	// logged time descending
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LoggedAt.After(out[j].LoggedAt)
	})
	return out, nil
}

func (t *TestRecordStore) CurrentUser(ctx context.Context) (string, error) {
	if t.err != nil {
		return AnonymousUser, nil
	}
	return t.user, nil
}

// Records returns a snapshot of everything persisted, for assertions.
func (t *TestRecordStore) Records() []nutricoach.MealRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]nutricoach.MealRecord, len(t.records))
	copy(out, t.records)
	return out
}
