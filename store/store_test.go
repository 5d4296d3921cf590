package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutricoach"
	"nutricoach/store"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestTestRecordStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	records := store.NewTestRecordStore()

	now := time.Now()
	created, err := records.CreateMeal(ctx, nutricoach.MealRecord{
		Name:     "eggs",
		MealType: nutricoach.MealTypeBreakfast,
		MacroSet: nutricoach.MacroSet{Calories: 140, Protein: 12},
		LoggedAt: now,
	})
	must.NoError(t, err)
	should.NotEmpty(t, created.ID)
	should.Equal(t, store.AnonymousUser, created.UserID)
	should.False(t, created.CreatedAt.IsZero())

	listed, err := records.ListMeals(ctx, store.AnonymousUser, now.Add(-time.Hour), now.Add(time.Hour))
	must.NoError(t, err)
	must.Len(t, listed, 1)
	should.Equal(t, "eggs", listed[0].Name)
}

func TestTestRecordStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	records := store.NewTestRecordStore()

	// Insertion order deliberately differs from logged order.
	base := time.Now()
	meals := []struct {
		name   string
		offset time.Duration
	}{
		{"middle", time.Minute},
		{"newest", 2 * time.Minute},
		{"oldest", 0},
	}
	for _, m := range meals {
		_, err := records.CreateMeal(ctx, nutricoach.MealRecord{
			Name:     m.name,
			LoggedAt: base.Add(m.offset),
		})
		must.NoError(t, err)
	}

	listed, err := records.ListMeals(ctx, store.AnonymousUser, base.Add(-time.Hour), base.Add(time.Hour))
	must.NoError(t, err)
	must.Len(t, listed, 3)
	should.Equal(t, "newest", listed[0].Name, "logged time descending")
	should.Equal(t, "middle", listed[1].Name)
	should.Equal(t, "oldest", listed[2].Name)
}

func TestTestRecordStoreDelete(t *testing.T) {
	ctx := context.Background()
	records := store.NewTestRecordStore()

	created, err := records.CreateMeal(ctx, nutricoach.MealRecord{Name: "eggs", LoggedAt: time.Now()})
	must.NoError(t, err)

	must.NoError(t, records.DeleteMeal(ctx, created.ID))
	should.Empty(t, records.Records())
	should.Error(t, records.DeleteMeal(ctx, created.ID))
}

func TestTestRecordStoreErrorInjection(t *testing.T) {
	ctx := context.Background()
	records := store.NewTestRecordStoreWithError(errors.New("store down"))

	_, err := records.CreateMeal(ctx, nutricoach.MealRecord{Name: "eggs"})
	should.Error(t, err)
	should.Error(t, records.DeleteMeal(ctx, "any"))

	_, err = records.ListMeals(ctx, store.AnonymousUser, time.Time{}, time.Now())
	should.Error(t, err)

	// Identity falls back to anonymous rather than failing.
	user, err := records.CurrentUser(ctx)
	should.NoError(t, err)
	should.Equal(t, store.AnonymousUser, user)
}

func TestLoadGoals(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		profile store.ProfileState
		want    nutricoach.Goals
	}{
		{
			name:    "valid profile",
			profile: store.NewTestProfileState([]byte(`{"user_id":"u1","nutrition_goals":{"calories":1800,"protein":140,"carbs":200,"fat":60}}`)),
			want:    nutricoach.Goals{Calories: 1800, Protein: 140, Carbs: 200, Fat: 60},
		},
		{
			name:    "missing profile falls back to defaults",
			profile: store.NewTestProfileStateWithError(),
			want:    nutricoach.DefaultGoals(),
		},
		{
			name:    "malformed profile falls back to defaults",
			profile: store.NewTestProfileState([]byte(`{not json`)),
			want:    nutricoach.DefaultGoals(),
		},
		{
			name:    "profile without goals falls back to defaults",
			profile: store.NewTestProfileState([]byte(`{"user_id":"u1"}`)),
			want:    nutricoach.DefaultGoals(),
		},
		{
			name:    "zero-calorie goals fall back to defaults",
			profile: store.NewTestProfileState([]byte(`{"nutrition_goals":{"calories":0}}`)),
			want:    nutricoach.DefaultGoals(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			should.Equal(t, tt.want, store.LoadGoals(ctx, tt.profile))
		})
	}
}
