package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nutricoach"
	"nutricoach/store"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "meals.db"), "u1")
	must.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	records := newSQLiteStore(t)

	now := time.Now().Truncate(time.Second)
	created, err := records.CreateMeal(ctx, nutricoach.MealRecord{
		Name:       "grilled chicken",
		MealType:   nutricoach.MealTypeDinner,
		MacroSet:   nutricoach.MacroSet{Calories: 330, Protein: 62, Fat: 7},
		Confidence: 0.85,
		LoggedAt:   now,
	})
	must.NoError(t, err)
	should.NotEmpty(t, created.ID)
	should.Equal(t, "u1", created.UserID)

	listed, err := records.ListMeals(ctx, "u1", now.Add(-time.Hour), now.Add(time.Hour))
	must.NoError(t, err)
	must.Len(t, listed, 1)
	should.Equal(t, "grilled chicken", listed[0].Name)
	should.Equal(t, nutricoach.MealTypeDinner, listed[0].MealType)
	should.Equal(t, 330.0, listed[0].Calories)
	should.Equal(t, 62.0, listed[0].Protein)
	should.Equal(t, now.Unix(), listed[0].LoggedAt.Unix())
}

func TestSQLiteStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	records := newSQLiteStore(t)

	base := time.Now().Truncate(time.Second)
	for i, name := range []string{"oldest", "middle", "newest"} {
		_, err := records.CreateMeal(ctx, nutricoach.MealRecord{
			Name:     name,
			LoggedAt: base.Add(time.Duration(i) * time.Minute),
		})
		must.NoError(t, err)
	}

	listed, err := records.ListMeals(ctx, "u1", base.Add(-time.Hour), base.Add(time.Hour))
	must.NoError(t, err)
	must.Len(t, listed, 3)
	should.Equal(t, "newest", listed[0].Name)
	should.Equal(t, "oldest", listed[2].Name)
}

func TestSQLiteStoreDelete(t *testing.T) {
	ctx := context.Background()
	records := newSQLiteStore(t)

	created, err := records.CreateMeal(ctx, nutricoach.MealRecord{Name: "eggs", LoggedAt: time.Now()})
	must.NoError(t, err)

	must.NoError(t, records.DeleteMeal(ctx, created.ID))
	should.Error(t, records.DeleteMeal(ctx, created.ID))
}

func TestSQLiteStoreCurrentUser(t *testing.T) {
	records := newSQLiteStore(t)
	user, err := records.CurrentUser(context.Background())
	must.NoError(t, err)
	should.Equal(t, "u1", user)
}
