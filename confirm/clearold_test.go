package confirm

import (
	"testing"
	"time"

	should "github.com/stretchr/testify/assert"
)

func TestClearOldDropsAnyStatus(t *testing.T) {
	current := time.Now()
	store := NewStore()
	store.now = func() time.Time { return current }

	confirmed := store.Add(&Action{Type: ActionMealLog})
	store.Confirm(confirmed)
	pending := store.Add(&Action{Type: ActionMealLog})

	// Both actions age past the horizon.
	current = current.Add(45 * time.Minute)
	fresh := store.Add(&Action{Type: ActionMealLog})

	store.ClearOld(30 * time.Minute)

	should.Nil(t, store.Get(confirmed), "old confirmed actions are dropped")
	should.Nil(t, store.Get(pending), "old pending actions are dropped too")
	should.NotNil(t, store.Get(fresh))
}
