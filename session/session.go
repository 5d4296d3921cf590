// Package session holds the per-conversation snapshot of local app state:
// today's meals, running macro totals, nutrition goals and the recent chat
// history the assistant sees as context.
package session

import (
	"sync"

	"nutricoach"
)

// DefaultHistoryWindow is how many recent messages are carried as completion
// context.
const DefaultHistoryWindow = 10

type State struct {
	mu            sync.Mutex
	userID        string
	goals         nutricoach.Goals
	todaysMeals   []nutricoach.MealRecord
	dailyTotals   nutricoach.MacroSet
	history       []nutricoach.Message
	historyWindow int
}

// NewState creates session state for a user with the given goals. A zero
// goals value falls back to the defaults.
func NewState(userID string, goals nutricoach.Goals) *State {
	if goals == (nutricoach.Goals{}) {
		goals = nutricoach.DefaultGoals()
	}
	return &State{
		userID:        userID,
		goals:         goals,
		historyWindow: DefaultHistoryWindow,
	}
}

// UserID returns the session's user id.
func (s *State) UserID() string { return s.userID }

// AppendMeal adds a persisted meal to today's list. Daily totals are
// recomputed from the full meal list, never incrementally.
func (s *State) AppendMeal(record nutricoach.MealRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todaysMeals = append(s.todaysMeals, record)
	s.dailyTotals = sumTotals(s.todaysMeals)
}

// RemoveMeal drops a meal by id and recomputes totals. Returns whether a
// meal was removed.
func (s *State) RemoveMeal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.todaysMeals[:0]
	removed := false
	for _, m := range s.todaysMeals {
		if m.ID == id {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	s.todaysMeals = kept
	if removed {
		s.dailyTotals = sumTotals(s.todaysMeals)
	}
	return removed
}

// SetTodaysMeals replaces the meal list wholesale (e.g. after a fresh load
// from the record store) and recomputes totals.
func (s *State) SetTodaysMeals(meals []nutricoach.MealRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todaysMeals = meals
	s.dailyTotals = sumTotals(meals)
}

// TodaysMeals returns a copy of today's meal list.
func (s *State) TodaysMeals() []nutricoach.MealRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]nutricoach.MealRecord, len(s.todaysMeals))
	copy(out, s.todaysMeals)
	return out
}

// Totals returns the current daily macro totals.
func (s *State) Totals() nutricoach.MacroSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dailyTotals
}

// Goals returns the current nutrition goals.
func (s *State) Goals() nutricoach.Goals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals
}

// SetGoals replaces the nutrition goals.
func (s *State) SetGoals(goals nutricoach.Goals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = goals
}

// Remaining returns goal-minus-actual deltas. Values may be negative when a
// target is exceeded; callers decide how to render that.
func (s *State) Remaining() nutricoach.MacroSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	return nutricoach.MacroSet{
		Calories: s.goals.Calories - s.dailyTotals.Calories,
		Protein:  s.goals.Protein - s.dailyTotals.Protein,
		Carbs:    s.goals.Carbs - s.dailyTotals.Carbs,
		Fat:      s.goals.Fat - s.dailyTotals.Fat,
	}
}

// AddHistory appends one chat message to the rolling history window.
func (s *State) AddHistory(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, nutricoach.Message{Role: role, Content: content})
	if len(s.history) > s.historyWindow {
		s.history = s.history[len(s.history)-s.historyWindow:]
	}
}

// History returns a copy of the recent messages.
func (s *State) History() []nutricoach.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]nutricoach.Message, len(s.history))
	copy(out, s.history)
	return out
}

// sumTotals recomputes daily totals as a pure function of the full meal list.
func sumTotals(meals []nutricoach.MealRecord) nutricoach.MacroSet {
	var totals nutricoach.MacroSet
	for _, m := range meals {
		totals.Calories += m.Calories
		totals.Protein += m.Protein
		totals.Carbs += m.Carbs
		totals.Fat += m.Fat
		totals.Fiber += m.Fiber
		totals.Sugar += m.Sugar
		totals.Sodium += m.Sodium
	}
	return totals
}
