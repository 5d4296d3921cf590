package confirm

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nutricoach"
	"nutricoach/detail"
)

// ActionType identifies what a pending action will do once confirmed.
type ActionType string

const (
	ActionMealLog        ActionType = "meal_log"
	ActionGoalUpdate     ActionType = "goal_update"
	ActionMealSuggestion ActionType = "meal_suggestion"
)

// Status of a pending action. Transitions exactly once, out of StatusPending.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
)

// DefaultHorizon is the maximum age after which an unresolved action is
// discarded by ClearOld.
const DefaultHorizon = 30 * time.Minute

// Action is a proposed-but-unconfirmed action awaiting user confirmation.
type Action struct {
	ID           string
	Type         ActionType
	Meal         *nutricoach.CandidateMeal
	Goals        *nutricoach.Goals
	UserMessage  string
	AIResponse   string
	Timestamp    time.Time
	Status       Status
	NeedsDetails bool
	Gaps         []detail.Gap
}

// Store is the single authoritative in-memory registry of actions awaiting
// confirmation, scoped to one conversation session. Construct one per session
// and pass it by reference; it is not a process-wide singleton.
//
// Turns are sequential within a session, but the delayed follow-up emission
// re-reads the store from a timer goroutine, so access is mutex-guarded.
type Store struct {
	mu      sync.Mutex
	actions []*Action
	now     func() time.Time
}

// NewStore creates an empty session-scoped store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Add registers an action, assigning a fresh id, pending status and the
// current timestamp. Returns the id.
func (s *Store) Add(action *Action) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	action.ID = uuid.NewString()
	action.Timestamp = s.now()
	action.Status = StatusPending
	s.actions = append(s.actions, action)
	return action.ID
}

// Pending returns all actions still awaiting confirmation. Confirmed and
// rejected actions are never returned; callers must not reconfirm.
func (s *Store) Pending() []*Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*Action
	for _, a := range s.actions {
		if a.Status == StatusPending {
			pending = append(pending, a)
		}
	}
	return pending
}

// Confirm transitions a pending action to confirmed. The transition is
// terminal; confirming an unknown or already-resolved action is a no-op
// returning nil.
func (s *Store) Confirm(id string) *Action {
	return s.transition(id, StatusConfirmed)
}

// Reject transitions a pending action to rejected. Same terminal semantics
// as Confirm.
func (s *Store) Reject(id string) *Action {
	return s.transition(id, StatusRejected)
}

func (s *Store) transition(id string, to Status) *Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actions {
		if a.ID == id {
			if a.Status != StatusPending {
				return nil
			}
			a.Status = to
			return a
		}
	}
	return nil
}

// UpdateMeal replaces a pending meal action's data wholesale after a
// detail-completing re-extraction. The gaps are cleared, never patched
// per-field. No-op returning nil when the action is unknown or resolved.
func (s *Store) UpdateMeal(id string, meal *nutricoach.CandidateMeal, userMessage string) *Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actions {
		if a.ID == id {
			if a.Status != StatusPending {
				return nil
			}
			a.Meal = meal
			a.UserMessage = userMessage
			a.NeedsDetails = false
			a.Gaps = nil
			return a
		}
	}
	return nil
}

// Get returns the action with the given id, or nil.
func (s *Store) Get(id string) *Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actions {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// ClearOld drops actions older than maxAge regardless of status, preventing
// unbounded growth. Called opportunistically, not on a timer. A maxAge <= 0
// uses DefaultHorizon.
func (s *Store) ClearOld(maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = DefaultHorizon
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	kept := s.actions[:0]
	for _, a := range s.actions {
		if a.Timestamp.After(cutoff) {
			kept = append(kept, a)
		}
	}
	s.actions = kept
}

// LatestPendingMeal returns the most recently added pending meal_log action,
// or nil. This is the sole lookup the dialogue engine uses to find the meal
// currently under discussion: if several meal proposals are pending, only the
// newest is addressable until it resolves.
func (s *Store) LatestPendingMeal() *Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.actions) - 1; i >= 0; i-- {
		a := s.actions[i]
		if a.Type == ActionMealLog && a.Status == StatusPending {
			return a
		}
	}
	return nil
}
