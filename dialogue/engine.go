// Package dialogue orchestrates one conversation turn: scope check,
// pending-action resolution, assistant reply, and the subordinate meal and
// intent extraction that follows the reply.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"nutricoach"
	"nutricoach/confirm"
	"nutricoach/detail"
	"nutricoach/extract"
	"nutricoach/scope"
	"nutricoach/session"
	"nutricoach/store"
)

// Emitter is the sink for user-visible messages produced outside the primary
// reply: intent results and delayed follow-up prompts.
type Emitter interface {
	Send(ctx context.Context, message string) error
}

// Scheduler defers the follow-up emission so the primary reply renders first.
// Tests substitute an immediate scheduler.
type Scheduler func(delay time.Duration, fn func())

// DefaultFollowUpDelay is the pause before a supplementary detail question or
// confirmation prompt.
const DefaultFollowUpDelay = 1500 * time.Millisecond

const retryReply = "Sorry, I'm having trouble responding right now. Please try again in a moment."

// Engine processes turns strictly sequentially for one conversation session.
// The only non-awaited side effect is the scheduled follow-up emission, which
// re-checks pending status before sending.
type Engine struct {
	completion  nutricoach.CompletionClient
	meals       *extract.Meals
	actions     *extract.Actions
	suggestions *extract.Suggestions

	pending *confirm.Store
	records store.RecordStore
	state   *session.State
	emitter Emitter

	turnLogger     nutricoach.TurnLogger
	schedule       Scheduler
	followUpDelay  time.Duration
	pendingHorizon time.Duration

	turn int
}

// EngineConfig carries the engine's collaborators. Completion, Records,
// Session and Emitter are required; the rest default.
type EngineConfig struct {
	Completion     nutricoach.CompletionClient
	Records        store.RecordStore
	Session        *session.State
	Emitter        Emitter
	TurnLogger     nutricoach.TurnLogger
	Scheduler      Scheduler
	FollowUpDelay  time.Duration
	PendingHorizon time.Duration
}

// NewEngine initializes a dialogue engine with a fresh session-scoped pending
// action store.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TurnLogger == nil {
		cfg.TurnLogger = nutricoach.NewNoOpTurnLogger()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = func(delay time.Duration, fn func()) { time.AfterFunc(delay, fn) }
	}
	if cfg.FollowUpDelay <= 0 {
		cfg.FollowUpDelay = DefaultFollowUpDelay
	}
	if cfg.PendingHorizon <= 0 {
		cfg.PendingHorizon = confirm.DefaultHorizon
	}
	return &Engine{
		completion:     cfg.Completion,
		meals:          extract.NewMeals(cfg.Completion),
		actions:        extract.NewActions(cfg.Completion),
		suggestions:    extract.NewSuggestions(cfg.Completion),
		pending:        confirm.NewStore(),
		records:        cfg.Records,
		state:          cfg.Session,
		emitter:        cfg.Emitter,
		turnLogger:     cfg.TurnLogger,
		schedule:       cfg.Scheduler,
		followUpDelay:  cfg.FollowUpDelay,
		pendingHorizon: cfg.PendingHorizon,
	}
}

// Pending exposes the session's pending action store.
func (e *Engine) Pending() *confirm.Store { return e.pending }

// LoadToday primes session state with the meals already logged today.
func (e *Engine) LoadToday(ctx context.Context) error {
	userID, err := e.records.CurrentUser(ctx)
	if err != nil {
		userID = store.AnonymousUser
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	meals, err := e.records.ListMeals(ctx, userID, from, from.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to load today's meals: %w", err)
	}

	e.state.SetTodaysMeals(meals)
	return nil
}

// HandleMessage runs the per-turn decision ladder and returns the primary
// reply. First matching branch wins; later branches never run.
func (e *Engine) HandleMessage(ctx context.Context, message string) (string, error) {
	ctx, span := otel.Tracer("nutricoach/dialogue").Start(ctx, "Engine.HandleMessage")
	defer span.End()

	e.turn++
	tlog := nutricoach.TurnLog{Turn: e.turn, Timestamp: time.Now(), UserMessage: message}

	e.pending.ClearOld(e.pendingHorizon)

	// 1) Off-topic messages get a canned redirection; no completion call.
	scopeResult := scope.Analyze(message)
	if scopeResult.RedirectionNeeded {
		slog.Info("ENGINE: Redirecting off-topic message", "turn", e.turn, "topics", len(scopeResult.DetectedTopics))
		reply := scope.RedirectionReply()
		tlog.Branch = "redirect"
		tlog.Reply = reply
		e.logTurn(tlog)
		return reply, nil
	}

	pendingMeal := e.pending.LatestPendingMeal()

	// 2) A reply that supplies the missing details triggers re-extraction on
	// the combined text and a fresh confirmation prompt.
	if pendingMeal != nil && pendingMeal.NeedsDetails && detail.HasProvidedMissingDetails(message, pendingMeal.Gaps) {
		return e.completeDetails(ctx, pendingMeal, message, tlog)
	}

	detection := confirm.Detect(message)

	// 3) Confirm-and-commit.
	if detection.IsConfirmation && pendingMeal != nil && !pendingMeal.NeedsDetails {
		return e.commitMeal(ctx, pendingMeal, tlog)
	}

	// 4) Reject.
	if detection.IsRejection && pendingMeal != nil {
		e.pending.Reject(pendingMeal.ID)
		slog.Info("ENGINE: Pending meal rejected", "turn", e.turn, "action_id", pendingMeal.ID)
		reply := "No problem, I won't log that. Just tell me again whenever you're ready!"
		tlog.Branch = "reject"
		tlog.Reply = reply
		e.logTurn(tlog)
		return reply, nil
	}

	// 5) Orphan confirmation.
	if detection.IsConfirmation && pendingMeal == nil {
		reply := "I don't have a meal waiting for confirmation right now. Tell me what you ate, with amounts, and I'll log it!"
		tlog.Branch = "orphan_confirm"
		tlog.Reply = reply
		e.logTurn(tlog)
		return reply, nil
	}

	// 6) Fresh turn. Ambiguous confirmations land here too: an unclear reply
	// is new conversational content, never a resolution of the pending action.
	return e.freshTurn(ctx, message, tlog)
}

func (e *Engine) completeDetails(ctx context.Context, action *confirm.Action, message string, tlog nutricoach.TurnLog) (string, error) {
	tlog.Branch = "detail_completion"

	combined := action.UserMessage + " " + message
	meal, err := e.meals.Extract(ctx, combined, action.AIResponse)
	if err != nil {
		slog.Error("ENGINE: Re-extraction failed", "error", err, "turn", e.turn)
		tlog.Error = err.Error()
		tlog.Reply = retryReply
		e.logTurn(tlog)
		return retryReply, nil
	}

	if meal == nil {
		reply := "Thanks! I still couldn't put that meal together. Could you describe it once more, with amounts?"
		tlog.Reply = reply
		e.logTurn(tlog)
		return reply, nil
	}

	e.pending.UpdateMeal(action.ID, meal, combined)
	slog.Info("ENGINE: Pending meal updated with details", "turn", e.turn, "action_id", action.ID, "items", len(meal.Items))

	reply := confirm.ConfirmationMessage(meal)
	tlog.Reply = reply
	e.logTurn(tlog)
	return reply, nil
}

func (e *Engine) commitMeal(ctx context.Context, action *confirm.Action, tlog nutricoach.TurnLog) (string, error) {
	tlog.Branch = "confirm_commit"

	userID, err := e.records.CurrentUser(ctx)
	if err != nil {
		userID = store.AnonymousUser
	}

	meal := action.Meal
	loggedAt := time.Now()
	persisted := 0
	for _, item := range meal.Items {
		record := nutricoach.MealRecord{
			UserID:     userID,
			Name:       item.Name,
			MealType:   meal.MealType,
			MacroSet:   item.Macros,
			Confidence: meal.Confidence,
			LoggedAt:   loggedAt,
		}

		stored, err := e.records.CreateMeal(ctx, record)
		if err != nil {
			// The action stays pending so the user can retry "yes". Items
			// persisted before the failure are kept; a retry may duplicate them.
			slog.Error("ENGINE: Meal record persistence failed", "error", err, "item", item.Name, "turn", e.turn)
			tlog.Error = err.Error()
			reply := "Sorry, I couldn't save that meal just now. Please try saying \"yes\" again in a moment."
			tlog.Reply = reply
			e.logTurn(tlog)
			return reply, nil
		}

		e.state.AppendMeal(stored)
		persisted++
	}

	e.pending.Confirm(action.ID)
	slog.Info("ENGINE: Pending meal confirmed", "turn", e.turn, "action_id", action.ID, "records", persisted)

	reply := fmt.Sprintf(
		"Logged it! Added %d item(s): about %.0f calories and %.0fg protein. Great job staying on track!",
		persisted, meal.TotalMacros.Calories, meal.TotalMacros.Protein,
	)
	tlog.Reply = reply
	e.logTurn(tlog)
	return reply, nil
}

func (e *Engine) freshTurn(ctx context.Context, message string, tlog nutricoach.TurnLog) (string, error) {
	tlog.Branch = "fresh_turn"

	reply, err := e.completion.Complete(ctx, e.contextMessages(message))
	if err != nil {
		// Fatal to the turn: generic retry message, no state mutated.
		slog.Error("ENGINE: Completion failed", "error", err, "turn", e.turn)
		tlog.Error = err.Error()
		tlog.Reply = retryReply
		e.logTurn(tlog)
		return retryReply, nil
	}

	e.state.AddHistory(nutricoach.RoleUser, message)
	e.state.AddHistory(nutricoach.RoleAssistant, reply)

	// Subordinate steps run after the reply exists; their failures are
	// swallowed so they surface only as missed side effects.
	e.detectMeal(ctx, message, reply)
	e.dispatchIntents(ctx, message, reply, &tlog)

	tlog.Reply = reply
	e.logTurn(tlog)
	return reply, nil
}

// detectMeal runs meal extraction on the turn pair and, when a candidate
// surfaces, registers a pending action and schedules the follow-up prompt.
func (e *Engine) detectMeal(ctx context.Context, message, reply string) {
	meal, err := e.meals.Extract(ctx, message, reply)
	if err != nil {
		slog.Warn("ENGINE: Meal extraction failed", "error", err, "turn", e.turn)
		return
	}
	if meal == nil {
		return
	}

	analysis := detail.Analyze(meal.ItemNames(), message)
	action := &confirm.Action{
		Type:         confirm.ActionMealLog,
		Meal:         meal,
		UserMessage:  message,
		AIResponse:   reply,
		NeedsDetails: !analysis.HasAllDetails,
		Gaps:         analysis.Gaps,
	}
	id := e.pending.Add(action)
	slog.Info("ENGINE: Meal candidate registered", "turn", e.turn, "action_id", id, "items", len(meal.Items), "needs_details", action.NeedsDetails)

	// Skip the follow-up when the assistant's own reply already asked.
	lowerReply := strings.ToLower(reply)
	var followUp string
	if action.NeedsDetails {
		if strings.Contains(lowerReply, "how many") || strings.Contains(lowerReply, "what type") {
			return
		}
		followUp = detail.Questions(analysis)
	} else {
		if strings.Contains(lowerReply, "should i add") || strings.Contains(lowerReply, "tracker") {
			return
		}
		followUp = confirm.ConfirmationMessage(meal)
	}

	e.schedule(e.followUpDelay, func() {
		// The user may have resolved the action before the delay elapsed;
		// a stale follow-up is suppressed rather than cancelled.
		a := e.pending.Get(id)
		if a == nil || a.Status != confirm.StatusPending {
			return
		}
		e.emit(context.Background(), followUp)
	})
}

// dispatchIntents runs action extraction and handles each detected intent
// independently; one intent's failure never aborts its siblings.
func (e *Engine) dispatchIntents(ctx context.Context, message, reply string, tlog *nutricoach.TurnLog) {
	intents, err := e.actions.Extract(ctx, message, reply)
	if err != nil {
		slog.Warn("ENGINE: Action extraction failed", "error", err, "turn", e.turn)
		return
	}

	for _, intent := range intents {
		ilog := nutricoach.IntentLog{Type: string(intent.Type), Data: intent.Data}

		out, err := e.dispatch(ctx, intent)
		if err != nil {
			slog.Error("ENGINE: Intent dispatch failed", "type", intent.Type, "error", err, "turn", e.turn)
			ilog.Error = err.Error()
		} else if out != "" {
			e.emit(ctx, out)
		}
		tlog.Intents = append(tlog.Intents, ilog)
	}
}

func (e *Engine) dispatch(ctx context.Context, intent extract.Action) (string, error) {
	switch intent.Type {
	case extract.ActionUpdateGoals:
		return e.updateGoals(intent.Data), nil
	case extract.ActionSuggestMeals:
		return e.suggestMeals(ctx, intent.Data)
	case extract.ActionShowProgress:
		return renderProgress(e.state.Totals(), e.state.Goals()), nil
	case extract.ActionEditMeal:
		return e.editMeal(intent.Data), nil
	case extract.ActionDeleteMeal:
		return e.deleteMeal(ctx, intent.Data)
	case extract.ActionCalculateRemaining:
		return renderRemaining(intent.Data.Macro, e.state.Remaining()), nil
	}
	return "", fmt.Errorf("unhandled intent type %q", intent.Type)
}

func (e *Engine) updateGoals(data extract.ActionData) string {
	goals := e.state.Goals()
	if data.Calories > 0 {
		goals.Calories = data.Calories
	}
	if data.Protein > 0 {
		goals.Protein = data.Protein
	}
	if data.Carbs > 0 {
		goals.Carbs = data.Carbs
	}
	if data.Fat > 0 {
		goals.Fat = data.Fat
	}
	e.state.SetGoals(goals)
	slog.Info("ENGINE: Goals updated", "turn", e.turn, "calories", goals.Calories, "protein", goals.Protein)

	return fmt.Sprintf(
		"Updated your daily goals: %.0f calories, %.0fg protein, %.0fg carbs, %.0fg fat.",
		goals.Calories, goals.Protein, goals.Carbs, goals.Fat,
	)
}

func (e *Engine) suggestMeals(ctx context.Context, data extract.ActionData) (string, error) {
	mealType := nutricoach.MealType(data.MealType)
	if !mealType.IsValid() {
		mealType = mealTypeForHour(time.Now().Hour())
	}

	suggestions, err := e.suggestions.Generate(ctx, mealType, e.state.Totals(), e.state.Goals(), data.Preferences)
	if err != nil {
		return "", err
	}
	if len(suggestions) == 0 {
		return "I couldn't come up with suggestions just now. Ask me again in a bit!", nil
	}
	return renderSuggestions(mealType, suggestions), nil
}

func (e *Engine) editMeal(data extract.ActionData) string {
	target, ok := e.matchMeal(data.MealIdentifier)
	if !ok {
		return "I couldn't find that meal in today's log. Which one did you mean?"
	}
	return fmt.Sprintf(
		"I found %s (%.0f calories). Describe the corrected meal and I'll log it fresh, then remove the old entry if you want.",
		target.Name, target.Calories,
	)
}

func (e *Engine) deleteMeal(ctx context.Context, data extract.ActionData) (string, error) {
	target, ok := e.matchMeal(data.MealIdentifier)
	if !ok {
		return "I couldn't find that meal in today's log. Which one did you mean?", nil
	}

	if err := e.records.DeleteMeal(ctx, target.ID); err != nil {
		return "", fmt.Errorf("failed to delete meal %q: %w", target.Name, err)
	}
	e.state.RemoveMeal(target.ID)
	slog.Info("ENGINE: Meal removed", "turn", e.turn, "meal", target.Name)

	return fmt.Sprintf("Removed %s from today's log.", target.Name), nil
}

// matchMeal resolves a spoken meal reference against today's logged meals:
// name substring match first, then meal-type substring, then the
// only-candidate fallback.
func (e *Engine) matchMeal(identifier string) (nutricoach.MealRecord, bool) {
	meals := e.state.TodaysMeals()
	ident := strings.ToLower(strings.TrimSpace(identifier))

	if ident != "" {
		for _, m := range meals {
			name := strings.ToLower(m.Name)
			if strings.Contains(name, ident) || strings.Contains(ident, name) {
				return m, true
			}
		}
		for _, m := range meals {
			if m.MealType != "" && strings.Contains(ident, string(m.MealType)) {
				return m, true
			}
		}
	}

	if len(meals) == 1 {
		return meals[0], true
	}
	return nutricoach.MealRecord{}, false
}

func (e *Engine) emit(ctx context.Context, message string) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.Send(ctx, message); err != nil {
		slog.Warn("ENGINE: Emit failed", "error", err)
	}
}

func (e *Engine) logTurn(tlog nutricoach.TurnLog) {
	if err := e.turnLogger.LogTurn(tlog); err != nil {
		slog.Error("Failed to log dialogue turn", "error", err, "turn", tlog.Turn)
	}
}

func mealTypeForHour(hour int) nutricoach.MealType {
	switch {
	case hour < 11:
		return nutricoach.MealTypeBreakfast
	case hour < 15:
		return nutricoach.MealTypeLunch
	case hour < 21:
		return nutricoach.MealTypeDinner
	default:
		return nutricoach.MealTypeSnack
	}
}
