package game

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Session owns one running game: the current state, the rng, and the event
// awaiting a player choice, behind a mutex so HTTP handlers and the
// auto-advance ticker can share it. All state leaving the session is cloned.
//
// The typed methods check preconditions and return sentinel errors; the
// reducer underneath stays silent on violations.
type Session struct {
	mu      sync.Mutex
	log     *slog.Logger
	rng     *rand.Rand
	now     func() time.Time
	state   PlayerState
	pending *RandomEvent
}

// NewSession starts a game with the given overrides. A zero seed derives one
// from the clock; tests pass a fixed seed for reproducible runs.
func NewSession(overrides *StateOverrides, seed int64, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Session{
		log: log,
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
	s.state = InitialState(overrides, s.now())
	log.Info("game started",
		"player", s.state.PlayerName,
		"cash", s.state.Cash,
		"income", s.state.MonthlyIncome,
		"expenses", s.state.MonthlyExpenses)
	return s
}

// State returns a snapshot of the current player state.
func (s *Session) State() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Reset abandons the current game and starts over. Always allowed, including
// after game over.
func (s *Session) Reset(overrides *StateOverrides) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, Action{Type: ActionInitializeGame, Overrides: overrides}, s.rng, s.now())
	s.pending = nil
	s.log.Info("game reset", "player", s.state.PlayerName)
	return s.state.Clone()
}

// Dispatch applies a raw action. Most callers want the typed methods instead.
func (s *Session) Dispatch(action Action) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action, s.rng, s.now())
	return s.state.Clone()
}

// AdvanceMonth runs one simulation month. Each completed month gets a single
// event roll; a hit is returned alongside the new state and held until
// ChooseEvent resolves it, replacing any event still waiting from an earlier
// month. A miss leaves the waiting event untouched.
func (s *Session) AdvanceMonth() (PlayerState, *RandomEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGameOver {
		return s.state.Clone(), nil, ErrGameOver
	}

	before := s.state.GameDate
	s.state = Reduce(s.state, Action{Type: ActionAdvanceMonth}, s.rng, s.now())

	if s.state.IsGameOver {
		s.log.Warn("game over", "message", s.state.GameOverMessage, "net_worth", s.state.NetWorth)
		return s.state.Clone(), nil, nil
	}
	s.log.Info("month advanced",
		"date", s.state.GameDate.Format("2006-01"),
		"cash", s.state.Cash,
		"net_worth", s.state.NetWorth)

	var triggered *RandomEvent
	if !s.state.GameDate.Equal(before) {
		if ev := rollEvent(s.rng.Float64()); ev != nil {
			s.pending = ev
			out := *ev
			triggered = &out
			s.log.Info("event triggered", "event", ev.ID)
		}
	}
	return s.state.Clone(), triggered, nil
}

// CompleteQuest grants a quest's reward once its conditions hold.
func (s *Session) CompleteQuest(questID string) (PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGameOver {
		return s.state.Clone(), ErrGameOver
	}
	quest, ok := QuestByID(questID)
	if !ok {
		return s.state.Clone(), ErrUnknownQuest
	}
	if s.state.HasCompletedQuest(questID) {
		return s.state.Clone(), ErrQuestAlreadyCompleted
	}
	// Availability is a display filter only; eligibility is the quest's own
	// completion predicate, so a quest hidden from the list can still be
	// claimed directly once its condition holds.
	if !quest.Satisfied(s.state) {
		return s.state.Clone(), ErrQuestNotSatisfied
	}
	s.state = Reduce(s.state, Action{Type: ActionCompleteQuest, QuestID: questID}, s.rng, s.now())
	s.log.Info("quest completed", "quest", questID, "level", s.state.Level, "xp", s.state.Experience)
	return s.state.Clone(), nil
}

// BuyInvestment purchases a holding with cash.
func (s *Session) BuyInvestment(in InvestmentInput) (PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGameOver {
		return s.state.Clone(), ErrGameOver
	}
	if in.Value > s.state.Cash {
		return s.state.Clone(), ErrInsufficientFunds
	}
	s.state = Reduce(s.state, Action{Type: ActionBuyInvestment, Investment: in}, s.rng, s.now())
	s.log.Info("investment bought", "name", in.Name, "value", in.Value, "cash", s.state.Cash)
	return s.state.Clone(), nil
}

// SellInvestment liquidates a holding at the given price. The price is taken
// as offered; it need not equal the holding's current value.
func (s *Session) SellInvestment(investmentID string, price float64) (PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGameOver {
		return s.state.Clone(), ErrGameOver
	}
	if s.state.findInvestment(investmentID) < 0 {
		return s.state.Clone(), ErrInvestmentNotFound
	}
	s.state = Reduce(s.state, Action{Type: ActionSellInvestment, InvestmentID: investmentID, SellPrice: price}, s.rng, s.now())
	s.log.Info("investment sold", "id", investmentID, "price", price, "cash", s.state.Cash)
	return s.state.Clone(), nil
}

// AdjustFinances applies raw deltas to cash, debt, income and expenses.
func (s *Session) AdjustFinances(deltas FinanceDeltas) (PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGameOver {
		return s.state.Clone(), ErrGameOver
	}
	s.state = Reduce(s.state, Action{Type: ActionAdjustFinances, Finances: deltas}, s.rng, s.now())
	return s.state.Clone(), nil
}

// RenamePlayer updates the display name. Allowed even after game over.
func (s *Session) RenamePlayer(name string) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, Action{
		Type:    ActionUpdatePlayerDetails,
		Details: PlayerDetails{PlayerName: &name},
	}, s.rng, s.now())
	return s.state.Clone()
}

// PendingEvent returns the event awaiting a choice, or nil.
func (s *Session) PendingEvent() *RandomEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	ev := *s.pending
	return &ev
}

// ChooseEvent resolves the pending event with the given choice index and
// clears it.
func (s *Session) ChooseEvent(choice int) (PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsGameOver {
		return s.state.Clone(), ErrGameOver
	}
	if s.pending == nil {
		return s.state.Clone(), ErrNoPendingEvent
	}
	if choice < 0 || choice >= len(s.pending.Choices) {
		return s.state.Clone(), ErrInvalidChoice
	}
	eventID := s.pending.ID
	s.state = Reduce(s.state, Action{
		Type:        ActionProcessEventChoice,
		EventID:     eventID,
		ChoiceIndex: choice,
	}, s.rng, s.now())
	s.pending = nil
	s.log.Info("event resolved", "event", eventID, "choice", choice, "cash", s.state.Cash)
	return s.state.Clone(), nil
}

// SetGameOver force-ends the game with a custom message.
func (s *Session) SetGameOver(message string) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, Action{Type: ActionSetGameOver, Message: message}, s.rng, s.now())
	s.log.Warn("game over", "message", message)
	return s.state.Clone()
}

// Restore replaces the live state with a previously exported snapshot,
// dropping any pending event.
func (s *Session) Restore(state PlayerState) PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.pending = nil
	s.log.Info("game restored", "player", s.state.PlayerName, "date", s.state.GameDate.Format("2006-01"))
	return s.state.Clone()
}

// AvailableQuests lists quests currently offered to the player.
func (s *Session) AvailableQuests() []Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AvailableQuests(s.state)
}

// UnlockedAchievements lists earned achievements in catalog order.
func (s *Session) UnlockedAchievements() []Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return UnlockedAchievements(s.state)
}

// Summary derives the advisor input from the current state.
func (s *Session) Summary() FinancialSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Summary()
}
