package game

import (
	"errors"
	"time"
)

const (
	// MonthlyDebtRate is the flat interest charged on outstanding debt each
	// month. Interest is paid out of cash, not capitalized separately.
	MonthlyDebtRate = 0.01

	// MonthlySurvivalXP is granted for getting through a month.
	MonthlySurvivalXP = 10.0

	// HistoryLimit bounds the retained monthly snapshots (rolling year).
	HistoryLimit = 12
)

var (
	ErrGameOver              = errors.New("game is over; start a new game to continue")
	ErrUnknownQuest          = errors.New("quest not found")
	ErrQuestAlreadyCompleted = errors.New("quest already completed")
	ErrQuestNotSatisfied     = errors.New("quest conditions not met")
	ErrInsufficientFunds     = errors.New("insufficient cash")
	ErrInvestmentNotFound    = errors.New("investment not found")
	ErrNoPendingEvent        = errors.New("no event awaiting a choice")
	ErrInvalidChoice         = errors.New("event choice index out of range")
)

type InvestmentType string

const (
	InvestmentStocks     InvestmentType = "stocks"
	InvestmentBonds      InvestmentType = "bonds"
	InvestmentRealEstate InvestmentType = "real_estate"
)

// Investment is a single holding in the player's portfolio. Quantity and
// AnnualReturnRate are carried for display but play no part in the monthly
// arithmetic.
type Investment struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Value            float64        `json:"value"`
	Type             InvestmentType `json:"type"`
	PurchaseDate     time.Time      `json:"purchase_date"`
	Quantity         float64        `json:"quantity,omitempty"`
	AnnualReturnRate float64        `json:"annual_return_rate,omitempty"`
}

// HistoricalDataPoint is an immutable end-of-month snapshot.
type HistoricalDataPoint struct {
	Date             time.Time `json:"date"`
	NetWorth         float64   `json:"net_worth"`
	Cash             float64   `json:"cash"`
	InvestmentsValue float64   `json:"investments_value"`
	Debt             float64   `json:"debt"`
}

// PlayerState is the sole mutable aggregate of the simulation. It is replaced
// wholesale on every dispatched action, never mutated in place. NetWorth is
// derived (cash + investments - debt) and recomputed after every mutating
// transition.
type PlayerState struct {
	PlayerName             string                `json:"player_name"`
	Level                  int                   `json:"level"`
	Experience             float64               `json:"experience"`
	Cash                   float64               `json:"cash"`
	MonthlyIncome          float64               `json:"monthly_income"`
	MonthlyExpenses        float64               `json:"monthly_expenses"`
	Investments            []Investment          `json:"investments"`
	Debt                   float64               `json:"debt"`
	NetWorth               float64               `json:"net_worth"`
	CompletedQuestIDs      []string              `json:"completed_quest_ids"`
	UnlockedAchievementIDs []string              `json:"unlocked_achievement_ids"`
	GameDate               time.Time             `json:"game_date"`
	HistoricalData         []HistoricalDataPoint `json:"historical_data"`
	IsGameOver             bool                  `json:"is_game_over"`
	GameOverMessage        string                `json:"game_over_message,omitempty"`
}

// Clone returns a deep copy. Slices are copied so a snapshot handed to a
// caller can never alias the live state.
func (s PlayerState) Clone() PlayerState {
	out := s
	out.Investments = append([]Investment(nil), s.Investments...)
	out.CompletedQuestIDs = append([]string(nil), s.CompletedQuestIDs...)
	out.UnlockedAchievementIDs = append([]string(nil), s.UnlockedAchievementIDs...)
	out.HistoricalData = append([]HistoricalDataPoint(nil), s.HistoricalData...)
	return out
}

// HasCompletedQuest reports whether questID is in the completed set.
func (s PlayerState) HasCompletedQuest(questID string) bool {
	for _, id := range s.CompletedQuestIDs {
		if id == questID {
			return true
		}
	}
	return false
}

// HasAchievement reports whether achievementID has been unlocked.
func (s PlayerState) HasAchievement(achievementID string) bool {
	for _, id := range s.UnlockedAchievementIDs {
		if id == achievementID {
			return true
		}
	}
	return false
}

func (s PlayerState) findInvestment(investmentID string) int {
	for i, inv := range s.Investments {
		if inv.ID == investmentID {
			return i
		}
	}
	return -1
}

// FinancialSummary carries the five scalars handed to the external advice
// generator. The advisor response never feeds back into PlayerState.
type FinancialSummary struct {
	Income      float64 `json:"income"`
	Expenses    float64 `json:"expenses"`
	Investments float64 `json:"investments"`
	Debt        float64 `json:"debt"`
	NetWorth    float64 `json:"net_worth"`
}

// Summary derives the advisor input from the current state.
func (s PlayerState) Summary() FinancialSummary {
	return FinancialSummary{
		Income:      s.MonthlyIncome,
		Expenses:    s.MonthlyExpenses,
		Investments: totalInvestmentValue(s.Investments),
		Debt:        s.Debt,
		NetWorth:    s.NetWorth,
	}
}

type ActionType string

const (
	ActionInitializeGame      ActionType = "INITIALIZE_GAME"
	ActionAdvanceMonth        ActionType = "ADVANCE_MONTH"
	ActionCompleteQuest       ActionType = "COMPLETE_QUEST"
	ActionBuyInvestment       ActionType = "BUY_INVESTMENT"
	ActionSellInvestment      ActionType = "SELL_INVESTMENT"
	ActionAdjustFinances      ActionType = "ADJUST_FINANCES"
	ActionUpdatePlayerDetails ActionType = "UPDATE_PLAYER_DETAILS"
	ActionProcessEventChoice  ActionType = "PROCESS_EVENT_CHOICE"
	ActionSetGameOver         ActionType = "SET_GAME_OVER"
)

// InvestmentInput is the BUY_INVESTMENT payload: an Investment minus the
// fields the engine generates (id, purchase date).
type InvestmentInput struct {
	Name             string         `json:"name"`
	Value            float64        `json:"value"`
	Type             InvestmentType `json:"type"`
	Quantity         float64        `json:"quantity,omitempty"`
	AnnualReturnRate float64        `json:"annual_return_rate,omitempty"`
}

// FinanceDeltas is the ADJUST_FINANCES payload. Nil fields are not applied.
// Deltas are unguarded on purpose: debt may be driven negative.
type FinanceDeltas struct {
	Cash     *float64 `json:"cash,omitempty"`
	Debt     *float64 `json:"debt,omitempty"`
	Income   *float64 `json:"income,omitempty"`
	Expenses *float64 `json:"expenses,omitempty"`
}

// PlayerDetails is the UPDATE_PLAYER_DETAILS payload; nil fields are left
// untouched (shallow merge). Cosmetic only, so it is not gated on game over.
type PlayerDetails struct {
	PlayerName *string `json:"player_name,omitempty"`
}

// StateOverrides optionally replaces parts of the default initial
// configuration on INITIALIZE_GAME.
type StateOverrides struct {
	PlayerName      *string    `json:"player_name,omitempty"`
	Cash            *float64   `json:"cash,omitempty"`
	MonthlyIncome   *float64   `json:"monthly_income,omitempty"`
	MonthlyExpenses *float64   `json:"monthly_expenses,omitempty"`
	Debt            *float64   `json:"debt,omitempty"`
	GameDate        *time.Time `json:"game_date,omitempty"`
}

// Action is the single vocabulary accepted by Reduce. Only the fields for the
// given Type are read; everything else is ignored.
type Action struct {
	Type ActionType

	Overrides    *StateOverrides // INITIALIZE_GAME
	QuestID      string          // COMPLETE_QUEST
	Investment   InvestmentInput // BUY_INVESTMENT
	InvestmentID string          // SELL_INVESTMENT
	SellPrice    float64         // SELL_INVESTMENT
	Finances     FinanceDeltas   // ADJUST_FINANCES
	Details      PlayerDetails   // UPDATE_PLAYER_DETAILS
	EventID      string          // PROCESS_EVENT_CHOICE
	ChoiceIndex  int             // PROCESS_EVENT_CHOICE
	Message      string          // SET_GAME_OVER
}
