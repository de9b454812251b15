package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// CalculateNetWorth is the single definition of net worth: cash plus the sum
// of investment values minus debt. Every mutating transition recomputes it
// through this function; it is never stored independently.
func CalculateNetWorth(s PlayerState) float64 {
	return s.Cash + totalInvestmentValue(s.Investments) - s.Debt
}

func totalInvestmentValue(investments []Investment) float64 {
	var sum float64
	for _, inv := range investments {
		sum += inv.Value
	}
	return sum
}

// ExperienceForNextLevel returns the XP required to leave the given level:
// 100 * level^1.5 (100, ~283, ~520, ~800, ...).
func ExperienceForNextLevel(level int) float64 {
	return 100 * math.Pow(float64(level), 1.5)
}

// applyLevelCheck runs the leveling step shared by the monthly advance and
// quest completion. It is deliberately a single check, not a loop: one level
// per action, even if a huge XP grant would cover several thresholds.
func applyLevelCheck(s PlayerState) PlayerState {
	need := ExperienceForNextLevel(s.Level)
	if s.Experience >= need {
		s.Level++
		s.Experience -= need
		s.Cash += float64(s.Level) * 100
	}
	return s
}

// addMonth advances a date by exactly one calendar month, clamping the day to
// the target month's length (Jan 31 -> Feb 28, not Mar 3).
func addMonth(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func appendHistory(history []HistoricalDataPoint, point HistoricalDataPoint) []HistoricalDataPoint {
	history = append(history, point)
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	return history
}

// GameOverMessageInsolvency is the terminal message written when the monthly
// insolvency predicate fires.
const GameOverMessageInsolvency = "You've fallen too deep into debt and can't recover. Game over."

// MonthlyUpdate applies one month of simulation in a fixed order: settle
// income and expenses, charge debt interest against cash, fluctuate each
// investment, advance the date, grant survival XP and run the level check,
// recompute net worth, and append a history snapshot.
//
// The insolvency predicate (cash < 0 AND debt > 2*netWorth AND netWorth < 0)
// is evaluated last. When it fires the whole computed month is discarded: the
// returned state is the input with only IsGameOver and GameOverMessage set.
// Randomness is explicit; callers own the rng.
func MonthlyUpdate(state PlayerState, rng *rand.Rand) PlayerState {
	next := state.Clone()

	next.Cash += next.MonthlyIncome - next.MonthlyExpenses

	interest := next.Debt * MonthlyDebtRate
	next.Cash -= interest
	next.Debt += interest

	for i := range next.Investments {
		// Uniform monthly drift over [-2.25%, +2.75%], floored at zero.
		v := next.Investments[i].Value * (1 + (rng.Float64()-0.45)*0.05)
		if v < 0 {
			v = 0
		}
		next.Investments[i].Value = v
	}

	next.GameDate = addMonth(next.GameDate)

	next.Experience += MonthlySurvivalXP
	next = applyLevelCheck(next)

	next.NetWorth = CalculateNetWorth(next)
	next.HistoricalData = appendHistory(next.HistoricalData, HistoricalDataPoint{
		Date:             next.GameDate,
		NetWorth:         next.NetWorth,
		Cash:             next.Cash,
		InvestmentsValue: totalInvestmentValue(next.Investments),
		Debt:             next.Debt,
	})

	if next.Cash < 0 && next.Debt > next.NetWorth*2 && next.NetWorth < 0 {
		over := state.Clone()
		over.IsGameOver = true
		over.GameOverMessage = GameOverMessageInsolvency
		return over
	}

	return next
}

// NewInvestment builds an Investment from player input, assigning a fresh id
// and stamping the purchase date.
func NewInvestment(in InvestmentInput, now time.Time) Investment {
	return Investment{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Value:            in.Value,
		Type:             in.Type,
		PurchaseDate:     dateOnly(now),
		Quantity:         in.Quantity,
		AnnualReturnRate: in.AnnualReturnRate,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Default starting configuration.
const (
	DefaultPlayerName      = "Player One"
	DefaultStartingCash    = 500.0
	DefaultMonthlyIncome   = 1000.0
	DefaultMonthlyExpenses = 800.0
)

// InitialState builds the default starting state, merged with optional
// overrides. Net worth is recomputed after the merge and a single seed
// history point is recorded so charts have an origin before the first
// month advance.
func InitialState(overrides *StateOverrides, now time.Time) PlayerState {
	s := PlayerState{
		PlayerName:             DefaultPlayerName,
		Level:                  1,
		Experience:             0,
		Cash:                   DefaultStartingCash,
		MonthlyIncome:          DefaultMonthlyIncome,
		MonthlyExpenses:        DefaultMonthlyExpenses,
		Investments:            []Investment{},
		Debt:                   0,
		CompletedQuestIDs:      []string{},
		UnlockedAchievementIDs: []string{},
		GameDate:               dateOnly(now),
	}
	if overrides != nil {
		if overrides.PlayerName != nil {
			s.PlayerName = *overrides.PlayerName
		}
		if overrides.Cash != nil {
			s.Cash = *overrides.Cash
		}
		if overrides.MonthlyIncome != nil {
			s.MonthlyIncome = *overrides.MonthlyIncome
		}
		if overrides.MonthlyExpenses != nil {
			s.MonthlyExpenses = *overrides.MonthlyExpenses
		}
		if overrides.Debt != nil {
			s.Debt = *overrides.Debt
		}
		if overrides.GameDate != nil {
			s.GameDate = dateOnly(*overrides.GameDate)
		}
	}
	s.NetWorth = CalculateNetWorth(s)
	s.HistoricalData = []HistoricalDataPoint{{
		Date:             s.GameDate,
		NetWorth:         s.NetWorth,
		Cash:             s.Cash,
		InvestmentsValue: totalInvestmentValue(s.Investments),
		Debt:             s.Debt,
	}}
	return s
}
