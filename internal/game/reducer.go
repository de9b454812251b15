package game

import (
	"math/rand"
	"time"
)

// Reduce is the single transition function of the simulation: it maps a state
// and an action to the next state and never mutates its input. Unknown action
// types and actions whose preconditions fail are silent no-ops; callers that
// want an error perform their precondition checks before dispatching (see
// Session).
//
// Once IsGameOver is set every action is ignored except INITIALIZE_GAME
// (full reset), UPDATE_PLAYER_DETAILS (cosmetic) and SET_GAME_OVER.
func Reduce(state PlayerState, action Action, rng *rand.Rand, now time.Time) PlayerState {
	switch action.Type {
	case ActionInitializeGame:
		return InitialState(action.Overrides, now)
	case ActionUpdatePlayerDetails:
		next := state.Clone()
		if action.Details.PlayerName != nil {
			next.PlayerName = *action.Details.PlayerName
		}
		return next
	case ActionSetGameOver:
		next := state.Clone()
		next.IsGameOver = true
		next.GameOverMessage = action.Message
		return next
	}

	if state.IsGameOver {
		return state
	}

	switch action.Type {
	case ActionAdvanceMonth:
		next := MonthlyUpdate(state, rng)
		if !next.IsGameOver {
			next = scanAchievements(next)
		}
		return next

	case ActionCompleteQuest:
		quest, ok := QuestByID(action.QuestID)
		if !ok || state.HasCompletedQuest(quest.ID) || !quest.Satisfied(state) {
			return state
		}
		next := state.Clone()
		next.CompletedQuestIDs = append(next.CompletedQuestIDs, quest.ID)
		next.Experience += quest.Reward.Experience
		next.Cash += quest.Reward.Cash
		next = applyLevelCheck(next)
		next.NetWorth = CalculateNetWorth(next)
		return next

	case ActionBuyInvestment:
		if action.Investment.Value > state.Cash {
			return state
		}
		next := state.Clone()
		next.Cash -= action.Investment.Value
		next.Investments = append(next.Investments, NewInvestment(action.Investment, next.GameDate))
		next.NetWorth = CalculateNetWorth(next)
		return next

	case ActionSellInvestment:
		i := state.findInvestment(action.InvestmentID)
		if i < 0 {
			return state
		}
		next := state.Clone()
		next.Cash += action.SellPrice
		next.Investments = append(next.Investments[:i], next.Investments[i+1:]...)
		next.NetWorth = CalculateNetWorth(next)
		return next

	case ActionAdjustFinances:
		next := state.Clone()
		if action.Finances.Cash != nil {
			next.Cash += *action.Finances.Cash
		}
		if action.Finances.Debt != nil {
			next.Debt += *action.Finances.Debt
		}
		if action.Finances.Income != nil {
			next.MonthlyIncome += *action.Finances.Income
		}
		if action.Finances.Expenses != nil {
			next.MonthlyExpenses += *action.Finances.Expenses
		}
		next.NetWorth = CalculateNetWorth(next)
		return next

	case ActionProcessEventChoice:
		effect, ok := eventEffects[eventKey{action.EventID, action.ChoiceIndex}]
		if !ok {
			return state
		}
		next := effect(state.Clone(), rng)
		next.NetWorth = CalculateNetWorth(next)
		return next
	}

	return state
}
