package game

import (
	"math"
	"math/rand"
	"testing"
)

func TestCatalogLoads(t *testing.T) {
	if len(Quests) != 5 {
		t.Fatalf("len(Quests) = %d, want 5", len(Quests))
	}
	if len(Achievements) != 5 {
		t.Fatalf("len(Achievements) = %d, want 5", len(Achievements))
	}
	if len(Events) != 5 {
		t.Fatalf("len(Events) = %d, want 5", len(Events))
	}
	if _, ok := QuestByID("q1_save_100"); !ok {
		t.Fatal("q1_save_100 missing")
	}
	if _, ok := EventByID("event_market_boom"); !ok {
		t.Fatal("event_market_boom missing")
	}
}

func TestQuestPredicates(t *testing.T) {
	tests := []struct {
		quest string
		state PlayerState
		want  bool
	}{
		{"q1_save_100", PlayerState{Cash: 100}, true},
		{"q1_save_100", PlayerState{Cash: 99.99}, false},
		{"q2_emergency_fund", PlayerState{Cash: 500}, true},
		{"q2_emergency_fund", PlayerState{Cash: 499}, false},
		{"q3_first_investment", PlayerState{Investments: []Investment{{Type: InvestmentStocks}}}, true},
		{"q3_first_investment", PlayerState{Investments: []Investment{{Type: InvestmentBonds}}}, false},
		{"q3_first_investment", PlayerState{}, false},
		{"q4_reduce_expenses", PlayerState{MonthlyExpenses: 449}, true},
		{"q4_reduce_expenses", PlayerState{MonthlyExpenses: 450}, false},
		{"q5_reach_level_3", PlayerState{Level: 3}, true},
		{"q5_reach_level_3", PlayerState{Level: 2}, false},
	}
	for _, tt := range tests {
		q, ok := QuestByID(tt.quest)
		if !ok {
			t.Fatalf("quest %q missing", tt.quest)
		}
		if got := q.Satisfied(tt.state); got != tt.want {
			t.Fatalf("%s.Satisfied(%+v) = %v, want %v", tt.quest, tt.state, got, tt.want)
		}
	}
}

func TestQuestAvailability(t *testing.T) {
	q2, _ := QuestByID("q2_emergency_fund")
	q3, _ := QuestByID("q3_first_investment")

	fresh := PlayerState{Level: 1}
	if q2.AvailableTo(fresh) {
		t.Fatal("q2 offered before q1 is completed")
	}
	if q3.AvailableTo(fresh) {
		t.Fatal("q3 offered before its prerequisites")
	}

	withQ1 := PlayerState{Level: 1, CompletedQuestIDs: []string{"q1_save_100"}}
	if !q2.AvailableTo(withQ1) {
		t.Fatal("q2 should unlock after q1")
	}
	if q3.AvailableTo(withQ1) {
		t.Fatal("q3 needs level 2 and q2")
	}

	ready := PlayerState{Level: 2, CompletedQuestIDs: []string{"q1_save_100", "q2_emergency_fund"}}
	if !q3.AvailableTo(ready) {
		t.Fatal("q3 should unlock at level 2 with q2 done")
	}

	done := ready.Clone()
	done.CompletedQuestIDs = append(done.CompletedQuestIDs, "q3_first_investment")
	if q3.AvailableTo(done) {
		t.Fatal("completed quest still offered")
	}
}

func TestAvailableQuestsOrder(t *testing.T) {
	s := PlayerState{Level: 1}
	got := AvailableQuests(s)
	want := []string{"q1_save_100", "q4_reduce_expenses", "q5_reach_level_3"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i, q := range got {
		if q.ID != want[i] {
			t.Fatalf("quest[%d] = %s, want %s", i, q.ID, want[i])
		}
	}
}

func TestScanAchievementsIdempotent(t *testing.T) {
	s := PlayerState{Cash: 1500, Investments: []Investment{{Value: 9000}}}
	s.NetWorth = CalculateNetWorth(s)

	s = scanAchievements(s)
	want := []string{"first_1k_cash", "first_investment", "net_worth_10k"}
	if len(s.UnlockedAchievementIDs) != len(want) {
		t.Fatalf("unlocked %v, want %v", s.UnlockedAchievementIDs, want)
	}
	for i, id := range want {
		if s.UnlockedAchievementIDs[i] != id {
			t.Fatalf("unlocked[%d] = %s, want %s", i, s.UnlockedAchievementIDs[i], id)
		}
	}

	// A second scan adds nothing, and earned achievements survive the
	// condition no longer holding.
	s.Cash = 0
	s = scanAchievements(s)
	if len(s.UnlockedAchievementIDs) != len(want) {
		t.Fatalf("rescan changed set: %v", s.UnlockedAchievementIDs)
	}
}

func TestDebtFreeAchievement(t *testing.T) {
	s := PlayerState{Cash: 0, Debt: 0}
	if got := scanAchievements(s); got.HasAchievement("debt_free") {
		t.Fatal("debt_free requires positive cash")
	}
	s = PlayerState{Cash: 1, Debt: 0}
	if got := scanAchievements(s); !got.HasAchievement("debt_free") {
		t.Fatal("debt_free should unlock at zero debt with cash on hand")
	}
	s = PlayerState{Cash: 100, Debt: -20}
	if got := scanAchievements(s); !got.HasAchievement("debt_free") {
		t.Fatal("negative debt counts as debt free")
	}
}

func TestRollEventWindows(t *testing.T) {
	// Rolls sit well inside each cumulative window; exact boundaries are
	// poisoned by float addition and not part of the contract.
	tests := []struct {
		roll float64
		want string
	}{
		{0.0, "event_car_repair"},
		{0.09, "event_car_repair"},
		{0.1, "event_birthday_gift"},
		{0.14, "event_birthday_gift"},
		{0.16, "event_stock_market_dip"},
		{0.22, "event_stock_market_dip"},
		{0.24, "event_job_opportunity"},
		{0.25, "event_job_opportunity"},
		{0.27, "event_market_boom"},
		{0.32, "event_market_boom"},
		{0.34, ""},
		{0.99, ""},
	}
	for _, tt := range tests {
		ev := rollEvent(tt.roll)
		got := ""
		if ev != nil {
			got = ev.ID
		}
		if got != tt.want {
			t.Fatalf("rollEvent(%v) = %q, want %q", tt.roll, got, tt.want)
		}
	}
}

func TestEventCarRepairFullFix(t *testing.T) {
	s := PlayerState{Cash: 500}
	out := eventEffects[eventKey{"event_car_repair", 0}](s, rand.New(rand.NewSource(1)))
	if out.Cash != 200 {
		t.Fatalf("Cash = %v, want 200", out.Cash)
	}

	broke := PlayerState{Cash: 120}
	out = eventEffects[eventKey{"event_car_repair", 0}](broke, rand.New(rand.NewSource(1)))
	if out.Cash != 0 {
		t.Fatalf("Cash = %v, want floor at 0", out.Cash)
	}
}

func TestEventCarRepairCheapFix(t *testing.T) {
	// The failure branch is a coin flip, so assert the two consistent
	// outcomes rather than pinning the rng.
	s := PlayerState{Cash: 500}
	out := eventEffects[eventKey{"event_car_repair", 1}](s, rand.New(rand.NewSource(3)))
	if out.Cash != 400 {
		t.Fatalf("Cash = %v, want 400", out.Cash)
	}
	switch out.Debt {
	case 0:
		if out.GameOverMessage != "" {
			t.Fatalf("message set without the failed-fix debt: %q", out.GameOverMessage)
		}
	case 50:
		if out.GameOverMessage == "" {
			t.Fatal("failed fix should leave a message")
		}
		if out.IsGameOver {
			t.Fatal("failed fix must not end the game")
		}
	default:
		t.Fatalf("Debt = %v, want 0 or 50", out.Debt)
	}
}

func TestEventStockMarketDipHold(t *testing.T) {
	s := PlayerState{Investments: []Investment{
		{ID: "a", Value: 1000, Type: InvestmentStocks},
		{ID: "b", Value: 500, Type: InvestmentBonds},
	}}
	out := eventEffects[eventKey{"event_stock_market_dip", 0}](s, nil)
	if out.Investments[0].Value != 900 {
		t.Fatalf("stocks = %v, want 900", out.Investments[0].Value)
	}
	if out.Investments[1].Value != 500 {
		t.Fatalf("bonds touched: %v", out.Investments[1].Value)
	}
}

func TestEventStockMarketDipSell(t *testing.T) {
	s := PlayerState{Cash: 0, Investments: []Investment{
		{ID: "a", Value: 1000, Type: InvestmentStocks},
		{ID: "b", Value: 500, Type: InvestmentBonds},
	}}
	out := eventEffects[eventKey{"event_stock_market_dip", 1}](s, nil)
	// 20% of 1000 sold at the dipped price: +180 cash, 800 kept.
	if out.Cash != 180 {
		t.Fatalf("Cash = %v, want 180", out.Cash)
	}
	if len(out.Investments) != 2 {
		t.Fatalf("holdings = %d, want 2", len(out.Investments))
	}
	if out.Investments[0].Value != 800 {
		t.Fatalf("remaining stocks = %v, want 800", out.Investments[0].Value)
	}
	if out.Investments[1].Value != 500 {
		t.Fatalf("bonds touched: %v", out.Investments[1].Value)
	}

	// A dust position is liquidated outright.
	dust := PlayerState{Investments: []Investment{{ID: "c", Value: 1, Type: InvestmentStocks}}}
	out = eventEffects[eventKey{"event_stock_market_dip", 1}](dust, nil)
	if len(out.Investments) != 0 {
		t.Fatalf("dust position kept: %+v", out.Investments)
	}
	if math.Abs(out.Cash-0.18) > 1e-9 {
		t.Fatalf("Cash = %v, want ~0.18", out.Cash)
	}
}

func TestEventJobOpportunity(t *testing.T) {
	s := PlayerState{MonthlyIncome: 1000, MonthlyExpenses: 800}
	out := eventEffects[eventKey{"event_job_opportunity", 0}](s, nil)
	if out.MonthlyIncome != 1200 || out.MonthlyExpenses != 850 {
		t.Fatalf("accept: income/expenses = %v/%v, want 1200/850", out.MonthlyIncome, out.MonthlyExpenses)
	}
	out = eventEffects[eventKey{"event_job_opportunity", 1}](s, nil)
	if out.MonthlyIncome != 1000 || out.MonthlyExpenses != 800 {
		t.Fatalf("decline changed finances: %v/%v", out.MonthlyIncome, out.MonthlyExpenses)
	}
}

func TestEventMarketBoom(t *testing.T) {
	s := PlayerState{Investments: []Investment{
		{ID: "a", Value: 1000, Type: InvestmentStocks},
		{ID: "b", Value: 200, Type: InvestmentRealEstate},
	}}
	out := eventEffects[eventKey{"event_market_boom", 0}](s, nil)
	if out.Investments[0].Value != 1150 {
		t.Fatalf("stocks = %v, want 1150", out.Investments[0].Value)
	}
	if out.Investments[1].Value != 200 {
		t.Fatalf("real estate touched: %v", out.Investments[1].Value)
	}
}

func TestEventChancesSumBelowOne(t *testing.T) {
	total := 0.0
	for _, e := range Events {
		if e.Chance <= 0 || e.Chance >= 1 {
			t.Fatalf("event %s chance %v out of range", e.ID, e.Chance)
		}
		total += e.Chance
	}
	if total >= 1 {
		t.Fatalf("chances sum to %v; a quiet month must stay possible", total)
	}
}

func TestUnlockedAchievementsOrder(t *testing.T) {
	s := PlayerState{UnlockedAchievementIDs: []string{"net_worth_10k", "first_1k_cash"}}
	got := UnlockedAchievements(s)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Catalog order, not unlock order.
	if got[0].ID != "first_1k_cash" || got[1].ID != "net_worth_10k" {
		t.Fatalf("order = [%s, %s]", got[0].ID, got[1].ID)
	}
}
