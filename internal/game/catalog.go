package game

import (
	_ "embed"
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

//go:embed quests.yaml
var questsYAML []byte

//go:embed achievements.yaml
var achievementsYAML []byte

//go:embed events.yaml
var eventsYAML []byte

// QuestReward is granted once when a quest is completed.
type QuestReward struct {
	Experience float64 `yaml:"experience" json:"experience"`
	Cash       float64 `yaml:"cash,omitempty" json:"cash,omitempty"`
}

// QuestRequires gates when a quest shows up as available.
type QuestRequires struct {
	Level             int      `yaml:"level,omitempty" json:"level,omitempty"`
	CompletedQuestIDs []string `yaml:"completed_quest_ids,omitempty" json:"completed_quest_ids,omitempty"`
}

type Quest struct {
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Reward      QuestReward    `yaml:"reward" json:"reward"`
	Requires    *QuestRequires `yaml:"requires,omitempty" json:"requires,omitempty"`
}

type Achievement struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
}

type EventChoice struct {
	Text string `yaml:"text" json:"text"`
}

// RandomEvent may interrupt a month advance. Chance is the per-advance
// probability; events are checked in catalog order against a single roll.
type RandomEvent struct {
	ID          string        `yaml:"id" json:"id"`
	Title       string        `yaml:"title" json:"title"`
	Description string        `yaml:"description" json:"description"`
	Icon        string        `yaml:"icon" json:"icon"`
	Chance      float64       `yaml:"chance" json:"chance"`
	Choices     []EventChoice `yaml:"choices" json:"choices"`
}

var (
	Quests       []Quest
	Achievements []Achievement
	Events       []RandomEvent

	questIndex map[string]Quest
	eventIndex map[string]RandomEvent
)

func init() {
	var qf struct {
		Quests []Quest `yaml:"quests"`
	}
	mustUnmarshal(questsYAML, &qf, "quests")
	Quests = qf.Quests

	var af struct {
		Achievements []Achievement `yaml:"achievements"`
	}
	mustUnmarshal(achievementsYAML, &af, "achievements")
	Achievements = af.Achievements

	var ef struct {
		Events []RandomEvent `yaml:"events"`
	}
	mustUnmarshal(eventsYAML, &ef, "events")
	Events = ef.Events

	questIndex = make(map[string]Quest, len(Quests))
	for _, q := range Quests {
		if _, ok := questPredicates[q.ID]; !ok {
			panic(fmt.Sprintf("game: quest %q has no predicate", q.ID))
		}
		questIndex[q.ID] = q
	}
	eventIndex = make(map[string]RandomEvent, len(Events))
	for _, e := range Events {
		for i := range e.Choices {
			if _, ok := eventEffects[eventKey{e.ID, i}]; !ok {
				panic(fmt.Sprintf("game: event %q choice %d has no effect", e.ID, i))
			}
		}
		eventIndex[e.ID] = e
	}
	for _, a := range Achievements {
		if _, ok := achievementPredicates[a.ID]; !ok {
			panic(fmt.Sprintf("game: achievement %q has no predicate", a.ID))
		}
	}
}

func mustUnmarshal(raw []byte, out any, what string) {
	if err := yaml.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("game: bad embedded %s catalog: %v", what, err))
	}
}

// QuestByID looks a quest up in the catalog.
func QuestByID(id string) (Quest, bool) {
	q, ok := questIndex[id]
	return q, ok
}

// EventByID looks a random event up in the catalog.
func EventByID(id string) (RandomEvent, bool) {
	e, ok := eventIndex[id]
	return e, ok
}

// questPredicates decide whether a quest's completion condition holds.
var questPredicates = map[string]func(PlayerState) bool{
	"q1_save_100": func(s PlayerState) bool {
		return s.Cash >= 100
	},
	"q2_emergency_fund": func(s PlayerState) bool {
		return s.Cash >= 500
	},
	"q3_first_investment": func(s PlayerState) bool {
		for _, inv := range s.Investments {
			if inv.Type == InvestmentStocks {
				return true
			}
		}
		return false
	},
	"q4_reduce_expenses": func(s PlayerState) bool {
		return s.MonthlyExpenses < 450
	},
	"q5_reach_level_3": func(s PlayerState) bool {
		return s.Level >= 3
	},
}

// achievementPredicates decide whether an achievement has been earned.
var achievementPredicates = map[string]func(PlayerState) bool{
	"first_1k_cash": func(s PlayerState) bool {
		return s.Cash >= 1000
	},
	"first_investment": func(s PlayerState) bool {
		return len(s.Investments) > 0
	},
	"debt_free": func(s PlayerState) bool {
		return s.Debt <= 0 && s.Cash > 0
	},
	"net_worth_10k": func(s PlayerState) bool {
		return s.NetWorth >= 10000
	},
	"net_worth_100k": func(s PlayerState) bool {
		return s.NetWorth >= 100000
	},
}

// AvailableTo reports whether the quest should be offered to the player:
// not yet completed and all requirements met.
func (q Quest) AvailableTo(s PlayerState) bool {
	if s.HasCompletedQuest(q.ID) {
		return false
	}
	if q.Requires == nil {
		return true
	}
	if q.Requires.Level > 0 && s.Level < q.Requires.Level {
		return false
	}
	for _, id := range q.Requires.CompletedQuestIDs {
		if !s.HasCompletedQuest(id) {
			return false
		}
	}
	return true
}

// Satisfied reports whether the quest's completion condition currently holds.
func (q Quest) Satisfied(s PlayerState) bool {
	pred, ok := questPredicates[q.ID]
	return ok && pred(s)
}

// AvailableQuests returns the catalog quests currently offered, in catalog order.
func AvailableQuests(s PlayerState) []Quest {
	var out []Quest
	for _, q := range Quests {
		if q.AvailableTo(s) {
			out = append(out, q)
		}
	}
	return out
}

// UnlockedAchievements returns the catalog entries the player has earned,
// in catalog order.
func UnlockedAchievements(s PlayerState) []Achievement {
	var out []Achievement
	for _, a := range Achievements {
		if s.HasAchievement(a.ID) {
			out = append(out, a)
		}
	}
	return out
}

// scanAchievements appends any newly earned achievement IDs to the state.
// Already-recorded achievements are never duplicated or revoked.
func scanAchievements(s PlayerState) PlayerState {
	for _, a := range Achievements {
		if s.HasAchievement(a.ID) {
			continue
		}
		if achievementPredicates[a.ID](s) {
			s.UnlockedAchievementIDs = append(s.UnlockedAchievementIDs, a.ID)
		}
	}
	return s
}

type eventKey struct {
	EventID string
	Choice  int
}

// eventEffects apply the outcome of a chosen event option to a copy of the
// state and return it. NetWorth is left stale; the caller recomputes it.
var eventEffects = map[eventKey]func(PlayerState, *rand.Rand) PlayerState{
	{"event_car_repair", 0}: func(s PlayerState, _ *rand.Rand) PlayerState {
		s.Cash = max(0, s.Cash-300)
		return s
	},
	{"event_car_repair", 1}: func(s PlayerState, rng *rand.Rand) PlayerState {
		s.Cash = max(0, s.Cash-100)
		if rng.Float64() < 0.5 {
			s.Debt += 50
			s.GameOverMessage = "The cheap fix didn't hold! The garage put the rest of the repair on credit."
		}
		return s
	},
	{"event_birthday_gift", 0}: func(s PlayerState, _ *rand.Rand) PlayerState {
		s.Cash += 100
		return s
	},
	{"event_stock_market_dip", 0}: func(s PlayerState, _ *rand.Rand) PlayerState {
		for i, inv := range s.Investments {
			if inv.Type == InvestmentStocks {
				s.Investments[i].Value = max(0, inv.Value*0.9)
			}
		}
		return s
	},
	{"event_stock_market_dip", 1}: func(s PlayerState, _ *rand.Rand) PlayerState {
		var kept []Investment
		proceeds := 0.0
		for _, inv := range s.Investments {
			if inv.Type != InvestmentStocks {
				kept = append(kept, inv)
				continue
			}
			sold := inv.Value * 0.2
			proceeds += sold * 0.9
			remaining := inv.Value - sold
			if remaining > 1 {
				inv.Value = remaining
				kept = append(kept, inv)
			}
		}
		s.Investments = kept
		s.Cash += proceeds
		return s
	},
	{"event_job_opportunity", 0}: func(s PlayerState, _ *rand.Rand) PlayerState {
		s.MonthlyIncome += 200
		s.MonthlyExpenses += 50
		return s
	},
	{"event_job_opportunity", 1}: func(s PlayerState, _ *rand.Rand) PlayerState {
		return s
	},
	{"event_market_boom", 0}: func(s PlayerState, _ *rand.Rand) PlayerState {
		for i, inv := range s.Investments {
			if inv.Type == InvestmentStocks {
				s.Investments[i].Value = inv.Value * 1.15
			}
		}
		return s
	},
}

// rollEvent walks the catalog in order, accumulating chances against a single
// roll in [0,1). The first event whose cumulative window contains the roll
// fires; most rolls land past every window and no event triggers.
func rollEvent(roll float64) *RandomEvent {
	cumulative := 0.0
	for _, e := range Events {
		cumulative += e.Chance
		if roll < cumulative {
			ev := e
			return &ev
		}
	}
	return nil
}
