package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cl "centsible/internal/cli"
	"centsible/internal/config"
	"centsible/internal/game"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "cents",
		Short:        "Centsible CLI game client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newNewCmd(&apiBase),
		newStatusCmd(&apiBase),
		newAdvanceCmd(&apiBase),
		newQuestsCmd(&apiBase),
		newAchievementsCmd(&apiBase),
		newInvestCmd(&apiBase),
		newFinancesCmd(&apiBase),
		newPlayerCmd(&apiBase),
		newEventCmd(&apiBase),
		newAdviceCmd(&apiBase),
		newEndCmd(&apiBase),
		newSaveCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func reqContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newNewCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := promptOptional("Player name (blank for default)")
			if err != nil {
				return err
			}
			cash, err := promptOptionalFloat("Starting cash (blank for default)")
			if err != nil {
				return err
			}
			income, err := promptOptionalFloat("Monthly income (blank for default)")
			if err != nil {
				return err
			}
			expenses, err := promptOptionalFloat("Monthly expenses (blank for default)")
			if err != nil {
				return err
			}

			overrides := game.StateOverrides{
				Cash:            cash,
				MonthlyIncome:   income,
				MonthlyExpenses: expenses,
			}
			if name != "" {
				overrides.PlayerName = &name
			}

			ctx, cancel := reqContext(cmd)
			defer cancel()
			state, err := newClient(apiBase).NewGame(ctx, overrides)
			if err != nil {
				return err
			}
			printSuccess("New game started. Good luck!")
			renderState(state)
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	var showHistory bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show your current finances",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := reqContext(cmd)
			defer cancel()
			state, err := newClient(apiBase).State(ctx)
			if err != nil {
				return err
			}
			renderState(state)
			if showHistory {
				renderHistory(state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showHistory, "history", false, "include the monthly history table")
	return cmd
}

func newAdvanceCmd(apiBase *string) *cobra.Command {
	var months int
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Advance the game by one or more months",
		RunE: func(cmd *cobra.Command, args []string) error {
			if months < 1 {
				months = 1
			}
			client := newClient(apiBase)
			for i := 0; i < months; i++ {
				ctx, cancel := reqContext(cmd)
				result, err := client.Advance(ctx)
				cancel()
				if err != nil {
					return err
				}
				if result.State.IsGameOver {
					renderState(result.State)
					return nil
				}
				printInfo(fmt.Sprintf("Advanced to %s.", result.State.GameDate.Format("January 2006")))
				if result.Event != nil {
					renderEvent(result.Event)
					if err := resolveEvent(cmd, client, result.Event); err != nil {
						return err
					}
				}
			}

			ctx, cancel := reqContext(cmd)
			defer cancel()
			state, err := client.State(ctx)
			if err != nil {
				return err
			}
			renderState(state)
			return nil
		},
	}
	cmd.Flags().IntVarP(&months, "months", "n", 1, "number of months to advance")
	return cmd
}

func resolveEvent(cmd *cobra.Command, client *cl.Client, ev *game.RandomEvent) error {
	choice, err := promptInt("Your choice", 0, len(ev.Choices)-1)
	if err != nil {
		return err
	}
	ctx, cancel := reqContext(cmd)
	defer cancel()
	state, err := client.ChooseEvent(ctx, choice)
	if err != nil {
		return err
	}
	printSuccess("Event resolved.")
	if state.GameOverMessage != "" && !state.IsGameOver {
		printWarn(state.GameOverMessage)
	}
	return nil
}

func newQuestsCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quests",
		Short: "List and complete quests",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show available and completed quests",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := reqContext(cmd)
				defer cancel()
				listing, err := newClient(apiBase).Quests(ctx)
				if err != nil {
					return err
				}
				renderQuests(listing)
				return nil
			},
		},
		&cobra.Command{
			Use:   "complete <quest-id>",
			Short: "Claim a quest's reward",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := reqContext(cmd)
				defer cancel()
				state, err := newClient(apiBase).CompleteQuest(ctx, args[0])
				if err != nil {
					return err
				}
				printSuccess("Quest completed!")
				renderState(state)
				return nil
			},
		},
	)
	return cmd
}

func newAchievementsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show achievement progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := reqContext(cmd)
			defer cancel()
			listing, err := newClient(apiBase).Achievements(ctx)
			if err != nil {
				return err
			}
			renderAchievements(listing.Unlocked, listing.Catalog)
			return nil
		},
	}
}

func newInvestCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invest",
		Short: "Manage your portfolio",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show current holdings",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := reqContext(cmd)
				defer cancel()
				state, err := newClient(apiBase).State(ctx)
				if err != nil {
					return err
				}
				if len(state.Investments) == 0 {
					printInfo("No holdings yet. Try `cents invest buy`.")
					return nil
				}
				renderState(state)
				return nil
			},
		},
		&cobra.Command{
			Use:   "buy",
			Short: "Buy an investment with cash",
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := promptRequired("Name")
				if err != nil {
					return err
				}
				kind, err := promptRequired("Type (stocks/bonds/real_estate)")
				if err != nil {
					return err
				}
				value, err := promptFloat("Amount", 0)
				if err != nil {
					return err
				}

				ctx, cancel := reqContext(cmd)
				defer cancel()
				state, err := newClient(apiBase).BuyInvestment(ctx, game.InvestmentInput{
					Name:  name,
					Value: value,
					Type:  game.InvestmentType(strings.ToLower(strings.TrimSpace(kind))),
				})
				if err != nil {
					return err
				}
				printSuccess("Purchase complete.")
				renderState(state)
				return nil
			},
		},
		&cobra.Command{
			Use:   "sell <investment-id>",
			Short: "Sell a holding at a price you name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				price, err := promptFloat("Sale price", -1)
				if err != nil {
					return err
				}
				ctx, cancel := reqContext(cmd)
				defer cancel()
				state, err := newClient(apiBase).SellInvestment(ctx, args[0], price)
				if err != nil {
					return err
				}
				printSuccess("Sold.")
				renderState(state)
				return nil
			},
		},
	)
	return cmd
}

func newFinancesCmd(apiBase *string) *cobra.Command {
	var cash, debt, income, expenses float64
	cmd := &cobra.Command{
		Use:   "finances",
		Short: "Apply raw adjustments to cash, debt, income or expenses",
		RunE: func(cmd *cobra.Command, args []string) error {
			var deltas game.FinanceDeltas
			if cmd.Flags().Changed("cash") {
				deltas.Cash = &cash
			}
			if cmd.Flags().Changed("debt") {
				deltas.Debt = &debt
			}
			if cmd.Flags().Changed("income") {
				deltas.Income = &income
			}
			if cmd.Flags().Changed("expenses") {
				deltas.Expenses = &expenses
			}
			if deltas.Cash == nil && deltas.Debt == nil && deltas.Income == nil && deltas.Expenses == nil {
				return fmt.Errorf("give at least one of --cash, --debt, --income, --expenses")
			}

			ctx, cancel := reqContext(cmd)
			defer cancel()
			state, err := newClient(apiBase).AdjustFinances(ctx, deltas)
			if err != nil {
				return err
			}
			printSuccess("Finances adjusted.")
			renderState(state)
			return nil
		},
	}
	cmd.Flags().Float64Var(&cash, "cash", 0, "delta applied to cash")
	cmd.Flags().Float64Var(&debt, "debt", 0, "delta applied to debt")
	cmd.Flags().Float64Var(&income, "income", 0, "delta applied to monthly income")
	cmd.Flags().Float64Var(&expenses, "expenses", 0, "delta applied to monthly expenses")
	return cmd
}

func newPlayerCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <name>",
		Short: "Change your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := reqContext(cmd)
			defer cancel()
			state, err := newClient(apiBase).RenamePlayer(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("You are now %s.", state.PlayerName))
			return nil
		},
	})
	return cmd
}

func newEventCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Show or resolve the pending event",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := reqContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			ev, err := client.PendingEvent(ctx)
			if err != nil {
				return err
			}
			if ev == nil {
				printInfo("No event waiting.")
				return nil
			}
			renderEvent(ev)
			return resolveEvent(cmd, client, ev)
		},
	}
	return cmd
}

func newAdviceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "advice",
		Short: "Ask the financial advisor for guidance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := reqContext(cmd)
			defer cancel()
			advice, err := newClient(apiBase).Advice(ctx)
			if err != nil {
				return err
			}
			accent.Println("\nAdvisor says:")
			fmt.Println(advice)
			fmt.Println()
			return nil
		},
	}
}

func newEndCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := promptRequired("Parting words")
			if err != nil {
				return err
			}
			ctx, cancel := reqContext(cmd)
			defer cancel()
			state, err := newClient(apiBase).EndGame(ctx, message)
			if err != nil {
				return err
			}
			renderState(state)
			return nil
		},
	}
}

func newSaveCmd(apiBase *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Export and import savegames",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "export",
			Short: "Write the current game to ~/.cents/save.json",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := reqContext(cmd)
				defer cancel()
				state, err := newClient(apiBase).State(ctx)
				if err != nil {
					return err
				}
				path, err := cl.SaveGame(state)
				if err != nil {
					return err
				}
				printSuccess("Saved to " + path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "import",
			Short: "Load the savegame into the running server",
			RunE: func(cmd *cobra.Command, args []string) error {
				saved, err := cl.LoadGame()
				if err != nil {
					return err
				}
				ctx, cancel := reqContext(cmd)
				defer cancel()
				state, err := newClient(apiBase).RestoreGame(ctx, saved)
				if err != nil {
					return err
				}
				printSuccess("Savegame restored.")
				renderState(state)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the local savegame",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := cl.ClearSave(); err != nil {
					return err
				}
				printSuccess("Savegame removed.")
				return nil
			},
		},
	)
	return cmd
}
