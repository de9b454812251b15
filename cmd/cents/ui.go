package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	cl "centsible/internal/cli"
	"centsible/internal/game"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.2f", min))
			continue
		}
		return v, nil
	}
}

// promptOptionalFloat returns nil when the player just presses enter.
func promptOptionalFloat(label string) (*float64, error) {
	for {
		text, err := promptOptional(label)
		if err != nil {
			return nil, err
		}
		if text == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number or leave blank.")
			continue
		}
		return &v, nil
	}
}

func promptInt(label string, min, max int) (int, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(text)
		if err != nil || v < min || v > max {
			printWarn(fmt.Sprintf("Enter a number between %d and %d.", min, max))
			continue
		}
		return v, nil
	}
}

func renderState(s game.PlayerState) {
	accent.Printf("\n== %s (%s) ==\n", s.PlayerName, s.GameDate.Format("January 2006"))
	if s.IsGameOver {
		danger.Printf("GAME OVER: %s\n", s.GameOverMessage)
	}
	fmt.Printf("Level:       %d (%.0f / %.0f XP)\n", s.Level, s.Experience, game.ExperienceForNextLevel(s.Level))
	fmt.Printf("Cash:        %s\n", money(s.Cash))
	fmt.Printf("Income:      %s /mo\n", money(s.MonthlyIncome))
	fmt.Printf("Expenses:    %s /mo\n", money(s.MonthlyExpenses))
	fmt.Printf("Debt:        %s\n", colorizeDebt(s.Debt))
	fmt.Printf("Net Worth:   %s\n", colorizeMoney(s.NetWorth))

	if len(s.Investments) > 0 {
		fmt.Println()
		accent.Println("Portfolio")
		fmt.Printf("%-38s %-22s %-12s %12s\n", "ID", "NAME", "TYPE", "VALUE")
		for _, inv := range s.Investments {
			fmt.Printf("%-38s %-22s %-12s %12s\n",
				inv.ID, truncate(inv.Name, 22), inv.Type, money(inv.Value))
		}
	}
	fmt.Println()
}

func renderHistory(s game.PlayerState) {
	if len(s.HistoricalData) == 0 {
		printInfo("No history yet.")
		return
	}
	accent.Println("History (last year)")
	fmt.Printf("%-10s %14s %14s %14s %14s\n", "MONTH", "NET WORTH", "CASH", "INVESTED", "DEBT")
	for _, p := range s.HistoricalData {
		fmt.Printf("%-10s %14s %14s %14s %14s\n",
			p.Date.Format("2006-01"),
			money(p.NetWorth), money(p.Cash), money(p.InvestmentsValue), money(p.Debt))
	}
	fmt.Println()
}

func renderQuests(listing cl.QuestListing) {
	accent.Println("\nAvailable quests")
	if len(listing.Available) == 0 {
		printInfo("Nothing available right now.")
	}
	for _, q := range listing.Available {
		fmt.Printf("  %-22s %s\n", q.ID, q.Title)
		fmt.Printf("  %-22s %s\n", "", q.Description)
		reward := fmt.Sprintf("%.0f XP", q.Reward.Experience)
		if q.Reward.Cash > 0 {
			reward += " + " + money(q.Reward.Cash)
		}
		fmt.Printf("  %-22s reward: %s\n", "", reward)
	}
	if len(listing.Completed) > 0 {
		fmt.Println()
		accent.Println("Completed")
		for _, id := range listing.Completed {
			success.Printf("  %s\n", id)
		}
	}
	fmt.Println()
}

func renderAchievements(unlocked, catalog []game.Achievement) {
	have := make(map[string]bool, len(unlocked))
	for _, a := range unlocked {
		have[a.ID] = true
	}
	accent.Printf("\nAchievements (%d/%d)\n", len(unlocked), len(catalog))
	for _, a := range catalog {
		mark := "[ ]"
		line := fmt.Sprintf("%s %-18s %s", mark, a.Title, a.Description)
		if have[a.ID] {
			success.Printf("[x] %-18s %s\n", a.Title, a.Description)
			continue
		}
		fmt.Println(line)
	}
	fmt.Println()
}

func renderEvent(ev *game.RandomEvent) {
	warn.Printf("\n!! %s\n", ev.Title)
	fmt.Println(ev.Description)
	for i, c := range ev.Choices {
		fmt.Printf("  [%d] %s\n", i, c.Text)
	}
	fmt.Println()
}

func colorizeMoney(v float64) string {
	text := money(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeDebt(v float64) string {
	if v > 0 {
		return danger.Sprint(money(v))
	}
	return neutral.Sprint(money(v))
}

func money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := int64(v)
	frac := int64(math.Round((v - float64(whole)) * 100))
	if frac == 100 {
		whole++
		frac = 0
	}
	return fmt.Sprintf("%s$%s.%02d", sign, comma(whole), frac)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
