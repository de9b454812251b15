package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"centsible/internal/game"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// AdvanceResult pairs the post-advance state with the event that fired, if
// any.
type AdvanceResult struct {
	State game.PlayerState  `json:"state"`
	Event *game.RandomEvent `json:"event"`
}

// QuestListing mirrors the quests endpoint: what is offered now and what has
// already been completed.
type QuestListing struct {
	Available []game.Quest `json:"available"`
	Completed []string     `json:"completed"`
}

// AchievementListing pairs the unlocked achievements with the full catalog.
type AchievementListing struct {
	Unlocked []game.Achievement `json:"unlocked"`
	Catalog  []game.Achievement `json:"catalog"`
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) State(ctx context.Context) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out)
	return out, err
}

func (c *Client) NewGame(ctx context.Context, overrides game.StateOverrides) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/new", overrides, &out)
	return out, err
}

func (c *Client) Advance(ctx context.Context) (AdvanceResult, error) {
	var out AdvanceResult
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/advance", nil, &out)
	return out, err
}

func (c *Client) RestoreGame(ctx context.Context, state game.PlayerState) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/restore", state, &out)
	return out, err
}

func (c *Client) EndGame(ctx context.Context, message string) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/game/over", map[string]any{
		"message": message,
	}, &out)
	return out, err
}

func (c *Client) Quests(ctx context.Context) (QuestListing, error) {
	var out QuestListing
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/quests", nil, &out)
	return out, err
}

func (c *Client) CompleteQuest(ctx context.Context, questID string) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/quests/"+url.PathEscape(questID)+"/complete", nil, &out)
	return out, err
}

func (c *Client) Achievements(ctx context.Context) (AchievementListing, error) {
	var out AchievementListing
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/achievements", nil, &out)
	return out, err
}

func (c *Client) BuyInvestment(ctx context.Context, in game.InvestmentInput) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/investments", in, &out)
	return out, err
}

func (c *Client) SellInvestment(ctx context.Context, investmentID string, price float64) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/investments/"+url.PathEscape(investmentID)+"/sell", map[string]any{
		"price": price,
	}, &out)
	return out, err
}

func (c *Client) AdjustFinances(ctx context.Context, deltas game.FinanceDeltas) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/finances/adjust", deltas, &out)
	return out, err
}

func (c *Client) RenamePlayer(ctx context.Context, name string) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPatch, "/v1/player", map[string]any{
		"player_name": name,
	}, &out)
	return out, err
}

func (c *Client) PendingEvent(ctx context.Context) (*game.RandomEvent, error) {
	var out struct {
		Event *game.RandomEvent `json:"event"`
	}
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/event", nil, &out); err != nil {
		return nil, err
	}
	return out.Event, nil
}

func (c *Client) ChooseEvent(ctx context.Context, choice int) (game.PlayerState, error) {
	var out game.PlayerState
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/event/choice", map[string]any{
		"choice": choice,
	}, &out)
	return out, err
}

func (c *Client) Advice(ctx context.Context) (string, error) {
	var out struct {
		Advice string `json:"advice"`
	}
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/advice", nil, &out); err != nil {
		return "", err
	}
	return out.Advice, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
