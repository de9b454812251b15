package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"centsible/internal/advisor"
	"centsible/internal/config"
	"centsible/internal/game"
)

func newTestServer(t *testing.T) (*Server, *game.Session) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := game.NewSession(nil, 1, logger)
	srv := New(config.APIConfig{}, logger, session, advisor.NewClient("", ""), nil)
	return srv, session
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) game.PlayerState {
	t.Helper()
	var state game.PlayerState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v (body %s)", err, rec.Body.String())
	}
	return state
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGetState(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/v1/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	state := decodeState(t, rec)
	if state.Cash != game.DefaultStartingCash {
		t.Fatalf("Cash = %v", state.Cash)
	}
}

func TestNewGameWithOverrides(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/v1/game/new", map[string]any{
		"player_name": "Ada",
		"cash":        2500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if state.PlayerName != "Ada" || state.Cash != 2500 {
		t.Fatalf("overrides not applied: %s / %v", state.PlayerName, state.Cash)
	}
}

func TestAdvanceMonth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/v1/game/advance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		State game.PlayerState  `json:"state"`
		Event *game.RandomEvent `json:"event"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.State.Cash != 700 {
		t.Fatalf("Cash = %v, want 700", out.State.Cash)
	}
}

func TestAdvanceAfterGameOver(t *testing.T) {
	srv, session := newTestServer(t)
	session.SetGameOver("quit")

	rec := doJSON(t, srv, http.MethodPost, "/v1/game/advance", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGameOverEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/game/over", map[string]string{"message": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank message: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/game/over", map[string]string{"message": "I give up"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	state := decodeState(t, rec)
	if !state.IsGameOver || state.GameOverMessage != "I give up" {
		t.Fatalf("game over not recorded: %+v", state)
	}
}

func TestQuestFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/quests", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listing struct {
		Available []game.Quest `json:"available"`
		Completed []string     `json:"completed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Available) == 0 {
		t.Fatal("no quests offered on a fresh game")
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/quests/q1_save_100/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if !state.HasCompletedQuest("q1_save_100") {
		t.Fatal("quest not recorded")
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/quests/q1_save_100/complete", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat completion status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/quests/q99_nope/complete", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown quest status = %d, want 404", rec.Code)
	}
}

func TestInvestmentFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/investments", map[string]any{
		"name": "Index Fund", "value": 200, "type": "stocks",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("buy status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if len(state.Investments) != 1 || state.Cash != 300 {
		t.Fatalf("buy not applied: %+v", state)
	}
	id := state.Investments[0].ID

	rec = doJSON(t, srv, http.MethodPost, "/v1/investments", map[string]any{
		"name": "Moonshot", "value": 999999, "type": "stocks",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unaffordable buy status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/investments", map[string]any{
		"name": "Mystery", "value": 10, "type": "crypto",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/investments/"+id+"/sell", map[string]any{"price": 250})
	if rec.Code != http.StatusOK {
		t.Fatalf("sell status = %d: %s", rec.Code, rec.Body.String())
	}
	state = decodeState(t, rec)
	if len(state.Investments) != 0 || state.Cash != 550 {
		t.Fatalf("sell not applied: %+v", state)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/investments/nope/sell", map[string]any{"price": 10})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing holding status = %d, want 404", rec.Code)
	}
}

func TestAdjustFinances(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/finances/adjust", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty adjust status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/finances/adjust", map[string]any{"debt": 500})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if state.Debt != 500 {
		t.Fatalf("Debt = %v, want 500", state.Debt)
	}
	if state.NetWorth != 0 {
		t.Fatalf("NetWorth = %v, want 0", state.NetWorth)
	}
}

func TestUpdatePlayer(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPatch, "/v1/player", map[string]string{"player_name": "Grace"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if state := decodeState(t, rec); state.PlayerName != "Grace" {
		t.Fatalf("PlayerName = %q", state.PlayerName)
	}
}

func TestEventEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/event", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get event status = %d", rec.Code)
	}
	var out struct {
		Event *game.RandomEvent `json:"event"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Event != nil {
		t.Fatalf("fresh game has a pending event: %+v", out.Event)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/event/choice", map[string]int{"choice": 0})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("choice without event status = %d, want 404", rec.Code)
	}
}

func TestRestoreGame(t *testing.T) {
	srv, session := newTestServer(t)

	snapshot := session.State()
	snapshot.Cash = 4321
	snapshot.PlayerName = "Restored"

	rec := doJSON(t, srv, http.MethodPost, "/v1/game/restore", snapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	if state.Cash != 4321 || state.PlayerName != "Restored" {
		t.Fatalf("restore not applied: %+v", state)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/game/restore", game.PlayerState{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty snapshot status = %d, want 400", rec.Code)
	}
}

func TestRestoreGameRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)

	snapshot := game.PlayerState{
		PlayerName:      "Veteran",
		Level:           3,
		Experience:      42.5,
		Cash:            1234.56,
		MonthlyIncome:   2500,
		MonthlyExpenses: 1800,
		Investments: []game.Investment{
			{ID: "inv-1", Name: "Index fund", Value: 900, Type: game.InvestmentStocks,
				PurchaseDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "inv-2", Name: "Treasuries", Value: 400, Type: game.InvestmentBonds,
				PurchaseDate: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), Quantity: 4},
		},
		Debt:                   -50,
		CompletedQuestIDs:      []string{"q1_save_100", "q2_emergency_fund"},
		UnlockedAchievementIDs: []string{"first_1k_cash", "debt_free"},
		GameDate:               time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		HistoricalData: []game.HistoricalDataPoint{
			{Date: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), NetWorth: 2000, Cash: 1100, InvestmentsValue: 850, Debt: -50},
			{Date: time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), NetWorth: 2584.56, Cash: 1234.56, InvestmentsValue: 1300, Debt: -50},
		},
		IsGameOver:      true,
		GameOverMessage: "called it quits",
	}
	snapshot.NetWorth = game.CalculateNetWorth(snapshot)

	rec := doJSON(t, srv, http.MethodPost, "/v1/game/restore", snapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d", rec.Code)
	}
	got := decodeState(t, rec)

	// Compare serialized forms so every field, including nested slices and
	// dates, must survive the trip unchanged.
	wantJSON, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	gotJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	if !bytes.Equal(wantJSON, gotJSON) {
		t.Fatalf("round trip changed state:\nwant %s\ngot  %s", wantJSON, gotJSON)
	}
}

func TestAdviceUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/v1/advice", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestAdviceProxied(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"advice": "Build an emergency fund."})
	}))
	defer upstream.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := game.NewSession(nil, 1, logger)
	srv := New(config.APIConfig{}, logger, session, advisor.NewClient(upstream.URL, ""), nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/advice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Advice string `json:"advice"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Advice != "Build an emergency fund." {
		t.Fatalf("advice = %q", out.Advice)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/v1/game/over", map[string]any{
		"message": "done", "surprise": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
