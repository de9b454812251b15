package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"centsible/internal/advisor"
	"centsible/internal/config"
	"centsible/internal/game"
	"centsible/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	session *game.Session
	advisor *advisor.Client
	store   *store.Store
	mux     *chi.Mux
}

// New builds the HTTP server around a running game session. advisorClient and
// snapshots may be nil when those features are not configured.
func New(cfg config.APIConfig, logger *slog.Logger, session *game.Session, advisorClient *advisor.Client, snapshots *store.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		session: session,
		advisor: advisorClient,
		store:   snapshots,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Post("/game/new", s.handleNewGame)
		r.Post("/game/advance", s.handleAdvance)
		r.Post("/game/over", s.handleGameOver)
		r.Post("/game/restore", s.handleRestore)

		r.Get("/quests", s.handleQuestsList)
		r.Post("/quests/{id}/complete", s.handleCompleteQuest)
		r.Get("/achievements", s.handleAchievements)

		r.Post("/investments", s.handleBuyInvestment)
		r.Post("/investments/{id}/sell", s.handleSellInvestment)
		r.Post("/finances/adjust", s.handleAdjustFinances)
		r.Patch("/player", s.handleUpdatePlayer)

		r.Get("/event", s.handlePendingEvent)
		r.Post("/event/choice", s.handleEventChoice)

		r.Get("/advice", s.handleAdvice)
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var overrides game.StateOverrides
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &overrides); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	state := s.session.Reset(&overrides)
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	state, event, err := s.session.AdvanceMonth()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, map[string]any{
		"state": state,
		"event": event,
	})
}

func (s *Server) handleGameOver(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	state := s.session.SetGameOver(in.Message)
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var in game.PlayerState
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.GameDate.IsZero() {
		writeError(w, http.StatusBadRequest, "snapshot has no game date")
		return
	}
	state := s.session.Restore(in)
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleQuestsList(w http.ResponseWriter, _ *http.Request) {
	state := s.session.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"available": s.session.AvailableQuests(),
		"completed": state.CompletedQuestIDs,
	})
}

func (s *Server) handleCompleteQuest(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "id")
	state, err := s.session.CompleteQuest(questID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAchievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"unlocked": s.session.UnlockedAchievements(),
		"catalog":  game.Achievements,
	})
}

func (s *Server) handleBuyInvestment(w http.ResponseWriter, r *http.Request) {
	var in game.InvestmentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if in.Value <= 0 {
		writeError(w, http.StatusBadRequest, "value must be positive")
		return
	}
	switch in.Type {
	case game.InvestmentStocks, game.InvestmentBonds, game.InvestmentRealEstate:
	default:
		writeError(w, http.StatusBadRequest, "unknown investment type")
		return
	}
	state, err := s.session.BuyInvestment(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusCreated, state)
}

func (s *Server) handleSellInvestment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Price float64 `json:"price"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Price < 0 {
		writeError(w, http.StatusBadRequest, "price cannot be negative")
		return
	}
	state, err := s.session.SellInvestment(chi.URLParam(r, "id"), in.Price)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAdjustFinances(w http.ResponseWriter, r *http.Request) {
	var in game.FinanceDeltas
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Cash == nil && in.Debt == nil && in.Income == nil && in.Expenses == nil {
		writeError(w, http.StatusBadRequest, "no adjustments given")
		return
	}
	state, err := s.session.AdjustFinances(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlayerName string `json:"player_name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.PlayerName) == "" {
		writeError(w, http.StatusBadRequest, "player_name is required")
		return
	}
	state := s.session.RenamePlayer(in.PlayerName)
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handlePendingEvent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"event": s.session.PendingEvent()})
}

func (s *Server) handleEventChoice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Choice int `json:"choice"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := s.session.ChooseEvent(in.Choice)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.persist(r.Context(), state)
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	if !s.advisor.Configured() {
		writeError(w, http.StatusServiceUnavailable, "advisor service not configured")
		return
	}
	advice, err := s.advisor.Advise(r.Context(), s.session.Summary())
	if err != nil {
		s.log.Error("advisor call failed", "error", err)
		writeError(w, http.StatusBadGateway, "advisor unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"advice": advice})
}

// persist saves a snapshot after a mutating request. Failures are logged,
// never surfaced: the in-memory game is the source of truth.
func (s *Server) persist(ctx context.Context, state game.PlayerState) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSnapshot(ctx, state); err != nil {
		s.log.Warn("snapshot save failed", "error", err)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrQuestAlreadyCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrQuestNotSatisfied),
		errors.Is(err, game.ErrInvalidChoice):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrUnknownQuest),
		errors.Is(err, game.ErrInvestmentNotFound),
		errors.Is(err, game.ErrNoPendingEvent):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
