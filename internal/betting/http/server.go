package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/dto"
	"github.com/betstack/betting-engine/internal/betting/engine"
	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
)

// BettingEngine é a fachada do motor consumida pelos handlers.
type BettingEngine interface {
	PlaceBet(ctx context.Context, in engine.PlaceBetInput) (*model.Bet, error)
	GetBet(ctx context.Context, betID, accountID string) (*model.Bet, error)
	ListBets(ctx context.Context, accountID string, limit, offset int) ([]model.Bet, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error)
}

// LimitsStore são as operações de limites expostas na API.
type LimitsStore interface {
	Get(ctx context.Context, accountID string) (*model.GamblingLimits, error)
	Put(ctx context.Context, lim *model.GamblingLimits) error
}

// Server expõe a API HTTP do motor de apostas.
type Server struct {
	log    *zap.Logger
	eng    BettingEngine
	limits LimitsStore
}

func NewServer(log *zap.Logger, eng BettingEngine, limits LimitsStore) *Server {
	return &Server{log: log, eng: eng, limits: limits}
}

// Router devolve o mux com as rotas da API.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.bets)            // POST place, GET ?accountId=... lista
	mux.HandleFunc("/bets/", s.getBet)         // GET /bets/{id}?accountId=...
	mux.HandleFunc("/wallet", s.getWallet)     // GET ?accountId=...
	mux.HandleFunc("/wallet/deposit", s.deposit)
	mux.HandleFunc("/limits", s.gamblingLimits) // GET/PUT ?accountId=...
	return mux
}

func (s *Server) bets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.placeBet(w, r)
	case http.MethodGet:
		s.listBets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" || req.EventID == "" || req.BetType == "" || req.Selection == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	in, err := req.ToInput()
	if err != nil {
		s.writeError(w, err)
		return
	}

	bet, err := s.eng.PlaceBet(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(bet)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// path: /bets/{id}
	id := strings.TrimPrefix(r.URL.Path, "/bets/")
	accountID := r.URL.Query().Get("accountId")
	if id == "" || accountID == "" {
		http.Error(w, "betId and accountId required", http.StatusBadRequest)
		return
	}

	bet, err := s.eng.GetBet(r.Context(), id, accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, bet)
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		http.Error(w, "accountId required", http.StatusBadRequest)
		return
	}

	limit := queryInt(r, "limit", 20, 100)
	offset := queryInt(r, "offset", 0, 1<<30)

	bets, err := s.eng.ListBets(r.Context(), accountID, limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.BetListResponse{Bets: bets, Limit: limit, Offset: offset})
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		http.Error(w, "accountId required", http.StatusBadRequest)
		return
	}

	balance, err := s.eng.Balance(r.Context(), accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.WalletResponse{AccountID: accountID, Balance: balance.StringFixed(2), Currency: "USD"})
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.AccountID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	balance, err := s.eng.Deposit(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, dto.WalletResponse{AccountID: req.AccountID, Balance: balance.StringFixed(2), Currency: "USD"})
}

func (s *Server) gamblingLimits(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")

	switch r.Method {
	case http.MethodGet:
		if accountID == "" {
			http.Error(w, "accountId required", http.StatusBadRequest)
			return
		}
		lim, err := s.limits.Get(r.Context(), accountID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if lim == nil {
			lim = &model.GamblingLimits{AccountID: accountID}
		}
		writeJSON(w, lim)
	case http.MethodPut:
		var lim model.GamblingLimits
		if err := json.NewDecoder(r.Body).Decode(&lim); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if lim.AccountID == "" {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if err := s.limits.Put(r.Context(), &lim); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, lim)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeError traduz a taxonomia do motor para status HTTP.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable // storage: o chamador pode repetir com a mesma key

	switch {
	case errors.Is(err, errs.ErrEventNotFound),
		errors.Is(err, errs.ErrBetNotFound),
		errors.Is(err, errs.ErrWalletNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidSelection),
		errors.Is(err, errs.ErrInvalidBetAmount):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrEventNotAvailable),
		errors.Is(err, errs.ErrOddsChanged):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, errs.ErrBetLimitExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, errs.ErrAccountLocked):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrWalletTampered):
		status = http.StatusInternalServerError
		s.log.Error("wallet tampered surfaced to API", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: err.Error(), Reason: errs.Reason(err)})
}

func queryInt(r *http.Request, key string, def, max int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > max {
		return def
	}
	return n
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
