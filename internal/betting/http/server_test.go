package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/engine"
	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
)

type fakeEngine struct {
	placeErr error
	lastIn   engine.PlaceBetInput
	bet      *model.Bet
}

func (f *fakeEngine) PlaceBet(_ context.Context, in engine.PlaceBetInput) (*model.Bet, error) {
	f.lastIn = in
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.bet, nil
}

func (f *fakeEngine) GetBet(_ context.Context, betID, accountID string) (*model.Bet, error) {
	if f.bet != nil && f.bet.ID == betID && f.bet.AccountID == accountID {
		return f.bet, nil
	}
	return nil, errs.ErrBetNotFound
}

func (f *fakeEngine) ListBets(_ context.Context, _ string, _, _ int) ([]model.Bet, error) {
	if f.bet == nil {
		return []model.Bet{}, nil
	}
	return []model.Bet{*f.bet}, nil
}

func (f *fakeEngine) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	return decimal.RequireFromString("42.00"), nil
}

func (f *fakeEngine) Deposit(_ context.Context, _ string, amount decimal.Decimal) (decimal.Decimal, error) {
	return amount, nil
}

type fakeLimitsStore struct{ lim *model.GamblingLimits }

func (f *fakeLimitsStore) Get(_ context.Context, _ string) (*model.GamblingLimits, error) {
	return f.lim, nil
}
func (f *fakeLimitsStore) Put(_ context.Context, lim *model.GamblingLimits) error {
	f.lim = lim
	return nil
}

func newTestServer(eng *fakeEngine) *httptest.Server {
	s := NewServer(zap.NewNop(), eng, &fakeLimitsStore{})
	return httptest.NewServer(s.Router())
}

func placeBody() []byte {
	b, _ := json.Marshal(map[string]any{
		"account_id": "acc-1",
		"event_id":   "ev-1",
		"bet_type":   "moneyline",
		"selection":  "home",
		"odds":       "1.85",
		"amount":     "50.00",
	})
	return b
}

func TestPlaceBetCreated(t *testing.T) {
	eng := &fakeEngine{bet: &model.Bet{ID: "b-1", AccountID: "acc-1", Status: model.BetStatusPending}}
	srv := newTestServer(eng)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/bets", "application/json", bytes.NewReader(placeBody()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// normalização case-insensitive chegou no motor como enum
	assert.Equal(t, model.BetTypeMoneyline, eng.lastIn.BetType)
	assert.Equal(t, model.SelectionHome, eng.lastIn.Selection)

	var bet model.Bet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&bet))
	assert.Equal(t, "b-1", bet.ID)
}

func TestPlaceBetBadJSON(t *testing.T) {
	srv := newTestServer(&fakeEngine{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/bets", "application/json", bytes.NewReader([]byte("{oops")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaceBetInvalidSelection(t *testing.T) {
	srv := newTestServer(&fakeEngine{})
	defer srv.Close()

	b, _ := json.Marshal(map[string]any{
		"account_id": "acc-1",
		"event_id":   "ev-1",
		"bet_type":   "total",
		"selection":  "home", // TOTAL exige OVER/UNDER
		"odds":       "1.85",
		"amount":     "10.00",
	})
	resp, err := http.Post(srv.URL+"/bets", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errs.ErrEventNotFound, http.StatusNotFound},
		{errs.ErrEventNotAvailable, http.StatusConflict},
		{errs.ErrOddsChanged, http.StatusConflict},
		{errs.ErrInvalidBetAmount, http.StatusUnprocessableEntity},
		{errs.ErrInsufficientFunds, http.StatusPaymentRequired},
		{errs.ErrBetLimitExceeded, http.StatusTooManyRequests},
		{errs.ErrAccountLocked, http.StatusForbidden},
		{errs.ErrWalletTampered, http.StatusInternalServerError},
		{errs.ErrStorage, http.StatusServiceUnavailable},
	}

	for _, c := range cases {
		srv := newTestServer(&fakeEngine{placeErr: c.err})
		resp, err := http.Post(srv.URL+"/bets", "application/json", bytes.NewReader(placeBody()))
		require.NoError(t, err)
		assert.Equal(t, c.status, resp.StatusCode, c.err.Error())
		resp.Body.Close()
		srv.Close()
	}
}

func TestGetBetOwnership(t *testing.T) {
	eng := &fakeEngine{bet: &model.Bet{ID: "b-1", AccountID: "acc-1"}}
	srv := newTestServer(eng)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/bets/b-1?accountId=acc-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/bets/b-1?accountId=acc-2")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetWallet(t *testing.T) {
	srv := newTestServer(&fakeEngine{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/wallet?accountId=acc-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "42.00", body["balance"])
}

func TestLimitsRoundTrip(t *testing.T) {
	srv := newTestServer(&fakeEngine{})
	defer srv.Close()

	b, _ := json.Marshal(map[string]any{
		"account_id":      "acc-1",
		"daily_bet_limit": "100.00",
	})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/limits?accountId=acc-1", bytes.NewReader(b))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/limits?accountId=acc-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lim model.GamblingLimits
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lim))
	require.NotNil(t, lim.DailyBetLimit)
	assert.True(t, lim.DailyBetLimit.Equal(decimal.RequireFromString("100.00")))
}
