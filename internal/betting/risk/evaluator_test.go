package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// baseInput monta uma aposta válida; cada teste quebra uma regra por vez
func baseInput() Input {
	return Input{
		BetType:   model.BetTypeMoneyline,
		Selection: model.SelectionHome,
		Odds:      dec("2.00"),
		Amount:    dec("10.00"),
		Snapshot: model.EventSnapshot{
			EventID:    "ev-1",
			Status:     model.EventUpcoming,
			StartsAt:   now.Add(2 * time.Hour),
			PostedOdds: dec("2.00"),
			OddsPosted: true,
			ReadAt:     now,
		},
		Balance: dec("100.00"),
		Totals:  model.StakeTotals{Day: decimal.Zero, Week: decimal.Zero, Month: decimal.Zero},
		Now:     now,
	}
}

func newEval() *Evaluator { return New(dec("1.00"), dec("0.05")) }

func TestAcceptsValidBet(t *testing.T) {
	assert.NoError(t, newEval().Evaluate(baseInput()))
}

func TestEventMustBeUpcomingAndInFuture(t *testing.T) {
	e := newEval()

	for _, st := range []model.EventStatus{model.EventLive, model.EventFinished, model.EventCancelled} {
		in := baseInput()
		in.Snapshot.Status = st
		assert.ErrorIs(t, e.Evaluate(in), errs.ErrEventNotAvailable, string(st))
	}

	in := baseInput()
	in.Snapshot.StartsAt = now.Add(-time.Minute)
	assert.ErrorIs(t, e.Evaluate(in), errs.ErrEventNotAvailable)

	// início exatamente agora já não é futuro
	in.Snapshot.StartsAt = now
	assert.ErrorIs(t, e.Evaluate(in), errs.ErrEventNotAvailable)
}

func TestEventRuleShortCircuitsBeforeOthers(t *testing.T) {
	// evento indisponível E valor inválido: a regra 1 responde primeiro
	in := baseInput()
	in.Snapshot.Status = model.EventFinished
	in.Amount = dec("0.10")
	assert.ErrorIs(t, newEval().Evaluate(in), errs.ErrEventNotAvailable)
}

func TestInvalidPairingRejected(t *testing.T) {
	in := baseInput()
	in.BetType = model.BetTypeTotal
	in.Selection = model.SelectionHome
	assert.ErrorIs(t, newEval().Evaluate(in), errs.ErrInvalidSelection)
}

func TestMarketNotPostedRejected(t *testing.T) {
	in := baseInput()
	in.Snapshot.OddsPosted = false
	assert.ErrorIs(t, newEval().Evaluate(in), errs.ErrInvalidSelection)
}

func TestMinimumBetBoundary(t *testing.T) {
	e := newEval()

	in := baseInput()
	in.Amount = dec("0.99")
	assert.ErrorIs(t, e.Evaluate(in), errs.ErrInvalidBetAmount)

	in.Amount = dec("1.00")
	assert.NoError(t, e.Evaluate(in))
}

func TestOddsToleranceBoundary(t *testing.T) {
	e := newEval()

	// publicadas 2.00, ±5% => 2.10 aceita, 2.11 rejeita
	in := baseInput()
	in.Odds = dec("2.10")
	assert.NoError(t, e.Evaluate(in))

	in.Odds = dec("2.11")
	assert.ErrorIs(t, e.Evaluate(in), errs.ErrOddsChanged)

	in.Odds = dec("1.90")
	assert.NoError(t, e.Evaluate(in))

	in.Odds = dec("1.89")
	assert.ErrorIs(t, e.Evaluate(in), errs.ErrOddsChanged)
}

func TestAdvisoryBalanceCheck(t *testing.T) {
	in := baseInput()
	in.Balance = dec("9.99")
	assert.ErrorIs(t, newEval().Evaluate(in), errs.ErrInsufficientFunds)

	in.Balance = dec("10.00")
	assert.NoError(t, newEval().Evaluate(in))
}

func TestGamblingLimits(t *testing.T) {
	e := newEval()

	t.Run("sem limites configurados aceita", func(t *testing.T) {
		in := baseInput()
		in.Limits = nil
		assert.NoError(t, e.Evaluate(in))
	})

	t.Run("max single bet", func(t *testing.T) {
		in := baseInput()
		in.Limits = &model.GamblingLimits{MaxSingleBet: decPtr("5.00")}
		assert.ErrorIs(t, e.Evaluate(in), errs.ErrBetLimitExceeded)
	})

	t.Run("janela diária", func(t *testing.T) {
		in := baseInput()
		in.Limits = &model.GamblingLimits{DailyBetLimit: decPtr("50.00")}
		in.Totals.Day = dec("45.00")
		assert.ErrorIs(t, e.Evaluate(in), errs.ErrBetLimitExceeded)

		// exatamente no limite passa
		in.Totals.Day = dec("40.00")
		assert.NoError(t, e.Evaluate(in))
	})

	t.Run("janela semanal", func(t *testing.T) {
		in := baseInput()
		in.Limits = &model.GamblingLimits{WeeklyBetLimit: decPtr("100.00")}
		in.Totals.Week = dec("95.00")
		assert.ErrorIs(t, e.Evaluate(in), errs.ErrBetLimitExceeded)
	})

	t.Run("janela mensal", func(t *testing.T) {
		in := baseInput()
		in.Limits = &model.GamblingLimits{MonthlyBetLimit: decPtr("200.00")}
		in.Totals.Month = dec("195.00")
		assert.ErrorIs(t, e.Evaluate(in), errs.ErrBetLimitExceeded)
	})
}

func TestSelfExclusion(t *testing.T) {
	e := newEval()

	in := baseInput()
	until := now.Add(24 * time.Hour)
	in.Limits = &model.GamblingLimits{SelfExclusionUntil: &until}
	assert.ErrorIs(t, e.Evaluate(in), errs.ErrAccountLocked)

	// exclusão expirada volta a aceitar
	past := now.Add(-time.Hour)
	in.Limits = &model.GamblingLimits{SelfExclusionUntil: &past}
	assert.NoError(t, e.Evaluate(in))
}
