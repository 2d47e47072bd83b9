package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
)

// Input reúne tudo que o avaliador precisa. Todas as leituras já foram
// feitas pelo orquestrador; as regras são puras e não tocam storage.
type Input struct {
	BetType   model.BetType
	Selection model.Selection
	Odds      decimal.Decimal // valor submetido pelo apostador
	Amount    decimal.Decimal

	Snapshot model.EventSnapshot
	Balance  decimal.Decimal
	Limits   *model.GamblingLimits // nil = sem limites configurados
	Totals   model.StakeTotals
	Now      time.Time
}

// Evaluator aplica as regras de risco e limite na ordem fixa da colocação,
// retornando no primeiro erro. nil = aceita.
type Evaluator struct {
	MinBet    decimal.Decimal
	Tolerance decimal.Decimal // banda relativa, 0.05 = ±5%
}

func New(minBet, tolerance decimal.Decimal) *Evaluator {
	return &Evaluator{MinBet: minBet, Tolerance: tolerance}
}

func (e *Evaluator) Evaluate(in Input) error {
	// 1) evento aberto para apostas
	if in.Snapshot.Status != model.EventUpcoming || !in.Snapshot.StartsAt.After(in.Now) {
		return errs.ErrEventNotAvailable
	}

	// 2) pareamento mercado × seleção, e o evento precisa publicar o mercado
	if !in.BetType.Allows(in.Selection) || !in.Snapshot.OddsPosted {
		return errs.ErrInvalidSelection
	}

	// 3) valor mínimo
	if in.Amount.LessThan(e.MinBet) {
		return errs.ErrInvalidBetAmount
	}

	// 4) odds submetidas dentro da banda relativa das odds publicadas;
	//    fronteira inclusa (2.00 com ±5% aceita até 2.10)
	drift := in.Odds.Sub(in.Snapshot.PostedOdds).Abs()
	if drift.GreaterThan(in.Snapshot.PostedOdds.Mul(e.Tolerance)) {
		return errs.ErrOddsChanged
	}

	// 5) saldo advisory; o débito dentro da transação é quem decide
	if in.Balance.LessThan(in.Amount) {
		return errs.ErrInsufficientFunds
	}

	// 6) limites de jogo responsável por janela
	if err := e.checkLimits(in); err != nil {
		return err
	}

	// 7) autoexclusão/suspensão
	if in.Limits != nil && in.Limits.SelfExclusionUntil != nil && in.Limits.SelfExclusionUntil.After(in.Now) {
		return errs.ErrAccountLocked
	}

	return nil
}

func (e *Evaluator) checkLimits(in Input) error {
	lim := in.Limits
	if lim == nil {
		return nil
	}

	if lim.MaxSingleBet != nil && in.Amount.GreaterThan(*lim.MaxSingleBet) {
		return errs.ErrBetLimitExceeded
	}
	if lim.DailyBetLimit != nil && in.Totals.Day.Add(in.Amount).GreaterThan(*lim.DailyBetLimit) {
		return errs.ErrBetLimitExceeded
	}
	if lim.WeeklyBetLimit != nil && in.Totals.Week.Add(in.Amount).GreaterThan(*lim.WeeklyBetLimit) {
		return errs.ErrBetLimitExceeded
	}
	if lim.MonthlyBetLimit != nil && in.Totals.Month.Add(in.Amount).GreaterThan(*lim.MonthlyBetLimit) {
		return errs.ErrBetLimitExceeded
	}
	return nil
}
