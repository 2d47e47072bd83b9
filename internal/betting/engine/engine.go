package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
	"github.com/betstack/betting-engine/internal/betting/risk"
	"github.com/betstack/betting-engine/internal/betting/wallet"
	"github.com/betstack/betting-engine/internal/shared/metrics"
)

// Interfaces mínimas sobre os stores, para o motor e para os testes.

type SnapshotReader interface {
	Snapshot(ctx context.Context, eventID string, betType model.BetType, sel model.Selection) (model.EventSnapshot, error)
}

type WalletStore interface {
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	AdjustTx(ctx context.Context, tx *sql.Tx, accountID string, delta, expectedMin decimal.Decimal) (wallet.Adjustment, error)
}

type Ledger interface {
	AppendTx(ctx context.Context, tx *sql.Tx, bet *model.Bet, rec *model.Transaction) error
	AppendTransactionTx(ctx context.Context, tx *sql.Tx, rec *model.Transaction) error
	FindByKeyTx(ctx context.Context, tx *sql.Tx, accountID, key string) (*model.Bet, error)
	Get(ctx context.Context, betID, accountID string) (*model.Bet, error)
	List(ctx context.Context, accountID string, limit, offset int) ([]model.Bet, error)
	StakeTotals(ctx context.Context, accountID string) (model.StakeTotals, error)
}

type LimitsReader interface {
	Get(ctx context.Context, accountID string) (*model.GamblingLimits, error)
}

type Notifier interface {
	BetPlaced(bet model.Bet)
}

// TxRunner executa a unidade atômica de trabalho: commit ou rollback total.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Engine é o orquestrador da colocação de aposta:
// Validating → Debiting → Recording → Committed, ou Rejected/Aborted.
type Engine struct {
	tx       TxRunner
	wallets  WalletStore
	events   SnapshotReader
	ledger   Ledger
	limits   LimitsReader
	risk     *risk.Evaluator
	notifier Notifier
	log      *zap.Logger

	maxDeposit decimal.Decimal
	now        func() time.Time
}

func New(tx TxRunner, wallets WalletStore, events SnapshotReader, ledger Ledger,
	limits LimitsReader, evaluator *risk.Evaluator, notifier Notifier,
	maxDeposit decimal.Decimal, log *zap.Logger) *Engine {

	return &Engine{
		tx:         tx,
		wallets:    wallets,
		events:     events,
		ledger:     ledger,
		limits:     limits,
		risk:       evaluator,
		notifier:   notifier,
		log:        log,
		maxDeposit: maxDeposit,
		now:        time.Now,
	}
}

// PlaceBetInput é a requisição já normalizada (enums fechados, decimais).
type PlaceBetInput struct {
	AccountID      string
	EventID        string
	BetType        model.BetType
	Selection      model.Selection
	Odds           decimal.Decimal
	Amount         decimal.Decimal
	IdempotencyKey string
}

// PlaceBet é o ponto de entrada único de colocação.
//
// Validating: snapshot do evento + leitura advisory do saldo + regras puras,
// tudo fora de transação (rejeição não tem efeito colateral).
// Debiting/Recording: uma transação única; o adjust com lock de linha é a
// checagem autoritativa de saldo, fechando a janela check-then-act da
// validação. Aposta e registro de movimentação entram na mesma transação.
// Committed: só então o notificador de fraude é acionado, fora da fronteira
// atômica e sem amarrar o resultado à entrega.
func (e *Engine) PlaceBet(ctx context.Context, in PlaceBetInput) (*model.Bet, error) {
	// Validating
	snap, err := e.events.Snapshot(ctx, in.EventID, in.BetType, in.Selection)
	if err != nil {
		if errs.IsRejection(err) {
			return nil, e.reject(in, err)
		}
		return nil, fmt.Errorf("%w: read event: %v", errs.ErrStorage, err)
	}

	balance, err := e.wallets.Balance(ctx, in.AccountID)
	if err != nil {
		if errors.Is(err, errs.ErrWalletTampered) {
			return nil, e.reject(in, err)
		}
		return nil, fmt.Errorf("%w: read balance: %v", errs.ErrStorage, err)
	}

	lim, err := e.limits.Get(ctx, in.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: read limits: %v", errs.ErrStorage, err)
	}
	totals, err := e.ledger.StakeTotals(ctx, in.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: stake totals: %v", errs.ErrStorage, err)
	}

	if err := e.risk.Evaluate(risk.Input{
		BetType:   in.BetType,
		Selection: in.Selection,
		Odds:      in.Odds,
		Amount:    in.Amount,
		Snapshot:  snap,
		Balance:   balance,
		Limits:    lim,
		Totals:    totals,
		Now:       e.now(),
	}); err != nil {
		return nil, e.reject(in, err)
	}

	// Debiting + Recording, sob uma única unidade atômica. O contexto perde
	// o cancelamento do chamador: timeout do cliente vira "desisti de
	// esperar", nunca um abort no meio do commit.
	atomicCtx := context.WithoutCancel(ctx)

	var placed *model.Bet
	var replayed bool
	err = e.tx.RunTx(atomicCtx, func(tx *sql.Tx) error {
		if in.IdempotencyKey != "" {
			existing, err := e.ledger.FindByKeyTx(atomicCtx, tx, in.AccountID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				placed = existing
				replayed = true
				return nil
			}
		}

		adj, err := e.wallets.AdjustTx(atomicCtx, tx, in.AccountID, in.Amount.Neg(), decimal.Zero)
		if err != nil {
			return err
		}

		now := e.now()
		bet := model.Bet{
			ID:             uuid.NewString(),
			AccountID:      in.AccountID,
			EventID:        in.EventID,
			BetType:        in.BetType,
			Selection:      in.Selection,
			Odds:           snap.PostedOdds, // odds validadas do snapshot, não o valor submetido
			Amount:         in.Amount,
			PotentialWin:   in.Amount.Mul(snap.PostedOdds),
			Status:         model.BetStatusPending,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      now,
		}
		rec := model.Transaction{
			ID:            uuid.NewString(),
			AccountID:     in.AccountID,
			WalletID:      adj.WalletID,
			Type:          model.TxBetPlaced,
			Amount:        in.Amount.Neg(),
			BalanceBefore: adj.Before,
			BalanceAfter:  adj.After,
			RelatedBetID:  bet.ID,
			Description:   "bet placed on event " + in.EventID,
			CreatedAt:     now,
		}
		if err := e.ledger.AppendTx(atomicCtx, tx, &bet, &rec); err != nil {
			return err
		}

		placed = &bet
		return nil
	})
	if err != nil {
		if errs.IsRejection(err) || errors.Is(err, errs.ErrWalletTampered) {
			return nil, e.reject(in, err)
		}
		// Aborted: rollback completo já aconteceu; retry seguro só com a
		// mesma idempotency key.
		e.log.Error("bet placement aborted", zap.String("accountId", in.AccountID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}

	// Committed
	if !replayed {
		metrics.BetsPlacedTotal.Inc()
		e.log.Info("bet placed",
			zap.String("betId", placed.ID),
			zap.String("accountId", in.AccountID),
			zap.String("amount", in.Amount.String()),
		)
		e.notifier.BetPlaced(*placed)
	}

	return placed, nil
}

// reject registra a métrica da rejeição e devolve o erro tipado intacto.
func (e *Engine) reject(in PlaceBetInput, err error) error {
	metrics.BetsRejectedTotal.WithLabelValues(errs.Reason(err)).Inc()
	e.log.Info("bet rejected",
		zap.String("accountId", in.AccountID),
		zap.String("eventId", in.EventID),
		zap.String("reason", errs.Reason(err)),
	)
	return err
}

// GetBet busca uma aposta com checagem de posse.
func (e *Engine) GetBet(ctx context.Context, betID, accountID string) (*model.Bet, error) {
	return e.ledger.Get(ctx, betID, accountID)
}

// ListBets pagina as apostas da conta, mais recentes primeiro.
func (e *Engine) ListBets(ctx context.Context, accountID string, limit, offset int) ([]model.Bet, error) {
	return e.ledger.List(ctx, accountID, limit, offset)
}

// Balance expõe o saldo decifrado (provisiona carteira nova com 0.00).
func (e *Engine) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return e.wallets.Balance(ctx, accountID)
}

// Deposit credita a carteira e grava o registro DEPOSIT na mesma transação.
// O mesmo caminho de delta positivo serve o payout do settlement.
func (e *Engine) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(e.maxDeposit) {
		return decimal.Zero, errs.ErrInvalidBetAmount
	}

	// garante a carteira antes de tentar o lock
	if _, err := e.wallets.Balance(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	atomicCtx := context.WithoutCancel(ctx)

	var newBalance decimal.Decimal
	err := e.tx.RunTx(atomicCtx, func(tx *sql.Tx) error {
		adj, err := e.wallets.AdjustTx(atomicCtx, tx, accountID, amount, decimal.Zero)
		if err != nil {
			return err
		}
		newBalance = adj.After

		rec := model.Transaction{
			ID:            uuid.NewString(),
			AccountID:     accountID,
			WalletID:      adj.WalletID,
			Type:          model.TxDeposit,
			Amount:        amount,
			BalanceBefore: adj.Before,
			BalanceAfter:  adj.After,
			Description:   "deposit",
			CreatedAt:     e.now(),
		}
		return e.ledger.AppendTransactionTx(atomicCtx, tx, &rec)
	})
	if err != nil {
		if errs.IsRejection(err) || errors.Is(err, errs.ErrWalletTampered) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}

	return newBalance, nil
}
