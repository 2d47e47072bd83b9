package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
)

// Ledger é o armazenamento append-only de apostas e dos registros de
// movimentação ligados a elas. Sem update nem delete a partir deste core;
// settlement muda status por fora.
type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger { return &Ledger{db: db} }

// AppendTx insere a aposta e o registro de transação na transação do
// chamador. Os dois entram ou nenhum entra.
func (l *Ledger) AppendTx(ctx context.Context, tx *sql.Tx, bet *model.Bet, rec *model.Transaction) error {
	var key sql.NullString
	if bet.IdempotencyKey != "" {
		key = sql.NullString{String: bet.IdempotencyKey, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO bets (id, account_id, event_id, bet_type, selection,
		                  odds, amount, potential_win, status, idempotency_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		bet.ID, bet.AccountID, bet.EventID, bet.BetType, bet.Selection,
		bet.Odds, bet.Amount, bet.PotentialWin, bet.Status, key, bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}

	var relatedBet sql.NullString
	if rec.RelatedBetID != "" {
		relatedBet = sql.NullString{String: rec.RelatedBetID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, wallet_id, transaction_type, amount,
		                          balance_before, balance_after, related_bet_id, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.AccountID, rec.WalletID, rec.Type, rec.Amount,
		rec.BalanceBefore, rec.BalanceAfter, relatedBet, rec.Description, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// AppendTransactionTx insere um registro de movimentação sem aposta
// associada (depósito, payout de settlement).
func (l *Ledger) AppendTransactionTx(ctx context.Context, tx *sql.Tx, rec *model.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, wallet_id, transaction_type, amount,
		                          balance_before, balance_after, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.AccountID, rec.WalletID, rec.Type, rec.Amount,
		rec.BalanceBefore, rec.BalanceAfter, rec.Description, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// FindByKeyTx procura, dentro da transação do chamador, uma aposta já
// gravada com a mesma idempotency key da conta. nil quando não existe.
func (l *Ledger) FindByKeyTx(ctx context.Context, tx *sql.Tx, accountID, key string) (*model.Bet, error) {
	row := tx.QueryRowContext(ctx, betColumns+`
		FROM bets WHERE account_id=$1 AND idempotency_key=$2`, accountID, key)

	bet, err := scanBet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("find bet by key: %w", err)
	}
	return bet, nil
}

// Get busca a aposta com checagem de posse: id certo da conta errada é 404.
func (l *Ledger) Get(ctx context.Context, betID, accountID string) (*model.Bet, error) {
	row := l.db.QueryRowContext(ctx, betColumns+`
		FROM bets WHERE id=$1 AND account_id=$2`, betID, accountID)

	bet, err := scanBet(row)
	if err == sql.ErrNoRows {
		return nil, errs.ErrBetNotFound
	} else if err != nil {
		return nil, fmt.Errorf("fetch bet: %w", err)
	}
	return bet, nil
}

// List retorna as apostas da conta, mais recentes primeiro.
func (l *Ledger) List(ctx context.Context, accountID string, limit, offset int) ([]model.Bet, error) {
	rows, err := l.db.QueryContext(ctx, betColumns+`
		FROM bets WHERE account_id=$1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	bets := []model.Bet{}
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bets = append(bets, *bet)
	}
	return bets, rows.Err()
}

// StakeTotals soma o stake da conta nas janelas de 1/7/30 dias,
// ignorando apostas canceladas. Alimenta os limites de jogo responsável.
func (l *Ledger) StakeTotals(ctx context.Context, accountID string) (model.StakeTotals, error) {
	var day, week, month decimal.NullDecimal
	err := l.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE created_at > NOW() - INTERVAL '1 day'), 0),
			COALESCE(SUM(amount) FILTER (WHERE created_at > NOW() - INTERVAL '7 days'), 0),
			COALESCE(SUM(amount), 0)
		FROM bets
		WHERE account_id=$1
		  AND status <> 'CANCELLED'
		  AND created_at > NOW() - INTERVAL '30 days'`, accountID).
		Scan(&day, &week, &month)
	if err != nil {
		return model.StakeTotals{}, fmt.Errorf("stake totals: %w", err)
	}

	return model.StakeTotals{
		Day:   day.Decimal,
		Week:  week.Decimal,
		Month: month.Decimal,
	}, nil
}

const betColumns = `
	SELECT id, account_id, event_id, bet_type, selection,
	       odds, amount, potential_win, status, COALESCE(idempotency_key, ''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (*model.Bet, error) {
	var bet model.Bet
	err := row.Scan(&bet.ID, &bet.AccountID, &bet.EventID, &bet.BetType, &bet.Selection,
		&bet.Odds, &bet.Amount, &bet.PotentialWin, &bet.Status, &bet.IdempotencyKey, &bet.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}
