package limits

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/betstack/betting-engine/internal/betting/model"
)

// Store persiste os limites de jogo responsável por conta.
// Linha ausente significa conta sem limites configurados.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Get retorna os limites da conta, ou nil quando não há linha.
func (s *Store) Get(ctx context.Context, accountID string) (*model.GamblingLimits, error) {
	var (
		maxSingle, daily, weekly, monthly decimal.NullDecimal
		exclusion                         sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT max_single_bet, daily_bet_limit, weekly_bet_limit,
		       monthly_bet_limit, self_exclusion_until
		FROM gambling_limits WHERE account_id=$1`, accountID).
		Scan(&maxSingle, &daily, &weekly, &monthly, &exclusion)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("fetch gambling limits: %w", err)
	}

	lim := model.GamblingLimits{AccountID: accountID}
	if maxSingle.Valid {
		lim.MaxSingleBet = &maxSingle.Decimal
	}
	if daily.Valid {
		lim.DailyBetLimit = &daily.Decimal
	}
	if weekly.Valid {
		lim.WeeklyBetLimit = &weekly.Decimal
	}
	if monthly.Valid {
		lim.MonthlyBetLimit = &monthly.Decimal
	}
	if exclusion.Valid {
		lim.SelfExclusionUntil = &exclusion.Time
	}
	return &lim, nil
}

// Put grava (upsert) os limites da conta.
func (s *Store) Put(ctx context.Context, lim *model.GamblingLimits) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gambling_limits (account_id, max_single_bet, daily_bet_limit,
		                             weekly_bet_limit, monthly_bet_limit, self_exclusion_until, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (account_id) DO UPDATE SET
			max_single_bet = EXCLUDED.max_single_bet,
			daily_bet_limit = EXCLUDED.daily_bet_limit,
			weekly_bet_limit = EXCLUDED.weekly_bet_limit,
			monthly_bet_limit = EXCLUDED.monthly_bet_limit,
			self_exclusion_until = EXCLUDED.self_exclusion_until,
			updated_at = NOW()`,
		lim.AccountID, lim.MaxSingleBet, lim.DailyBetLimit,
		lim.WeeklyBetLimit, lim.MonthlyBetLimit, lim.SelfExclusionUntil)
	if err != nil {
		return fmt.Errorf("upsert gambling limits: %w", err)
	}
	return nil
}
