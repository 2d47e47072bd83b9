package fraud

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/shared/metrics"
	cevents "github.com/betstack/betting-engine/pkg/contracts/events"
)

// Scanner roda no fraud-worker e procura padrões suspeitos depois de cada
// bet_placed consumido. Só observa e alerta; nunca toca o caminho da aposta.
type Scanner struct {
	db  *sql.DB
	log *zap.Logger
}

func NewScanner(db *sql.DB, log *zap.Logger) *Scanner {
	return &Scanner{db: db, log: log}
}

const (
	rapidBetWindow    = "10 minutes"
	rapidBetThreshold = 10
	largeBetFactor    = 5
)

// Scan avalia os dois padrões herdados do modelo de fraude:
// apostas em rajada e aposta muito acima da média da conta.
func (s *Scanner) Scan(ctx context.Context, ev cevents.BetPlaced) error {
	amount, err := decimal.NewFromString(ev.Amount)
	if err != nil {
		return fmt.Errorf("bad amount in event: %w", err)
	}

	if err := s.scanRapidBetting(ctx, ev.AccountID); err != nil {
		return err
	}
	return s.scanLargeBet(ctx, ev.AccountID, amount)
}

func (s *Scanner) scanRapidBetting(ctx context.Context, accountID string) error {
	var recent int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bets
		WHERE account_id=$1 AND created_at > NOW() - INTERVAL '`+rapidBetWindow+`'`,
		accountID).Scan(&recent)
	if err != nil {
		return fmt.Errorf("rapid betting count: %w", err)
	}

	if recent > rapidBetThreshold {
		metrics.FraudAlertsTotal.WithLabelValues("rapid_betting").Inc()
		s.log.Warn("fraud alert: rapid betting",
			zap.String("accountId", accountID),
			zap.Int64("betsInWindow", recent))
	}
	return nil
}

func (s *Scanner) scanLargeBet(ctx context.Context, accountID string, amount decimal.Decimal) error {
	var avg decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(amount) FROM bets
		WHERE account_id=$1 AND created_at > NOW() - INTERVAL '30 days'`,
		accountID).Scan(&avg)
	if err != nil {
		return fmt.Errorf("average stake: %w", err)
	}
	if !avg.Valid {
		return nil
	}

	threshold := avg.Decimal.Mul(decimal.NewFromInt(largeBetFactor))
	if amount.GreaterThan(threshold) {
		metrics.FraudAlertsTotal.WithLabelValues("large_bet").Inc()
		s.log.Warn("fraud alert: unusually large bet",
			zap.String("accountId", accountID),
			zap.String("amount", amount.String()),
			zap.String("avg30d", avg.Decimal.String()))
	}
	return nil
}
