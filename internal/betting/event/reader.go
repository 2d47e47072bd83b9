package event

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/betting/model"
)

// Reader entrega o retrato pontual de um evento para validação: status,
// horário de início e odds publicadas do mercado pedido. Sem cache próprio:
// cada colocação relê, evitando corrida com odds que se moveram.
type Reader struct {
	db  *sql.DB
	rdb *redis.Client
	log *zap.Logger
}

func NewReader(db *sql.DB, rdb *redis.Client, log *zap.Logger) *Reader {
	return &Reader{db: db, rdb: rdb, log: log}
}

// Snapshot lê o evento e escolhe a coluna de odds do par mercado/seleção.
// O processador de odds mantém o valor corrente no Redis; quando presente,
// ele prevalece sobre a coluna do Postgres (leitura não exclusiva, só
// alimenta validação, nunca o débito).
func (r *Reader) Snapshot(ctx context.Context, eventID string, betType model.BetType, sel model.Selection) (model.EventSnapshot, error) {
	var (
		status    string
		startsAt  time.Time
		mlHome    decimal.NullDecimal
		mlAway    decimal.NullDecimal
		spHome    decimal.NullDecimal
		spAway    decimal.NullDecimal
		overOdds  decimal.NullDecimal
		underOdds decimal.NullDecimal
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT status, start_time,
		       moneyline_home, moneyline_away,
		       spread_home_odds, spread_away_odds,
		       over_odds, under_odds
		FROM events WHERE id=$1`, eventID).
		Scan(&status, &startsAt, &mlHome, &mlAway, &spHome, &spAway, &overOdds, &underOdds)
	if err == sql.ErrNoRows {
		return model.EventSnapshot{}, errs.ErrEventNotFound
	} else if err != nil {
		return model.EventSnapshot{}, fmt.Errorf("fetch event: %w", err)
	}

	snap := model.EventSnapshot{
		EventID:  eventID,
		Status:   model.EventStatus(strings.ToUpper(status)),
		StartsAt: startsAt,
		ReadAt:   time.Now(),
	}

	posted := pickOdds(betType, sel, mlHome, mlAway, spHome, spAway, overOdds, underOdds)
	if posted.Valid {
		snap.PostedOdds = posted.Decimal
		snap.OddsPosted = true
	}

	if current, ok := r.currentOdds(ctx, eventID, betType, sel); ok {
		snap.PostedOdds = current
		snap.OddsPosted = true
	}

	return snap, nil
}

// pickOdds mapeia o par mercado/seleção para a coluna correspondente.
func pickOdds(betType model.BetType, sel model.Selection,
	mlHome, mlAway, spHome, spAway, overOdds, underOdds decimal.NullDecimal) decimal.NullDecimal {

	switch betType {
	case model.BetTypeMoneyline:
		if sel == model.SelectionHome {
			return mlHome
		}
		if sel == model.SelectionAway {
			return mlAway
		}
	case model.BetTypeSpread:
		if sel == model.SelectionHome {
			return spHome
		}
		if sel == model.SelectionAway {
			return spAway
		}
	case model.BetTypeTotal:
		if sel == model.SelectionOver {
			return overOdds
		}
		if sel == model.SelectionUnder {
			return underOdds
		}
	}
	return decimal.NullDecimal{}
}

// currentOdds consulta a chave "odds:{eventID}:{betType}:{selection}".
// Miss ou erro de Redis não derruba a colocação: vale a coluna do banco.
func (r *Reader) currentOdds(ctx context.Context, eventID string, betType model.BetType, sel model.Selection) (decimal.Decimal, bool) {
	if r.rdb == nil {
		return decimal.Zero, false
	}

	key := fmt.Sprintf("odds:%s:%s:%s", eventID, betType, sel)
	val, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return decimal.Zero, false
	} else if err != nil {
		r.log.Warn("redis odds lookup failed, falling back to event row",
			zap.String("key", key), zap.Error(err))
		return decimal.Zero, false
	}

	current, err := decimal.NewFromString(val)
	if err != nil {
		r.log.Warn("bad odds value in redis", zap.String("key", key), zap.String("value", val))
		return decimal.Zero, false
	}
	return current, true
}
