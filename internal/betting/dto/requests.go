package dto

import (
	"github.com/shopspring/decimal"

	"github.com/betstack/betting-engine/internal/betting/engine"
	"github.com/betstack/betting-engine/internal/betting/model"
)

// PlaceBetRequest é o payload de POST /bets. Strings de mercado e seleção
// são case-insensitive e normalizadas antes da validação.
type PlaceBetRequest struct {
	AccountID      string          `json:"account_id"`
	EventID        string          `json:"event_id"`
	BetType        string          `json:"bet_type"`
	Selection      string          `json:"selection"`
	Odds           decimal.Decimal `json:"odds"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// ToInput normaliza o payload para os enums fechados do motor.
func (r *PlaceBetRequest) ToInput() (engine.PlaceBetInput, error) {
	betType, err := model.ParseBetType(r.BetType)
	if err != nil {
		return engine.PlaceBetInput{}, err
	}
	sel, err := model.ParseSelection(r.Selection)
	if err != nil {
		return engine.PlaceBetInput{}, err
	}

	return engine.PlaceBetInput{
		AccountID:      r.AccountID,
		EventID:        r.EventID,
		BetType:        betType,
		Selection:      sel,
		Odds:           r.Odds,
		Amount:         r.Amount,
		IdempotencyKey: r.IdempotencyKey,
	}, nil
}

// DepositRequest é o payload de POST /wallet/deposit.
type DepositRequest struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}
