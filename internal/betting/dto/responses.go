package dto

import (
	"github.com/betstack/betting-engine/internal/betting/model"
)

// WalletResponse devolve o saldo decifrado da conta.
type WalletResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
}

// BetListResponse é a página de apostas, mais recentes primeiro.
type BetListResponse struct {
	Bets   []model.Bet `json:"bets"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// ErrorResponse padroniza o corpo de erro da API.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}
