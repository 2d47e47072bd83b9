package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betstack/betting-engine/internal/betting/errs"
)

// BetType é o mercado apostado. Conjunto fechado, validado na entrada.
type BetType string

const (
	BetTypeMoneyline BetType = "MONEYLINE"
	BetTypeSpread    BetType = "SPREAD"
	BetTypeTotal     BetType = "TOTAL"
)

// Selection é o lado escolhido dentro do mercado.
type Selection string

const (
	SelectionHome  Selection = "HOME"
	SelectionAway  Selection = "AWAY"
	SelectionOver  Selection = "OVER"
	SelectionUnder Selection = "UNDER"
)

// validPairs é a tabela de pareamento mercado × seleção.
// MONEYLINE/SPREAD aceitam HOME/AWAY; TOTAL aceita OVER/UNDER.
var validPairs = map[BetType]map[Selection]bool{
	BetTypeMoneyline: {SelectionHome: true, SelectionAway: true},
	BetTypeSpread:    {SelectionHome: true, SelectionAway: true},
	BetTypeTotal:     {SelectionOver: true, SelectionUnder: true},
}

// Allows indica se a seleção é válida para o mercado.
func (t BetType) Allows(sel Selection) bool {
	return validPairs[t][sel]
}

// ParseBetType normaliza a string (case-insensitive) para o enum fechado.
func ParseBetType(s string) (BetType, error) {
	switch BetType(strings.ToUpper(strings.TrimSpace(s))) {
	case BetTypeMoneyline:
		return BetTypeMoneyline, nil
	case BetTypeSpread:
		return BetTypeSpread, nil
	case BetTypeTotal:
		return BetTypeTotal, nil
	}
	return "", errs.ErrInvalidSelection
}

// ParseSelection normaliza a string (case-insensitive) para o enum fechado.
func ParseSelection(s string) (Selection, error) {
	switch Selection(strings.ToUpper(strings.TrimSpace(s))) {
	case SelectionHome:
		return SelectionHome, nil
	case SelectionAway:
		return SelectionAway, nil
	case SelectionOver:
		return SelectionOver, nil
	case SelectionUnder:
		return SelectionUnder, nil
	}
	return "", errs.ErrInvalidSelection
}

// BetStatus é o ciclo de vida da aposta. Só o settlement (externo) muda
// o status depois de PENDING.
type BetStatus string

const (
	BetStatusPending   BetStatus = "PENDING"
	BetStatusWon       BetStatus = "WON"
	BetStatusLost      BetStatus = "LOST"
	BetStatusPush      BetStatus = "PUSH"
	BetStatusCancelled BetStatus = "CANCELLED"
)

// EventStatus é o estado do evento esportivo (somente leitura neste core).
type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventLive      EventStatus = "LIVE"
	EventFinished  EventStatus = "FINISHED"
	EventCancelled EventStatus = "CANCELLED"
)

// Bet é a aposta persistida. Imutável após a colocação, exceto Status.
type Bet struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	EventID        string          `json:"event_id"`
	BetType        BetType         `json:"bet_type"`
	Selection      Selection       `json:"selection"`
	Odds           decimal.Decimal `json:"odds"` // snapshot validado, não o valor submetido
	Amount         decimal.Decimal `json:"amount"`
	PotentialWin   decimal.Decimal `json:"potential_win"`
	Status         BetStatus       `json:"status"`
	IdempotencyKey string          `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionType classifica o registro de movimentação.
type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
	TxBetPlaced  TransactionType = "BET_PLACED"
	TxBetWon     TransactionType = "BET_WON"
	TxBetLost    TransactionType = "BET_LOST"
)

// Transaction é o registro append-only de movimentação de saldo.
// Amount é assinado: débito de aposta entra negativo.
type Transaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	WalletID      string          `json:"wallet_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	RelatedBetID  string          `json:"related_bet_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EventSnapshot é a leitura pontual do evento usada na validação.
// Sem cache além da chamada: cada colocação relê para evitar odds velhas.
type EventSnapshot struct {
	EventID    string
	Status     EventStatus
	StartsAt   time.Time
	PostedOdds decimal.Decimal
	OddsPosted bool // false quando o evento não publica o mercado pedido
	ReadAt     time.Time
}

// GamblingLimits são os limites de jogo responsável de uma conta.
// Campos nulos significam limite não configurado.
type GamblingLimits struct {
	AccountID          string           `json:"account_id"`
	MaxSingleBet       *decimal.Decimal `json:"max_single_bet,omitempty"`
	DailyBetLimit      *decimal.Decimal `json:"daily_bet_limit,omitempty"`
	WeeklyBetLimit     *decimal.Decimal `json:"weekly_bet_limit,omitempty"`
	MonthlyBetLimit    *decimal.Decimal `json:"monthly_bet_limit,omitempty"`
	SelfExclusionUntil *time.Time       `json:"self_exclusion_until,omitempty"`
}

// StakeTotals são as somas de stake da conta nas janelas de limite,
// ignorando apostas canceladas.
type StakeTotals struct {
	Day   decimal.Decimal
	Week  decimal.Decimal
	Month decimal.Decimal
}
