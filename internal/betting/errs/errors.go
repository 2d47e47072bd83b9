package errs

import "errors"

// Taxonomia de erros do motor de apostas. Erros de validação nunca tocam
// storage; erros de storage sempre chegam aqui depois do rollback completo.
var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotAvailable = errors.New("event not available for betting")
	ErrInvalidSelection  = errors.New("invalid selection for bet type")
	ErrInvalidBetAmount  = errors.New("invalid bet amount")
	ErrOddsChanged       = errors.New("odds have changed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBetLimitExceeded  = errors.New("bet limit exceeded")
	ErrAccountLocked     = errors.New("account locked")

	ErrBetNotFound    = errors.New("bet not found")
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletTampered é fatal para a carteira: ciphertext falhou a
	// autenticação. Nunca vira saldo zero dentro do fluxo de aposta.
	ErrWalletTampered = errors.New("wallet ciphertext failed authentication")

	// ErrStorage cobre falhas de commit/abort; o chamador pode repetir a
	// requisição com a mesma idempotency key.
	ErrStorage = errors.New("storage error")
)

// rejections são os erros recuperáveis pelo apostador
var rejections = []error{
	ErrEventNotFound,
	ErrEventNotAvailable,
	ErrInvalidSelection,
	ErrInvalidBetAmount,
	ErrOddsChanged,
	ErrInsufficientFunds,
	ErrBetLimitExceeded,
	ErrAccountLocked,
}

// IsRejection indica se o erro é uma rejeição de validação/débito,
// em oposição a uma falha interna.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// Reason devolve um rótulo estável para métricas e respostas HTTP.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrEventNotFound):
		return "EVENT_NOT_FOUND"
	case errors.Is(err, ErrEventNotAvailable):
		return "EVENT_NOT_AVAILABLE"
	case errors.Is(err, ErrInvalidSelection):
		return "INVALID_SELECTION"
	case errors.Is(err, ErrInvalidBetAmount):
		return "INVALID_BET_AMOUNT"
	case errors.Is(err, ErrOddsChanged):
		return "ODDS_CHANGED"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrBetLimitExceeded):
		return "BET_LIMIT_EXCEEDED"
	case errors.Is(err, ErrAccountLocked):
		return "ACCOUNT_LOCKED"
	case errors.Is(err, ErrBetNotFound):
		return "BET_NOT_FOUND"
	case errors.Is(err, ErrWalletNotFound):
		return "WALLET_NOT_FOUND"
	case errors.Is(err, ErrWalletTampered):
		return "WALLET_TAMPERED"
	default:
		return "STORAGE_ERROR"
	}
}
