package events

// Evento publicado após o commit de uma aposta. O consumidor (fraud-worker)
// nunca participa da transação de colocação.
type BetPlaced struct {
	BetID     string `json:"bet_id"`
	AccountID string `json:"account_id"`
	EventID   string `json:"event_id"`
	BetType   string `json:"bet_type"`
	Selection string `json:"selection"`
	Amount    string `json:"amount"` // decimal serializado como string
	Odds      string `json:"odds"`
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
