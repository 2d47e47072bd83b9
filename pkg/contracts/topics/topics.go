package topics

const (
	// Apostas confirmadas, consumidas pelo pipeline de fraude
	BetPlaced = "bet_placed"

	// DLQ
	BetPlacedDLQ = "bet_placed_dlq"
)
