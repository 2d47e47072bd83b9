package fraud

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/model"
	"github.com/betstack/betting-engine/internal/shared/metrics"
	cevents "github.com/betstack/betting-engine/pkg/contracts/events"
)

// Notifier publica bet_placed para o pipeline de fraude depois do commit.
// Fire-and-forget: falha, timeout ou ausência do broker nunca desfaz nem
// bloqueia a aposta já persistida. Erros são logados e suprimidos.
type Notifier struct {
	writer  *kafka.Writer
	log     *zap.Logger
	timeout time.Duration
}

func NewNotifier(w *kafka.Writer, log *zap.Logger) *Notifier {
	return &Notifier{writer: w, log: log, timeout: 5 * time.Second}
}

// BetPlaced entrega o evento de forma assíncrona, fora do timeout do
// chamador e da fronteira transacional.
func (n *Notifier) BetPlaced(bet model.Bet) {
	go n.publish(bet)
}

func (n *Notifier) publish(bet model.Bet) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	ev := cevents.BetPlaced{
		BetID:     bet.ID,
		AccountID: bet.AccountID,
		EventID:   bet.EventID,
		BetType:   string(bet.BetType),
		Selection: string(bet.Selection),
		Amount:    bet.Amount.String(),
		Odds:      bet.Odds.String(),
		TsUnixMs:  time.Now().UnixMilli(),
	}

	b, _ := json.Marshal(ev)
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(bet.ID), Value: b}); err != nil {
		metrics.FraudPublishFailures.Inc()
		n.log.Warn("fraud notify failed, suppressed",
			zap.String("betId", bet.ID), zap.Error(err))
	}
}
