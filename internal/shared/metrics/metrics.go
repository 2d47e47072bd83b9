package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores do motor de apostas, expostos no servidor /metrics de cada serviço
var (
	BetsPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_bets_placed_total",
		Help: "Apostas aceitas e persistidas",
	})

	BetsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_bets_rejected_total",
		Help: "Apostas rejeitadas na validação ou no débito",
	}, []string{"reason"})

	WalletTamperTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_wallet_tamper_total",
		Help: "Carteiras com ciphertext que falhou autenticação (fatal, exige operador)",
	})

	FraudPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betting_fraud_publish_failures_total",
		Help: "Falhas ao publicar bet_placed para o pipeline de fraude (suprimidas)",
	})

	FraudAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betting_fraud_alerts_total",
		Help: "Alertas emitidos pelo scan de padrões de fraude",
	}, []string{"pattern"})
)
