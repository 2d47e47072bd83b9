package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/fraud"
	"github.com/betstack/betting-engine/internal/shared/config"
	"github.com/betstack/betting-engine/internal/shared/db"
	"github.com/betstack/betting-engine/internal/shared/kafka"
	"github.com/betstack/betting-engine/internal/shared/logger"
	"github.com/betstack/betting-engine/internal/shared/metrics"
	cevents "github.com/betstack/betting-engine/pkg/contracts/events"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: o scan de padrões lê o histórico de apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: eventos bet_placed publicados pelo betting-service
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetPlaced, "fraud-worker")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicBetPlacedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlacedDLQ)
		defer dlqWriter.Close()
	}

	// Servidor de métricas Prometheus e healthcheck
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	scanner := fraud.NewScanner(pg, log)

	log.Info("fraud-worker started", zap.String("consume", cfg.TopicBetPlaced))

	ctx := context.Background()

	// Loop principal: consome bet_placed e roda o scan de padrões.
	// O scan é observacional: falha aqui nunca afeta a aposta já commitada.
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var placed cevents.BetPlaced
		if jerr := json.Unmarshal(value, &placed); jerr != nil {
			log.Error("unmarshal bet_placed", zap.Error(jerr))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(key), value)
			}
			continue
		}

		if err := scanner.Scan(ctx, placed); err != nil {
			log.Error("fraud scan", zap.String("betId", placed.BetID), zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, placed.BetID, value)
			}
			// Backoff simples para evitar flood em caso de erro
			time.Sleep(500 * time.Millisecond)
		}
	}
}
