package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/crypto"
	"github.com/betstack/betting-engine/internal/betting/engine"
	"github.com/betstack/betting-engine/internal/betting/event"
	"github.com/betstack/betting-engine/internal/betting/fraud"
	bhttp "github.com/betstack/betting-engine/internal/betting/http"
	"github.com/betstack/betting-engine/internal/betting/ledger"
	"github.com/betstack/betting-engine/internal/betting/limits"
	"github.com/betstack/betting-engine/internal/betting/risk"
	"github.com/betstack/betting-engine/internal/betting/wallet"
	"github.com/betstack/betting-engine/internal/shared/cache"
	"github.com/betstack/betting-engine/internal/shared/config"
	"github.com/betstack/betting-engine/internal/shared/db"
	"github.com/betstack/betting-engine/internal/shared/kafka"
	"github.com/betstack/betting-engine/internal/shared/logger"
	"github.com/betstack/betting-engine/internal/shared/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis (overlay de odds correntes)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writer (topic bet_placed, consumido pelo pipeline de fraude)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	// Codec de saldo: única peça que vê saldo em claro fora do ledger
	codec, err := crypto.NewCodec(cfg.WalletKeyPassphrase, cfg.WalletKeySalt)
	if err != nil {
		log.Fatal("wallet codec", zap.Error(err))
	}

	// deps
	wallets := wallet.NewStore(pg, codec, log)
	events := event.NewReader(pg, rdb, log)
	bets := ledger.New(pg)
	limitsStore := limits.NewStore(pg)
	evaluator := risk.New(cfg.MinBet, cfg.OddsTolerance)
	notifier := fraud.NewNotifier(writer, log)
	runner := &db.Runner{DB: pg}

	eng := engine.New(runner, wallets, events, bets, limitsStore,
		evaluator, notifier, cfg.MaxDeposit, log)

	// HTTP público
	api := bhttp.NewServer(log, eng, limitsStore)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health em porta própria
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("betting-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
