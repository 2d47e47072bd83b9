package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/crypto"
	"github.com/betstack/betting-engine/internal/betting/wallet"
	"github.com/betstack/betting-engine/internal/shared/config"
	"github.com/betstack/betting-engine/internal/shared/db"
	"github.com/betstack/betting-engine/internal/shared/logger"
)

// Utilitário de rotação de chave: recifra cada carteira com a chave nova
// (decifra-com-antiga, cifra-com-nova, uma transação por carteira).
// Rodar ANTES de aposentar a chave antiga; sem este passe, todo ciphertext
// fica ilegível depois da troca.
//
// --reset-to-zero é o último recurso para carteiras que não abrem com a
// chave antiga: zera o saldo, auditado carteira a carteira no log.
func main() {
	_ = godotenv.Load()

	var (
		oldKey      = flag.String("old-key", os.Getenv("WALLET_ENCRYPTION_KEY_OLD"), "passphrase da chave atual")
		newKey      = flag.String("new-key", os.Getenv("WALLET_ENCRYPTION_KEY"), "passphrase da chave nova")
		resetToZero = flag.Bool("reset-to-zero", false, "zera carteiras ilegíveis com a chave antiga (auditado)")
		yes         = flag.Bool("yes", false, "pula a confirmação interativa")
	)
	flag.Parse()

	cfg := config.Load()
	log, _ := logger.New("wallet-rekey", cfg.Env)
	defer log.Sync()

	if *oldKey == "" || *newKey == "" {
		log.Fatal("old-key and new-key are required")
	}

	oldCodec, err := crypto.NewCodec(*oldKey, cfg.WalletKeySalt)
	if err != nil {
		log.Fatal("old codec", zap.Error(err))
	}
	newCodec, err := crypto.NewCodec(*newKey, cfg.WalletKeySalt)
	if err != nil {
		log.Fatal("new codec", zap.Error(err))
	}

	if !*yes && !confirm(*resetToZero) {
		fmt.Println("operation cancelled")
		return
	}

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	summary, err := wallet.Rekey(context.Background(), pg, oldCodec, newCodec, *resetToZero, log)
	if err != nil {
		log.Fatal("rekey", zap.Error(err),
			zap.Int("rekeyed", summary.Rekeyed), zap.Int("total", summary.Total))
	}

	log.Info("rekey finished",
		zap.Int("total", summary.Total),
		zap.Int("rekeyed", summary.Rekeyed),
		zap.Int("zeroed", summary.Zeroed),
		zap.Strings("tamperedAccounts", summary.Tampered),
	)
}

func confirm(resetToZero bool) bool {
	fmt.Println("This re-encrypts every wallet with the new key.")
	if resetToZero {
		fmt.Println("WARNING: unreadable wallets will be RESET TO ZERO.")
	}
	fmt.Print("Continue? (yes/no): ")

	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(line)) == "yes"
}
