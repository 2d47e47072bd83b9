package wallet

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/crypto"
	"github.com/betstack/betting-engine/internal/betting/errs"
	"github.com/betstack/betting-engine/internal/shared/metrics"
)

// Store é o dono das carteiras: uma por conta, saldo sempre cifrado em
// repouso. Toda mutação passa por AdjustTx com lock exclusivo na linha.
type Store struct {
	db    *sql.DB
	codec *crypto.Codec
	log   *zap.Logger
}

func NewStore(db *sql.DB, codec *crypto.Codec, log *zap.Logger) *Store {
	return &Store{db: db, codec: codec, log: log}
}

// Adjustment é o resultado de um AdjustTx bem sucedido.
type Adjustment struct {
	WalletID string
	Before   decimal.Decimal
	After    decimal.Decimal
}

// Balance retorna o saldo decifrado da conta, criando a carteira com 0.00
// se ainda não existir. Leitura advisory: não segura lock além da chamada.
func (s *Store) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var ciphertext, nonce []byte
	err = tx.QueryRowContext(ctx,
		`SELECT encrypted_balance, nonce FROM wallets WHERE account_id=$1`,
		accountID).Scan(&ciphertext, &nonce)
	if err == sql.ErrNoRows {
		if ciphertext, nonce, err = s.createWallet(ctx, tx, accountID); err != nil {
			return decimal.Zero, err
		}
	} else if err != nil {
		return decimal.Zero, fmt.Errorf("fetch wallet: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return decimal.Zero, fmt.Errorf("commit tx: %w", err)
	}

	balance, err := s.codec.Decode(ciphertext, nonce)
	if err != nil {
		s.reportTamper(accountID, err)
		return decimal.Zero, err
	}
	return balance, nil
}

// createWallet provisiona a carteira da conta com saldo 0.00 cifrado.
func (s *Store) createWallet(ctx context.Context, tx *sql.Tx, accountID string) (ciphertext, nonce []byte, err error) {
	ciphertext, nonce, err = s.codec.Encode(decimal.Zero)
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallets (id, account_id, encrypted_balance, nonce, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (account_id) DO NOTHING`,
		uuid.NewString(), accountID, ciphertext, nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("create wallet: %w", err)
	}

	s.log.Info("wallet provisioned", zap.String("accountId", accountID))
	return ciphertext, nonce, nil
}

// AdjustTx muta o saldo dentro da transação do chamador:
// lock da linha → decifra → aplica delta → cifra com nonce novo → persiste.
// Delta negativo falha com ErrInsufficientFunds se saldo+delta < expectedMin,
// e a carteira fica intocada. A linha permanece bloqueada até o commit do
// chamador, serializando mutações concorrentes da mesma conta.
func (s *Store) AdjustTx(ctx context.Context, tx *sql.Tx, accountID string, delta, expectedMin decimal.Decimal) (Adjustment, error) {
	var walletID string
	var ciphertext, nonce []byte
	err := tx.QueryRowContext(ctx,
		`SELECT id, encrypted_balance, nonce FROM wallets WHERE account_id=$1 FOR UPDATE`,
		accountID).Scan(&walletID, &ciphertext, &nonce)
	if err == sql.ErrNoRows {
		return Adjustment{}, errs.ErrWalletNotFound
	} else if err != nil {
		return Adjustment{}, fmt.Errorf("lock wallet: %w", err)
	}

	before, err := s.codec.Decode(ciphertext, nonce)
	if err != nil {
		s.reportTamper(accountID, err)
		return Adjustment{}, err
	}

	after := before.Add(delta)
	if after.LessThan(expectedMin) {
		return Adjustment{}, errs.ErrInsufficientFunds
	}

	newCiphertext, newNonce, err := s.codec.Encode(after)
	if err != nil {
		return Adjustment{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET encrypted_balance=$1, nonce=$2, updated_at=NOW() WHERE id=$3`,
		newCiphertext, newNonce, walletID); err != nil {
		return Adjustment{}, fmt.Errorf("persist wallet: %w", err)
	}

	return Adjustment{WalletID: walletID, Before: before, After: after}, nil
}

// reportTamper registra a falha de autenticação como incidente de operador.
// O caminho de aposta para aqui; nenhum reset automático de saldo.
func (s *Store) reportTamper(accountID string, err error) {
	metrics.WalletTamperTotal.Inc()
	s.log.Error("wallet ciphertext failed authentication, operator action required",
		zap.String("accountId", accountID),
		zap.Error(err),
	)
}
