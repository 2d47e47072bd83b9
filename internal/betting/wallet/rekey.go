package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/betstack/betting-engine/internal/betting/crypto"
	"github.com/betstack/betting-engine/internal/betting/errs"
)

// RekeySummary resume um passe de rotação de chave.
type RekeySummary struct {
	Total    int
	Rekeyed  int
	Zeroed   int
	Tampered []string // contas cujo ciphertext não abriu com a chave antiga
}

// Rekey recifra todas as carteiras da chave antiga para a nova, uma
// transação por carteira (decifra-com-antiga, cifra-com-nova, persiste).
// Passo operacional explícito antes de aposentar a chave antiga.
//
// resetToZero é o último recurso: zera (auditado, carteira a carteira) as
// carteiras cujo ciphertext não abre com a chave antiga. Sem a flag essas
// carteiras são apenas reportadas e mantidas intactas.
func Rekey(ctx context.Context, db *sql.DB, oldCodec, newCodec *crypto.Codec, resetToZero bool, log *zap.Logger) (RekeySummary, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, account_id FROM wallets ORDER BY created_at`)
	if err != nil {
		return RekeySummary{}, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	type walletRef struct{ id, accountID string }
	var refs []walletRef
	for rows.Next() {
		var ref walletRef
		if err := rows.Scan(&ref.id, &ref.accountID); err != nil {
			return RekeySummary{}, fmt.Errorf("scan wallet: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return RekeySummary{}, fmt.Errorf("iterate wallets: %w", err)
	}

	summary := RekeySummary{Total: len(refs)}
	for _, ref := range refs {
		err := rekeyOne(ctx, db, oldCodec, newCodec, ref.id)
		switch {
		case err == nil:
			summary.Rekeyed++
		case errors.Is(err, errs.ErrWalletTampered):
			summary.Tampered = append(summary.Tampered, ref.accountID)
			if !resetToZero {
				log.Error("wallet unreadable with old key, left untouched",
					zap.String("accountId", ref.accountID))
				continue
			}
			if zerr := zeroOne(ctx, db, newCodec, ref.id); zerr != nil {
				return summary, fmt.Errorf("zero wallet %s: %w", ref.accountID, zerr)
			}
			summary.Zeroed++
			log.Warn("wallet balance reset to zero during rekey (audited operator action)",
				zap.String("accountId", ref.accountID))
		default:
			return summary, fmt.Errorf("rekey wallet %s: %w", ref.accountID, err)
		}
	}

	return summary, nil
}

// rekeyOne recifra uma carteira sob lock exclusivo, em transação própria.
func rekeyOne(ctx context.Context, db *sql.DB, oldCodec, newCodec *crypto.Codec, walletID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ciphertext, nonce []byte
	if err := tx.QueryRowContext(ctx,
		`SELECT encrypted_balance, nonce FROM wallets WHERE id=$1 FOR UPDATE`,
		walletID).Scan(&ciphertext, &nonce); err != nil {
		return err
	}

	balance, err := oldCodec.Decode(ciphertext, nonce)
	if err != nil {
		return err
	}

	newCiphertext, newNonce, err := newCodec.Encode(balance)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET encrypted_balance=$1, nonce=$2, updated_at=NOW() WHERE id=$3`,
		newCiphertext, newNonce, walletID); err != nil {
		return err
	}

	return tx.Commit()
}

func zeroOne(ctx context.Context, db *sql.DB, newCodec *crypto.Codec, walletID string) error {
	ciphertext, nonce, err := newCodec.Encode(decimal.Zero)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`UPDATE wallets SET encrypted_balance=$1, nonce=$2, updated_at=NOW() WHERE id=$3`,
		ciphertext, nonce, walletID)
	return err
}
