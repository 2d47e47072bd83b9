package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/pbkdf2"

	"github.com/betstack/betting-engine/internal/betting/errs"
)

const pbkdf2Iterations = 100_000

// Codec cifra e decifra saldos de carteira com AES-256-GCM.
// É o único componente que vê saldo em claro fora do ledger.
// Trocar a chave é rotação (cmd/wallet-rekey), nunca re-encode silencioso.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec deriva a chave de 32 bytes da passphrase via PBKDF2 e monta o AEAD.
func NewCodec(passphrase, salt string) (*Codec, error) {
	if passphrase == "" {
		return nil, errors.New("wallet encryption passphrase is empty")
	}

	key := pbkdf2.Key([]byte(passphrase), []byte(salt), pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encode cifra o saldo com nonce novo. Nonce nunca é reaproveitado:
// cada persistência de carteira grava ciphertext e nonce frescos juntos.
func (c *Codec) Encode(balance decimal.Decimal) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, c.aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("nonce: %w", err)
	}

	ciphertext = c.aead.Seal(nil, nonce, []byte(balance.String()), nil)
	return ciphertext, nonce, nil
}

// Decode decifra e autentica o saldo. Falha fechada: tag inválida vira
// errs.ErrWalletTampered, jamais um saldo default.
func (c *Codec) Decode(ciphertext, nonce []byte) (decimal.Decimal, error) {
	if len(nonce) != c.aead.NonceSize() {
		return decimal.Zero, errs.ErrWalletTampered
	}

	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return decimal.Zero, errs.ErrWalletTampered
	}

	balance, err := decimal.NewFromString(string(plain))
	if err != nil {
		// autenticou mas não parseia: corrupção igualmente fatal
		return decimal.Zero, fmt.Errorf("%w: bad plaintext", errs.ErrWalletTampered)
	}
	return balance, nil
}
