package crypto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betstack/betting-engine/internal/betting/errs"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("test-passphrase-not-for-prod", "test-salt")
	require.NoError(t, err)
	return c
}

func TestNewCodecRejectsEmptyPassphrase(t *testing.T) {
	_, err := NewCodec("", "salt")
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, s := range []string{"0.00", "0.01", "1.00", "50.00", "123.45", "999999.99", "0.001"} {
		balance := decimal.RequireFromString(s)

		ct, nonce, err := c.Encode(balance)
		require.NoError(t, err, s)

		got, err := c.Decode(ct, nonce)
		require.NoError(t, err, s)
		assert.True(t, balance.Equal(got), "want %s got %s", balance, got)
	}
}

func TestEncodeUsesFreshNonce(t *testing.T) {
	c := newTestCodec(t)
	balance := decimal.RequireFromString("10.00")

	ct1, n1, err := c.Encode(balance)
	require.NoError(t, err)
	ct2, n2, err := c.Encode(balance)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
	assert.NotEqual(t, ct1, ct2)
}

func TestDecodeFailsClosedOnTampering(t *testing.T) {
	c := newTestCodec(t)
	ct, nonce, err := c.Encode(decimal.RequireFromString("77.50"))
	require.NoError(t, err)

	// qualquer byte do ciphertext alterado derruba a autenticação
	for _, i := range []int{0, len(ct) / 2, len(ct) - 1} {
		bad := append([]byte(nil), ct...)
		bad[i] ^= 0x01
		_, err := c.Decode(bad, nonce)
		assert.ErrorIs(t, err, errs.ErrWalletTampered, "byte %d", i)
	}

	// idem para o nonce
	badNonce := append([]byte(nil), nonce...)
	badNonce[0] ^= 0x01
	_, err = c.Decode(ct, badNonce)
	assert.ErrorIs(t, err, errs.ErrWalletTampered)

	// nonce de tamanho errado não chega no AEAD
	_, err = c.Decode(ct, nonce[:len(nonce)-1])
	assert.ErrorIs(t, err, errs.ErrWalletTampered)
}

func TestDecodeWithDifferentKeyFails(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec("another-passphrase", "test-salt")
	require.NoError(t, err)

	ct, nonce, err := c.Encode(decimal.RequireFromString("5.00"))
	require.NoError(t, err)

	_, err = other.Decode(ct, nonce)
	assert.ErrorIs(t, err, errs.ErrWalletTampered)
}
