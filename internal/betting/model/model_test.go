package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betstack/betting-engine/internal/betting/errs"
)

func TestPairingTable(t *testing.T) {
	cases := []struct {
		betType BetType
		sel     Selection
		ok      bool
	}{
		{BetTypeMoneyline, SelectionHome, true},
		{BetTypeMoneyline, SelectionAway, true},
		{BetTypeMoneyline, SelectionOver, false},
		{BetTypeMoneyline, SelectionUnder, false},
		{BetTypeSpread, SelectionHome, true},
		{BetTypeSpread, SelectionAway, true},
		{BetTypeSpread, SelectionOver, false},
		{BetTypeTotal, SelectionOver, true},
		{BetTypeTotal, SelectionUnder, true},
		{BetTypeTotal, SelectionHome, false},
		{BetTypeTotal, SelectionAway, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.betType.Allows(c.sel), "%s/%s", c.betType, c.sel)
	}
}

func TestParseBetTypeNormalizes(t *testing.T) {
	for _, in := range []string{"moneyline", "Moneyline", " MONEYLINE ", "moneyLINE"} {
		bt, err := ParseBetType(in)
		require.NoError(t, err, in)
		assert.Equal(t, BetTypeMoneyline, bt)
	}

	_, err := ParseBetType("parlay")
	assert.ErrorIs(t, err, errs.ErrInvalidSelection)
}

func TestParseSelectionNormalizes(t *testing.T) {
	sel, err := ParseSelection("over")
	require.NoError(t, err)
	assert.Equal(t, SelectionOver, sel)

	sel, err = ParseSelection(" Under ")
	require.NoError(t, err)
	assert.Equal(t, SelectionUnder, sel)

	_, err = ParseSelection("draw")
	assert.ErrorIs(t, err, errs.ErrInvalidSelection)
}
