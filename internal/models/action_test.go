package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionRoundTrip(t *testing.T) {
	all := []Action{
		ActionNone, ActionThinking, ActionHold,
		ActionOpenBuy, ActionOpenSell,
		ActionAddBuy, ActionAddSell,
		ActionCloseBuy, ActionCloseSell, ActionCloseAll,
	}
	for _, a := range all {
		assert.Equal(t, a, ParseAction(a.String()), "round-trip %s", a)
	}
}

func TestParseUnknown(t *testing.T) {
	assert.Equal(t, ActionUnknown, ParseAction("SHRUG"))
	assert.Equal(t, ActionUnknown, ParseAction(""))
	assert.Equal(t, ActionUnknown, ParseAction("UNKNOWN"))
	assert.False(t, ActionUnknown.IsActionable())
}

func TestActionSides(t *testing.T) {
	assert.True(t, ActionOpenBuy.IsBuySide())
	assert.True(t, ActionCloseBuy.IsBuySide())
	assert.False(t, ActionOpenBuy.IsSellSide())
	assert.True(t, ActionAddSell.IsSellSide())
	// CloseAll затрагивает обе стороны, но не числится ни одной
	assert.False(t, ActionCloseAll.IsBuySide())
	assert.False(t, ActionCloseAll.IsSellSide())
}

func TestLoggableSet(t *testing.T) {
	assert.True(t, ActionOpenBuy.IsLoggable())
	assert.True(t, ActionCloseAll.IsLoggable())
	assert.False(t, ActionHold.IsLoggable())
	assert.False(t, ActionCloseBuy.IsLoggable())
	assert.False(t, ActionThinking.IsLoggable())
}

func TestDirectionParse(t *testing.T) {
	assert.Equal(t, DirectionBullish, ParseDirection("BULLISH"))
	assert.Equal(t, DirectionUnclear, ParseDirection("whatever"))
}
