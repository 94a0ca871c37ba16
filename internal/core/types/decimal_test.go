package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	got := Percent(MustMoney("250.00"), MustMoney("18"))
	assert.True(t, got.Equal(MustMoney("45")), got.String())
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "10.13", Round(MustMoney("10.125")).StringFixed(2))
	assert.Equal(t, "10.12", Round(MustMoney("10.1249")).StringFixed(2))
}

func TestIsValidRate(t *testing.T) {
	assert.True(t, IsValidRate(MustMoney("0")))
	assert.True(t, IsValidRate(MustMoney("28")))
	assert.True(t, IsValidRate(MustMoney("100")))
	assert.False(t, IsValidRate(MustMoney("-1")))
	assert.False(t, IsValidRate(MustMoney("100.01")))
}
