package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/cellgauge/cell-gauge/classify"
	"github.com/cellgauge/cell-gauge/gauge"
)

func testIndicator() (*Indicator, *gpiotest.Pin, *gpiotest.Pin, *gpiotest.Pin) {
	red := &gpiotest.Pin{N: "red"}
	yellow := &gpiotest.Pin{N: "yellow"}
	green := &gpiotest.Pin{N: "green"}
	return New(red, yellow, green), red, yellow, green
}

func levels(red, yellow, green *gpiotest.Pin) [3]gpio.Level {
	return [3]gpio.Level{red.L, yellow.L, green.L}
}

func TestRenderOneLEDPerTier(t *testing.T) {
	cases := []struct {
		tier classify.Tier
		want [3]gpio.Level
	}{
		{classify.Absent, [3]gpio.Level{gpio.Low, gpio.Low, gpio.Low}},
		{classify.Dead, [3]gpio.Level{gpio.High, gpio.Low, gpio.Low}},
		{classify.Low, [3]gpio.Level{gpio.Low, gpio.High, gpio.Low}},
		{classify.Good, [3]gpio.Level{gpio.Low, gpio.High, gpio.Low}},
		{classify.New, [3]gpio.Level{gpio.Low, gpio.Low, gpio.High}},
	}
	for _, c := range cases {
		ind, red, yellow, green := testIndicator()
		require.NoError(t, ind.Render(gauge.Sample{Tier: c.tier}))
		assert.Equal(t, c.want, levels(red, yellow, green), "tier %s", c.tier)
	}
}

func TestRenderClearsPreviousTier(t *testing.T) {
	ind, red, yellow, green := testIndicator()
	require.NoError(t, ind.Render(gauge.Sample{Tier: classify.New}))
	require.NoError(t, ind.Render(gauge.Sample{Tier: classify.Dead}))
	assert.Equal(t, [3]gpio.Level{gpio.High, gpio.Low, gpio.Low}, levels(red, yellow, green))
}

func TestOff(t *testing.T) {
	ind, red, yellow, green := testIndicator()
	require.NoError(t, ind.Render(gauge.Sample{Tier: classify.Good}))
	require.NoError(t, ind.Off())
	assert.Equal(t, [3]gpio.Level{gpio.Low, gpio.Low, gpio.Low}, levels(red, yellow, green))
}

func TestOpenRejectsUnknownPin(t *testing.T) {
	_, err := Open("does-not-exist-1", "does-not-exist-2", "does-not-exist-3")
	assert.Error(t, err)
}
