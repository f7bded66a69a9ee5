package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), conf)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
spi_port: "SPI0.0"
vref_cal: 1.092
samples: 20
thresholds:
  present_on: 0.08
  present_off: 0.03
  low: 1.15
  good: 1.35
  new: 1.55
indicator:
  enabled: false
mqtt:
  broker_url: "tcp://broker.local:1883"
`), 0644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "SPI0.0", conf.SPIPort)
	assert.Equal(t, float32(1.092), conf.VRefCal)
	assert.Equal(t, 20, conf.Samples)
	assert.Equal(t, float32(1.15), conf.Thresholds.Low)
	assert.False(t, conf.Indicator.Enabled)
	assert.Equal(t, "tcp://broker.local:1883", conf.MQTT.BrokerURL)

	// Untouched fields keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.DividerFactor, conf.DividerFactor)
	assert.Equal(t, def.CycleSeconds, conf.CycleSeconds)
	assert.Equal(t, def.Display.Address, conf.Display.Address)
}

func TestLoadConfigBackfillsZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adc_channel: 3\n"), 0644))

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, 3, conf.ADCChannel)
	assert.Equal(t, def.VRefCal, conf.VRefCal)
	assert.Equal(t, def.Samples, conf.Samples)
	assert.Equal(t, def.Thresholds, conf.Thresholds)
	assert.Equal(t, def.Console.Baud, conf.Console.Baud)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("samples: [not an int\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestThresholdsConversionValidates(t *testing.T) {
	conf := DefaultConfig()
	assert.NoError(t, conf.Thresholds.thresholds().Validate())

	conf.Thresholds.Good = 1.0
	assert.Error(t, conf.Thresholds.thresholds().Validate())
}
