package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cellgauge/cell-gauge/classify"
	"github.com/cellgauge/cell-gauge/display"
)

const DefaultConfigFile = "/etc/cell-gauge/config.yaml"

// Config is the wiring and calibration surface of the instrument. It
// is read once at startup and never written back; per-unit calibration
// is an operator procedure, not runtime logic.
type Config struct {
	SPIPort    string `yaml:"spi_port"`
	ADCChannel int    `yaml:"adc_channel"`

	// VRefCal is the per-unit calibrated full-scale reference.
	VRefCal       float32 `yaml:"vref_cal"`
	DividerFactor float32 `yaml:"divider_factor"`

	Samples      int `yaml:"samples"`
	SettleMillis int `yaml:"settle_ms"`
	CycleSeconds int `yaml:"cycle_seconds"`

	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Display    DisplayConfig    `yaml:"display"`
	Indicator  IndicatorConfig  `yaml:"indicator"`
	Console    ConsoleConfig    `yaml:"console"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
}

// ThresholdsConfig mirrors classify.Thresholds for the config file.
type ThresholdsConfig struct {
	PresentOn  float32 `yaml:"present_on"`
	PresentOff float32 `yaml:"present_off"`
	Low        float32 `yaml:"low"`
	Good       float32 `yaml:"good"`
	New        float32 `yaml:"new"`
}

func (t ThresholdsConfig) thresholds() classify.Thresholds {
	return classify.Thresholds{
		PresentOn:  t.PresentOn,
		PresentOff: t.PresentOff,
		Low:        t.Low,
		Good:       t.Good,
		New:        t.New,
	}
}

type DisplayConfig struct {
	Enabled bool   `yaml:"enabled"`
	I2CBus  string `yaml:"i2c_bus"`
	Address uint16 `yaml:"address"`
}

type IndicatorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	RedPin    string `yaml:"red_pin"`
	YellowPin string `yaml:"yellow_pin"`
	GreenPin  string `yaml:"green_pin"`
}

// ConsoleConfig selects where the cycle report goes. An empty port
// means stdout.
type ConsoleConfig struct {
	SerialPort string `yaml:"serial_port"`
	Baud       int    `yaml:"baud"`
}

// MQTTConfig enables telemetry when a broker URL is set.
type MQTTConfig struct {
	BrokerURL string `yaml:"broker_url"`
	DeviceID  string `yaml:"device_id"`
}

func DefaultConfig() *Config {
	def := classify.DefaultThresholds()
	return &Config{
		SPIPort:       "",
		ADCChannel:    0,
		VRefCal:       1.085,
		DividerFactor: 2.0,
		Samples:       50,
		SettleMillis:  2,
		CycleSeconds:  2,
		Thresholds: ThresholdsConfig{
			PresentOn:  def.PresentOn,
			PresentOff: def.PresentOff,
			Low:        def.Low,
			Good:       def.Good,
			New:        def.New,
		},
		Display: DisplayConfig{
			Enabled: true,
			I2CBus:  "",
			Address: display.DefaultAddress,
		},
		Indicator: IndicatorConfig{
			Enabled:   true,
			RedPin:    "GPIO17",
			YellowPin: "GPIO27",
			GreenPin:  "GPIO22",
		},
		Console: ConsoleConfig{
			Baud: 115200,
		},
	}
}

// LoadConfig reads the YAML config, falling back to defaults for a
// missing file or missing fields.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, fmt.Errorf("reading config file: %v", err)
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	conf.backfill()
	return conf, nil
}

// backfill replaces zero values with defaults so a partial config file
// is enough.
func (c *Config) backfill() {
	def := DefaultConfig()
	if c.VRefCal == 0 {
		c.VRefCal = def.VRefCal
	}
	if c.DividerFactor == 0 {
		c.DividerFactor = def.DividerFactor
	}
	if c.Samples == 0 {
		c.Samples = def.Samples
	}
	if c.SettleMillis == 0 {
		c.SettleMillis = def.SettleMillis
	}
	if c.CycleSeconds == 0 {
		c.CycleSeconds = def.CycleSeconds
	}
	if c.Thresholds == (ThresholdsConfig{}) {
		c.Thresholds = def.Thresholds
	}
	if c.Display.Address == 0 {
		c.Display.Address = def.Display.Address
	}
	if c.Console.Baud == 0 {
		c.Console.Baud = def.Console.Baud
	}
}
