/*
cell-gauge - AA cell health gauge
Copyright (C) 2024, The Cell Gauge Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package indicator drives the tri-color LED indicator. All LEDs are
// off while no cell is inserted; with a cell inserted exactly one LED
// is lit. YELLOW deliberately covers both the LOW and GOOD tiers, a
// simplification of the 3-LED hardware that the display and log do not
// share.
package indicator

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/cellgauge/cell-gauge/classify"
	"github.com/cellgauge/cell-gauge/gauge"
)

// Indicator drives the three LED outputs.
type Indicator struct {
	red    gpio.PinIO
	yellow gpio.PinIO
	green  gpio.PinIO
}

// New wraps already-resolved pins, mainly for tests.
func New(red, yellow, green gpio.PinIO) *Indicator {
	return &Indicator{red: red, yellow: yellow, green: green}
}

// Open resolves the three LED pins by name ("GPIO17" style).
func Open(redPin, yellowPin, greenPin string) (*Indicator, error) {
	pins := make([]gpio.PinIO, 3)
	for i, name := range []string{redPin, yellowPin, greenPin} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("no GPIO pin named %q", name)
		}
		pins[i] = p
	}
	return New(pins[0], pins[1], pins[2]), nil
}

// Render lights the LED matching the tier.
func (ind *Indicator) Render(s gauge.Sample) error {
	red, yellow, green := gpio.Low, gpio.Low, gpio.Low
	switch s.Tier {
	case classify.Dead:
		red = gpio.High
	case classify.Low, classify.Good:
		yellow = gpio.High
	case classify.New:
		green = gpio.High
	}
	return ind.set(red, yellow, green)
}

// Off turns every LED off, used when the daemon exits.
func (ind *Indicator) Off() error {
	return ind.set(gpio.Low, gpio.Low, gpio.Low)
}

func (ind *Indicator) set(red, yellow, green gpio.Level) error {
	for _, out := range []struct {
		pin   gpio.PinIO
		level gpio.Level
	}{
		{ind.red, red},
		{ind.yellow, yellow},
		{ind.green, green},
	} {
		if err := out.pin.Out(out.level); err != nil {
			return fmt.Errorf("setting %s: %v", out.pin.Name(), err)
		}
	}
	return nil
}
