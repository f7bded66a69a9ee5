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

// Package display renders the measurement on a 16x2 HD44780 character
// display behind a PCF8574 I2C backpack.
package display

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"

	"github.com/cellgauge/cell-gauge/gauge"
)

const DefaultAddress = 0x27

// PCF8574 backpack wiring: control lines on the low nibble, data on
// the high nibble.
const (
	pinRS        = 0x01
	pinEnable    = 0x04
	pinBacklight = 0x08
)

const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment cursor, no shift
	cmdDisplayOn   = 0x0C // display on, cursor and blink off
	cmdFunctionSet = 0x28 // 4-bit bus, 2 lines, 5x8 font
	cmdSetAddress  = 0x80

	line2Address = 0x40
)

// HD44780 drives the character display in 4-bit mode.
type HD44780 struct {
	dev *i2c.Dev
}

// NewHD44780 probes for the backpack on the bus and initializes the
// display.
func NewHD44780(bus i2c.Bus, addr uint16) (*HD44780, error) {
	if err := bus.Tx(addr, nil, nil); err != nil {
		return nil, errors.Wrapf(err, "no display backpack found at 0x%x", addr)
	}
	lcd := &HD44780{dev: &i2c.Dev{Bus: bus, Addr: addr}}
	if err := lcd.init(); err != nil {
		return nil, errors.Wrap(err, "initializing display")
	}
	return lcd, nil
}

// init runs the HD44780 4-bit wake-up sequence with padded datasheet
// timings.
func (lcd *HD44780) init() error {
	time.Sleep(50 * time.Millisecond)
	for _, n := range []byte{0x03, 0x03, 0x03, 0x02} {
		if err := lcd.writeNibble(n, false); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	for _, cmd := range []byte{cmdFunctionSet, cmdDisplayOn, cmdEntryMode} {
		if err := lcd.writeCommand(cmd); err != nil {
			return err
		}
	}
	return lcd.Clear()
}

// Clear blanks the display and homes the cursor.
func (lcd *HD44780) Clear() error {
	if err := lcd.writeCommand(cmdClear); err != nil {
		return err
	}
	// Clear is the one slow instruction.
	time.Sleep(2 * time.Millisecond)
	return nil
}

// Show writes both 16-character lines. Lines longer than the panel are
// truncated; Frame already pads short ones so stale characters get
// overwritten.
func (lcd *HD44780) Show(lines [2]string) error {
	addresses := [2]byte{0, line2Address}
	for i, line := range lines {
		if err := lcd.writeCommand(cmdSetAddress | addresses[i]); err != nil {
			return err
		}
		if len(line) > Columns {
			line = line[:Columns]
		}
		for _, c := range []byte(line) {
			if err := lcd.writeData(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (lcd *HD44780) writeCommand(b byte) error {
	return lcd.writeByte(b, false)
}

func (lcd *HD44780) writeData(b byte) error {
	return lcd.writeByte(b, true)
}

func (lcd *HD44780) writeByte(b byte, rs bool) error {
	if err := lcd.writeNibble(b>>4, rs); err != nil {
		return err
	}
	return lcd.writeNibble(b&0x0F, rs)
}

// writeNibble puts a nibble on the data lines and pulses the enable
// line to latch it.
func (lcd *HD44780) writeNibble(nibble byte, rs bool) error {
	out := nibble<<4 | pinBacklight
	if rs {
		out |= pinRS
	}
	for _, b := range []byte{out | pinEnable, out} {
		if _, err := lcd.dev.Write([]byte{b}); err != nil {
			return err
		}
	}
	return nil
}

// Panel adapts the display to the render interface.
type Panel struct {
	lcd *HD44780
}

func NewPanel(lcd *HD44780) *Panel {
	return &Panel{lcd: lcd}
}

func (p *Panel) Render(s gauge.Sample) error {
	return p.lcd.Show(Frame(s.Volts, s.Tier))
}
