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

// Package adc reads the sense channel through an MCP3008 10-bit ADC on
// the SPI bus.
package adc

import (
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

const (
	// Maximum count the converter can return. The battery maths scales
	// raw counts against this full-scale value.
	MaxCount = 1023

	channels = 8

	// The MCP3008 is good to 1.35MHz at 2.7V supply.
	busSpeed = 1350 * physic.KiloHertz
)

// MCP3008 is a single-ended channel of an MCP3008 converter. Reads are
// serialized so a future second channel can share the connection.
type MCP3008 struct {
	mu      sync.Mutex
	port    spi.PortCloser
	conn    spi.Conn
	channel int
}

// Open connects to the MCP3008 on the named SPI port. An empty name
// selects the first available port.
func Open(portName string, channel int) (*MCP3008, error) {
	if channel < 0 || channel >= channels {
		return nil, errors.Errorf("adc channel %d out of range 0-%d", channel, channels-1)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, errors.Wrap(err, "opening spi port")
	}
	conn, err := port.Connect(busSpeed, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "connecting to adc")
	}
	return &MCP3008{port: port, conn: conn, channel: channel}, nil
}

// Read performs one conversion and returns the raw 10-bit count.
func (a *MCP3008) Read() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Start bit, then single-ended mode and channel in the top nibble
	// of the second byte. The third byte just clocks the result out.
	write := []byte{0x01, byte(0x80 | a.channel<<4), 0x00}
	read := make([]byte, len(write))
	if err := a.conn.Tx(write, read); err != nil {
		return 0, errors.Wrap(err, "adc transaction")
	}
	return countFromResponse(read), nil
}

func (a *MCP3008) Close() error {
	return a.port.Close()
}

// countFromResponse extracts the 10-bit count from a 3-byte MCP3008
// response. Bits above the count are undefined and masked off.
func countFromResponse(read []byte) uint16 {
	return uint16(read[1]&0x03)<<8 | uint16(read[2])
}
