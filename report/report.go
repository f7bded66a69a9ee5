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

// Package report writes the per-cycle human-readable measurement block
// to a console, either stdout or a serial port.
package report

import (
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/cellgauge/cell-gauge/classify"
	"github.com/cellgauge/cell-gauge/gauge"
)

const separator = "----------------"

// Reporter writes one block per cycle.
type Reporter struct {
	w io.Writer
}

func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// OpenSerial opens a serial console for the report output.
func OpenSerial(port string, baud int) (*Reporter, error) {
	s, err := serial.OpenPort(&serial.Config{Name: port, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("opening serial console %s: %v", port, err)
	}
	return New(s), nil
}

// Render writes the voltage, the status or waiting line, and a cycle
// separator.
func (r *Reporter) Render(s gauge.Sample) error {
	var status string
	if s.Tier == classify.Absent {
		status = "Waiting for battery"
	} else {
		status = "Status: " + s.Tier.String()
	}
	_, err := fmt.Fprintf(r.w, "Voltage: %.3f V\n%s\n%s\n", s.Volts, status, separator)
	return err
}
