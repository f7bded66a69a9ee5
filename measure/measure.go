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

// Package measure averages raw counts from the sense channel and
// converts them to the open-circuit voltage on the battery side of the
// divider.
package measure

import (
	"time"
)

// Source produces one raw count from the sense channel per call.
type Source interface {
	Read() (uint16, error)
}

// Config holds the acquisition and calibration parameters.
type Config struct {
	// Samples is the number of consecutive readings averaged per
	// measurement. Values below 1 are treated as 1.
	Samples int

	// Settle is the delay between consecutive readings, giving the ADC
	// input time to settle and decorrelating noise.
	Settle time.Duration

	// VRef is the calibrated full-scale reference voltage. The nominal
	// reference varies between boards, so each unit carries its own
	// calibrated value.
	VRef float32

	// MaxCount is the full-scale raw count of the converter.
	MaxCount uint16

	// DividerFactor recovers the battery-side voltage from the sense
	// node. The 10k:10k divider halves the voltage, so the factor
	// is 2.
	DividerFactor float32
}

// Reader reads averaged, calibrated voltages from a Source.
type Reader struct {
	src   Source
	conf  Config
	sleep func(time.Duration)
}

func NewReader(src Source, conf Config) *Reader {
	if conf.Samples < 1 {
		conf.Samples = 1
	}
	return &Reader{src: src, conf: conf, sleep: time.Sleep}
}

// ReadVolts takes the configured number of readings and returns their
// mean converted to volts at the battery. The result is never negative;
// a disconnected sense line simply reads near zero, which downstream
// presence detection handles.
func (r *Reader) ReadVolts() (float32, error) {
	var sum int64
	for i := 0; i < r.conf.Samples; i++ {
		if i > 0 {
			r.sleep(r.conf.Settle)
		}
		count, err := r.src.Read()
		if err != nil {
			return 0, err
		}
		sum += int64(count)
	}
	mean := float32(sum) / float32(r.conf.Samples)
	sense := mean * r.conf.VRef / float32(r.conf.MaxCount)
	return sense * r.conf.DividerFactor, nil
}
