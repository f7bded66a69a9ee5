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

// Package classify turns a measured cell voltage into a discrete health
// tier. Presence of a cell is detected with a two-threshold Schmitt
// trigger so that contact bounce near the detection boundary does not
// make the state flicker.
package classify

import "fmt"

// Tier is the discrete health classification of the cell.
type Tier uint8

const (
	Absent Tier = iota
	Dead
	Low
	Good
	New
)

func (t Tier) String() string {
	switch t {
	case Absent:
		return "ABSENT"
	case Dead:
		return "DEAD"
	case Low:
		return "LOW"
	case Good:
		return "GOOD"
	case New:
		return "NEW"
	default:
		return "UNKNOWN"
	}
}

// Thresholds holds the voltage boundaries shared by every output path.
// All three render collaborators are handed the same value so the
// display, indicator and log can never disagree on a classification.
type Thresholds struct {
	// Presence hysteresis. A cell is considered inserted once the
	// voltage rises to PresentOn and removed once it falls back to
	// PresentOff. The band between the two is a no-op zone.
	PresentOn  float32
	PresentOff float32

	// Tier boundaries, lower-bound inclusive: a voltage equal to Low
	// classifies as LOW, not DEAD.
	Low  float32
	Good float32
	New  float32
}

// DefaultThresholds are for a single alkaline AA cell measured
// open-circuit.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PresentOn:  0.06,
		PresentOff: 0.02,
		Low:        1.10,
		Good:       1.30,
		New:        1.50,
	}
}

// Validate checks the ordering invariants. Thresholds out of order make
// classification non-monotonic, so this is checked once at startup
// rather than silently misbehaving at runtime.
func (t Thresholds) Validate() error {
	if t.PresentOff >= t.PresentOn {
		return fmt.Errorf("presence thresholds out of order: off %.3f >= on %.3f", t.PresentOff, t.PresentOn)
	}
	if t.Low >= t.Good || t.Good >= t.New {
		return fmt.Errorf("tier thresholds out of order: %.3f, %.3f, %.3f", t.Low, t.Good, t.New)
	}
	return nil
}

// Classify maps a voltage and presence flag to a tier. It is a total
// function: any voltage, including a negative-going glitch, produces a
// defined tier and never an error.
func (t Thresholds) Classify(volts float32, present bool) Tier {
	switch {
	case !present:
		return Absent
	case volts < t.Low:
		return Dead
	case volts < t.Good:
		return Low
	case volts < t.New:
		return Good
	default:
		return New
	}
}

// Detector owns the cell-present flag, the only state in the pipeline
// that lives across cycles. It starts out absent.
type Detector struct {
	thresholds Thresholds
	present    bool
}

func NewDetector(thresholds Thresholds) *Detector {
	return &Detector{thresholds: thresholds}
}

// Update applies the hysteresis rule to one voltage reading and returns
// the updated presence flag. At most one transition fires per call.
func (d *Detector) Update(volts float32) bool {
	if !d.present && volts >= d.thresholds.PresentOn {
		d.present = true
	} else if d.present && volts <= d.thresholds.PresentOff {
		d.present = false
	}
	return d.present
}

// Present reports the current presence flag without updating it.
func (d *Detector) Present() bool {
	return d.present
}
