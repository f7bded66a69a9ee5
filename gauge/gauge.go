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

// Package gauge runs the measurement cycle: acquire a voltage, update
// presence, classify, and fan the result out to the render
// collaborators.
package gauge

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cellgauge/cell-gauge/classify"
)

// Sample is the output of one measurement cycle.
type Sample struct {
	Volts   float32
	Present bool
	Tier    classify.Tier
	Time    time.Time
}

// Voltmeter produces one averaged voltage reading per call.
type Voltmeter interface {
	ReadVolts() (float32, error)
}

// Renderer consumes the result of a cycle. Renderers must tolerate
// being called once per cycle with unchanged values.
type Renderer interface {
	Render(Sample) error
}

// Gauge owns the measurement pipeline. The presence detector inside it
// is the only state carried across cycles.
type Gauge struct {
	meter      Voltmeter
	detector   *classify.Detector
	thresholds classify.Thresholds
	renderers  []Renderer
	log        *logrus.Logger

	mu   sync.Mutex
	last Sample
}

func New(meter Voltmeter, thresholds classify.Thresholds, log *logrus.Logger, renderers ...Renderer) (*Gauge, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Gauge{
		meter:      meter,
		detector:   classify.NewDetector(thresholds),
		thresholds: thresholds,
		renderers:  renderers,
		log:        log,
	}, nil
}

// Cycle performs one acquire-classify-render pass. Render errors are
// logged and do not stop the remaining renderers; only an acquisition
// failure is returned.
func (g *Gauge) Cycle() (Sample, error) {
	volts, err := g.meter.ReadVolts()
	if err != nil {
		return Sample{}, err
	}

	present := g.detector.Update(volts)
	s := Sample{
		Volts:   volts,
		Present: present,
		Tier:    g.thresholds.Classify(volts, present),
		Time:    time.Now(),
	}

	g.mu.Lock()
	g.last = s
	g.mu.Unlock()

	for _, r := range g.renderers {
		if err := r.Render(s); err != nil {
			g.log.Errorf("render error: %v", err)
		}
	}
	return s, nil
}

// Last returns the most recent sample. The zero Sample is returned
// before the first cycle completes.
func (g *Gauge) Last() Sample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

// Run cycles until the context is cancelled. Acquisition errors are
// logged and the next cycle runs anyway; a flaky sense line should
// degrade readings, not kill the instrument.
func (g *Gauge) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if _, err := g.Cycle(); err != nil {
			g.log.Errorf("measurement failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
