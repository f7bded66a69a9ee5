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

package main

import (
	"errors"

	"github.com/godbus/dbus"
	"github.com/godbus/dbus/introspect"

	"github.com/cellgauge/cell-gauge/gauge"
)

const (
	dbusName = "org.cellgauge.Gauge"
	dbusPath = "/org/cellgauge/Gauge"
)

type service struct {
	gauge *gauge.Gauge
}

func startService(g *gauge.Gauge) error {
	conn, err := dbus.SystemBus()
	if err != nil {
		return err
	}
	reply, err := conn.RequestName(dbusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return err
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return errors.New("name already taken")
	}

	s := &service{
		gauge: g,
	}
	conn.Export(s, dbusPath, dbusName)
	conn.Export(genIntrospectable(s), dbusPath, "org.freedesktop.DBus.Introspectable")
	return nil
}

func genIntrospectable(v interface{}) introspect.Introspectable {
	node := &introspect.Node{
		Interfaces: []introspect.Interface{{
			Name:    dbusName,
			Methods: introspect.Methods(v),
		}},
	}
	return introspect.NewIntrospectable(node)
}

// GetStatus returns the voltage, status tier, and presence flag from
// the most recent measurement cycle.
func (s service) GetStatus() (float64, string, bool, *dbus.Error) {
	last := s.gauge.Last()
	return float64(last.Volts), last.Tier.String(), last.Present, nil
}

// CellPresent returns whether a cell is currently detected.
func (s service) CellPresent() (bool, *dbus.Error) {
	return s.gauge.Last().Present, nil
}
