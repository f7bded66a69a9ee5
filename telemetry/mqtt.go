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

// Package telemetry publishes the per-cycle measurement over MQTT. It
// is optional; the gauge itself never depends on the broker being
// reachable.
package telemetry

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/cellgauge/cell-gauge/gauge"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	keepAlive      = 60 * time.Second
)

// Publisher sends each sample as a JSON message on a per-device topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	log    *logrus.Logger
}

type message struct {
	Volts   float32   `json:"volts"`
	Present bool      `json:"present"`
	Status  string    `json:"status"`
	Time    time.Time `json:"time"`
}

// NewPublisher connects to the broker at brokerURL (tcp://, ssl://,
// ws:// schemes; credentials in the URL userinfo).
func NewPublisher(brokerURL, deviceID string, log *logrus.Logger) (*Publisher, error) {
	parsed, err := url.Parse(brokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %v", err)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID("cell-gauge-" + deviceID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(keepAlive)
	opts.SetConnectTimeout(connectTimeout)
	if parsed.User != nil {
		opts.SetUsername(parsed.User.Username())
		if password, ok := parsed.User.Password(); ok {
			opts.SetPassword(password)
		}
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Debug("MQTT connected")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %v", token.Error())
	}
	log.Infof("MQTT telemetry to %s", parsed.Host)

	return &Publisher{
		client: client,
		topic:  "cell-gauge/" + deviceID + "/status",
		log:    log,
	}, nil
}

// Render publishes one sample. A slow or absent broker only costs the
// publish timeout; the measurement cycle carries on regardless.
func (p *Publisher) Render(s gauge.Sample) error {
	payload, err := json.Marshal(message{
		Volts:   s.Volts,
		Present: s.Present,
		Status:  s.Tier.String(),
		Time:    s.Time,
	})
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 0, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("MQTT publish timed out after %s", publishTimeout)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(uint(publishTimeout / time.Millisecond))
}
