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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	arg "github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/cellgauge/cell-gauge/adc"
	"github.com/cellgauge/cell-gauge/display"
	"github.com/cellgauge/cell-gauge/gauge"
	"github.com/cellgauge/cell-gauge/indicator"
	"github.com/cellgauge/cell-gauge/measure"
	"github.com/cellgauge/cell-gauge/report"
	"github.com/cellgauge/cell-gauge/telemetry"
)

var version = "<not set>"

var log = logrus.New()

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"configuration file"`
	LogLevel   string `arg:"-l,--log-level" default:"info" help:"Set the logging level (debug, info, warn, error)"`
	Oneshot    bool   `arg:"--oneshot" help:"run a single measurement cycle and exit"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{
		ConfigFile: DefaultConfigFile,
	}
	arg.MustParse(&args)
	return args
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		log.Warn("Unknown log level, defaulting to info")
	}
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return []byte(fmt.Sprintf("[%s] %s\n", strings.ToUpper(entry.Level.String()), entry.Message)), nil
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err.Error())
	}
}

func runMain() error {
	log.SetFormatter(new(customFormatter))
	args := procArgs()
	setLogLevel(args.LogLevel)

	log.Info("Running version: ", version)

	conf, err := LoadConfig(args.ConfigFile)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	sense, err := adc.Open(conf.SPIPort, conf.ADCChannel)
	if err != nil {
		return err
	}
	defer sense.Close()

	meter := measure.NewReader(sense, measure.Config{
		Samples:       conf.Samples,
		Settle:        time.Duration(conf.SettleMillis) * time.Millisecond,
		VRef:          conf.VRefCal,
		MaxCount:      adc.MaxCount,
		DividerFactor: conf.DividerFactor,
	})

	renderers, cleanup, err := buildRenderers(conf)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return err
	}

	g, err := gauge.New(meter, conf.Thresholds.thresholds(), log, renderers...)
	if err != nil {
		return err
	}

	if args.Oneshot {
		_, err := g.Cycle()
		return err
	}

	if err := startService(g); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("Shutdown signal received")
		cancel()
	}()

	log.Infof("Sampling every %ds", conf.CycleSeconds)
	err = g.Run(ctx, time.Duration(conf.CycleSeconds)*time.Second)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// buildRenderers wires up the configured output collaborators. The
// returned cleanup runs on shutdown even when a later collaborator
// fails to come up.
func buildRenderers(conf *Config) ([]gauge.Renderer, func(), error) {
	var renderers []gauge.Renderer
	var cleanups []func()
	cleanup := func() {
		for _, f := range cleanups {
			f()
		}
	}

	if conf.Display.Enabled {
		bus, err := i2creg.Open(conf.Display.I2CBus)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() { bus.Close() })
		lcd, err := display.NewHD44780(bus, conf.Display.Address)
		if err != nil {
			return nil, cleanup, err
		}
		renderers = append(renderers, display.NewPanel(lcd))
		log.Infof("Display on bus %q at 0x%x", conf.Display.I2CBus, conf.Display.Address)
	}

	if conf.Indicator.Enabled {
		ind, err := indicator.Open(conf.Indicator.RedPin, conf.Indicator.YellowPin, conf.Indicator.GreenPin)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() {
			if err := ind.Off(); err != nil {
				log.Errorf("turning off indicator: %v", err)
			}
		})
		renderers = append(renderers, ind)
	}

	if conf.Console.SerialPort != "" {
		rep, err := report.OpenSerial(conf.Console.SerialPort, conf.Console.Baud)
		if err != nil {
			return nil, cleanup, err
		}
		renderers = append(renderers, rep)
		log.Infof("Cycle reports to %s", conf.Console.SerialPort)
	} else {
		renderers = append(renderers, report.New(os.Stdout))
	}

	if conf.MQTT.BrokerURL != "" {
		deviceID := conf.MQTT.DeviceID
		if deviceID == "" {
			if deviceID, _ = os.Hostname(); deviceID == "" {
				deviceID = "cell-gauge"
			}
		}
		pub, err := telemetry.NewPublisher(conf.MQTT.BrokerURL, deviceID, log)
		if err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, pub.Close)
		renderers = append(renderers, pub)
	}

	return renderers, cleanup, nil
}
