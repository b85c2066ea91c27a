// Command insulation-sim runs one emulated insulation test and prints the
// measurement record as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/synaptecltd/insulation"
	"go.uber.org/zap"
)

type snapshotLogger struct {
	insulation.NopListener
	logger *zap.Logger
}

func (p snapshotLogger) OnSnapshot(s insulation.Snapshot) {
	p.logger.Info("snapshot",
		zap.String("id", s.ID),
		zap.Float64("voltage", s.Voltage),
		zap.Float64("resistance", s.Reading.Resistance),
		zap.Float64("current", s.Reading.Current),
	)
}

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	modeName := flag.String("mode", "spot", "test mode: spot, discharge, step or ramp")
	voltage := flag.Float64("voltage", 5000, "target test voltage in volts")
	scenarioName := flag.String("scenario", "", "force a scenario instead of drawing one")
	realtime := flag.Bool("realtime", false, "tick at the instrument's period instead of as fast as possible")
	charts := flag.Bool("charts", false, "include reduced chart series in the output")
	flag.Parse()

	cfg := insulation.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = insulation.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger, err := insulation.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(os.Stdout, cfg, logger, *modeName, *voltage, *scenarioName, *realtime, *charts); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(w io.Writer, cfg insulation.Config, logger *zap.Logger, modeName string, voltage float64, scenarioName string, realtime, charts bool) error {
	mode, err := insulation.ParseMode(modeName)
	if err != nil {
		return err
	}

	driver := insulation.NewDriver(cfg, logger, snapshotLogger{logger: logger})
	if scenarioName != "" {
		sc, err := insulation.ParseScenario(mode, scenarioName)
		if err != nil {
			return err
		}
		err = driver.StartScenario(mode, voltage, sc)
	} else {
		err = driver.Start(mode, voltage)
	}
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if realtime {
		if err := driver.Run(ctx); err != nil {
			logger.Warn("interrupted", zap.Error(err))
			driver.Stop()
		}
	} else {
		for driver.Tick() {
			if ctx.Err() != nil {
				driver.Stop()
				break
			}
		}
	}

	records := driver.Records()
	if len(records) == 0 {
		return fmt.Errorf("no measurement record produced")
	}

	out := struct {
		Record insulation.MeasurementRecord `json:"record"`
		Charts []insulation.Chart           `json:"charts,omitempty"`
	}{Record: records[len(records)-1]}
	if charts {
		out.Charts = driver.Charts()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
