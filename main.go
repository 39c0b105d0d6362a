package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"roadsim/driver"
	"roadsim/model"
	"roadsim/server"
	"roadsim/sim"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address for the GUI bridge")
	grid := flag.Float64("grid", model.DefaultGrid, "grid cell size in world units")
	night := flag.Bool("night", false, "start with night mode on (all lights constant yellow)")
	networkPath := flag.String("network", "", "network JSON to load at startup (empty starts blank)")
	batch := flag.Bool("batch", false, "run a headless batch simulation and exit")
	vehicles := flag.Int("vehicles", 4, "batch mode: vehicles to spawn")
	duration := flag.Duration("duration", 30*time.Second, "batch mode: wall-clock cap")
	report := flag.String("report", "", "batch mode: CSV report path or directory")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if *batch {
		_, err := driver.Run(driver.Options{
			NetworkPath: *networkPath,
			Vehicles:    *vehicles,
			Duration:    *duration,
			ReportPath:  *report,
			Night:       *night,
			Grid:        *grid,
		})
		if err != nil {
			log.WithError(err).Fatal("batch run failed")
		}
		return
	}

	world := model.NewWorld(*grid)
	lights := sim.NewLightController(world, time.Now())
	runner := sim.NewRunner(world, lights, sim.Options{})
	runner.SetNight(*night)

	srv := server.New(runner, server.Options{Addr: *addr})
	if *networkPath != "" {
		if err := srv.LoadNetworkFile(*networkPath); err != nil {
			log.WithError(err).WithField("path", *networkPath).Fatal("network load failed")
		}
	}
	srv.Serve()

	log.WithField("addr", *addr).Info("serving")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.WithError(err).Error("server exited")
		os.Exit(1)
	}
}
