// Package main runs a deployment-station check against the workload fleet.
// It exits 0 when every host answers 200 on the station's route, and 1
// otherwise.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"workload/internal/logger"
	"workload/internal/station"
	"workload/internal/version"
)

func main() {
	stationName := flag.String("station", "test", "Deployment station: "+strings.Join(station.ValidStations(), ", "))
	hosts := flag.String("hosts", strings.Join(station.DefaultHosts, ","), "Comma separated hosts to check")
	port := flag.Int("port", station.DefaultPort, "Port the workloads listen on")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	format := flag.String("log-format", "text", "Log format (text or json)")
	flag.Parse()

	// A positional station argument is also accepted.
	if flag.NArg() > 0 {
		*stationName = flag.Arg(0)
	}

	log := logger.New(os.Stdout, *format, slog.LevelInfo, version.GetInfo())

	var targets []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			targets = append(targets, h)
		}
	}

	log.Info("Testing billing app", "station", *stationName, "hosts", targets)

	client := &http.Client{Timeout: *timeout}
	err := station.Run(context.Background(), client, *stationName, targets,
		station.WithPort(*port),
		station.WithLogger(log),
	)
	if err != nil {
		log.Error("Station check failed", "error", err)
		os.Exit(1)
	}
	log.Info("Station check passed", "station", *stationName)
}
