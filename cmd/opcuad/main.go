// Command opcuad runs an OPC UA server with a simulated address space.
//
// Usage:
//
//	opcuad [-config opcuad.toml]
package main

import (
	"flag"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/phsym/console-slog"
	"github.com/pkg/errors"

	"github.com/edgeworks/opcua/server"
	"github.com/edgeworks/opcua/ua"
)

type config struct {
	EndpointURL     string            `toml:"endpoint_url"`
	ApplicationName string            `toml:"application_name"`
	ApplicationURI  string            `toml:"application_uri"`
	LogLevel        string            `toml:"log_level"`
	SessionTimeout  float64           `toml:"session_timeout_ms"`
	TokenLifetime   uint32            `toml:"token_lifetime_ms"`
	MaxMessageSize  uint32            `toml:"max_message_size"`
	MaxChunkCount   uint32            `toml:"max_chunk_count"`
	WorkerThreads   int               `toml:"worker_threads"`
	AllowAnonymous  bool              `toml:"allow_anonymous"`
	Users           map[string]string `toml:"users"` // user name -> bcrypt hash
}

func defaultConfig() config {
	return config{
		EndpointURL:     "opc.tcp://localhost:4840",
		ApplicationName: "opcuad",
		ApplicationURI:  "urn:edgeworks:opcuad",
		LogLevel:        "info",
		AllowAnonymous:  true,
	}
}

func main() {
	configPath := flag.String("config", "", "path to TOML configuration")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			slog.Error("loading configuration", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithAuthenticator(server.NewBcryptAuthenticator(cfg.Users, cfg.AllowAnonymous)),
	}
	if cfg.SessionTimeout > 0 {
		opts = append(opts, server.WithSessionTimeout(cfg.SessionTimeout))
	}
	if cfg.TokenLifetime > 0 {
		opts = append(opts, server.WithTokenLifetime(cfg.TokenLifetime))
	}
	if cfg.MaxMessageSize > 0 {
		opts = append(opts, server.WithMaxMessageSize(cfg.MaxMessageSize))
	}
	if cfg.MaxChunkCount > 0 {
		opts = append(opts, server.WithMaxChunkCount(cfg.MaxChunkCount))
	}
	if cfg.WorkerThreads > 0 {
		opts = append(opts, server.WithMaxWorkerThreads(cfg.WorkerThreads))
	}

	srv, err := server.New(
		ua.ApplicationDescription{
			ApplicationURI:  cfg.ApplicationURI,
			ProductURI:      "https://github.com/edgeworks/opcua",
			ApplicationName: ua.NewLocalizedText(cfg.ApplicationName, "en"),
			ApplicationType: ua.ApplicationTypeServer,
			DiscoveryURLs:   []string{cfg.EndpointURL},
		},
		cfg.EndpointURL,
		opts...,
	)
	if err != nil {
		return errors.Wrap(err, "creating server")
	}

	stop := simulate(srv.Namespace())
	defer close(stop)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		srv.Close()
	}()

	err = srv.ListenAndServe()
	if err == ua.BadServerHalted {
		return nil
	}
	return err
}

// simulate populates the address space with a handful of variables and
// feeds them fresh values once a second.
func simulate(ns *server.Namespace) chan struct{} {
	now := time.Now()
	temperature := server.NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Temperature"),
		ua.NewQualifiedName(2, "Temperature"),
		ua.NewDataValue(20.0, ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead,
		100,
		&ua.Range{Low: -40, High: 120},
	)
	pressure := server.NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Pressure"),
		ua.NewQualifiedName(2, "Pressure"),
		ua.NewDataValue(1013.25, ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead,
		100,
		&ua.Range{Low: 800, High: 1200},
	)
	counter := server.NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Counter"),
		ua.NewQualifiedName(2, "Counter"),
		ua.NewDataValue(uint32(0), ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead,
		0,
		nil,
	)
	setpoint := server.NewVariableNode(
		ua.NewNodeIDString(2, "Demo.Setpoint"),
		ua.NewQualifiedName(2, "Setpoint"),
		ua.NewDataValue(50.0, ua.Good, now, 0, now, 0),
		ua.AccessLevelsCurrentRead|ua.AccessLevelsCurrentWrite,
		0,
		&ua.Range{Low: 0, High: 100},
	)
	ns.AddVariable(temperature)
	ns.AddVariable(pressure)
	ns.AddVariable(counter)
	ns.AddVariable(setpoint)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var n uint32
		for {
			select {
			case <-ticker.C:
				n++
				phase := float64(n) / 30 * 2 * math.Pi
				temperature.SetValueNow(20 + 5*math.Sin(phase) + rand.Float64()/2)
				pressure.SetValueNow(1013.25 + 10*math.Cos(phase) + rand.Float64())
				counter.SetValueNow(n)
			case <-stop:
				return
			}
		}
	}()
	return stop
}
