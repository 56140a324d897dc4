package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/decred/slog"

	"liaptui/config"
	"liaptui/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("MAIN")
	log.SetLevel(slog.LevelInfo)
	if *debug {
		log.SetLevel(slog.LevelDebug)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Errorf("config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	srv := server.NewServer(cfg, backend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.ListenPort)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Errorf("server: %v", err)
		srv.Rooms().CloseAll("server error")
		os.Exit(1)
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
		srv.Rooms().CloseAll("server shutdown")
	}
}
