package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"click-war/cmd/clickcli"
	"click-war/internal/config"
	"click-war/internal/logger"
	"click-war/internal/realtime"
	"click-war/service/clicks"
	"click-war/service/httpserver"
)

func main() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	ensureDefaultCredentials("service-account.json")

	configPath := flag.String("config", "", "Firebase web config JSON file (or FIREBASE_CONFIG)")
	serve := flag.Bool("serve", false, "Run the HTTP service instead of the interactive CLI")
	addr := flag.String("addr", "", "HTTP listen address (default HTTP_ADDRESS or :8080)")
	team := flag.String("team", "", "Team to click for (default CLICKWAR_TEAM)")
	poll := flag.Duration("poll", 0, "Subscription poll interval (default REALTIME_POLL_INTERVAL or 1s)")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-request timeout in the CLI")
	flag.Parse()

	log := logger.NewConsoleLogger("clickcli")
	if *serve {
		log = logger.NewLogger("server")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	if *addr != "" {
		cfg.HTTPAddress = *addr
	}
	if *team != "" {
		cfg.Team = *team
	}
	if *poll > 0 {
		cfg.PollInterval = *poll
	}
	log.Debug().Interface("firebase", cfg.Firebase.Redacted()).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := realtime.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect realtime database")
	}
	svc, err := clicks.New(rt, log.With("component", "clicks"))
	if err != nil {
		log.Fatal().Err(err).Msg("init clicks service")
	}

	if *serve {
		err = httpserver.Run(ctx, httpserver.Config{Addr: cfg.HTTPAddress}, svc, log)
	} else {
		err = clickcli.Run(ctx, clickcli.Config{Team: cfg.Team, Timeout: *timeout}, svc)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("run")
	}
}

func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("invalid .env line %d: %s", lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set env %s: %w", key, err)
		}
	}

	return scanner.Err()
}

func ensureDefaultCredentials(path string) {
	if strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != "" {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", abs)
}
