// Command portalmock serves an in-memory captive portal API for local
// development, seeded from a YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/captiveportal/pkg/config"
	"github.com/dmitrymomot/captiveportal/pkg/httpserver"
	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/portaltest"
)

type appConfig struct {
	Log  logger.Config
	HTTP httpserver.Config
	// SeedFile is a YAML document with users, plans, payments and references.
	SeedFile string `env:"PORTALMOCK_SEED"`
	// Prefix is where the API is mounted, matching PORTAL_API_URL of clients.
	Prefix string `env:"PORTALMOCK_PREFIX" envDefault:"/api"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "portalmock:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, logOut io.Writer) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	fs := flag.NewFlagSet("portalmock", flag.ContinueOnError)
	fs.StringVar(&cfg.HTTP.Addr, "addr", cfg.HTTP.Addr, "listen address")
	fs.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML seed file")
	fs.StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "API mount path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.Log, logger.WithOutput(logOut), logger.WithAttr(logger.Component("portalmock")))
	if err != nil {
		return err
	}

	mock := portaltest.New()
	if cfg.SeedFile != "" {
		if err := loadSeed(mock, cfg.SeedFile); err != nil {
			return err
		}
		log.InfoContext(ctx, "seed loaded", slog.String("file", cfg.SeedFile))
	}

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "portal api ready", slog.String("url", fmt.Sprintf("http://%s%s", addr, cfg.Prefix)))

	return srv.Run(ctx, router(mock, cfg.Prefix))
}

func router(mock *portaltest.Server, prefix string) chi.Router {
	r := chi.NewRouter()
	if prefix == "" || prefix == "/" {
		r.Mount("/", mock.Handler())
		return r
	}
	r.Mount(prefix, mock.Handler())
	return r
}

func loadSeed(mock *portaltest.Server, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return mock.LoadSeed(f)
}
