package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/game"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/httpserver"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/rules"
	"github.com/Alfheimr-Chess/alfheimr-server/internal/store"
)

const banner = `
    _    _  __ _          _
   / \  | |/ _| |__   ___(_)_ __ ___  _ __
  / _ \ | | |_| '_ \ / _ \ | '_ ' _ \| '__|
 / ___ \| |  _| | | |  __/ | | | | | | |
/_/   \_\_|_| |_| |_|\___|_|_| |_| |_|_|
`

func main() {
	_ = godotenv.Load()

	port := flag.String("port", getEnv("PORT", "1126"), "listen port")
	gameFile := flag.String("game", getEnv("GAME_FILE", ""), "ruleset YAML file (default: bundled standard chess)")
	dbPath := flag.String("db", getEnv("DB_PATH", "./data/alfheimr.db"), "SQLite archive path; empty keeps games in memory")
	logLevel := flag.String("loglevel", getEnv("LOG_LEVEL", "info"), "trace|debug|info|warn|error")
	noBanner := flag.Bool("no-banner", getEnv("NO_BANNER", "") != "", "skip the startup banner")
	flag.Parse()

	if lvl, err := zerolog.ParseLevel(*logLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if !*noBanner {
		fmt.Fprint(os.Stderr, banner)
	}

	if err := run(*port, *gameFile, *dbPath); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(port, gameFile, dbPath string) error {
	rs, err := loadRuleset(gameFile)
	if err != nil {
		return err
	}
	log.Info().Str("ruleset", rs.Name).Int("colors", len(rs.Colors)).Int("pieces", len(rs.Pieces)).Msg("rules loaded")

	st, db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	if secret == "dev_secret_change_me" {
		log.Warn().Msg("JWT_SECRET not set; seat tokens use a development secret")
	}
	seats := newSeats(secret, time.Duration(envInt("SEAT_TOKEN_HOURS", 24))*time.Hour)

	hub := httpserver.NewHub()
	sess := game.NewSession(game.New(rs, st, seats), hub)
	srv := httpserver.New(httpserver.Config{
		Session:      sess,
		Hub:          hub,
		Store:        st,
		Ruleset:      rs,
		Admin:        requireAdmin(os.Getenv("ADMIN_PASSWORD_HASH")),
		ClientOrigin: os.Getenv("CLIENT_ORIGIN"),
	})
	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sess.Run(ctx) })
	g.Go(func() error {
		log.Info().Str("port", port).Msg("starting alfheimr-server")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func loadRuleset(path string) (*rules.Ruleset, error) {
	if path == "" {
		return rules.Default()
	}
	return rules.LoadFile(path)
}

// openStore returns the SQLite archive at path, or an in-memory store when
// path is empty.
func openStore(path string) (store.Store, *sql.DB, error) {
	if path == "" {
		log.Info().Msg("archive: memory")
		return store.NewMemoryStore(), nil, nil
	}
	db, err := openDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", path).Msg("archive: sqlite")
	return store.NewSQLiteStore(db), db, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
