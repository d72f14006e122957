package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/basel-ax/gallery/internal/config"
	"github.com/basel-ax/gallery/internal/domain"
	"github.com/basel-ax/gallery/internal/infrastructure/terminal"
	"github.com/basel-ax/gallery/internal/logging"
	"github.com/basel-ax/gallery/internal/objectstore"
	"github.com/basel-ax/gallery/internal/repository"
	"github.com/basel-ax/gallery/internal/service"
	"github.com/basel-ax/gallery/internal/view"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: %s [flags] <command>

Commands:
  list                 show the image history
  delete <id>          delete one image
  clear                delete all images
  add [flags]          add an image to the history (see add -h)
  watch                refresh the history on a schedule

Flags:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	yes := flag.Bool("yes", false, "Confirm destructive actions without prompting")
	locale := flag.String("locale", "", "Display locale, overrides DISPLAY_LOCALE")
	schedule := flag.String("schedule", "", "Cron schedule for watch, overrides WATCH_SCHEDULE")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *locale != "" {
		cfg.DisplayLocale = *locale
	}
	if *schedule != "" {
		cfg.WatchSchedule = *schedule
	}
	if err := logging.Init(cfg.Log); err != nil {
		logging.Fatalf("Failed to initialize logger: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Infof("Received signal: %v, initiating shutdown...", sig)
		cancel()
	}()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logging.Fatalf("Failed to open image history: %v", err)
	}
	defer closeRepo()

	var confirmer service.Confirmer = terminal.NewConfirmer(os.Stdin, os.Stderr)
	if *yes {
		confirmer = service.AlwaysConfirm
	}

	a := &app{
		repo:     repo,
		view:     service.NewHistoryView(repo, confirmer, service.WithFetchTimeout(cfg.FetchTimeout)),
		out:      os.Stdout,
		schedule: cfg.WatchSchedule,
		render: view.Options{
			Locale:   cfg.DisplayLocale,
			Location: cfg.DisplayLocation,
		},
	}

	if err := a.run(ctx, flag.Args()); err != nil {
		closeRepo()
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		logging.Fatalf("%v", err)
	}
}

// openRepository opens the configured history store, wrapping it with object cleanup when OSS is configured
func openRepository(ctx context.Context, cfg *config.Config) (domain.HistoryRepository, func(), error) {
	var (
		repo    domain.HistoryRepository
		closeFn func()
	)

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		logging.Debugf("Initializing database connection...")
		db, err := sql.Open("postgres", cfg.GetDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

		pg := repository.NewPostgresHistoryRepository(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		repo, closeFn = pg, func() { db.Close() }
	default:
		logging.Debugf("Opening SQLite history at %s", cfg.SQLitePath)
		lite, err := repository.NewSQLiteHistoryRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, closeFn = lite, func() { lite.Close() }
	}

	if cfg.OSS.Enabled() {
		remover, err := objectstore.NewS3Remover(ctx, cfg.OSS)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		repo = repository.NewCleanupRepository(repo, remover)
		logging.WithField("bucket", cfg.OSS.Bucket).Debug("Image object cleanup enabled")
	}

	return repo, closeFn, nil
}
