package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/roofline/internal/cli"
	"github.com/alexanderramin/roofline/internal/config"
	"github.com/alexanderramin/roofline/internal/db"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/alexanderramin/roofline/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// --config has to be known before the database opens, ahead of cobra.
	cfg, err := config.Load(cli.ConfigPathFromArgs(os.Args[1:]))
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	userRepo := repository.NewSQLiteUserRepo(database)
	customerRepo := repository.NewSQLiteCustomerRepo(database)
	jobRepo := repository.NewSQLiteJobRepo(database)
	entryRepo := repository.NewSQLiteTimeEntryRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	opts := service.DefaultOptions()
	opts.Location = cfg.Location()
	opts.Hours = cfg.HoursPolicy()
	observer := service.NewLogUseCaseObserver(logger)

	app := &cli.App{
		Ledger:    service.NewTimeTrackingService(entryRepo, jobRepo, userRepo, uow, opts, observer),
		Jobs:      service.NewJobService(jobRepo, uow, opts, observer),
		Customers: service.NewCustomerService(customerRepo, userRepo, opts),
		Users:     service.NewUserService(userRepo, customerRepo, opts),
		Config:    cfg,
		Logger:    logger,
	}

	// Detect interactive terminal for the clock-in job picker.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	logger.Debug("roofline_start", "db", cfg.Database.Path, "timezone", cfg.Ledger.Timezone)
	return cli.NewRootCmd(app).Execute()
}
