// Command unihan-import loads the Unihan radical table and property files
// into PostgreSQL. It is intended to be run offline, not as part of the
// main server.
//
// Flags:
//
//	--phase            comma-separated list of phases to run (default: all)
//	--dry-run          parse the dataset without connecting to the DB
//	--migrate          apply pending schema migrations first
//	--importer-config  path to importer YAML config file
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/unihan"
	"github.com/heartmarshall/hanzi-backend/internal/app"
	"github.com/heartmarshall/hanzi-backend/internal/app/importer"
	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/migrations"
)

// Compile-time interface assertion.
var _ importer.UnihanBulkRepo = (*unihan.Repo)(nil)

func main() {
	phaseFlag := flag.String("phase", "", "comma-separated phases to run (default: all)")
	dryRunFlag := flag.Bool("dry-run", false, "parse the dataset without connecting to the DB")
	migrateFlag := flag.Bool("migrate", false, "apply pending schema migrations first")
	importerConfigFlag := flag.String("importer-config", "", "path to importer YAML config file")
	flag.Parse()

	// A dry run never touches the database, so it needs no DSN.
	dryRun := *dryRunFlag
	if dryRun && *migrateFlag {
		log.Fatal("--migrate writes to the database and cannot be combined with --dry-run")
	}

	var appCfg *config.Config
	var logCfg config.LogConfig
	if dryRun {
		var err error
		if logCfg, err = config.LoadLog(); err != nil {
			log.Fatalf("load log config: %v", err)
		}
	} else {
		var err error
		if appCfg, err = config.Load(); err != nil {
			log.Fatalf("load app config: %v", err)
		}
		logCfg = appCfg.Log
	}

	logger := app.NewLogger(logCfg)

	importerCfg, err := importer.LoadConfig(*importerConfigFlag)
	if err != nil {
		logger.Error("load importer config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// CLI flags override config.
	if dryRun {
		importerCfg.DryRun = true
	}

	var phases []string
	if *phaseFlag != "" {
		phases = strings.Split(*phaseFlag, ",")
		for i := range phases {
			phases[i] = strings.TrimSpace(phases[i])
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	// The dry-run path of the pipeline never calls the repository.
	var repo importer.UnihanBulkRepo
	if !importerCfg.DryRun {
		if *migrateFlag {
			applied, err := postgres.Migrate(ctx, appCfg.Database.DSN, migrations.FS)
			if err != nil {
				logger.Error("apply migrations", slog.String("error", err.Error()))
				os.Exit(1)
			}
			logger.Info("migrations applied", slog.Int("count", applied))
		}

		pool, err := postgres.NewPool(ctx, appCfg.Database)
		if err != nil {
			logger.Error("connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		repo = unihan.New(pool, postgres.NewTxManager(pool))
	} else {
		logger.Info("dry run: no database connection")
	}

	pipeline := importer.NewPipeline(logger, repo, *importerCfg)
	if err := pipeline.Run(ctx, phases); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import completed successfully")
}
