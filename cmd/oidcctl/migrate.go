package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/config"
)

type migrateOptions struct {
	DatabaseURL    string
	MigrationsPath string
}

func init() {
	rootCmd.AddCommand(newMigrateCommand())
}

func newMigrateCommand() *cobra.Command {
	var mopts migrateOptions

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the token store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	migrateCmd.PersistentFlags().StringVar(&mopts.DatabaseURL, "database-url", "", "Database connection URL. Defaults to the IDM_PG_* settings.")
	migrateCmd.PersistentFlags().StringVar(&mopts.MigrationsPath, "migrations-path", "migrations", "Path or source URL for migration files.")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up [steps]",
		Short: "Run schema migrations up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, hasSteps, err := parseMigrationStepsArg(args)
			if err != nil {
				return err
			}
			runner, sourceURL, err := newMigrationRunner(mopts)
			if err != nil {
				return err
			}
			defer closeMigrationRunner(cmd, runner)

			if hasSteps {
				err = runner.Steps(steps)
			} else {
				err = runner.Up()
			}
			if err != nil {
				if isNoChangeBoundaryError(err) {
					cmd.Println("No schema changes to apply.")
					return nil
				}
				var shortLimit migrate.ErrShortLimit
				if hasSteps && errors.As(err, &shortLimit) {
					cmd.Printf("Applied %d migration step(s) from %s (reached migration boundary)\n", steps-int(shortLimit.Short), sourceURL)
					return nil
				}
				return fmt.Errorf("apply migrations: %w", err)
			}

			cmd.Printf("Applied migrations from %s\n", sourceURL)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down <steps>",
		Short: "Roll back schema migrations by step count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _, err := parseMigrationStepsArg(args)
			if err != nil {
				return err
			}
			runner, sourceURL, err := newMigrationRunner(mopts)
			if err != nil {
				return err
			}
			defer closeMigrationRunner(cmd, runner)

			if err := runner.Steps(-steps); err != nil {
				if isNoChangeBoundaryError(err) {
					cmd.Println("No schema changes to roll back.")
					return nil
				}
				var shortLimit migrate.ErrShortLimit
				if errors.As(err, &shortLimit) {
					cmd.Printf("Rolled back %d migration step(s) from %s (reached migration boundary)\n", steps-int(shortLimit.Short), sourceURL)
					return nil
				}
				return fmt.Errorf("roll back migrations: %w", err)
			}

			cmd.Printf("Rolled back %d migration step(s) from %s\n", steps, sourceURL)
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, err := newMigrationRunner(mopts)
			if err != nil {
				return err
			}
			defer closeMigrationRunner(cmd, runner)

			version, dirty, err := runner.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				cmd.Println("No migrations applied.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			cmd.Printf("%d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return migrateCmd
}

func parseMigrationStepsArg(args []string) (int, bool, error) {
	if len(args) == 0 {
		return 0, false, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || steps <= 0 {
		return 0, false, fmt.Errorf("invalid migration steps %q: expected a positive integer", args[0])
	}
	return steps, true, nil
}

func resolveDatabaseURL(flagValue string) (string, string, error) {
	if databaseURL := strings.TrimSpace(flagValue); databaseURL != "" {
		return databaseURL, "", nil
	}
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return "", "", err
	}
	return cfg.Database.ToDatabaseURL(), cfg.Database.Schema, nil
}

func newMigrationRunner(mopts migrateOptions) (*migrate.Migrate, string, error) {
	databaseURL, schema, err := resolveDatabaseURL(mopts.DatabaseURL)
	if err != nil {
		return nil, "", err
	}
	if err := ensureSchemaExists(databaseURL, schema); err != nil {
		return nil, "", err
	}

	sourceURL, err := resolveMigrationsSourceURL(mopts.MigrationsPath)
	if err != nil {
		return nil, "", err
	}

	runner, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("create migrate runner: %w", err)
	}
	return runner, sourceURL, nil
}

// ensureSchemaExists creates the configured search_path schema so the
// migrations table can live in it.
func ensureSchemaExists(databaseURL, schema string) error {
	if schema == "" || schema == "public" {
		return nil
	}

	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	db, err := sql.Open("postgres", migrate.FilterCustomQuery(parsed).String())
	if err != nil {
		return fmt.Errorf("open database for schema bootstrap: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE SCHEMA IF NOT EXISTS " + pq.QuoteIdentifier(schema)); err != nil {
		return fmt.Errorf("ensure schema %q exists: %w", schema, err)
	}
	return nil
}

func resolveMigrationsSourceURL(migrationsPath string) (string, error) {
	pathOrURL := strings.TrimSpace(migrationsPath)
	if pathOrURL == "" {
		pathOrURL = "migrations"
	}
	if strings.Contains(pathOrURL, "://") {
		return pathOrURL, nil
	}

	absPath, err := filepath.Abs(pathOrURL)
	if err != nil {
		return "", fmt.Errorf("resolve migrations path %q: %w", pathOrURL, err)
	}
	return "file://" + filepath.ToSlash(absPath), nil
}

func closeMigrationRunner(cmd *cobra.Command, runner *migrate.Migrate) {
	sourceErr, databaseErr := runner.Close()
	if err := errors.Join(sourceErr, databaseErr); err != nil {
		cmd.PrintErrf("warning: failed to close migration runner cleanly: %v\n", err)
	}
}

func isNoChangeBoundaryError(err error) bool {
	if errors.Is(err, migrate.ErrNoChange) {
		return true
	}
	// Steps returns a bare os.ErrNotExist at the first or last migration.
	return err == os.ErrNotExist
}
