// Command migrate inspects and changes the Inkwell database schema.
//
//	migrate up            apply pending SQL migrations
//	migrate auto          run GORM AutoMigrate for every model
//	migrate status        show what DB_SCHEMA_MODE would do
//	migrate list          list embedded migrations and whether each is applied
//	migrate down VERSION  revert one SQL migration
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/database"

	"gorm.io/gorm"
)

type command func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string, out io.Writer) error

var commands = map[string]command{
	"up":     migrateUp,
	"auto":   migrateAuto,
	"status": schemaStatus,
	"list":   listMigrations,
	"down":   migrateDown,
}

var errUsage = errors.New("usage: migrate <up|auto|status|list|down> [version]")

func main() {
	if len(os.Args) < 2 {
		log.Fatal(errUsage)
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(os.Args[1]))]
	if !ok {
		log.Fatal(errUsage)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := cmd(context.Background(), db, cfg, os.Args[2:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func migrateUp(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string, out io.Writer) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	_, err := fmt.Fprintln(out, "sql migrations applied")
	return err
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string, out io.Writer) error {
	auto := *cfg
	auto.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, &auto); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	_, err := fmt.Fprintln(out, "automigrations applied")
	return err
}

func schemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string, out io.Writer) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	fmt.Fprintf(out, "mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
		status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
		len(status.AppliedVersions), len(status.Pending))
	for _, m := range status.Pending {
		fmt.Fprintf(out, "pending: %s\n", m)
	}
	return nil
}

func listMigrations(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string, out io.Writer) error {
	applied, err := database.NewMigrationStore(db).AppliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("read applied versions: %w", err)
	}
	for _, m := range database.Migrations() {
		mark := " "
		if slices.Contains(applied, m.Version) {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %s\n", mark, m)
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string, out io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	_, err = fmt.Fprintf(out, "rolled back migration %d\n", version)
	return err
}
