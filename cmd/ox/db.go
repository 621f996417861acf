package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/blueox/schedule/internal/config"
	"github.com/blueox/schedule/internal/db"
	"github.com/blueox/schedule/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	cmd.AddCommand(newDBImportCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the schedule database",
		Long:  "Creates the database (MySQL/Dolt), migrates all tables and imports the seed feed when one is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded config for %q from %s\n", cfg.Company, configPath)

	if cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Connected to %s:%d\n", cfg.Database.Host, cfg.Database.Port)
		if err := db.CreateDatabase(adminDB, cfg.Database.Database); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Database)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", databaseName(cfg), err)
	}
	if err := migrateAndSeed(cmd, cfg, gormDB); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSchedule database initialized successfully.")
	return nil
}

// migrateAndSeed migrates every table and imports cfg.Seed.Path if set.
func migrateAndSeed(cmd *cobra.Command, cfg *config.Config, gormDB *gorm.DB) error {
	out := cmd.OutOrStdout()
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if cfg.Seed.Path == "" {
		return nil
	}
	n, err := importFeed(gormDB, cfg.Seed.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d tasks from %s\n", n, cfg.Seed.Path)
	return nil
}

func importFeed(gormDB *gorm.DB, path string) (int, error) {
	tasks, err := store.LoadFeed(path)
	if err != nil {
		return 0, err
	}
	return db.ImportTasks(gormDB, tasks)
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the schedule database",
		Long: `Drops every schedule table (SQLite) or the whole database (MySQL/Dolt),
then re-initializes it: migrate and import the seed feed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	name := databaseName(cfg)

	if !skipConfirm {
		if !confirmReset(cmd, name) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.DropDatabase(adminDB, name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped database %s\n", name)
		if err := db.CreateDatabase(adminDB, name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s re-created\n", name)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", name, err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := gormDB.Migrator().DropTable(db.AllModels()...); err != nil {
			return fmt.Errorf("drop tables in %s: %w", name, err)
		}
		fmt.Fprintf(out, "Dropped tables in %s\n", name)
	}
	if err := migrateAndSeed(cmd, cfg, gormDB); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSchedule database reset and re-initialized successfully.")
	return nil
}

func newDBImportCmd() *cobra.Command {
	var (
		configPath string
		replace    bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import tasks from a JSON feed",
		Long:  "Inserts every record of a static JSON task feed. With --replace, existing tasks are deleted first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBImport(cmd, configPath, args[0], replace)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to ox config file")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing tasks before importing")
	return cmd
}

func runDBImport(cmd *cobra.Command, configPath, path string, replace bool) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if replace {
		if err := db.ClearTasks(gormDB); err != nil {
			return err
		}
	}
	n, err := importFeed(gormDB, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks from %s\n", n, path)
	return nil
}

func confirmReset(cmd *cobra.Command, dbName string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in %q.\n", dbName)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
