package cmd

import (
	"fmt"
	"io/fs"
	"os"

	"sensei-backoffice/internal/config"
	"sensei-backoffice/migrations"

	"github.com/spf13/cobra"
)

var flagMigrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema files in name order",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&flagMigrationsDir, "dir", "", "Read .sql files from this directory instead of the embedded set")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(c *cobra.Command, _ []string) error {
	ctx := commandContext(c)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fsys := migrations.FS()
	if flagMigrationsDir != "" {
		fsys = os.DirFS(flagMigrationsDir)
	}
	names, err := migrations.Names(fsys)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("migrate: no .sql files found")
	}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", name, err)
		}
		fmt.Printf("  applied %s\n", name)
	}
	return nil
}
