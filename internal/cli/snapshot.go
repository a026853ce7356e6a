package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goPriceOracle/internal/snapshot"
	"github.com/LeJamon/goPriceOracle/internal/storage/database"
)

var snapshotBatch int

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import the oracle state",
	Long: `Copy the oracle state database to or from a compressed snapshot file.
The daemon must not be running against the same database.`,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the configured database to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.Database.Backend, cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		n, err := snapshot.Export(cmd.Context(), db, f, time.Now())
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", n, args[0])
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a snapshot file into the configured database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		db, err := database.Open(cfg.Database.Backend, cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := snapshot.Import(cmd.Context(), db, f, snapshotBatch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records from %s\n", n, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd)

	snapshotImportCmd.Flags().IntVar(&snapshotBatch, "batch", snapshot.DefaultBatchSize, "records written per database batch")
}
