package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/templui/goalsetter/internal/repository"
	"github.com/templui/goalsetter/internal/service"
)

func BackfillCmd() *cobra.Command {
	var dryRun bool

	backfillCmd := &cobra.Command{
		Use:   "backfill-legacy",
		Short: "Upgrade goals created before titles existed",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			backfill := service.NewLegacyBackfill(repository.NewGoalRepository(conn))
			result, err := backfill.Run(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			verb := "migrated"
			if dryRun {
				verb = "would migrate"
			}
			fmt.Printf("scanned %d, %s %d\n", result.Scanned, verb, result.Migrated)
			if len(result.Skipped) > 0 {
				fmt.Printf("skipped (still invalid): %s\n", strings.Join(result.Skipped, ", "))
			}
			return nil
		},
	}

	backfillCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	return backfillCmd
}
