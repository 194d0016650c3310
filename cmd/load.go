package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagClear     bool
	flagShowStats bool
	flagTest      bool
)

// testQueries exercises the index after a load, the way an operator would
// spot-check it before pointing the agent at it.
var testQueries = []string{
	"Plan de Desarrollo Departamental",
	"inversión en educación",
	"proyectos de infraestructura vial",
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Ingest the corpus directory into the vector database",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		fmt.Printf("Loading documents from %s...\n", cfg.DataDir)
		start := time.Now()

		stats, err := svc.Load(cmd.Context(), flagClear)
		if stats != nil {
			fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("  Files:   %d total, %d loaded, %d failed\n",
				stats.FilesTotal, stats.FilesLoaded, stats.FilesFailed)
			fmt.Printf("  Chunks:  %d\n", stats.Chunks)
		}
		if err != nil {
			return err
		}

		if flagShowStats {
			if err := printStats(svc); err != nil {
				return err
			}
		}

		if flagTest {
			fmt.Println("\nRunning test queries...")
			for _, q := range testQueries {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				results, err := svc.SearchDocuments(ctx, q, 3, "")
				cancel()
				if err != nil {
					return fmt.Errorf("test query %q: %w", q, err)
				}
				fmt.Printf("\n%q -> %d results\n", q, len(results))
				for i, r := range results {
					fmt.Printf("  %d. [%.1f%%] %s\n", i+1, r.Relevance*100, r.Chunk.Source)
				}
			}
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().BoolVar(&flagClear, "clear", false, "clear the database before loading")
	loadCmd.Flags().BoolVar(&flagShowStats, "stats", false, "print database statistics after loading")
	loadCmd.Flags().BoolVar(&flagTest, "test", false, "run test queries after loading")
	rootCmd.AddCommand(loadCmd)
}
