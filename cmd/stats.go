package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gober/internal/knowledge"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print statistics about the stored corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		return printStats(svc)
	},
}

func printStats(svc *knowledge.Service) error {
	stats, err := svc.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("Total chunks:   %d\n", stats.TotalChunks)
	fmt.Printf("Unique sources: %d\n", stats.UniqueSources)

	if len(stats.DocumentTypes) > 0 {
		fmt.Println("\nBy document type:")
		types := make([]string, 0, len(stats.DocumentTypes))
		for t := range stats.DocumentTypes {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %-24s %d\n", t, stats.DocumentTypes[t])
		}
	}

	if len(stats.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range stats.Sources {
			fmt.Printf("  %s\n", s)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
