package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	flagK    int
	flagType string
)

var (
	sourceStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed documents and print ranked chunks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		svc, _, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		results, err := svc.SearchDocuments(ctx, query, flagK, flagType)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println(dimStyle.Render("No results."))
			return nil
		}

		for i, r := range results {
			loc := ""
			if r.Chunk.Page > 0 {
				loc = fmt.Sprintf("página %d", r.Chunk.Page)
			} else if r.Chunk.Sheet != "" {
				loc = fmt.Sprintf("hoja %s, filas %s", r.Chunk.Sheet, r.Chunk.RowRange)
			}
			fmt.Printf("%s %s %s\n",
				scoreStyle.Render(fmt.Sprintf("%2d. [%.1f%%]", i+1, r.Relevance*100)),
				sourceStyle.Render(r.Chunk.Source),
				dimStyle.Render(fmt.Sprintf("(%s, %s)", r.Chunk.DocumentType, loc)),
			)
			snippet := r.Chunk.Content
			if idx := strings.IndexByte(snippet, '\n'); idx >= 0 {
				snippet = snippet[:idx]
			}
			if len(snippet) > 160 {
				snippet = snippet[:160] + "..."
			}
			fmt.Printf("    %s\n\n", snippet)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagK, "k", 5, "number of chunks to retrieve")
	searchCmd.Flags().StringVar(&flagType, "type", "", "restrict to one document type")
	rootCmd.AddCommand(searchCmd)
}
