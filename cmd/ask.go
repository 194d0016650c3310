package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Search the documents and print a formatted multi-source digest",
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

		answer, err := svc.AnswerWithSources(ctx, query)
		if err != nil {
			return err
		}

		renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			// Plain output still answers the question.
			fmt.Println(answer.FormattedResponse)
			return nil
		}
		out, err := renderer.Render(answer.FormattedResponse)
		if err != nil {
			fmt.Println(answer.FormattedResponse)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
