package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var flagYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every chunk from the vector database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagYes {
			fmt.Print("This removes all indexed chunks. Continue? [y/N] ")
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		svc, _, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Clear(); err != nil {
			return err
		}
		fmt.Println("Database cleared.")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&flagYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}
