package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/utils"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:         "reset",
	Short:       "Drop every identity and mood profile",
	Long:        "Drops the store's tables (Postgres) or collections (MongoDB). Postgres tables are recreated on the next connect.",
	Annotations: map[string]string{annotationStore: "required"},
	Run: func(cmd *cobra.Command, args []string) {
		reader := bufio.NewReader(os.Stdin)

		if !resetYes && !utils.Confirm(reader, os.Stdout, "⚠️  Are you sure you want to DROP all identities and mood profiles?") {
			fmt.Println("Aborted.")
			return
		}

		fmt.Println("🗑️  Clearing Store...")
		if err := DB.Reset(cmd.Context()); err != nil {
			utils.Die("Failed to reset store", err)
		}
		fmt.Println("✨ Store Reset Complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}
