package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/types"
	"github.com/moodhome/moodhome/internal/utils"
)

var listCmd = &cobra.Command{
	Use:         "list",
	Short:       "List all known identities in the store",
	Annotations: map[string]string{annotationStore: "required"},
	Run: func(cmd *cobra.Command, args []string) {
		runList(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(ctx context.Context) {
	identities, err := DB.ListIdentities(ctx)
	if err != nil {
		utils.Die("Failed to list identities", err)
	}

	if len(identities) == 0 {
		fmt.Println("No identities found in store.")
		return
	}
	printIdentities(os.Stdout, identities)
}

func printIdentities(out io.Writer, identities []types.Identity) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FACE HASH\tNAME\tUSER ID")
	fmt.Fprintln(w, "---------\t----\t-------")

	for _, id := range identities {
		name, user := id.DisplayName, id.UserID
		if name == "" {
			name = "-"
		}
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", id.Digest, name, user)
	}
	w.Flush()
}
