package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/resolver"
	"github.com/moodhome/moodhome/internal/utils"
)

var findCmd = &cobra.Command{
	Use:         "find <frame.json>",
	Short:       "Look up the identities of the faces in a frame file",
	Long:        "Accepts a single frame ([[[r,g,b],...],...]) or a face message ({\"faces\": [...]}).",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationStore: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runFind(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}

func runFind(ctx context.Context, path string) error {
	frames, err := utils.ReadFrames(path)
	if err != nil {
		utils.ShowError("Failed to read frame file", err)
		return err
	}
	if len(frames) == 0 {
		fmt.Println("❌ No faces in the provided file.")
		return nil
	}

	digests := facehash.HashAll(frames)

	fmt.Fprintln(os.Stderr, "🗄️  Searching store...")
	records, err := DB.LookupIdentities(ctx, digests)
	if err != nil {
		utils.ShowError("Store lookup failed", err)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tFACE HASH\tNAME\tUSER ID")
	fmt.Fprintln(w, "-\t---------\t----\t-------")
	matched := 0
	for i, d := range digests {
		rec, ok := records[d]
		name, user := resolver.UnknownName, "-"
		if ok {
			matched++
			if rec.DisplayName != "" {
				name = rec.DisplayName
			}
			if rec.UserID != "" {
				user = rec.UserID
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, d, name, user)
	}
	w.Flush()

	if matched == 0 {
		fmt.Println("❌ No match found in store.")
	} else {
		fmt.Printf("✅ %d of %d faces matched.\n", matched, len(digests))
	}
	return nil
}
