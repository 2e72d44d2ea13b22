package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/types"
	"github.com/moodhome/moodhome/internal/utils"
)

var labelCmd = &cobra.Command{
	Use:   "label <face_hash> <name> [user_id]",
	Short: "Assign a name (and optionally a user id) to a face hash",
	Long: `Without a user id the existing record is renamed. With a user id the record is created
or updated, so a face can be registered straight from its hash.`,
	Args:        cobra.RangeArgs(2, 3),
	Annotations: map[string]string{annotationStore: "required"},
	Run: func(cmd *cobra.Command, args []string) {
		userID := ""
		if len(args) == 3 {
			userID = args[2]
		}
		runLabel(cmd.Context(), types.Digest(args[0]), args[1], userID)
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)
}

func runLabel(ctx context.Context, digest types.Digest, name, userID string) {
	// Database is initialized in Root PersistentPreRun
	if userID == "" {
		if err := DB.RenameIdentity(ctx, digest, name); err != nil {
			utils.Die("Failed to label identity", err)
		}
		fmt.Printf("✅ Face %s labeled as '%s'\n", digest, name)
		return
	}

	if err := DB.UpsertIdentity(ctx, types.Identity{Digest: digest, DisplayName: name, UserID: userID}); err != nil {
		utils.Die("Failed to store identity", err)
	}
	fmt.Printf("✅ Face %s labeled as '%s' (user %s)\n", digest, name, userID)
}
