package cmd

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/types"
	"github.com/moodhome/moodhome/internal/utils"
)

var profileCmd = &cobra.Command{
	Use:         "profile <user_id> <mood> <temp_c> <temp_k> <luminosity>",
	Short:       "Set a user's preferred temperature, light colour and brightness for one mood",
	Args:        cobra.ExactArgs(5),
	Annotations: map[string]string{annotationStore: "required"},
	Run: func(cmd *cobra.Command, args []string) {
		mood, sp, err := parseProfileArgs(args[1:])
		if err != nil {
			utils.Die("Invalid profile", err)
		}
		runProfile(cmd.Context(), args[0], mood, sp)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

// parseProfileArgs parses <mood> <temp_c> <temp_k> <luminosity>.
func parseProfileArgs(args []string) (types.Mood, types.Setpoint, error) {
	mood := types.Mood(args[0])
	if !slices.Contains(types.Moods, mood) {
		return "", types.Setpoint{}, fmt.Errorf("unknown mood %q, expected one of %v", args[0], types.Moods)
	}

	vals := make([]float64, 3)
	for i, name := range []string{"temp_c", "temp_k", "luminosity"} {
		v, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return "", types.Setpoint{}, fmt.Errorf("%s: %w", name, err)
		}
		vals[i] = v
	}
	return mood, types.Setpoint{TempC: &vals[0], TempK: &vals[1], Luminosity: &vals[2]}, nil
}

func runProfile(ctx context.Context, userID string, mood types.Mood, sp types.Setpoint) {
	if err := DB.UpsertProfile(ctx, userID, mood, sp); err != nil {
		utils.Die("Failed to store mood profile", err)
	}
	fmt.Printf("✅ %s/%s set to %.1f°C, %.0fK, luminosity %.0f\n", userID, mood, *sp.TempC, *sp.TempK, *sp.Luminosity)
}
