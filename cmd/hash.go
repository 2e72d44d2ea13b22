package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/types"
	"github.com/moodhome/moodhome/internal/utils"
)

var hashCmd = &cobra.Command{
	Use:   "hash <frame.json>",
	Short: "Print the content hash of each face in a frame file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		frames, err := utils.ReadFrames(args[0])
		if err != nil {
			return fmt.Errorf("failed to read frame file: %w", err)
		}
		printDigests(cmd.OutOrStdout(), frames)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
}

func printDigests(w io.Writer, frames []types.Frame) {
	for _, d := range facehash.HashAll(frames) {
		fmt.Fprintln(w, d)
	}
}
