package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/facecam"
	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/types"
	"github.com/moodhome/moodhome/internal/utils"
)

var (
	enrollNamesFile    string
	enrollWithProfiles bool
	enrollLimit        int
)

// defaultSetpoints seed demo profiles. Values are temp_c, temp_k (the same temperature in
// Kelvin) and luminosity.
var defaultSetpoints = map[types.Mood][3]float64{
	types.MoodRelax:    {22, 295, 40},
	types.MoodFocus:    {21, 294, 80},
	types.MoodSleep:    {19, 292, 5},
	types.MoodEnergize: {20, 293, 100},
}

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Register every face in FACES_FILE as a known identity",
	Long: `Hashes each frame of the face pool and stores an identity for it, so the resolver recognizes
the faces the simulator shows. Names come from --names (one per line) or default to "Person N".`,
	Annotations: map[string]string{annotationStore: "required"},
	Run: func(cmd *cobra.Command, args []string) {
		runEnroll(cmd.Context())
	},
}

func init() {
	enrollCmd.Flags().StringVar(&enrollNamesFile, "names", "", "File with one display name per line, in pool order")
	enrollCmd.Flags().BoolVar(&enrollWithProfiles, "with-profiles", false, "Also store a default mood profile for every enrolled user")
	enrollCmd.Flags().IntVarP(&enrollLimit, "limit", "n", 0, "Enroll at most this many faces (0 = all)")
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(ctx context.Context) {
	pool := facecam.LoadPool(Cfg.FacesFile, Logger)
	if len(pool) == 0 {
		utils.Die("No faces to enroll", fmt.Errorf("face pool %s is empty or missing", Cfg.FacesFile))
	}
	if enrollLimit > 0 && enrollLimit < len(pool) {
		pool = pool[:enrollLimit]
	}

	var names []string
	if enrollNamesFile != "" {
		var err error
		names, err = readNames(enrollNamesFile)
		if err != nil {
			utils.Die("Failed to read names file", err)
		}
	}

	bar := progressbar.NewOptions(len(pool),
		progressbar.OptionSetDescription("🧑 Enrolling faces"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	seen := make(map[types.Digest]bool, len(pool))
	duplicates := 0
	for i, frame := range pool {
		d := facehash.Hash(frame)
		if seen[d] {
			duplicates++
			_ = bar.Add(1)
			continue
		}
		seen[d] = true

		id := types.Identity{
			Digest:      d,
			DisplayName: fmt.Sprintf("Person %d", i+1),
			UserID:      fmt.Sprintf("user-%d", i+1),
		}
		if i < len(names) && names[i] != "" {
			id.DisplayName = names[i]
		}

		if err := DB.UpsertIdentity(ctx, id); err != nil {
			utils.Die("Failed to store identity", err)
		}
		if enrollWithProfiles {
			if err := storeDefaultProfile(ctx, id.UserID); err != nil {
				utils.Die("Failed to store mood profile", err)
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	fmt.Fprintln(os.Stderr)
	fmt.Printf("✅ Enrolled %d identities", len(seen))
	if duplicates > 0 {
		fmt.Printf(" (%d duplicate frames skipped)", duplicates)
	}
	fmt.Println()
}

func storeDefaultProfile(ctx context.Context, userID string) error {
	for _, mood := range types.Moods {
		v := defaultSetpoints[mood]
		c, k, lum := v[0], v[1], v[2]
		sp := types.Setpoint{TempC: &c, TempK: &k, Luminosity: &lum}
		if err := DB.UpsertProfile(ctx, userID, mood, sp); err != nil {
			return err
		}
	}
	return nil
}

func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		names = append(names, strings.TrimSpace(sc.Text()))
	}
	return names, sc.Err()
}
