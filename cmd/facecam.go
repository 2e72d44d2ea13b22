package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/config"
	"github.com/moodhome/moodhome/internal/facecam"
	"github.com/moodhome/moodhome/internal/worker"
)

var facecamRooms []string

var facecamCmd = &cobra.Command{
	Use:   "facecam",
	Short: "Simulate one face camera per configured room",
	Long: `Reads every room file in ROOMS_DIR and starts a face camera for each room with a
facecam sensor. Cameras publish while their room's motion sensor reports motion.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runFacecam(cmd.Context(), facecamRooms)
	},
}

func init() {
	facecamCmd.Flags().StringSliceVarP(&facecamRooms, "room", "r", nil, "Only start these rooms (repeatable)")
	rootCmd.AddCommand(facecamCmd)
}

func runFacecam(ctx context.Context, only []string) error {
	rooms, err := config.LoadRooms(Cfg.RoomsDir, Logger)
	if err != nil {
		return err
	}
	if len(only) > 0 {
		rooms = slices.DeleteFunc(rooms, func(r config.Room) bool { return !slices.Contains(only, r.Name) })
	}
	if len(rooms) == 0 {
		return fmt.Errorf("no facecam rooms found in %s", Cfg.RoomsDir)
	}

	pool := facecam.LoadPool(Cfg.FacesFile, Logger)

	p, err := newPipeline(ctx, "device-facecam")
	if err != nil {
		return err
	}

	reg := worker.NewRegistry(Logger)
	for _, room := range rooms {
		sim := facecam.New(room.Name, room.Camera, pool, facecam.Deps{
			Publisher: p.bus,
			Topics:    p.topics,
			Metrics:   p.metrics,
			Logger:    Logger,
			Rand:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		})
		if err := reg.Add(sim); err != nil {
			p.bus.Close()
			return err
		}
		for _, topic := range []string{p.topics.Motion(room.Name), p.topics.FaceCmd(room.Name)} {
			if err := p.bus.Subscribe(topic, func(topic string, payload []byte) {
				reg.Dispatch(topic, payload)
			}); err != nil {
				p.bus.Close()
				return err
			}
		}
		Logger.Info("camera configured", "room", room.Name, "source", room.Source,
			"interval", room.Camera.Interval, "max_faces", room.Camera.MaxFaces)
	}

	return p.run(ctx, reg.Run)
}
