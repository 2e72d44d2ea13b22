package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/resolver"
	"github.com/moodhome/moodhome/internal/worker"
)

var resolverCmd = &cobra.Command{
	Use:         "resolver",
	Short:       "Identify faces on <prefix>/+/faceData and publish names and moods",
	Annotations: map[string]string{annotationStore: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runResolver(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(resolverCmd)
}

func runResolver(ctx context.Context) error {
	p, err := newPipeline(ctx, "face-resolver")
	if err != nil {
		return err
	}

	r := resolver.New(resolver.Deps{
		Lookup:    DB,
		Moods:     resolver.NewMoodTracker(Cfg.PKeepMood, nil),
		Publisher: p.bus,
		Topics:    p.topics,
		Metrics:   p.metrics,
		Logger:    Logger,
	})

	queue := worker.NewQueue("faceData", worker.DefaultQueueSize, r.Handle, Logger)
	if err := p.bus.Subscribe(p.topics.AnyFaceData(), func(topic string, payload []byte) {
		if err := queue.Submit(topic, payload); err != nil {
			Logger.Debug("dropping message after shutdown", "topic", topic)
		}
	}); err != nil {
		p.bus.Close()
		return err
	}

	Logger.Info("resolver ready", "p_keep_mood", Cfg.PKeepMood)
	return p.run(ctx, queue.Run)
}
