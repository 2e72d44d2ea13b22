package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/moodhome/moodhome/internal/aggregator"
	"github.com/moodhome/moodhome/internal/worker"
)

var aggregatorCmd = &cobra.Command{
	Use:         "aggregator",
	Short:       "Average user mood profiles per room from <prefix>/+/mood/in",
	Annotations: map[string]string{annotationStore: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runAggregator(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(aggregatorCmd)
}

func runAggregator(ctx context.Context) error {
	p, err := newPipeline(ctx, "mood-aggregator")
	if err != nil {
		return err
	}

	agg := aggregator.New(aggregator.Deps{
		Lookup:    DB,
		Publisher: p.bus,
		Topics:    p.topics,
		Metrics:   p.metrics,
		Logger:    Logger,
	})

	queue := worker.NewQueue("mood/in", worker.DefaultQueueSize, agg.Handle, Logger)
	if err := p.bus.Subscribe(p.topics.AnyMoodIn(), func(topic string, payload []byte) {
		if err := queue.Submit(topic, payload); err != nil {
			Logger.Debug("dropping message after shutdown", "topic", topic)
		}
	}); err != nil {
		p.bus.Close()
		return err
	}

	return p.run(ctx, queue.Run)
}
