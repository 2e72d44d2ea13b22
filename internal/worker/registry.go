package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/moodhome/moodhome/internal/bus"
	"github.com/moodhome/moodhome/internal/facecam"
)

type roomWorker struct {
	sim   *facecam.Simulator
	inbox chan facecam.Event
}

// Registry owns one camera goroutine per room. Rooms share nothing.
type Registry struct {
	rooms  map[string]*roomWorker
	logger *slog.Logger
	done   chan struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[string]*roomWorker),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Add registers a camera. Rooms must be unique and must be added before Run.
func (r *Registry) Add(sim *facecam.Simulator) error {
	if _, ok := r.rooms[sim.Room()]; ok {
		return fmt.Errorf("room %q registered twice", sim.Room())
	}
	r.rooms[sim.Room()] = &roomWorker{
		sim:   sim,
		inbox: make(chan facecam.Event, DefaultQueueSize),
	}
	return nil
}

// Rooms lists the registered rooms in name order.
func (r *Registry) Rooms() []string {
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a message to the camera of the topic's room. It reports false when the room is
// not registered or the registry has stopped.
func (r *Registry) Dispatch(topic string, payload []byte) bool {
	w, ok := r.rooms[bus.RoomOf(topic)]
	if !ok {
		r.logger.Debug("no camera for topic", "topic", topic)
		return false
	}
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case w.inbox <- facecam.Event{Topic: topic, Payload: payload}:
		return true
	case <-r.done:
		return false
	}
}

// Run starts every camera and waits until ctx is done or one of them fails.
func (r *Registry) Run(ctx context.Context) error {
	defer close(r.done)

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range r.Rooms() {
		w := r.rooms[name]
		g.Go(func() error {
			r.logger.Info("camera started", "room", name)
			defer r.logger.Info("camera stopped", "room", name)
			return w.sim.Run(ctx, w.inbox)
		})
	}
	return g.Wait()
}
