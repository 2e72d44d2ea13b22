// Package facecam simulates one face camera per room.
//
// A camera is Idle until its room's motion sensor reports motion. While Active it runs one jitter
// step per tick (maybe add a face, maybe remove one) and publishes the visible faces as a retained
// message. When motion stops the faces are cleared and the empty state is published.
//
// A sync command on the cmd topic replaces the visible faces while Idle. While Active the command's
// content is ignored but the visible faces are still cleared.
package facecam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/moodhome/moodhome/internal/bus"
	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/metrics"
	"github.com/moodhome/moodhome/internal/types"
)

// isoMillis matches JavaScript's Date.toISOString, which downstream dashboards already parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// maxPoolAttempts caps how many pool samples one add may draw.
const maxPoolAttempts = 10

// Config holds one camera's tuning.
type Config struct {
	Interval time.Duration
	PAdd     float64
	PRemove  float64
	MaxFaces int
	CamRes   int
	PNewFace float64
}

// DefaultConfig returns the tuning used when a room file leaves a value out.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		PAdd:     0.45,
		PRemove:  0.35,
		MaxFaces: 5,
		CamRes:   64,
		PNewFace: 0.01,
	}
}

// Outcome is the result of one jitter step.
type Outcome string

const (
	OutcomeAdded   Outcome = "added"
	OutcomeRemoved Outcome = "removed"
	OutcomeNone    Outcome = "none"
)

// Event is a message routed to a camera.
type Event struct {
	Topic   string
	Payload []byte
}

// Deps are the collaborators a Simulator needs.
type Deps struct {
	Publisher bus.Publisher
	Topics    bus.Topics
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Rand      *rand.Rand
	Now       func() time.Time
}

// Simulator is one room's camera. It is not safe for concurrent use; Run serializes all events.
type Simulator struct {
	room        string
	cfg         Config
	pool        []types.Frame
	poolDigests []types.Digest

	visible *VisibleSet
	active  bool
	ts      string

	pub     bus.Publisher
	topics  bus.Topics
	metrics *metrics.Metrics
	logger  *slog.Logger
	rng     *rand.Rand
	now     func() time.Time
}

// New builds an idle camera for room drawing faces from pool.
func New(room string, cfg Config, pool []types.Frame, deps Deps) *Simulator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := &Simulator{
		room:        room,
		cfg:         cfg,
		pool:        pool,
		poolDigests: facehash.HashAll(pool),
		visible:     NewVisibleSet(cfg.MaxFaces),
		pub:         deps.Publisher,
		topics:      deps.Topics,
		metrics:     deps.Metrics,
		logger:      deps.Logger.With("component", "facecam", "room", room),
		rng:         deps.Rand,
		now:         deps.Now,
	}
	s.ts = s.stamp()
	return s
}

// Room returns the room this camera belongs to.
func (s *Simulator) Room() string { return s.room }

// Active reports whether motion is currently on.
func (s *Simulator) Active() bool { return s.active }

// Visible exposes the visible set for inspection.
func (s *Simulator) Visible() *VisibleSet { return s.visible }

// State returns the message the camera would publish now.
func (s *Simulator) State() types.FaceState {
	return types.FaceState{
		Faces: s.visible.Frames(),
		Count: s.visible.Len(),
		TS:    s.ts,
	}
}

// Run handles events and publish ticks one at a time until ctx is done or inbox closes.
// The ticker only exists while the camera is Active.
func (s *Simulator) Run(ctx context.Context, inbox <-chan Event) error {
	var ticker *time.Ticker
	var tick <-chan time.Time
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-inbox:
			if !ok {
				return nil
			}
			s.Handle(ev)
			switch {
			case s.active && ticker == nil:
				ticker = time.NewTicker(s.cfg.Interval)
				tick = ticker.C
				s.logger.Info("started publishing", "interval", s.cfg.Interval)
			case !s.active && ticker != nil:
				stop()
				s.logger.Info("stopped publishing")
			}
		case <-tick:
			s.Tick()
		}
	}
}

// Handle routes one inbound message. Malformed messages are logged and dropped.
func (s *Simulator) Handle(ev Event) {
	var err error
	switch ev.Topic {
	case s.topics.Motion(s.room):
		err = s.HandleMotion(ev.Payload)
	case s.topics.FaceCmd(s.room):
		err = s.HandleCommand(ev.Payload)
	default:
		s.logger.Debug("ignoring message on unexpected topic", "topic", ev.Topic)
		return
	}
	if err != nil {
		s.logger.Warn("dropping message", "topic", ev.Topic, "error", err)
	}
}

// HandleMotion applies a motion signal. Only edges change state.
func (s *Simulator) HandleMotion(payload []byte) error {
	var sig types.MotionSignal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return fmt.Errorf("decode motion: %w: %v", types.ErrMalformedInput, err)
	}
	if sig.Motion == nil {
		return fmt.Errorf("decode motion: %w: missing boolean motion field", types.ErrMalformedInput)
	}

	prev := s.active
	s.active = *sig.Motion

	if !s.active && prev {
		s.visible.Clear()
		s.ts = s.stamp()
		s.publish()
	}
	return nil
}

// HandleCommand applies a sync command.
func (s *Simulator) HandleCommand(payload []byte) error {
	var cmd types.FaceCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("decode face command: %w: %v", types.ErrMalformedInput, err)
	}

	if s.active {
		s.visible.Clear()
		s.ts = s.stamp()
		s.setVisibleGauge()
		s.logger.Warn("motion active, ignoring sync command and clearing faces")
		return nil
	}

	dropped := s.visible.Replace(cmd.Faces)
	if cmd.TS != "" {
		s.ts = cmd.TS
	} else {
		s.ts = s.stamp()
	}
	s.setVisibleGauge()
	s.logger.Info("state synced from command", "count", s.visible.Len(), "dropped", dropped)
	return nil
}

// Tick runs one jitter step and publishes, if Active.
func (s *Simulator) Tick() {
	if !s.active {
		return
	}
	outcome := s.Jitter()
	if s.metrics != nil {
		s.metrics.FacecamJitter.WithLabelValues(s.room, string(outcome)).Inc()
	}
	s.ts = s.stamp()
	s.publish()
}

// Jitter draws once and adds, removes or leaves the visible faces alone.
// When PAdd+PRemove > 1 the ranges overlap and add takes the shared draws.
func (s *Simulator) Jitter() Outcome {
	r := s.rng.Float64()

	if r < s.cfg.PAdd {
		if s.visible.Full() {
			return OutcomeNone
		}
		frame, d, ok := s.pickUnique()
		if !ok {
			return OutcomeNone
		}
		s.visible.Add(frame, d)
		return OutcomeAdded
	}

	if r > 1-s.cfg.PRemove {
		n := s.visible.Len()
		if n == 0 {
			return OutcomeNone
		}
		s.visible.RemoveAt(s.rng.IntN(n))
		return OutcomeRemoved
	}

	return OutcomeNone
}

// pickUnique samples the pool for a face not yet visible, falling back to a synthesized face
// with probability PNewFace.
func (s *Simulator) pickUnique() (types.Frame, types.Digest, bool) {
	if n := len(s.pool); n > 0 {
		attempts := min(maxPoolAttempts, 2*n)
		for range attempts {
			i := s.rng.IntN(n)
			if !s.visible.Has(s.poolDigests[i]) {
				return s.pool[i], s.poolDigests[i], true
			}
		}
	}

	if s.rng.Float64() < s.cfg.PNewFace {
		gen := GenerateFrame(s.rng, s.cfg.CamRes)
		d := facehash.Hash(gen)
		if !s.visible.Has(d) {
			return gen, d, true
		}
	}
	return nil, "", false
}

func (s *Simulator) publish() {
	state := s.State()
	s.setVisibleGauge()
	if err := s.pub.Publish(s.topics.Face(s.room), true, state); err != nil {
		s.logger.Error("publish error", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.FacecamPublishes.WithLabelValues(s.room).Inc()
	}
	s.logger.Debug("published face state", "count", state.Count, "ts", state.TS)
}

func (s *Simulator) setVisibleGauge() {
	if s.metrics != nil {
		s.metrics.FacecamVisible.WithLabelValues(s.room).Set(float64(s.visible.Len()))
	}
}

func (s *Simulator) stamp() string {
	return s.now().UTC().Format(isoMillis)
}
