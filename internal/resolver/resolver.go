// Package resolver turns batches of face frames into names and moods.
//
// Frames are hashed, identified with one batched store lookup, and every resolved user gets a
// mood from the MoodTracker. A store outage never blocks the pipeline: the batch is reported as
// empty instead.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodhome/moodhome/internal/bus"
	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/metrics"
	"github.com/moodhome/moodhome/internal/types"
)

// UnknownName is reported for faces without a stored identity.
const UnknownName = "unknown"

// IdentityLookup finds the stored identities for a set of digests in one round trip.
// Digests with no record are simply absent from the result.
type IdentityLookup interface {
	LookupIdentities(ctx context.Context, digests []types.Digest) (map[types.Digest]types.Identity, error)
}

// Deps are the collaborators a Resolver needs.
type Deps struct {
	Lookup    IdentityLookup
	Moods     *MoodTracker
	Publisher bus.Publisher
	Topics    bus.Topics
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// Resolver identifies faces and assigns moods.
type Resolver struct {
	lookup  IdentityLookup
	moods   *MoodTracker
	pub     bus.Publisher
	topics  bus.Topics
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a Resolver.
func New(deps Deps) *Resolver {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Moods == nil {
		deps.Moods = NewMoodTracker(DefaultKeepProbability, nil)
	}
	return &Resolver{
		lookup:  deps.Lookup,
		moods:   deps.Moods,
		pub:     deps.Publisher,
		topics:  deps.Topics,
		metrics: deps.Metrics,
		logger:  deps.Logger.With("component", "resolver"),
		now:     deps.Now,
	}
}

// Moods exposes the tracker backing this resolver.
func (r *Resolver) Moods() *MoodTracker { return r.moods }

// Resolve names every frame in batch. names[i] and user_moods[i] describe batch.Faces[i].
// If the lookup fails the empty result is returned together with the error.
func (r *Resolver) Resolve(ctx context.Context, room string, batch types.FaceBatch) (types.FaceNames, error) {
	digests := facehash.HashAll(batch.Faces)

	if len(digests) == 0 || (batch.Count != nil && *batch.Count == 0) {
		r.count("empty")
		return r.empty(room), nil
	}

	records, err := r.lookup.LookupIdentities(ctx, unique(digests))
	if err != nil {
		r.count("lookup_failed")
		return r.empty(room), fmt.Errorf("%w: %v", types.ErrLookupUnavailable, err)
	}

	out := types.FaceNames{
		Room:      room,
		Names:     make([]string, 0, len(digests)),
		UserMoods: make([]types.UserMood, 0, len(digests)),
	}
	for _, d := range digests {
		rec := records[d]

		name := rec.DisplayName
		if name == "" {
			name = UnknownName
		}
		// Unrecognized faces keep a stable mood keyed by their own digest.
		id := rec.UserID
		if id == "" {
			id = string(d)
		}

		out.Names = append(out.Names, name)
		out.UserMoods = append(out.UserMoods, types.UserMood{ID: id, Mood: r.moods.Resolve(id)})
	}
	out.Count = len(out.Names)
	out.TS = r.now().UnixMilli()

	r.count("resolved")
	if r.metrics != nil {
		r.metrics.ResolverFaces.Add(float64(out.Count))
	}
	return out, nil
}

// Handle decodes a faceData message, resolves it and publishes the result for the topic's room.
func (r *Resolver) Handle(ctx context.Context, topic string, payload []byte) {
	room := bus.RoomOf(topic)
	logger := r.logger.With("room", room)

	var batch types.FaceBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		r.count("malformed")
		logger.Error("invalid face batch payload", "error", fmt.Errorf("%w: %v", types.ErrMalformedInput, err))
		return
	}
	logger.Debug("received face batch", "faces", len(batch.Faces))

	out, err := r.Resolve(ctx, room, batch)
	if err != nil {
		logger.Error("identity lookup failed, publishing empty result", "error", err)
	}

	if err := r.pub.Publish(r.topics.FaceNames(room), false, out); err != nil {
		logger.Error("publish error", "error", err)
		return
	}
	logger.Info("published face names", "count", out.Count, "names", out.Names)
}

func (r *Resolver) empty(room string) types.FaceNames {
	return types.FaceNames{
		Room:      room,
		Names:     []string{},
		UserMoods: []types.UserMood{},
		Count:     0,
		TS:        r.now().UnixMilli(),
	}
}

func (r *Resolver) count(outcome string) {
	if r.metrics != nil {
		r.metrics.ResolverBatches.WithLabelValues(outcome).Inc()
	}
}

func unique(digests []types.Digest) []types.Digest {
	seen := make(map[types.Digest]struct{}, len(digests))
	out := make([]types.Digest, 0, len(digests))
	for _, d := range digests {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
