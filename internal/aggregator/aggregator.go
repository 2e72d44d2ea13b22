// Package aggregator averages the mood setpoints of the users present in a room.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/moodhome/moodhome/internal/bus"
	"github.com/moodhome/moodhome/internal/metrics"
	"github.com/moodhome/moodhome/internal/types"
)

// ProfileLookup fetches one user's mood profile. A user without a profile yields (nil, nil).
type ProfileLookup interface {
	LookupProfile(ctx context.Context, userID string) (types.Profile, error)
}

// Exclusion reasons recorded per user.
const (
	reasonLookupFailed = "lookup_failed"
	reasonMissing      = "missing"
	reasonIncomplete   = "incomplete"
)

// Deps are the collaborators an Aggregator needs.
type Deps struct {
	Lookup    ProfileLookup
	Publisher bus.Publisher
	Topics    bus.Topics
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Aggregator turns a room's user moods into one setpoint.
type Aggregator struct {
	lookup  ProfileLookup
	pub     bus.Publisher
	topics  bus.Topics
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds an Aggregator.
func New(deps Deps) *Aggregator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Aggregator{
		lookup:  deps.Lookup,
		pub:     deps.Publisher,
		topics:  deps.Topics,
		metrics: deps.Metrics,
		logger:  deps.Logger.With("component", "aggregator"),
	}
}

// Aggregate averages the setpoint of every user for their stated mood. Users whose profile cannot
// be read, is missing, or is incomplete for that mood are left out. It returns false when no user
// remains.
func (a *Aggregator) Aggregate(ctx context.Context, users []types.UserMood) (types.Aggregate, bool) {
	var sumC, sumK, sumLum float64
	n := 0

	for _, u := range users {
		sp, err := a.setpoint(ctx, u)
		if err != nil {
			a.exclude(u, err)
			continue
		}
		sumC += *sp.TempC
		sumK += *sp.TempK
		sumLum += *sp.Luminosity
		n++
	}

	if n == 0 {
		return types.Aggregate{}, false
	}

	count := float64(n)
	return types.Aggregate{
		TempC:      roundTenth(sumC / count),
		TempK:      roundHalfUp(sumK / count),
		Luminosity: roundHalfUp(sumLum / count),
	}, true
}

// Handle decodes a mood/in message and publishes the room average, if there is one.
func (a *Aggregator) Handle(ctx context.Context, topic string, payload []byte) {
	room := bus.RoomOf(topic)
	logger := a.logger.With("room", room)

	var users []types.UserMood
	if err := json.Unmarshal(payload, &users); err != nil || len(users) == 0 {
		if err == nil {
			err = errors.New("expected a non-empty array")
		}
		a.drop("malformed")
		logger.Warn("invalid or empty payload", "error", fmt.Errorf("%w: %v", types.ErrMalformedInput, err))
		return
	}

	avg, ok := a.Aggregate(ctx, users)
	if !ok {
		a.drop("no_valid_entries")
		logger.Warn("no valid mood entries found for averaging", "users", len(users))
		return
	}

	if err := a.pub.Publish(a.topics.MoodOut(room), false, avg); err != nil {
		logger.Error("publish error", "error", err)
		return
	}
	if a.metrics != nil {
		a.metrics.AggregatorPublished.Inc()
	}
	logger.Info("published room setpoint",
		"temp_c", avg.TempC, "temp_k", avg.TempK, "luminosity", avg.Luminosity, "users", len(users))
}

func (a *Aggregator) setpoint(ctx context.Context, u types.UserMood) (types.Setpoint, error) {
	profile, err := a.lookup.LookupProfile(ctx, u.ID)
	if err != nil {
		return types.Setpoint{}, fmt.Errorf("%w: %v", types.ErrLookupUnavailable, err)
	}
	sp, ok := profile[u.Mood]
	if !ok {
		return types.Setpoint{}, errNoEntry
	}
	if !sp.Complete() {
		return types.Setpoint{}, types.ErrIncompleteRecord
	}
	return sp, nil
}

var errNoEntry = errors.New("no profile entry for mood")

func (a *Aggregator) exclude(u types.UserMood, err error) {
	reason := reasonMissing
	switch {
	case errors.Is(err, types.ErrLookupUnavailable):
		reason = reasonLookupFailed
	case errors.Is(err, types.ErrIncompleteRecord):
		reason = reasonIncomplete
	}
	if a.metrics != nil {
		a.metrics.AggregatorExcluded.WithLabelValues(reason).Inc()
	}
	a.logger.Debug("user excluded from average", "user", u.ID, "mood", u.Mood, "reason", reason, "error", err)
}

func (a *Aggregator) drop(reason string) {
	if a.metrics != nil {
		a.metrics.AggregatorDropped.WithLabelValues(reason).Inc()
	}
}

// roundHalfUp rounds to the nearest integer, ties towards +Inf.
func roundHalfUp(x float64) int {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return int(r)
}

// roundTenth rounds to one decimal, ties away from zero, judged on the exact binary value
// of x rather than on its shortest decimal form. 20.15 is stored just below 20.15 and so
// rounds to 20.1.
func roundTenth(x float64) float64 {
	y := new(big.Float).SetPrec(256).SetFloat64(math.Abs(x))
	y.Mul(y, big.NewFloat(10))
	y.Add(y, big.NewFloat(0.5))
	n, _ := y.Int64()
	if n == 0 {
		return 0
	}
	return math.Copysign(float64(n)/10, x)
}
