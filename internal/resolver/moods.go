package resolver

import (
	"math/rand/v2"
	"sync"

	"github.com/moodhome/moodhome/internal/types"
)

// DefaultKeepProbability is the chance a known user keeps their mood on a sighting.
const DefaultKeepProbability = 0.99

// MoodTracker holds the current mood of every user seen since startup. Nothing is persisted.
type MoodTracker struct {
	mu    sync.Mutex
	pKeep float64
	rng   *rand.Rand
	moods map[string]types.Mood
}

// NewMoodTracker returns an empty tracker. A nil rng gets a randomly seeded one.
func NewMoodTracker(pKeep float64, rng *rand.Rand) *MoodTracker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &MoodTracker{
		pKeep: pKeep,
		rng:   rng,
		moods: make(map[string]types.Mood),
	}
}

// Resolve returns userID's mood for this sighting. A first sighting draws a mood uniformly.
// Later sightings keep the mood with probability pKeep, otherwise draw again from all moods,
// which can land on the same one.
func (t *MoodTracker) Resolve(userID string) types.Mood {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, seen := t.moods[userID]
	if seen && t.rng.Float64() < t.pKeep {
		return current
	}
	mood := types.Moods[t.rng.IntN(len(types.Moods))]
	t.moods[userID] = mood
	return mood
}

// Get returns the stored mood for userID, if any.
func (t *MoodTracker) Get(userID string) (types.Mood, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.moods[userID]
	return m, ok
}

// Len returns the number of users tracked.
func (t *MoodTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.moods)
}
