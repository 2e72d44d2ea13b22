package facecam

import (
	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/types"
)

// VisibleSet is the ordered list of faces a camera currently sees, deduplicated by digest.
// The digest set is updated in the same call as every change to the sequence.
type VisibleSet struct {
	max     int
	frames  []types.Frame
	digests map[types.Digest]struct{}
}

// NewVisibleSet returns an empty set that Add will never grow past max.
func NewVisibleSet(max int) *VisibleSet {
	return &VisibleSet{
		max:     max,
		digests: make(map[types.Digest]struct{}),
	}
}

// Len returns the number of visible frames.
func (v *VisibleSet) Len() int { return len(v.frames) }

// Full reports whether Add would be refused for capacity.
func (v *VisibleSet) Full() bool { return len(v.frames) >= v.max }

// Has reports whether a frame with digest d is visible.
func (v *VisibleSet) Has(d types.Digest) bool {
	_, ok := v.digests[d]
	return ok
}

// Frames returns a copy of the visible sequence.
func (v *VisibleSet) Frames() []types.Frame {
	out := make([]types.Frame, len(v.frames))
	copy(out, v.frames)
	return out
}

// Digests returns the digests of the visible frames in sequence order.
func (v *VisibleSet) Digests() []types.Digest {
	return facehash.HashAll(v.frames)
}

// Add appends frame if its digest d is new and the set is not full.
func (v *VisibleSet) Add(frame types.Frame, d types.Digest) bool {
	if v.Full() || v.Has(d) {
		return false
	}
	v.frames = append(v.frames, frame)
	v.digests[d] = struct{}{}
	return true
}

// RemoveAt drops the frame at index i.
func (v *VisibleSet) RemoveAt(i int) {
	if i < 0 || i >= len(v.frames) {
		return
	}
	removed := v.frames[i]
	v.frames = append(v.frames[:i:i], v.frames[i+1:]...)
	delete(v.digests, facehash.Hash(removed))
}

// Clear empties the sequence and the digest set.
func (v *VisibleSet) Clear() {
	v.frames = nil
	v.digests = make(map[types.Digest]struct{})
}

// Replace swaps the whole sequence for frames, keeping the first frame of each digest and
// stopping once the set is full. It returns the number of frames dropped.
func (v *VisibleSet) Replace(frames []types.Frame) int {
	v.Clear()
	dropped := 0
	for _, f := range frames {
		d := facehash.Hash(f)
		if v.Full() || v.Has(d) {
			dropped++
			continue
		}
		v.frames = append(v.frames, f)
		v.digests[d] = struct{}{}
	}
	return dropped
}
