// Package facehash computes the content address of a face frame.
//
// The digest is a 32-bit FNV-1a over every channel byte of every pixel, visited row by row,
// column by column, in r, g, b order. Producer and consumer both hash with it, so it must stay
// byte-for-byte stable.
package facehash

import (
	"fmt"
	"hash/fnv"

	"github.com/moodhome/moodhome/internal/types"
)

// Hash returns the digest of frame. It walks the frame's actual dimensions, so ragged or
// non-square frames hash fine.
func Hash(frame types.Frame) types.Digest {
	h := fnv.New32a()
	var b [3]byte
	for _, row := range frame {
		for _, px := range row {
			// Only the low 8 bits of each channel count.
			b[0], b[1], b[2] = byte(px[0]), byte(px[1]), byte(px[2])
			h.Write(b[:])
		}
	}
	return types.Digest(fmt.Sprintf("%08x", h.Sum32()))
}

// HashAll hashes each frame, preserving order.
func HashAll(frames []types.Frame) []types.Digest {
	digests := make([]types.Digest, len(frames))
	for i, f := range frames {
		digests[i] = Hash(f)
	}
	return digests
}
