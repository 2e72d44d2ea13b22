package facehash

import (
	"regexp"
	"testing"

	"github.com/moodhome/moodhome/internal/types"
)

func solid(size int, px types.Pixel) types.Frame {
	f := make(types.Frame, size)
	for y := range f {
		f[y] = make([]types.Pixel, size)
		for x := range f[y] {
			f[y][x] = px
		}
	}
	return f
}

func TestHashKnownValues(t *testing.T) {
	tests := []struct {
		name  string
		frame types.Frame
		want  types.Digest
	}{
		{
			name:  "Empty frame is the offset basis",
			frame: types.Frame{},
			want:  "811c9dc5",
		},
		{
			// FNV-1a("\x00\x00\x00")
			name:  "Single black pixel",
			frame: types.Frame{{{0, 0, 0}}},
			want:  "4ab0f7b7",
		},
		{
			// FNV-1a("abc")
			name:  "Single pixel abc",
			frame: types.Frame{{{'a', 'b', 'c'}}},
			want:  "1a47e90b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hash(tt.frame); got != tt.want {
				t.Errorf("Hash() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHashMasksToLowByte(t *testing.T) {
	a := types.Frame{{{256 + 1, -1, 512}}}
	b := types.Frame{{{1, 255, 0}}}
	if Hash(a) != Hash(b) {
		t.Errorf("expected channel values to be masked to 8 bits: %s != %s", Hash(a), Hash(b))
	}
}

func TestHashDeterministicAndFormatted(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{8}$`)
	f := solid(64, types.Pixel{12, 34, 56})

	first := Hash(f)
	for i := 0; i < 5; i++ {
		if got := Hash(f); got != first {
			t.Fatalf("Hash is not deterministic. Got %s, then %s", first, got)
		}
	}
	if !hexRe.MatchString(string(first)) {
		t.Errorf("digest %q is not 8 lowercase hex chars", first)
	}
}

func TestHashOrderSensitive(t *testing.T) {
	rgb := types.Frame{{{1, 2, 3}}}
	bgr := types.Frame{{{3, 2, 1}}}
	if Hash(rgb) == Hash(bgr) {
		t.Error("channel order should change the digest")
	}

	rows := types.Frame{{{1, 1, 1}}, {{2, 2, 2}}}
	swapped := types.Frame{{{2, 2, 2}}, {{1, 1, 1}}}
	if Hash(rows) == Hash(swapped) {
		t.Error("row order should change the digest")
	}
}

func TestHashUsesActualDimensions(t *testing.T) {
	// Same bytes laid out as 1x2 and 2x1 hash the same: only content order matters.
	wide := types.Frame{{{1, 2, 3}, {4, 5, 6}}}
	tall := types.Frame{{{1, 2, 3}}, {{4, 5, 6}}}
	if Hash(wide) != Hash(tall) {
		t.Error("layout with identical byte order should hash identically")
	}

	small := solid(8, types.Pixel{9, 9, 9})
	large := solid(16, types.Pixel{9, 9, 9})
	if Hash(small) == Hash(large) {
		t.Error("frames with different pixel counts should differ")
	}
}

func TestHashNoCollisionsAcrossPool(t *testing.T) {
	seen := make(map[types.Digest]int)
	n := 0
	for r := 0; r < 8; r++ {
		for g := 0; g < 4; g++ {
			for b := 0; b < 4; b++ {
				f := solid(16, types.Pixel{r * 30, g * 60, b * 60})
				// One distinguishing pixel keeps frames visually distinct beyond the fill colour.
				f[r][g+b] = types.Pixel{255 - r, g, b}
				d := Hash(f)
				if prev, ok := seen[d]; ok {
					t.Fatalf("collision between frame %d and %d: %s", prev, n, d)
				}
				seen[d] = n
				n++
			}
		}
	}
	if n < 100 {
		t.Fatalf("pool too small: %d", n)
	}
}

func TestHashAllPreservesOrder(t *testing.T) {
	frames := []types.Frame{solid(2, types.Pixel{1, 1, 1}), solid(2, types.Pixel{2, 2, 2}), solid(2, types.Pixel{1, 1, 1})}
	got := HashAll(frames)
	if len(got) != 3 {
		t.Fatalf("expected 3 digests, got %d", len(got))
	}
	for i, f := range frames {
		if got[i] != Hash(f) {
			t.Errorf("digest %d = %s, want %s", i, got[i], Hash(f))
		}
	}
	if got[0] != got[2] {
		t.Error("identical frames should share a digest")
	}
}
