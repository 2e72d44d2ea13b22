package facecam

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/moodhome/moodhome/internal/types"
)

const megabyte = 1024 * 1024

// LoadPool reads a face pool: one JSON frame per non-blank line.
// A missing file yields an empty pool with a warning, and bad lines are skipped.
func LoadPool(path string, logger *slog.Logger) []types.Frame {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("could not load face pool, using empty pool", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	pool, err := ReadPool(f, logger)
	if err != nil {
		logger.Warn("face pool read stopped early", "path", path, "error", err, "loaded", len(pool))
	}
	logger.Info("loaded face pool", "path", path, "faces", len(pool))
	return pool
}

// ReadPool parses pool lines from r.
func ReadPool(r io.Reader, logger *slog.Logger) ([]types.Frame, error) {
	scanner := bufio.NewScanner(r)
	// A 64x64 frame as JSON is roughly 50KB; leave plenty of room.
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)

	var pool []types.Frame
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var frame types.Frame
		if err := json.Unmarshal(text, &frame); err != nil {
			logger.Warn("skipping bad face pool line", "line", line, "error", err)
			continue
		}
		pool = append(pool, frame)
	}
	if err := scanner.Err(); err != nil {
		return pool, fmt.Errorf("scan face pool: %w", err)
	}
	return pool, nil
}

// GenerateFrame synthesizes a size x size frame of random pixels.
func GenerateFrame(rng *rand.Rand, size int) types.Frame {
	frame := make(types.Frame, size)
	for y := range frame {
		row := make([]types.Pixel, size)
		for x := range row {
			row[x] = types.Pixel{rng.IntN(256), rng.IntN(256), rng.IntN(256)}
		}
		frame[y] = row
	}
	return frame
}
