package utils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moodhome/moodhome/internal/types"
)

// --- 1. Error Reporting ---

// ShowError prints a formatted error box to stderr.
func ShowError(context string, err error) {
	writeError(os.Stderr, context, err)
}

// Die is the unified exit strategy for the admin commands.
// It prints the error box and exits with status 1.
func Die(context string, err error) {
	ShowError(context, err)
	os.Exit(1)
}

func writeError(w io.Writer, context string, err error) {
	fmt.Fprintf(w, "\n---------------------------------------------------------\n")
	fmt.Fprintf(w, "🚨 MOODHOME ERROR: %s\n", context)
	if err != nil {
		fmt.Fprintf(w, "DETAILS: %v\n", err)
	}
	fmt.Fprintf(w, "---------------------------------------------------------\n")
}

// --- 2. Prompts ---

// Confirm asks a yes/no question on w and reads the answer from r. Anything but y/yes is a no.
func Confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

// --- 3. Frame Files (Shared by Find & Hash) ---

// ReadFrames loads frames from a JSON file holding either a single frame (rows of [r,g,b]) or a
// face message with a "faces" array, as published on the face topic.
func ReadFrames(path string) ([]types.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFrames(data)
}

// ParseFrames decodes the formats accepted by ReadFrames.
func ParseFrames(data []byte) ([]types.Frame, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame file", types.ErrMalformedInput)
	}

	if data[0] == '{' {
		var msg struct {
			Faces []types.Frame `json:"faces"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		return msg.Faces, nil
	}

	var frame types.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	return []types.Frame{frame}, nil
}
