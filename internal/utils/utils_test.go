package utils

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moodhome/moodhome/internal/types"
)

func TestParseFrames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"single frame", `[[[1,2,3],[4,5,6]],[[7,8,9],[10,11,12]]]`, 1, false},
		{"face message", `{"faces":[[[[1,2,3]]],[[[4,5,6]]]],"count":2,"ts":"2024-05-01T12:00:00.000Z"}`, 2, false},
		{"empty face message", `{"faces":[],"count":0}`, 0, false},
		{"blank", "  \n", 0, true},
		{"garbage", "hello", 0, true},
		{"wrong shape", `[1,2,3]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := ParseFrames([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, types.ErrMalformedInput) {
					t.Errorf("expected ErrMalformedInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrames failed: %v", err)
			}
			if len(frames) != tt.want {
				t.Errorf("Expected %d frames, got %d", tt.want, len(frames))
			}
		})
	}
}

func TestReadFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.json")
	if err := os.WriteFile(path, []byte(`[[[0,0,0]]]`), 0644); err != nil {
		t.Fatal(err)
	}

	frames, err := ReadFrames(path)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 1 || frames[0][0][0] != (types.Pixel{0, 0, 0}) {
		t.Errorf("Unexpected frames: %v", frames)
	}

	if _, err := ReadFrames(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(bufio.NewReader(strings.NewReader(tt.answer)), &out, "Drop everything?")
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.answer, got, tt.want)
		}
		if !strings.Contains(out.String(), "Drop everything? [y/N]: ") {
			t.Errorf("Prompt not written, got %q", out.String())
		}
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	writeError(&buf, "Failed to connect", errors.New("refused"))

	out := buf.String()
	if !strings.Contains(out, "MOODHOME ERROR: Failed to connect") {
		t.Errorf("Missing context line in %q", out)
	}
	if !strings.Contains(out, "DETAILS: refused") {
		t.Errorf("Missing details line in %q", out)
	}
}
