package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moodhome/moodhome/internal/facecam"
)

// SensorTypeFacecam marks the face camera entry in a room file.
const SensorTypeFacecam = "facecam"

// RoomFile is one room definition. JSON files are read as YAML.
type RoomFile struct {
	Room    string   `yaml:"room"`
	Sensors []Sensor `yaml:"sensors"`
}

// Sensor is one simulated device in a room. Fields a sensor type does not use are ignored.
type Sensor struct {
	Type       string   `yaml:"type"`
	IntervalMs *int     `yaml:"intervalMs"`
	PAdd       *float64 `yaml:"pAdd"`
	PRemove    *float64 `yaml:"pRemove"`
	MaxFaces   *int     `yaml:"maxFaces"`
	CamRes     *int     `yaml:"camRes"`
	PNewFace   *float64 `yaml:"pNewFace"`
}

// FaceCam returns the room's camera settings with defaults for anything left out.
// ok is false when the room has no facecam sensor.
func (r RoomFile) FaceCam() (cfg facecam.Config, ok bool) {
	cfg = facecam.DefaultConfig()
	for _, s := range r.Sensors {
		if s.Type != SensorTypeFacecam {
			continue
		}
		if s.IntervalMs != nil {
			cfg.Interval = time.Duration(*s.IntervalMs) * time.Millisecond
		}
		if s.PAdd != nil {
			cfg.PAdd = *s.PAdd
		}
		if s.PRemove != nil {
			cfg.PRemove = *s.PRemove
		}
		if s.MaxFaces != nil {
			cfg.MaxFaces = *s.MaxFaces
		}
		if s.CamRes != nil {
			cfg.CamRes = *s.CamRes
		}
		if s.PNewFace != nil {
			cfg.PNewFace = *s.PNewFace
		}
		return cfg, true
	}
	return cfg, false
}

// Room is a camera ready to be started.
type Room struct {
	Name   string
	Source string
	Camera facecam.Config
}

// ValidateCamera rejects settings the simulator cannot run with.
func ValidateCamera(c facecam.Config) error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("intervalMs must be positive, got %v", c.Interval))
	}
	for name, p := range map[string]float64{"pAdd": c.PAdd, "pRemove": c.PRemove, "pNewFace": c.PNewFace} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, p))
		}
	}
	if c.MaxFaces < 0 {
		errs = append(errs, fmt.Errorf("maxFaces must not be negative, got %d", c.MaxFaces))
	}
	if c.CamRes <= 0 {
		errs = append(errs, fmt.Errorf("camRes must be positive, got %d", c.CamRes))
	}
	return errors.Join(errs...)
}

// LoadRoomFile reads and parses one room definition.
func LoadRoomFile(path string) (*RoomFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read room file: %w", err)
	}

	var rf RoomFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse room file %s: %w", path, err)
	}
	if rf.Room == "" {
		rf.Room = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &rf, nil
}

// LoadRooms reads every *.json, *.yaml and *.yml file in dir and returns the rooms that have a
// face camera, sorted by name.
func LoadRooms(dir string, logger *slog.Logger) ([]Room, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms dir: %w", err)
	}

	seen := make(map[string]string)
	var rooms []Room
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}

		path := filepath.Join(dir, e.Name())
		rf, err := LoadRoomFile(path)
		if err != nil {
			return nil, err
		}
		cam, ok := rf.FaceCam()
		if !ok {
			logger.Warn("no facecam sensor in room file, skipping", "room", rf.Room, "file", path)
			continue
		}
		if err := ValidateCamera(cam); err != nil {
			return nil, fmt.Errorf("room %s (%s): %w", rf.Room, path, err)
		}
		if prev, dup := seen[rf.Room]; dup {
			return nil, fmt.Errorf("room %s defined in both %s and %s", rf.Room, prev, path)
		}
		seen[rf.Room] = path
		rooms = append(rooms, Room{Name: rf.Room, Source: path, Camera: cam})
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms, nil
}
