package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/moodhome/moodhome/internal/config"
	"github.com/moodhome/moodhome/internal/facehash"
	"github.com/moodhome/moodhome/internal/store"
	"github.com/moodhome/moodhome/internal/types"
)

func TestParseProfileArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"valid", []string{"relax", "22", "295", "40"}, false},
		{"decimal", []string{"focus", "21.5", "294.5", "80.5"}, false},
		{"unknown mood", []string{"happy", "22", "295", "40"}, true},
		{"bad number", []string{"sleep", "warm", "292", "5"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mood, sp, err := parseProfileArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseProfileArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if string(mood) != tt.args[0] {
				t.Errorf("mood = %s, want %s", mood, tt.args[0])
			}
			if !sp.Complete() {
				t.Errorf("expected a complete setpoint, got %+v", sp)
			}
		})
	}
}

func TestDefaultSetpointsUseKelvin(t *testing.T) {
	for _, mood := range types.Moods {
		v, ok := defaultSetpoints[mood]
		if !ok {
			t.Fatalf("no default setpoint for %s", mood)
		}
		if v[1] != v[0]+273 {
			t.Errorf("%s: temp_k = %v, want temp_c+273 = %v", mood, v[1], v[0]+273)
		}
	}
}

func TestPrintIdentities(t *testing.T) {
	var buf bytes.Buffer
	printIdentities(&buf, []types.Identity{
		{Digest: "0a1b2c3d", DisplayName: "Alice", UserID: "u-alice"},
		{Digest: "ffff0000"},
	})

	out := buf.String()
	for _, want := range []string{"FACE HASH", "0a1b2c3d", "Alice", "u-alice", "ffff0000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Errorf("Expected header, rule and 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[3], "-") {
		t.Errorf("Empty fields should render as '-', got %q", lines[3])
	}
}

func TestPrintDigests(t *testing.T) {
	frames := []types.Frame{{{{0, 0, 0}}}, {{{1, 2, 3}}}}
	var buf bytes.Buffer
	printDigests(&buf, frames)

	want := string(facehash.Hash(frames[0])) + "\n" + string(facehash.Hash(frames[1])) + "\n"
	if buf.String() != want {
		t.Errorf("printDigests() = %q, want %q", buf.String(), want)
	}
	if !strings.HasPrefix(buf.String(), "4ab0f7b7") {
		t.Errorf("Unexpected digest for a black pixel: %q", buf.String())
	}
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&flagBroker, "broker", "", "")
	cmd.Flags().StringVar(&flagPrefix, "prefix", "", "")
	cmd.Flags().StringVar(&flagStore, "store", "", "")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "")
	cmd.Flags().StringVar(&flagLogFormat, "log-format", "", "")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "")
	if err := cmd.Flags().Parse([]string{"--broker", "tcp://broker:1883", "--store", "mongodb://db:27017"}); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{BrokerURL: "tcp://localhost:1883", TopicPrefix: "homeA", LogLevel: "info"}
	applyFlags(cmd, cfg)

	if cfg.BrokerURL != "tcp://broker:1883" {
		t.Errorf("BrokerURL = %s", cfg.BrokerURL)
	}
	if cfg.StoreURL != "mongodb://db:27017" {
		t.Errorf("StoreURL = %s", cfg.StoreURL)
	}
	if cfg.TopicPrefix != "homeA" || cfg.LogLevel != "info" {
		t.Errorf("Unset flags must not override the environment, got %+v", cfg)
	}
}

func TestStoreCommandsAreAnnotated(t *testing.T) {
	for _, c := range []*cobra.Command{resolverCmd, aggregatorCmd, enrollCmd, labelCmd, listCmd, findCmd, profileCmd, resetCmd} {
		if _, ok := c.Annotations[annotationStore]; !ok {
			t.Errorf("%s should require the store", c.Name())
		}
	}
	for _, c := range []*cobra.Command{facecamCmd, hashCmd} {
		if _, ok := c.Annotations[annotationStore]; ok {
			t.Errorf("%s should not require the store", c.Name())
		}
	}
}

// TestEnrollPersistence runs enroll against a real Postgres and checks the resolver's lookup sees
// every enrolled face.
func TestEnrollPersistence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// Explicitly check for Docker availability and fail hard if missing
	// We wrap this in a function to recover from panics inside testcontainers (e.g. socket not found)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Fatalf("Docker not available, cannot run integration test: %v", err)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("moodhome_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(noopLogger{}),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, _ := pgContainer.ConnectionString(ctx, "sslmode=disable")
	db, err := store.Open(ctx, store.Options{URL: connStr})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close(ctx)

	// Three distinct faces and one duplicate line
	frames := []string{`[[[1,2,3]]]`, `[[[4,5,6]]]`, `[[[7,8,9]]]`, `[[[1,2,3]]]`}
	facesFile := filepath.Join(t.TempDir(), "faces.txt")
	if err := os.WriteFile(facesFile, []byte(strings.Join(frames, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	namesFile := filepath.Join(t.TempDir(), "names.txt")
	if err := os.WriteFile(namesFile, []byte("Alice\nBob\n"), 0644); err != nil {
		t.Fatal(err)
	}

	DB = db
	Cfg = &config.Config{FacesFile: facesFile}
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	enrollNamesFile, enrollWithProfiles = namesFile, true
	defer func() { DB, Cfg, enrollNamesFile, enrollWithProfiles = nil, nil, "", false }()

	// Silence the progress bar and summary
	oldStdout, oldStderr := os.Stdout, os.Stderr
	devNull, _ := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	os.Stdout, os.Stderr = devNull, devNull
	runEnroll(ctx)
	os.Stdout, os.Stderr = oldStdout, oldStderr
	devNull.Close()

	identities, err := db.ListIdentities(ctx)
	if err != nil {
		t.Fatalf("ListIdentities failed: %v", err)
	}
	if len(identities) != 3 {
		t.Fatalf("Expected 3 identities (duplicate skipped), got %d", len(identities))
	}

	d := facehash.Hash(types.Frame{{{1, 2, 3}}})
	got, err := db.LookupIdentities(ctx, []types.Digest{d})
	if err != nil {
		t.Fatalf("LookupIdentities failed: %v", err)
	}
	if got[d].DisplayName != "Alice" || got[d].UserID != "user-1" {
		t.Errorf("Unexpected record for first face: %+v", got[d])
	}

	profile, err := db.LookupProfile(ctx, "user-3")
	if err != nil {
		t.Fatalf("LookupProfile failed: %v", err)
	}
	if len(profile) != len(types.Moods) || !profile[types.MoodSleep].Complete() {
		t.Errorf("Expected a complete default profile, got %+v", profile)
	}
}

type noopLogger struct{}

func (n noopLogger) Printf(format string, v ...interface{}) {}
