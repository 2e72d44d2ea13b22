// Package store holds the identity records and mood profiles read by the pipeline.
//
// Two backends are available. Postgres keeps both in tables that are created on connect.
// MongoDB keeps them in the faces and moods collections.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/moodhome/moodhome/internal/types"
)

// ErrNotFound is returned by admin operations addressing a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Store is everything the pipeline and the admin commands need from a backend.
type Store interface {
	// LookupIdentities returns the stored identity for every digest that has one.
	LookupIdentities(ctx context.Context, digests []types.Digest) (map[types.Digest]types.Identity, error)
	// LookupProfile returns the user's mood profile, or nil when the user has none.
	LookupProfile(ctx context.Context, userID string) (types.Profile, error)

	// UpsertIdentity creates or replaces the record for id.Digest. An empty UserID keeps the stored one.
	UpsertIdentity(ctx context.Context, id types.Identity) error
	// RenameIdentity changes the name of an existing record.
	RenameIdentity(ctx context.Context, digest types.Digest, name string) error
	ListIdentities(ctx context.Context) ([]types.Identity, error)
	// UpsertProfile sets one mood entry of a user's profile.
	UpsertProfile(ctx context.Context, userID string, mood types.Mood, sp types.Setpoint) error
	// Reset drops every table or collection owned by the store.
	Reset(ctx context.Context) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	URL            string
	Database       string // MongoDB only
	FaceCollection string // MongoDB only
	MoodCollection string // MongoDB only
}

// Open connects to the backend named by the URL scheme and checks it is reachable.
func Open(ctx context.Context, o Options) (Store, error) {
	scheme, _, ok := strings.Cut(o.URL, "://")
	if !ok {
		return nil, fmt.Errorf("store url %q has no scheme", Redact(o.URL))
	}

	switch scheme {
	case "postgres", "postgresql":
		s, err := NewPostgres(ctx, o.URL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongodb", "mongodb+srv":
		s, err := NewMongo(ctx, o.URL, o.Database, o.FaceCollection, o.MoodCollection)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", scheme)
	}
}

// Redact hides credentials in a connection URL before it is logged.
func Redact(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return "***" + url[at:]
	}
	return scheme + "://***" + url[at:]
}

func digestStrings(digests []types.Digest) []string {
	out := make([]string, len(digests))
	for i, d := range digests {
		out[i] = string(d)
	}
	return out
}
