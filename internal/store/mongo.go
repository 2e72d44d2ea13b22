package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/moodhome/moodhome/internal/types"
)

// Default MongoDB names.
const (
	DefaultDatabase       = "smarthome"
	DefaultFaceCollection = "faces"
	DefaultMoodCollection = "moods"
)

// faceDoc is one document of the faces collection.
type faceDoc struct {
	FaceHash string `bson:"face_hash"`
	Name     string `bson:"name,omitempty"`
	UserID   string `bson:"user_id,omitempty"`
}

// moodDoc is one document of the moods collection: a user's setpoint per mood.
type moodDoc struct {
	UserID string                    `bson:"user_id"`
	Moods  map[string]types.Setpoint `bson:"moods"`
}

// Mongo stores identities and mood profiles in two MongoDB collections.
type Mongo struct {
	client *mongo.Client
	faces  *mongo.Collection
	moods  *mongo.Collection
}

// NewMongo connects to uri and pings the primary. Empty names fall back to the defaults.
func NewMongo(ctx context.Context, uri, database, faceColl, moodColl string) (*Mongo, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if faceColl == "" {
		faceColl = DefaultFaceCollection
	}
	if moodColl == "" {
		moodColl = DefaultMoodCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}

	db := client.Database(database)
	return &Mongo{
		client: client,
		faces:  db.Collection(faceColl),
		moods:  db.Collection(moodColl),
	}, nil
}

// Close disconnects the client.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// LookupIdentities runs one $in query over face_hash.
func (s *Mongo) LookupIdentities(ctx context.Context, digests []types.Digest) (map[types.Digest]types.Identity, error) {
	out := make(map[types.Digest]types.Identity, len(digests))
	if len(digests) == 0 {
		return out, nil
	}

	filter := bson.M{"face_hash": bson.M{"$in": digestStrings(digests)}}
	opts := options.Find().SetProjection(bson.M{"_id": 0, "face_hash": 1, "name": 1, "user_id": 1})
	cur, err := s.faces.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var docs []faceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		d := types.Digest(doc.FaceHash)
		out[d] = types.Identity{Digest: d, DisplayName: doc.Name, UserID: doc.UserID}
	}
	return out, nil
}

// LookupProfile finds the user's moods document.
func (s *Mongo) LookupProfile(ctx context.Context, userID string) (types.Profile, error) {
	var doc moodDoc
	err := s.moods.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(doc.Moods) == 0 {
		return nil, nil
	}

	profile := make(types.Profile, len(doc.Moods))
	for mood, sp := range doc.Moods {
		profile[types.Mood(mood)] = sp
	}
	return profile, nil
}

// UpsertIdentity sets name (and user_id when given) on the document for id.Digest.
func (s *Mongo) UpsertIdentity(ctx context.Context, id types.Identity) error {
	set := bson.M{"name": id.DisplayName}
	if id.UserID != "" {
		set["user_id"] = id.UserID
	}
	_, err := s.faces.UpdateOne(ctx,
		bson.M{"face_hash": string(id.Digest)},
		bson.M{"$set": set},
		options.Update().SetUpsert(true))
	return err
}

// RenameIdentity updates the name of an existing document.
func (s *Mongo) RenameIdentity(ctx context.Context, digest types.Digest, name string) error {
	res, err := s.faces.UpdateOne(ctx,
		bson.M{"face_hash": string(digest)},
		bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("identity %s: %w", digest, ErrNotFound)
	}
	return nil
}

// ListIdentities returns every face document in insertion order.
func (s *Mongo) ListIdentities(ctx context.Context) ([]types.Identity, error) {
	cur, err := s.faces.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []faceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]types.Identity, 0, len(docs))
	for _, doc := range docs {
		out = append(out, types.Identity{Digest: types.Digest(doc.FaceHash), DisplayName: doc.Name, UserID: doc.UserID})
	}
	return out, nil
}

// UpsertProfile sets moods.<mood> on the user's document.
func (s *Mongo) UpsertProfile(ctx context.Context, userID string, mood types.Mood, sp types.Setpoint) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	_, err := s.moods.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"moods." + string(mood): sp}},
		options.Update().SetUpsert(true))
	return err
}

// Reset drops both collections.
func (s *Mongo) Reset(ctx context.Context) error {
	if err := s.faces.Drop(ctx); err != nil {
		return err
	}
	return s.moods.Drop(ctx)
}
