package bus

import "strings"

// Topics builds the room-scoped topic names under one prefix.
type Topics struct {
	Prefix string
}

func (t Topics) room(room, suffix string) string {
	return t.Prefix + "/" + room + "/" + suffix
}

// Face is the retained face camera state.
func (t Topics) Face(room string) string { return t.room(room, "face") }

// FaceCmd carries sync commands for the face camera.
func (t Topics) FaceCmd(room string) string { return t.room(room, "face/cmd") }

// Motion carries the room's motion sensor state.
func (t Topics) Motion(room string) string { return t.room(room, "motion") }

// FaceData is the resolver input for one room.
func (t Topics) FaceData(room string) string { return t.room(room, "faceData") }

// FaceNames is the resolver output for one room.
func (t Topics) FaceNames(room string) string { return t.room(room, "FaceNames") }

// MoodIn is the aggregator input for one room.
func (t Topics) MoodIn(room string) string { return t.room(room, "mood/in") }

// MoodOut is the aggregator output for one room.
func (t Topics) MoodOut(room string) string { return t.room(room, "mood/out") }

// AnyFaceData matches FaceData for every room.
func (t Topics) AnyFaceData() string { return t.FaceData("+") }

// AnyMoodIn matches MoodIn for every room.
func (t Topics) AnyMoodIn() string { return t.MoodIn("+") }

// RoomOf returns the room segment of a topic, or "unknown" when there is none.
func RoomOf(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[1] == "" {
		return "unknown"
	}
	return parts[1]
}
