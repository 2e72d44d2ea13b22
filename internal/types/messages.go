package types

// FaceState is the retained state published by a room's face camera.
type FaceState struct {
	Faces []Frame `json:"faces"`
	Count int     `json:"count"`
	TS    string  `json:"ts"`
}

// FaceCommand asks an idle camera to resynchronize its visible faces.
type FaceCommand struct {
	Faces []Frame `json:"faces"`
	TS    string  `json:"ts,omitempty"`
}

// MotionSignal is published by the room's motion sensor.
type MotionSignal struct {
	Motion *bool `json:"motion"`
}

// FaceBatch is a set of frames to identify. Count is optional.
type FaceBatch struct {
	Faces []Frame `json:"faces"`
	Count *int    `json:"count,omitempty"`
}

// UserMood pairs a resolved user with their current mood.
type UserMood struct {
	ID   string `json:"id"`
	Mood Mood   `json:"mood"`
}

// FaceNames is the resolver output for one batch. Names[i] and UserMoods[i] belong to frame i.
type FaceNames struct {
	Room      string     `json:"room"`
	Names     []string   `json:"names"`
	UserMoods []UserMood `json:"user_moods"`
	Count     int        `json:"count"`
	TS        int64      `json:"ts"`
}
