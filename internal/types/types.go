package types

// Pixel is one RGB triple. Values are nominally 0-255; hashing only looks at the low 8 bits.
type Pixel [3]int

// Frame is a simulated camera capture: Frame[y][x] = [r, g, b].
// Frames are treated as immutable once produced.
type Frame [][]Pixel

// Digest is the 8 character lowercase hex content address of a Frame.
type Digest string

// Mood is the per-identity mood assigned by the resolver.
type Mood string

const (
	MoodRelax    Mood = "relax"
	MoodFocus    Mood = "focus"
	MoodSleep    Mood = "sleep"
	MoodEnergize Mood = "energize"
)

// Moods lists every mood in sampling order.
var Moods = []Mood{MoodRelax, MoodFocus, MoodSleep, MoodEnergize}

// Identity matches a stored record for a face digest.
// Empty DisplayName or UserID means the record did not carry that field.
type Identity struct {
	Digest      Digest
	DisplayName string
	UserID      string
}

// Setpoint is the environmental target a user prefers for one mood.
// Nil fields were absent in the stored profile.
type Setpoint struct {
	TempC      *float64 `json:"temp_c" bson:"temp_c"`
	TempK      *float64 `json:"temp_k" bson:"temp_k"`
	Luminosity *float64 `json:"luminosity" bson:"luminosity"`
}

// Complete reports whether all three values are present.
func (s Setpoint) Complete() bool {
	return s.TempC != nil && s.TempK != nil && s.Luminosity != nil
}

// Profile maps each mood to the user's setpoint for it.
type Profile map[Mood]Setpoint

// Aggregate is the averaged setpoint published for a room.
type Aggregate struct {
	TempC      float64 `json:"temp_c"`
	TempK      int     `json:"temp_k"`
	Luminosity int     `json:"luminosity"`
}
