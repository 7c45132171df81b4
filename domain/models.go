package domain

// Question is one item served by a content provider.
type Question struct {
	Text     string
	Answer   string
	Category string
}

// Post is one ranked entry from a top-post source.
type Post struct {
	Title  string
	URL    string
	Mature bool
}

// RoomSettings is the per-room configuration persisted across restarts.
// Session state itself is never persisted.
type RoomSettings struct {
	RoomID           string
	AllowMature      bool
	TriviaCategory   string
	TriviaDifficulty string
	WordlistPack     string
}

// DefaultRoomSettings are used when a room has never been configured or
// the settings store is unreachable.
func DefaultRoomSettings(roomID string) RoomSettings {
	return RoomSettings{
		RoomID:           roomID,
		AllowMature:      false,
		TriviaDifficulty: "medium",
		WordlistPack:     "standard",
	}
}
