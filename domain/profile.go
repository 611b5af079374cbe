package domain

// ParticipantID is the roster key, kept as the textual form found in the roster file.
type ParticipantID string

const (
	PlaceholderName   = "---"
	PlaceholderAvatar = "assets/avatar.png"
)

// Profile is what the renderer shows for a participant besides its metrics.
// It is resolved once and never re-fetched while the process runs.
type Profile struct {
	ID          ParticipantID
	DisplayName string
	AvatarPath  string
}

// RemoteProfile is the raw result of scraping a profile page.
type RemoteProfile struct {
	DisplayName string
	AvatarURL   string
}

func PlaceholderProfile(id ParticipantID) Profile {
	return Profile{ID: id, DisplayName: PlaceholderName, AvatarPath: PlaceholderAvatar}
}
