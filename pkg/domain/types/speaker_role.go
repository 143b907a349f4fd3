package types

// SpeakerRole classifies who produced a transcript entry
type SpeakerRole string

const (
	SpeakerRoleCoach  SpeakerRole = "coach"
	SpeakerRoleClient SpeakerRole = "client"
)

// String returns the string representation of the role
func (r SpeakerRole) String() string {
	return string(r)
}
