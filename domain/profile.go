package domain

// UnknownDisplayName is shown when a participant cannot be resolved in any
// identity store.
const UnknownDisplayName = "Unknown User"

// ParticipantProfile is the display identity of a participant. It is derived
// on demand from the identity stores and never persisted by this subsystem.
type ParticipantProfile struct {
	ID          string
	DisplayName string
	Role        string
}

// SentinelProfile is the fallback identity used when resolution fails in
// every store. It keeps feed rendering alive in the face of one bad profile.
func SentinelProfile(participantID string) ParticipantProfile {
	return ParticipantProfile{ID: participantID, DisplayName: UnknownDisplayName}
}

// IsSentinel reports whether the profile is the unresolved fallback.
func (p ParticipantProfile) IsSentinel() bool {
	return p.DisplayName == UnknownDisplayName && p.Role == ""
}
