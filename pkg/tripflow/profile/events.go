package profile

import "github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"

// Event kinds for the user profile aggregate. The kind tags are stable
// serialization identifiers; changing one requires an event migration.
const (
	KindProfileCreated  eventlog.Kind = "user-profile-created"
	KindProfileUpdated  eventlog.Kind = "user-profile-updated"
	KindPreferenceAdded eventlog.Kind = "travel-preference-added"
	KindTripCompleted   eventlog.Kind = "user-trip-completed"
)

// ProfileCreatedPayload captures the payload for user-profile-created events.
type ProfileCreatedPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// ProfileUpdatedPayload captures the payload for user-profile-updated events.
type ProfileUpdatedPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// PreferenceAddedPayload captures the payload for travel-preference-added events.
type PreferenceAddedPayload struct {
	UserID     string     `json:"user_id"`
	Preference Preference `json:"preference"`
}

// TripCompletedPayload captures the payload for user-trip-completed events.
type TripCompletedPayload struct {
	UserID string `json:"user_id"`
	TripID string `json:"trip_id"`
}
