// Package profile implements the event-sourced user profile aggregate:
// identity, travel preferences, and the history of completed trips.
package profile

// PreferenceType classifies a travel preference.
type PreferenceType string

// Preference types a user can specify.
const (
	PreferenceAccommodation  PreferenceType = "ACCOMMODATION"
	PreferenceTransportation PreferenceType = "TRANSPORTATION"
	PreferenceCuisine        PreferenceType = "CUISINE"
	PreferenceActivity       PreferenceType = "ACTIVITY"
	PreferenceClimate        PreferenceType = "CLIMATE"
	PreferenceBudgetRange    PreferenceType = "BUDGET_RANGE"
)

// Preference is one user travel preference.
type Preference struct {
	Type     PreferenceType `json:"type"`
	Value    string         `json:"value"`
	Priority int            `json:"priority"`
}

// UserProfile is the projected state of one user profile aggregate.
// UserID is immutable once created; Name and Email are non-empty whenever
// the profile exists.
type UserProfile struct {
	UserID      string       `json:"user_id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Preferences []Preference `json:"preferences"`
	PastTripIDs []string     `json:"past_trip_ids"`
}

// withNameAndEmail returns a copy with updated identity fields.
func (p UserProfile) withNameAndEmail(name, email string) UserProfile {
	p.Name = name
	p.Email = email
	return p
}

// withPreference returns a copy with the preference appended.
// The preference list is append-only; duplicates are kept.
func (p UserProfile) withPreference(pref Preference) UserProfile {
	prefs := make([]Preference, len(p.Preferences), len(p.Preferences)+1)
	copy(prefs, p.Preferences)
	p.Preferences = append(prefs, pref)
	return p
}

// withPastTrip returns a copy with the trip id appended to history.
func (p UserProfile) withPastTrip(tripID string) UserProfile {
	trips := make([]string, len(p.PastTripIDs), len(p.PastTripIDs)+1)
	copy(trips, p.PastTripIDs)
	p.PastTripIDs = append(trips, tripID)
	return p
}
