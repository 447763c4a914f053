package profile

import (
	"fmt"

	"github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
)

// Apply folds one profile event into the current state.
// It is the aggregate's entity.ApplyFunc: pure, deterministic, and fatal on
// an event kind it does not know.
func Apply(state *UserProfile, evt eventlog.Event) (*UserProfile, error) {
	switch evt.Kind {
	case KindProfileCreated:
		var p ProfileCreatedPayload
		if err := evt.Decode(&p); err != nil {
			return nil, &faults.ConfigurationError{
				Message: fmt.Sprintf("decode %s payload: %v", evt.Kind, err),
			}
		}
		return &UserProfile{
			UserID:      p.UserID,
			Name:        p.Name,
			Email:       p.Email,
			Preferences: []Preference{},
			PastTripIDs: []string{},
		}, nil

	case KindProfileUpdated:
		var p ProfileUpdatedPayload
		if err := evt.Decode(&p); err != nil {
			return nil, &faults.ConfigurationError{
				Message: fmt.Sprintf("decode %s payload: %v", evt.Kind, err),
			}
		}
		next := state.withNameAndEmail(p.Name, p.Email)
		return &next, nil

	case KindPreferenceAdded:
		var p PreferenceAddedPayload
		if err := evt.Decode(&p); err != nil {
			return nil, &faults.ConfigurationError{
				Message: fmt.Sprintf("decode %s payload: %v", evt.Kind, err),
			}
		}
		next := state.withPreference(p.Preference)
		return &next, nil

	case KindTripCompleted:
		var p TripCompletedPayload
		if err := evt.Decode(&p); err != nil {
			return nil, &faults.ConfigurationError{
				Message: fmt.Sprintf("decode %s payload: %v", evt.Kind, err),
			}
		}
		next := state.withPastTrip(p.TripID)
		return &next, nil

	default:
		return nil, &faults.ConfigurationError{
			Message: fmt.Sprintf("unknown user profile event kind: %s", evt.Kind),
		}
	}
}
