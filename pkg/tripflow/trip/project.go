package trip

import (
	"fmt"

	"github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
)

// Apply folds one trip event into the current state.
// It is the aggregate's entity.ApplyFunc: pure, deterministic, and fatal on
// an event kind it does not know.
func Apply(state *Trip, evt eventlog.Event) (*Trip, error) {
	switch evt.Kind {
	case KindTripCreated:
		var p TripCreatedPayload
		if err := evt.Decode(&p); err != nil {
			return nil, &faults.ConfigurationError{
				Message: fmt.Sprintf("decode %s payload: %v", evt.Kind, err),
			}
		}
		plan := p.GeneratedPlan
		return &Trip{
			TripID:        p.TripID,
			UserID:        p.UserID,
			Destination:   p.Destination,
			StartDate:     p.StartDate,
			EndDate:       p.EndDate,
			Budget:        p.Budget,
			GeneratedPlan: &plan,
			Status:        StatusPlanned,
		}, nil

	case KindTripPlanUpdated:
		var p TripPlanUpdatedPayload
		if err := evt.Decode(&p); err != nil {
			return nil, &faults.ConfigurationError{
				Message: fmt.Sprintf("decode %s payload: %v", evt.Kind, err),
			}
		}
		next := state.withPlan(p.GeneratedPlan)
		return &next, nil

	case KindTripBooked:
		next := state.withStatus(StatusBooked)
		return &next, nil

	case KindTripCompleted:
		next := state.withStatus(StatusCompleted)
		return &next, nil

	default:
		return nil, &faults.ConfigurationError{
			Message: fmt.Sprintf("unknown trip event kind: %s", evt.Kind),
		}
	}
}
