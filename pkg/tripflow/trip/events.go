package trip

import "github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"

// Event kinds for the trip aggregate. The kind tags are stable
// serialization identifiers; changing one requires an event migration.
const (
	KindTripCreated     eventlog.Kind = "trip-created"
	KindTripPlanUpdated eventlog.Kind = "trip-plan-updated"
	KindTripBooked      eventlog.Kind = "trip-booked"
	KindTripCompleted   eventlog.Kind = "trip-completed"
)

// TripCreatedPayload captures the payload for trip-created events.
type TripCreatedPayload struct {
	TripID        string     `json:"trip_id"`
	UserID        string     `json:"user_id"`
	Destination   string     `json:"destination"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Budget        float64    `json:"budget"`
	GeneratedPlan TravelPlan `json:"generated_plan"`
}

// TripPlanUpdatedPayload captures the payload for trip-plan-updated events.
type TripPlanUpdatedPayload struct {
	TripID        string     `json:"trip_id"`
	GeneratedPlan TravelPlan `json:"generated_plan"`
}

// TripBookedPayload captures the payload for trip-booked events.
type TripBookedPayload struct {
	TripID string `json:"trip_id"`
}

// TripCompletedPayload captures the payload for trip-completed events.
type TripCompletedPayload struct {
	TripID string `json:"trip_id"`
}
