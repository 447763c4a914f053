// Package trip implements the event-sourced trip aggregate: a planned trip,
// its generated travel plan, and the monotonic PLANNED -> BOOKED -> COMPLETED
// status lifecycle.
package trip

// Status is the lifecycle status of a trip.
// Transitions are monotonic: PLANNED -> BOOKED -> COMPLETED.
type Status string

// Trip statuses.
const (
	StatusPlanned   Status = "PLANNED"
	StatusBooked    Status = "BOOKED"
	StatusCompleted Status = "COMPLETED"
)

// Trip is the projected state of one trip aggregate.
// GeneratedPlan is present from creation on (status >= PLANNED).
type Trip struct {
	TripID        string      `json:"trip_id"`
	UserID        string      `json:"user_id"`
	Destination   string      `json:"destination"`
	StartDate     string      `json:"start_date"`
	EndDate       string      `json:"end_date"`
	Budget        float64     `json:"budget"`
	GeneratedPlan *TravelPlan `json:"generated_plan,omitempty"`
	Status        Status      `json:"status"`
}

// withPlan returns a copy with the generated plan replaced. Status unchanged.
func (t Trip) withPlan(plan TravelPlan) Trip {
	t.GeneratedPlan = &plan
	return t
}

// withStatus returns a copy with the status replaced.
func (t Trip) withStatus(status Status) Trip {
	t.Status = status
	return t
}

// TravelPlan is a generated day-by-day itinerary. Pure value data with no
// independent lifecycle.
type TravelPlan struct {
	Summary            string    `json:"summary"`
	TotalEstimatedCost float64   `json:"totalEstimatedCost"`
	Days               []DayPlan `json:"days"`
}

// DayPlan is one day of a travel plan.
type DayPlan struct {
	DayNumber          int              `json:"dayNumber"`
	Date               string           `json:"date"`
	Accommodation      Accommodation    `json:"accommodation"`
	Transportation     []Transportation `json:"transportation"`
	Activities         []Activity       `json:"activities"`
	Meals              []Meal           `json:"meals"`
	DailyEstimatedCost float64          `json:"dailyEstimatedCost"`
}

// Accommodation is a lodging suggestion for one day.
type Accommodation struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// Transportation is one leg of travel within a day.
type Transportation struct {
	Type          string  `json:"type"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// Activity is a suggested activity with a time of day.
type Activity struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimatedCost"`
	TimeOfDay     string  `json:"timeOfDay"`
}

// Meal is a meal suggestion.
type Meal struct {
	Type          string  `json:"type"`
	Suggestion    string  `json:"suggestion"`
	EstimatedCost float64 `json:"estimatedCost"`
}
