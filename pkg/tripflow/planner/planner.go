// Package planner wires the trip-planning workflow: generate a travel
// plan with an LLM, store the trip, and record the completed trip on the
// user's profile. Each step commits its result before the next one runs,
// so a crashed run resumes from the last committed step.
package planner

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/tripflow/pkg/tripflow/config"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
	"github.com/randalmurphal/tripflow/pkg/tripflow/profile"
	"github.com/randalmurphal/tripflow/pkg/tripflow/trip"
	"github.com/randalmurphal/tripflow/pkg/tripflow/workflow"
)

// WorkflowName identifies trip-planning instances in the workflow store.
const WorkflowName = "trip-planning"

// Step names, stable across releases: they are persisted in workflow
// instances and resumed runs look steps up by name.
const (
	StepGeneratePlan      = "generate-plan"
	StepStoreTrip         = "store-trip"
	StepUpdateUserProfile = "update-user-profile"
)

// Intermediate workflow statuses committed between steps.
const (
	StatusPlanGenerated workflow.Status = "PLAN_GENERATED"
	StatusTripStored    workflow.Status = "TRIP_STORED"
)

// PlanState is the durable state of one trip-planning run. It is
// serialized into the workflow store after every step.
type PlanState struct {
	TripID      string           `json:"tripId"`
	UserID      string           `json:"userId"`
	Destination string           `json:"destination"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	Budget      float64          `json:"budget"`
	Plan        *trip.TravelPlan `json:"plan,omitempty"`
}

// PlanRequest starts a trip-planning run.
type PlanRequest struct {
	// TripID is the aggregate id for the new trip. Empty generates one.
	TripID      string
	UserID      string
	Destination string
	StartDate   string
	EndDate     string
	Budget      float64
}

// Planner runs trip-planning workflows against the profile and trip
// entity services.
type Planner struct {
	engine *workflow.Engine[PlanState]
	logger *slog.Logger
}

// New builds a Planner. The profile and trip services own entity
// persistence; the generator owns plan generation; instances persists
// workflow progress. Engine options (logger, metrics, spans, base
// context) pass through to the underlying engine.
func New(profiles *profile.Service, trips *trip.Service, gen PlanGenerator, instances workflow.Store, settings config.Settings, opts ...workflow.Option[PlanState]) (*Planner, error) {
	logger := slog.Default()

	def := workflow.Definition[PlanState]{
		Name: WorkflowName,
		Steps: []workflow.Step[PlanState]{
			{
				Name:    StepGeneratePlan,
				Timeout: settings.StepTimeout,
				Status:  StatusPlanGenerated,
				Run: func(ctx context.Context, st PlanState) (PlanState, error) {
					prof, err := profiles.GetProfile(ctx, st.UserID)
					if err != nil {
						return st, err
					}
					plan, err := gen.GeneratePlan(ctx, Request{
						UserName:             prof.Name,
						Destination:          st.Destination,
						StartDate:            st.StartDate,
						EndDate:              st.EndDate,
						Budget:               st.Budget,
						FormattedPreferences: FormatPreferences(prof.Preferences),
					})
					if err != nil {
						return st, err
					}
					st.Plan = &plan
					return st, nil
				},
			},
			{
				Name:   StepStoreTrip,
				Status: StatusTripStored,
				Run: func(ctx context.Context, st PlanState) (PlanState, error) {
					if st.Plan == nil {
						return st, &faults.ConfigurationError{Message: "plan missing from committed state"}
					}
					_, err := trips.Create(ctx, trip.CreateTrip{
						TripID:        st.TripID,
						UserID:        st.UserID,
						Destination:   st.Destination,
						StartDate:     st.StartDate,
						EndDate:       st.EndDate,
						Budget:        st.Budget,
						GeneratedPlan: *st.Plan,
					})
					return st, err
				},
			},
			{
				Name:   StepUpdateUserProfile,
				Status: workflow.StatusCompleted,
				Run: func(ctx context.Context, st PlanState) (PlanState, error) {
					_, err := profiles.AddCompletedTrip(ctx, st.UserID, st.TripID)
					return st, err
				},
			},
		},
		OnFailure: func(ctx context.Context, st PlanState) {
			logger.Error("trip planning failed",
				slog.String("trip_id", st.TripID),
				slog.String("user_id", st.UserID))
		},
		Retry: retryConfig(settings),
	}

	engine, err := workflow.NewEngine(def, instances, opts...)
	if err != nil {
		return nil, err
	}
	return &Planner{engine: engine, logger: logger}, nil
}

// StartPlanning begins a trip-planning run and returns the trip id, which
// doubles as the workflow instance id. Starting an id that already has a
// live or finished run fails with *faults.AlreadyStartedError.
func (p *Planner) StartPlanning(ctx context.Context, req PlanRequest) (string, error) {
	tripID := req.TripID
	if tripID == "" {
		tripID = uuid.NewString()
	}

	state := PlanState{
		TripID:      tripID,
		UserID:      req.UserID,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
	}
	if err := p.engine.Start(ctx, tripID, state); err != nil {
		return "", err
	}
	return tripID, nil
}

// GetStatus returns the persisted instance for a trip-planning run.
func (p *Planner) GetStatus(ctx context.Context, tripID string) (workflow.Instance, error) {
	return p.engine.GetState(ctx, tripID)
}

// Resume re-drives all non-terminal trip-planning runs, picking each up
// at its last committed step. Call once at process start.
func (p *Planner) Resume(ctx context.Context) error {
	return p.engine.Resume(ctx)
}

// Wait blocks until all in-flight runs reach a terminal status.
func (p *Planner) Wait() {
	p.engine.Wait()
}

func retryConfig(settings config.Settings) faults.RetryConfig {
	cfg := faults.DefaultRetry
	cfg.MaxAttempts = settings.RetryBudget + 1
	if settings.InitialBackoff > 0 {
		cfg.InitialBackoff = settings.InitialBackoff
	}
	return cfg
}
